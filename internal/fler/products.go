package fler

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// Product list filters and sort keys understood by /seller/products/list.
const (
	StatusAvailable = "STATUS_AVAILABLE"
	SortName        = "NAME"
	SortTopDate     = "TOP_DATE"
)

// DefaultProductFields is requested when a query names no fields. It covers
// every attribute used downstream, including is_topable and ts_top.
var DefaultProductFields = []string{
	"title",
	"variant_share_main_photo",
	"description",
	"price",
	"stock",
	"stock_unit",
	"delivery",
	"post1",
	"post2",
	"category",
	"sell_to_eu",
	"is_visible",
	"sellcategory",
	"intern_code",
	"keywords_tech",
	"keywords_mat",
	"keywords_tag",
	"colors",
	"product_weight",
	"product_vat_mode",
	"quicksell",
	"note_text",
	"note_flag",
	"reserve_for_username",
	"reserve_for_uid",
	"is_variant",
	"is_variant_master",
	"id_variant_master",
	"provision_pct",
	"is_cool",
	"is_craft",
	"ts_top",
	"ts_ins",
	"url",
	"currency",
	"photo_main",
	"photo_other",
	"is_topable",
	"other_currencies",
}

// ProductQuery selects products from the seller's catalogue.
type ProductQuery struct {
	// ID fetches a single product; all other filters are ignored.
	ID       string
	Fields   []string
	Status   string // default StatusAvailable
	Sort     string // default SortName
	Reverse  bool   // reverse the server's order client-side
	Extended bool   // request extended_info
}

// Values encodes the query parameters for the request.
func (q ProductQuery) Values() url.Values {
	v := url.Values{}
	if q.ID != "" {
		v.Set("id", q.ID)
	} else {
		fields := q.Fields
		if len(fields) == 0 {
			fields = DefaultProductFields
		}
		v.Set("fields", strings.Join(fields, ","))

		status := q.Status
		if status == "" {
			status = StatusAvailable
		}
		v.Set("type", status)

		sort := q.Sort
		if sort == "" {
			sort = SortName
		}
		v.Set("sort", sort)
	}

	if q.Extended {
		v.Set("conf", "extended_info")
	}
	return v
}

// Products lists the seller's products.
func (c *Client) Products(ctx context.Context, q ProductQuery) ([]domain.Listing, error) {
	var listings []domain.Listing
	if err := c.Call(ctx, "/seller/products/list", q.Values(), &listings); err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}

	if q.Reverse {
		slices.Reverse(listings)
	}
	return listings, nil
}
