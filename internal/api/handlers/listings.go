package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// ListingSource defines the Fler API calls required by the listings handler.
type ListingSource interface {
	AccountInfo(ctx context.Context) (*domain.Account, error)
	Products(ctx context.Context, q fler.ProductQuery) ([]domain.Listing, error)
}

// ListingsHandler reports the promotion eligibility of the seller's listings.
type ListingsHandler struct {
	src     ListingSource
	nowFunc func() time.Time
}

// NewListingsHandler creates a new ListingsHandler. now may be nil.
func NewListingsHandler(src ListingSource, now func() time.Time) *ListingsHandler {
	if now == nil {
		now = time.Now
	}
	return &ListingsHandler{src: src, nowFunc: now}
}

// ListListingsInput filters the listing report.
type ListListingsInput struct {
	EligibleOnly bool `query:"eligible_only" doc:"Only return listings that may be promoted now"`
}

// ListingBody is one listing's eligibility.
type ListingBody struct {
	ID             string     `json:"id"                         example:"1234567"`
	Title          string     `json:"title,omitempty"`
	Topable        bool       `json:"topable"`
	Eligible       bool       `json:"eligible"`
	LastToppedAt   *time.Time `json:"last_topped_at,omitempty"   doc:"Normalized time of the last promotion"`
	NextEligibleAt *time.Time `json:"next_eligible_at,omitempty" doc:"When the tier cooldown elapses"`
}

// ListListingsOutput is the response body for the listing report.
type ListListingsOutput struct {
	Body struct {
		Rank     float64       `json:"rank"     example:"85.2"`
		Cooldown string        `json:"cooldown" example:"6h0m0s"`
		Eligible int           `json:"eligible" doc:"Number of listings eligible now"`
		Listings []ListingBody `json:"listings"`
	}
}

// ListListings fetches the account and its listings and reports which may
// be promoted now.
func (h *ListingsHandler) ListListings(ctx context.Context, input *ListListingsInput) (*ListListingsOutput, error) {
	acct, err := h.src.AccountInfo(ctx)
	if err != nil {
		return nil, huma.Error502BadGateway("fetching account info failed: " + err.Error())
	}

	tier, err := topping.ResolveTier(acct.Rank())
	if err != nil {
		return nil, huma.Error502BadGateway("resolving tier failed: " + err.Error())
	}

	listings, err := h.src.Products(ctx, fler.ProductQuery{
		Fields:  topping.ListingFields,
		Sort:    fler.SortTopDate,
		Reverse: true,
	})
	if err != nil {
		return nil, huma.Error502BadGateway("fetching listings failed: " + err.Error())
	}

	statuses, err := topping.Inspect(listings, tier.Cooldown, h.nowFunc())
	if err != nil {
		return nil, huma.Error502BadGateway("inspecting listings failed: " + err.Error())
	}

	resp := &ListListingsOutput{}
	resp.Body.Rank = acct.Rank()
	resp.Body.Cooldown = tier.Cooldown.String()
	resp.Body.Listings = make([]ListingBody, 0, len(statuses))

	for i := range statuses {
		st := &statuses[i]
		if st.Eligible {
			resp.Body.Eligible++
		}
		if input.EligibleOnly && !st.Eligible {
			continue
		}
		resp.Body.Listings = append(resp.Body.Listings, listingBody(st))
	}

	return resp, nil
}

func listingBody(st *topping.ListingStatus) ListingBody {
	b := ListingBody{
		ID:       st.Listing.ID.String(),
		Title:    st.Listing.Title,
		Topable:  bool(st.Listing.IsTopable),
		Eligible: st.Eligible,
	}
	if !st.LastTopped.IsZero() && st.LastTopped.Unix() > 0 {
		last := st.LastTopped.UTC()
		b.LastToppedAt = &last
	}
	if !st.NextEligibleAt.IsZero() {
		next := st.NextEligibleAt.UTC()
		b.NextEligibleAt = &next
	}
	return b
}

// RegisterListingRoutes registers the listing report with the Huma API.
func RegisterListingRoutes(api huma.API, h *ListingsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-listings",
		Method:      http.MethodGet,
		Path:        "/api/v1/listings",
		Summary:     "List listings with promotion eligibility",
		Description: "Fetches the seller's listings from Fler and reports, for the account's current tier, " +
			"which listings may be promoted now.",
		Tags:   []string{"topping"},
		Errors: []int{http.StatusBadGateway},
	}, h.ListListings)
}
