package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"time"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// ListJobs returns the most recent run for each job.
func (c *Client) ListJobs(ctx context.Context) ([]domain.JobRun, error) {
	var runs []domain.JobRun
	if err := c.get(ctx, "/api/v1/jobs", &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// GetJobHistory returns the run history for a specific job.
func (c *Client) GetJobHistory(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	path := "/api/v1/jobs/" + url.PathEscape(jobName)
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var runs []domain.JobRun
	if err := c.get(ctx, path, &runs); err != nil {
		return nil, err
	}
	return runs, nil
}

// PromotionsResponse wraps a page of promotion history.
type PromotionsResponse struct {
	Total      int                      `json:"total"`
	Promotions []domain.PromotionRecord `json:"promotions"`
}

// ListPromotionsParams filters the promotion history.
type ListPromotionsParams struct {
	ListingID     string
	SucceededOnly bool
	Since         time.Time
	Limit         int
	Offset        int
}

// ListPromotions returns a page of promotion attempts, newest first.
func (c *Client) ListPromotions(ctx context.Context, params *ListPromotionsParams) (*PromotionsResponse, error) {
	q := url.Values{}
	if params.ListingID != "" {
		q.Set("listing_id", params.ListingID)
	}
	if params.SucceededOnly {
		q.Set("succeeded", "true")
	}
	if !params.Since.IsZero() {
		q.Set("since", params.Since.UTC().Format(time.RFC3339))
	}
	if params.Limit > 0 {
		q.Set("limit", strconv.Itoa(params.Limit))
	}
	if params.Offset > 0 {
		q.Set("offset", strconv.Itoa(params.Offset))
	}

	path := "/api/v1/promotions"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var resp PromotionsResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, fmt.Errorf("listing promotions: %w", err)
	}
	return &resp, nil
}
