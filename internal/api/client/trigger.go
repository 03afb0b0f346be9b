package client

import (
	"context"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// StatsExportResponse is the daemon's answer to a stats export.
type StatsExportResponse struct {
	Status string `json:"status"`
	Lines  int    `json:"lines"`
}

// TriggerTop asks the daemon to run one topping pass and returns its
// summary. A run already in progress yields a *StatusError with Conflict.
func (c *Client) TriggerTop(ctx context.Context) (*domain.RunSummary, error) {
	var summary domain.RunSummary
	if err := c.post(ctx, "/api/v1/top", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// TriggerStatsExport asks the daemon to export statistics once.
func (c *Client) TriggerStatsExport(ctx context.Context) (*StatsExportResponse, error) {
	var resp StatsExportResponse
	if err := c.post(ctx, "/api/v1/stats/export", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Quota returns the daemon's client-side API call budget.
func (c *Client) Quota(ctx context.Context) (*domain.QuotaStatus, error) {
	var q domain.QuotaStatus
	if err := c.get(ctx, "/api/v1/quota", &q); err != nil {
		return nil, err
	}
	return &q, nil
}
