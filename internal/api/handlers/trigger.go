package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fler-tools/internal/engine"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// TopRunner defines the interface for triggering a topping pass.
type TopRunner interface {
	RunTop(ctx context.Context) (*domain.RunSummary, error)
}

// StatsRunner defines the interface for triggering a statistics export.
type StatsRunner interface {
	ExportStats(ctx context.Context) (int, error)
}

// TriggerHandler handles manual run requests.
type TriggerHandler struct {
	top   TopRunner
	stats StatsRunner
}

// NewTriggerHandler creates a new TriggerHandler.
func NewTriggerHandler(top TopRunner, stats StatsRunner) *TriggerHandler {
	return &TriggerHandler{top: top, stats: stats}
}

// TopOutput is the response body for the top endpoint.
type TopOutput struct {
	Body *domain.RunSummary
}

// StatsExportOutput is the response body for the stats export endpoint.
type StatsExportOutput struct {
	Body struct {
		Status string `json:"status" example:"exported" doc:"Export status"`
		Lines  int    `json:"lines"  example:"124"      doc:"Number of metric lines written"`
	}
}

// Top runs one topping pass and returns its summary.
func (h *TriggerHandler) Top(ctx context.Context, _ *struct{}) (*TopOutput, error) {
	summary, err := h.top.RunTop(ctx)
	switch {
	case errors.Is(err, engine.ErrLockHeld):
		return nil, huma.Error409Conflict("a topping run is already in progress")
	case err != nil:
		return nil, huma.Error500InternalServerError("topping run failed: " + err.Error())
	}
	return &TopOutput{Body: summary}, nil
}

// ExportStats runs one statistics export.
func (h *TriggerHandler) ExportStats(ctx context.Context, _ *struct{}) (*StatsExportOutput, error) {
	n, err := h.stats.ExportStats(ctx)
	switch {
	case errors.Is(err, engine.ErrStatsDisabled):
		return nil, huma.Error503ServiceUnavailable("stats export is not configured")
	case errors.Is(err, engine.ErrLockHeld):
		return nil, huma.Error409Conflict("a stats export is already in progress")
	case err != nil:
		return nil, huma.Error500InternalServerError("stats export failed: " + err.Error())
	}

	resp := &StatsExportOutput{}
	resp.Body.Status = "exported"
	resp.Body.Lines = n
	return resp, nil
}

// RegisterTriggerRoutes registers trigger endpoints with the Huma API.
func RegisterTriggerRoutes(api huma.API, h *TriggerHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "trigger-top",
		Method:      http.MethodPost,
		Path:        "/api/v1/top",
		Summary:     "Trigger a topping run",
		Description: "Resolves the account's tier, selects listings whose cooldown has elapsed and promotes them " +
			"until the daily quota is exhausted.",
		Tags:   []string{"topping"},
		Errors: []int{http.StatusConflict, http.StatusInternalServerError},
	}, h.Top)

	huma.Register(api, huma.Operation{
		OperationID: "trigger-stats-export",
		Method:      http.MethodPost,
		Path:        "/api/v1/stats/export",
		Summary:     "Trigger a statistics export",
		Description: "Collects account and listing statistics and sends them to the carbon sink.",
		Tags:        []string{"stats"},
		Errors:      []int{http.StatusConflict, http.StatusInternalServerError, http.StatusServiceUnavailable},
	}, h.ExportStats)
}
