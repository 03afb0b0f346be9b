package handlers

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fler-tools/internal/fler"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// QuotaHandler provides the client-side API call budget endpoint.
type QuotaHandler struct {
	budget *fler.CallBudget
}

// NewQuotaHandler creates a new QuotaHandler. budget may be nil.
func NewQuotaHandler(b *fler.CallBudget) *QuotaHandler {
	return &QuotaHandler{budget: b}
}

// QuotaOutput is the response body for the quota endpoint.
type QuotaOutput struct {
	Body domain.QuotaStatus
}

// GetQuota returns the current API call budget usage. All fields are zero
// when no budget is configured.
func (h *QuotaHandler) GetQuota(_ context.Context, _ *struct{}) (*QuotaOutput, error) {
	resp := &QuotaOutput{}
	if h.budget != nil {
		resp.Body = h.budget.Snapshot()
	}
	return resp, nil
}

// RegisterQuotaRoutes registers the quota endpoint with the Huma API.
func RegisterQuotaRoutes(api huma.API, h *QuotaHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "get-quota",
		Method:      http.MethodGet,
		Path:        "/api/v1/quota",
		Summary:     "Get Fler API call budget",
		Description: "Returns the client-side daily API call usage, remaining budget, and window reset time. " +
			"This is not the server's promotion quota.",
		Tags: []string{"fler"},
	}, h.GetQuota)
}
