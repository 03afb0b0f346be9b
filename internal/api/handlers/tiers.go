package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// TierHandler exposes the reputation quota tier table.
type TierHandler struct{}

// NewTierHandler creates a new TierHandler.
func NewTierHandler() *TierHandler {
	return &TierHandler{}
}

// TierBody is a quota tier as returned by the API.
type TierBody struct {
	MinRank         float64 `json:"min_rank"         example:"80"    doc:"Lowest rank that unlocks this tier"`
	MaxPerDay       float64 `json:"max_per_day"      example:"4"     doc:"Informational daily promotion allowance"`
	CooldownSeconds int64   `json:"cooldown_seconds" example:"21600" doc:"Minimum time between promotions of one listing"`
	Cooldown        string  `json:"cooldown"         example:"6h0m0s"`
}

// ListTiersOutput is the response body for the tier table.
type ListTiersOutput struct {
	Body []TierBody
}

// ResolveTierInput selects the rank to resolve.
type ResolveTierInput struct {
	Rank float64 `query:"rank" required:"true" doc:"Seller reputation score (fler_rank)"`
}

// ResolveTierOutput is the response body for a resolved tier.
type ResolveTierOutput struct {
	Body TierBody
}

func tierBody(t domain.QuotaTier) TierBody {
	return TierBody{
		MinRank:         t.MinRank,
		MaxPerDay:       t.MaxPerDay,
		CooldownSeconds: int64(t.Cooldown.Seconds()),
		Cooldown:        t.Cooldown.String(),
	}
}

// ListTiers returns the full tier table in ascending rank order.
func (*TierHandler) ListTiers(_ context.Context, _ *struct{}) (*ListTiersOutput, error) {
	all := topping.Tiers()
	resp := &ListTiersOutput{Body: make([]TierBody, 0, len(all))}
	for _, t := range all {
		resp.Body = append(resp.Body, tierBody(t))
	}
	return resp, nil
}

// ResolveTier returns the tier that applies to a rank.
func (*TierHandler) ResolveTier(_ context.Context, input *ResolveTierInput) (*ResolveTierOutput, error) {
	if math.IsInf(input.Rank, 0) {
		return nil, huma.Error422UnprocessableEntity("rank must be finite")
	}
	t, err := topping.ResolveTier(input.Rank)
	var cfgErr *topping.ConfigError
	if errors.As(err, &cfgErr) {
		return nil, huma.Error422UnprocessableEntity(err.Error())
	}
	if err != nil {
		return nil, huma.Error500InternalServerError("resolving tier failed: " + err.Error())
	}
	return &ResolveTierOutput{Body: tierBody(t)}, nil
}

// RegisterTierRoutes registers tier endpoints with the Huma API.
func RegisterTierRoutes(api huma.API, h *TierHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-tiers",
		Method:      http.MethodGet,
		Path:        "/api/v1/tiers",
		Summary:     "List promotion quota tiers",
		Tags:        []string{"topping"},
	}, h.ListTiers)

	huma.Register(api, huma.Operation{
		OperationID: "resolve-tier",
		Method:      http.MethodGet,
		Path:        "/api/v1/tier",
		Summary:     "Resolve the tier for a rank",
		Description: "Returns the tier with the greatest rank floor not exceeding the given rank.",
		Tags:        []string{"topping"},
		Errors:      []int{http.StatusUnprocessableEntity},
	}, h.ResolveTier)
}
