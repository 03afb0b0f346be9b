package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/api/handlers"
	"github.com/donaldgifford/fler-tools/internal/engine"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

type fakeJobs struct {
	summary *domain.RunSummary
	topErr  error
	lines   int
	statErr error
}

func (f *fakeJobs) RunTop(_ context.Context) (*domain.RunSummary, error) {
	return f.summary, f.topErr
}

func (f *fakeJobs) ExportStats(_ context.Context) (int, error) {
	return f.lines, f.statErr
}

func TestTriggerTop(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		jobs       *fakeJobs
		wantStatus int
		wantBody   string
	}{
		{
			name: "success returns summary",
			jobs: &fakeJobs{summary: &domain.RunSummary{
				ToppedCount: 1, ToppedIDs: []string{"991"}, Halted: true,
			}},
			wantStatus: http.StatusOK,
			wantBody:   `"topped_ids":["991"]`,
		},
		{
			name:       "run in progress",
			jobs:       &fakeJobs{topErr: engine.ErrLockHeld},
			wantStatus: http.StatusConflict,
			wantBody:   "already in progress",
		},
		{
			name:       "run failed",
			jobs:       &fakeJobs{topErr: errors.New("fetching account info: timeout")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   "topping run failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(tt.jobs, tt.jobs))

			resp := api.Post("/api/v1/top")
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}

func TestTriggerStatsExport(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		jobs       *fakeJobs
		wantStatus int
		wantBody   string
	}{
		{name: "success", jobs: &fakeJobs{lines: 42}, wantStatus: http.StatusOK, wantBody: `"lines":42`},
		{name: "disabled", jobs: &fakeJobs{statErr: engine.ErrStatsDisabled}, wantStatus: http.StatusServiceUnavailable},
		{name: "in progress", jobs: &fakeJobs{statErr: engine.ErrLockHeld}, wantStatus: http.StatusConflict},
		{name: "failed", jobs: &fakeJobs{statErr: errors.New("carbon down")}, wantStatus: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(tt.jobs, tt.jobs))

			resp := api.Post("/api/v1/stats/export")
			require.Equal(t, tt.wantStatus, resp.Code)
			assert.Contains(t, resp.Body.String(), tt.wantBody)
		})
	}
}
