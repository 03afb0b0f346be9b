package handlers_test

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2/humatest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/api/handlers"
	"github.com/donaldgifford/fler-tools/internal/store"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// mockJobsProvider is a test double for JobsProvider.
type mockJobsProvider struct {
	latestRuns []domain.JobRun
	history    []domain.JobRun
	promotions []domain.PromotionRecord
	err        error

	gotJob   string
	gotLimit int
	gotQuery *store.PromotionQuery
}

func (m *mockJobsProvider) ListLatestJobRuns(_ context.Context) ([]domain.JobRun, error) {
	return m.latestRuns, m.err
}

func (m *mockJobsProvider) ListJobRuns(_ context.Context, job string, limit int) ([]domain.JobRun, error) {
	m.gotJob, m.gotLimit = job, limit
	return m.history, m.err
}

func (m *mockJobsProvider) ListPromotions(
	_ context.Context,
	q *store.PromotionQuery,
) ([]domain.PromotionRecord, int, error) {
	m.gotQuery = q
	return m.promotions, len(m.promotions), m.err
}

func sampleJobRun(jobName, status string) domain.JobRun {
	return domain.JobRun{
		ID:        "job-run-id-1",
		JobName:   jobName,
		StartedAt: time.Now().Truncate(time.Second),
		Status:    status,
	}
}

func TestListJobs(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		provider   *mockJobsProvider
		wantStatus int
		wantBody   []string
	}{
		{
			name: "success",
			provider: &mockJobsProvider{latestRuns: []domain.JobRun{
				sampleJobRun("top", domain.JobStatusHalted),
				sampleJobRun("stats_export", domain.JobStatusSucceeded),
			}},
			wantStatus: http.StatusOK,
			wantBody:   []string{"top", "stats_export", "halted"},
		},
		{
			name:       "empty",
			provider:   &mockJobsProvider{},
			wantStatus: http.StatusOK,
			wantBody:   []string{"[]"},
		},
		{
			name:       "error",
			provider:   &mockJobsProvider{err: errors.New("db error")},
			wantStatus: http.StatusInternalServerError,
			wantBody:   []string{"listing jobs failed"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, api := humatest.New(t)
			handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(tt.provider))

			resp := api.Get("/api/v1/jobs")
			require.Equal(t, tt.wantStatus, resp.Code)
			for _, s := range tt.wantBody {
				assert.Contains(t, resp.Body.String(), s)
			}
		})
	}
}

func TestGetJobHistory(t *testing.T) {
	t.Parallel()

	p := &mockJobsProvider{history: []domain.JobRun{sampleJobRun("top", domain.JobStatusSucceeded)}}

	_, api := humatest.New(t)
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(p))

	resp := api.Get("/api/v1/jobs/top?limit=5")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), "job-run-id-1")
	assert.Equal(t, "top", p.gotJob)
	assert.Equal(t, 5, p.gotLimit)
}

func TestGetJobHistory_DefaultLimit(t *testing.T) {
	t.Parallel()

	p := &mockJobsProvider{}

	_, api := humatest.New(t)
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(p))

	resp := api.Get("/api/v1/jobs/stats_export")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Equal(t, 20, p.gotLimit)
	assert.Contains(t, resp.Body.String(), "[]")
}

func TestListPromotions(t *testing.T) {
	t.Parallel()

	p := &mockJobsProvider{promotions: []domain.PromotionRecord{
		{ID: "p1", ListingID: "991", Succeeded: true, AttemptedAt: time.Now()},
	}}

	_, api := humatest.New(t)
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(p))

	resp := api.Get("/api/v1/promotions?listing_id=991&succeeded=true&since=2024-05-01T00:00:00Z&limit=10")
	require.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `"total":1`)

	require.NotNil(t, p.gotQuery)
	require.NotNil(t, p.gotQuery.ListingID)
	assert.Equal(t, "991", *p.gotQuery.ListingID)
	assert.True(t, p.gotQuery.SucceededOnly)
	assert.Equal(t, 10, p.gotQuery.Limit)
	require.NotNil(t, p.gotQuery.Since)
	assert.Equal(t, 2024, p.gotQuery.Since.Year())
}

func TestListPromotions_Error(t *testing.T) {
	t.Parallel()

	_, api := humatest.New(t)
	handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(&mockJobsProvider{err: errors.New("db down")}))

	resp := api.Get("/api/v1/promotions")
	assert.Equal(t, http.StatusInternalServerError, resp.Code)
}
