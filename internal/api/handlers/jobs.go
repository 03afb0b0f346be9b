package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/donaldgifford/fler-tools/internal/store"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// JobsProvider defines the store methods required by the jobs handler.
type JobsProvider interface {
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListPromotions(ctx context.Context, q *store.PromotionQuery) ([]domain.PromotionRecord, int, error)
}

// JobsHandler handles job and promotion history requests.
type JobsHandler struct {
	store JobsProvider
}

// NewJobsHandler creates a new JobsHandler.
func NewJobsHandler(s JobsProvider) *JobsHandler {
	return &JobsHandler{store: s}
}

// ListJobsOutput is the response body for listing the latest job runs.
type ListJobsOutput struct {
	Body []domain.JobRun
}

// GetJobHistoryInput is the request path for job history.
type GetJobHistoryInput struct {
	JobName string `path:"job_name" doc:"Job name (top, stats_export)"`
	Limit   int    `query:"limit"   doc:"Maximum runs to return" default:"20" minimum:"1" maximum:"500"`
}

// GetJobHistoryOutput is the response body for a single job's history.
type GetJobHistoryOutput struct {
	Body []domain.JobRun
}

// ListPromotionsInput filters the promotion history.
type ListPromotionsInput struct {
	ListingID     string    `query:"listing_id" doc:"Only promotions of this listing"`
	SucceededOnly bool      `query:"succeeded"  doc:"Only successful promotions"`
	Since         time.Time `query:"since"      doc:"Only attempts at or after this time (RFC 3339)"`
	Limit         int       `query:"limit"      doc:"Page size" default:"50" minimum:"1" maximum:"500"`
	Offset        int       `query:"offset"     doc:"Page offset" minimum:"0"`
}

// ListPromotionsOutput is the response body for promotion history.
type ListPromotionsOutput struct {
	Body struct {
		Total      int                      `json:"total"`
		Promotions []domain.PromotionRecord `json:"promotions"`
	}
}

// ListJobs returns the most recent run of each job.
func (h *JobsHandler) ListJobs(ctx context.Context, _ *struct{}) (*ListJobsOutput, error) {
	runs, err := h.store.ListLatestJobRuns(ctx)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing jobs failed: " + err.Error())
	}

	if runs == nil {
		runs = []domain.JobRun{}
	}

	return &ListJobsOutput{Body: runs}, nil
}

// GetJobHistory returns the run history for a specific job.
func (h *JobsHandler) GetJobHistory(ctx context.Context, input *GetJobHistoryInput) (*GetJobHistoryOutput, error) {
	runs, err := h.store.ListJobRuns(ctx, input.JobName, input.Limit)
	if err != nil {
		return nil, huma.Error500InternalServerError("fetching job history failed: " + err.Error())
	}

	if runs == nil {
		runs = []domain.JobRun{}
	}

	return &GetJobHistoryOutput{Body: runs}, nil
}

// ListPromotions returns a page of promotion attempts, newest first.
func (h *JobsHandler) ListPromotions(
	ctx context.Context,
	input *ListPromotionsInput,
) (*ListPromotionsOutput, error) {
	q := &store.PromotionQuery{
		SucceededOnly: input.SucceededOnly,
		Limit:         input.Limit,
		Offset:        input.Offset,
	}
	if input.ListingID != "" {
		q.ListingID = &input.ListingID
	}
	if !input.Since.IsZero() {
		q.Since = &input.Since
	}

	recs, total, err := h.store.ListPromotions(ctx, q)
	if err != nil {
		return nil, huma.Error500InternalServerError("listing promotions failed: " + err.Error())
	}

	resp := &ListPromotionsOutput{}
	resp.Body.Total = total
	resp.Body.Promotions = recs
	if resp.Body.Promotions == nil {
		resp.Body.Promotions = []domain.PromotionRecord{}
	}
	return resp, nil
}

// RegisterJobRoutes registers job and promotion history endpoints with the
// Huma API.
func RegisterJobRoutes(api huma.API, h *JobsHandler) {
	huma.Register(api, huma.Operation{
		OperationID: "list-jobs",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs",
		Summary:     "List latest job runs",
		Description: "Returns the most recent run record for each job.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListJobs)

	huma.Register(api, huma.Operation{
		OperationID: "get-job-history",
		Method:      http.MethodGet,
		Path:        "/api/v1/jobs/{job_name}",
		Summary:     "Get job history",
		Description: "Returns the run history for a specific job (newest first).",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.GetJobHistory)

	huma.Register(api, huma.Operation{
		OperationID: "list-promotions",
		Method:      http.MethodGet,
		Path:        "/api/v1/promotions",
		Summary:     "List promotion history",
		Description: "Returns recorded promotion attempts, newest first.",
		Tags:        []string{"jobs"},
		Errors:      []int{http.StatusInternalServerError},
	}, h.ListPromotions)
}
