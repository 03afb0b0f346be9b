// Package store defines the optional persistence layer for fler-tools: a
// ledger of job runs, a lease lock that serializes runs across processes,
// and the history of promotion attempts. Listing eligibility never reads
// from the store; the API's ts_top remains the source of truth.
package store

import (
	"context"
	"time"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// PromotionQuery defines optional filters for promotion history queries.
type PromotionQuery struct {
	ListingID     *string
	RunID         *string
	SucceededOnly bool
	Since         *time.Time
	Limit         int // default 50
	Offset        int
}

// Store defines all data access operations for fler-tools.
type Store interface {
	// Job runs
	InsertJobRun(ctx context.Context, jobName string) (id string, err error)
	CompleteJobRun(ctx context.Context, id string, status string, errText string, rowsAffected int) error
	ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error)
	ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error)
	RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error)

	// Locks
	AcquireSchedulerLock(ctx context.Context, jobName string, holder string, ttl time.Duration) (bool, error)
	ReleaseSchedulerLock(ctx context.Context, jobName string, holder string) error

	// Promotions
	InsertPromotions(ctx context.Context, runID string, at time.Time, outcomes []domain.PromotionOutcome) error
	ListPromotions(ctx context.Context, q *PromotionQuery) ([]domain.PromotionRecord, int, error)

	// Migrations
	Migrate(ctx context.Context) error

	// Health
	Ping(ctx context.Context) error
}
