package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/donaldgifford/fler-tools/internal/metrics"
	"github.com/donaldgifford/fler-tools/internal/store"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// ErrLockHeld is returned when another run of the same job is in progress,
// in this process or, with a store configured, in another one.
var ErrLockHeld = errors.New("another run holds the job lock")

const defaultLockTTL = 15 * time.Minute

// JobResult is what a guarded job reports for the job ledger. An empty
// Status means succeeded.
type JobResult struct {
	Status string
	Rows   int
}

// JobFunc is a unit of guarded work. runID is the job ledger row, or empty
// when no store is configured.
type JobFunc func(ctx context.Context, runID string) (JobResult, error)

// Guard serializes runs of a named job and records them in the job ledger.
type Guard struct {
	store  store.Store
	holder string
	ttl    time.Duration
	log    *slog.Logger

	mu      sync.Mutex
	running map[string]bool
}

// NewGuard creates a Guard. s may be nil, in which case only in-process
// serialization applies.
func NewGuard(s store.Store, holder string, ttl time.Duration, log *slog.Logger) *Guard {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &Guard{
		store:   s,
		holder:  holder,
		ttl:     ttl,
		log:     log,
		running: make(map[string]bool),
	}
}

// Do runs fn for job unless another run holds the lock.
func (g *Guard) Do(ctx context.Context, job string, fn JobFunc) error {
	if !g.begin(job) {
		metrics.SchedulerSkippedRunsTotal.WithLabelValues(job).Inc()
		return ErrLockHeld
	}
	defer g.end(job)

	if g.store == nil {
		_, err := fn(ctx, "")
		return err
	}

	ok, err := g.store.AcquireSchedulerLock(ctx, job, g.holder, g.ttl)
	if err != nil {
		return fmt.Errorf("acquiring %s lock: %w", job, err)
	}
	if !ok {
		metrics.SchedulerSkippedRunsTotal.WithLabelValues(job).Inc()
		return ErrLockHeld
	}
	defer func() {
		if err := g.store.ReleaseSchedulerLock(context.WithoutCancel(ctx), job, g.holder); err != nil {
			g.log.Warn("releasing job lock", "job", job, "error", err)
		}
	}()

	runID, err := g.store.InsertJobRun(ctx, job)
	if err != nil {
		g.log.Warn("recording job run start", "job", job, "error", err)
		runID = ""
	}

	res, runErr := fn(ctx, runID)

	if runID != "" {
		status, errText := res.Status, ""
		if status == "" {
			status = domain.JobStatusSucceeded
		}
		if runErr != nil {
			status, errText = domain.JobStatusFailed, runErr.Error()
		}
		if err := g.store.CompleteJobRun(context.WithoutCancel(ctx), runID, status, errText, res.Rows); err != nil {
			g.log.Warn("recording job run completion", "job", job, "run_id", runID, "error", err)
		}
	}

	return runErr
}

func (g *Guard) begin(job string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.running[job] {
		return false
	}
	g.running[job] = true
	return true
}

func (g *Guard) end(job string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.running, job)
}
