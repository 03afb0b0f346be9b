// Package engine wires the topping runner and the statistics exporter into
// guarded, recorded jobs that the CLI, the HTTP API and the scheduler share.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"

	"github.com/donaldgifford/fler-tools/internal/notify"
	"github.com/donaldgifford/fler-tools/internal/store"
	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// Job names used for locks and the job ledger.
const (
	JobTop   = "top"
	JobStats = "stats_export"
)

// ErrStatsDisabled is returned by ExportStats when no exporter is configured.
var ErrStatsDisabled = errors.New("stats export is not configured")

// StatsExporter exports one statistics snapshot and reports the number of
// lines written.
type StatsExporter interface {
	Export(ctx context.Context) (int, error)
}

// Engine runs topping passes and stats exports.
type Engine struct {
	runner   *topping.Runner
	exporter StatsExporter
	store    store.Store
	notifier notify.Notifier
	log      *slog.Logger
	lockTTL  time.Duration
	holder   string
	guard    *Guard
}

// EngineOption configures the Engine.
type EngineOption func(*Engine)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) EngineOption {
	return func(e *Engine) {
		e.log = l
	}
}

// WithStore enables the job ledger, the promotion history and cross-process
// locking.
func WithStore(s store.Store) EngineOption {
	return func(e *Engine) {
		e.store = s
	}
}

// WithNotifier sets where run summaries are sent.
func WithNotifier(n notify.Notifier) EngineOption {
	return func(e *Engine) {
		e.notifier = n
	}
}

// WithLockTTL sets the lease duration of the cross-process job lock.
func WithLockTTL(d time.Duration) EngineOption {
	return func(e *Engine) {
		e.lockTTL = d
	}
}

// WithHolder sets the lock holder identity.
func WithHolder(h string) EngineOption {
	return func(e *Engine) {
		e.holder = h
	}
}

// NewEngine creates an Engine. exporter may be nil when stats export is not
// configured.
func NewEngine(runner *topping.Runner, exporter StatsExporter, opts ...EngineOption) *Engine {
	eng := &Engine{
		runner:   runner,
		exporter: exporter,
		log:      slog.Default(),
		lockTTL:  defaultLockTTL,
	}
	for _, opt := range opts {
		opt(eng)
	}
	if eng.notifier == nil {
		eng.notifier = notify.NewNoOpNotifier(eng.log)
	}
	if eng.holder == "" {
		eng.holder = defaultHolder()
	}
	eng.guard = NewGuard(eng.store, eng.holder, eng.lockTTL, eng.log)
	return eng
}

func defaultHolder() string {
	host, err := os.Hostname()
	if err != nil {
		host = "unknown"
	}
	return fmt.Sprintf("%s-%d-%s", host, os.Getpid(), uuid.NewString()[:8])
}

// Store returns the configured store, or nil.
func (eng *Engine) Store() store.Store {
	return eng.store
}

// RunTop performs one guarded topping pass. It returns ErrLockHeld without
// running when another pass is in progress.
func (eng *Engine) RunTop(ctx context.Context) (*domain.RunSummary, error) {
	var summary *domain.RunSummary

	err := eng.guard.Do(ctx, JobTop, func(ctx context.Context, runID string) (JobResult, error) {
		var runErr error
		summary, runErr = eng.runner.Run(ctx)

		var res JobResult
		if summary != nil {
			res.Rows = summary.ToppedCount
			if summary.Halted {
				res.Status = domain.JobStatusHalted
			}
			eng.recordPromotions(ctx, runID, summary)
		}
		return res, runErr
	})
	if errors.Is(err, ErrLockHeld) {
		return nil, err
	}

	if nerr := eng.notifier.SendRunSummary(ctx, summary, err); nerr != nil {
		eng.log.Warn("sending run summary", "error", nerr)
	}

	return summary, err
}

func (eng *Engine) recordPromotions(ctx context.Context, runID string, summary *domain.RunSummary) {
	if eng.store == nil || len(summary.Outcomes) == 0 {
		return
	}
	at := summary.FinishedAt
	if at.IsZero() {
		at = time.Now()
	}
	if err := eng.store.InsertPromotions(context.WithoutCancel(ctx), runID, at, summary.Outcomes); err != nil {
		eng.log.Warn("recording promotions", "run_id", runID, "error", err)
	}
}

// ExportStats performs one guarded statistics export.
func (eng *Engine) ExportStats(ctx context.Context) (int, error) {
	if eng.exporter == nil {
		return 0, ErrStatsDisabled
	}

	var lines int
	err := eng.guard.Do(ctx, JobStats, func(ctx context.Context, _ string) (JobResult, error) {
		var err error
		lines, err = eng.exporter.Export(ctx)
		return JobResult{Rows: lines}, err
	})
	return lines, err
}

// RecoverStaleRuns marks ledger rows left 'running' by a crashed process.
func (eng *Engine) RecoverStaleRuns(ctx context.Context) error {
	if eng.store == nil {
		return nil
	}
	n, err := eng.store.RecoverStaleJobRuns(ctx, 2*eng.lockTTL)
	if err != nil {
		return fmt.Errorf("recovering stale job runs: %w", err)
	}
	if n > 0 {
		eng.log.Warn("marked stale job runs as crashed", "count", n)
	}
	return nil
}
