package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/donaldgifford/fler-tools/internal/metrics"
)

// Scheduler runs topping passes and stats exports on fixed intervals.
type Scheduler struct {
	cron       *cron.Cron
	engine     *Engine
	log        *slog.Logger
	topEntry   cron.EntryID
	statsEntry cron.EntryID
}

// NewScheduler registers the enabled jobs. A zero interval disables that
// job; at least one must be enabled.
func NewScheduler(
	eng *Engine,
	topInterval time.Duration,
	statsInterval time.Duration,
	log *slog.Logger,
) (*Scheduler, error) {
	if topInterval <= 0 && statsInterval <= 0 {
		return nil, errors.New("scheduler has no enabled jobs")
	}

	c := cron.New(cron.WithLogger(cronLogger{log}))
	s := &Scheduler{
		cron:   c,
		engine: eng,
		log:    log,
	}

	if topInterval > 0 {
		id, err := c.AddFunc("@every "+topInterval.String(), s.runTop)
		if err != nil {
			return nil, err
		}
		s.topEntry = id
	}

	if statsInterval > 0 {
		id, err := c.AddFunc("@every "+statsInterval.String(), s.runStats)
		if err != nil {
			return nil, err
		}
		s.statsEntry = id
	}

	return s, nil
}

// Start begins running scheduled tasks.
func (s *Scheduler) Start() {
	s.log.Info("scheduler started", "jobs", len(s.cron.Entries()))
	s.cron.Start()
	s.SyncNextRunTimestamps()
}

// Stop gracefully stops the scheduler. The returned context is done once
// running jobs have finished.
func (s *Scheduler) Stop() context.Context {
	s.log.Info("scheduler stopping")
	return s.cron.Stop()
}

// Entries returns the registered cron entries for inspection.
func (s *Scheduler) Entries() []cron.Entry {
	return s.cron.Entries()
}

// SyncNextRunTimestamps publishes the next run times as gauges.
func (s *Scheduler) SyncNextRunTimestamps() {
	if s.topEntry != 0 {
		if next := s.cron.Entry(s.topEntry).Next; !next.IsZero() {
			metrics.SchedulerNextTopTimestamp.Set(float64(next.Unix()))
		}
	}
	if s.statsEntry != 0 {
		if next := s.cron.Entry(s.statsEntry).Next; !next.IsZero() {
			metrics.SchedulerNextStatsTimestamp.Set(float64(next.Unix()))
		}
	}
}

func (s *Scheduler) runTop() {
	defer s.SyncNextRunTimestamps()

	s.log.Info("scheduled topping run starting")
	summary, err := s.engine.RunTop(context.Background())
	switch {
	case errors.Is(err, ErrLockHeld):
		s.log.Info("scheduled topping run skipped, another run in progress")
	case err != nil:
		s.log.Error("scheduled topping run failed", "error", err)
	default:
		s.log.Info("scheduled topping run finished",
			"topped", summary.ToppedCount,
			"halted", summary.Halted,
		)
	}
}

func (s *Scheduler) runStats() {
	defer s.SyncNextRunTimestamps()

	n, err := s.engine.ExportStats(context.Background())
	switch {
	case errors.Is(err, ErrLockHeld):
		s.log.Info("scheduled stats export skipped, another export in progress")
	case err != nil:
		s.log.Error("scheduled stats export failed", "error", err)
	default:
		s.log.Info("scheduled stats export finished", "lines", n)
	}
}

// cronLogger routes cron's internal logging to slog.
type cronLogger struct {
	log *slog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...any) {
	l.log.Debug("cron: "+msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...any) {
	l.log.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
