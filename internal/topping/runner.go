package topping

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/internal/metrics"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// ListingFields are the product fields requested for a topping run.
var ListingFields = []string{"title", "is_topable", "ts_top"}

// State is a step of a topping run.
type State int

const (
	StateInit State = iota
	StateFetchingAccount
	StateFetchingListings
	StateFiltering
	StatePromoting
	StateDone
)

func (s State) String() string {
	switch s {
	case StateInit:
		return "init"
	case StateFetchingAccount:
		return "fetching_account"
	case StateFetchingListings:
		return "fetching_listings"
	case StateFiltering:
		return "filtering"
	case StatePromoting:
		return "promoting"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Runner performs one topping pass: resolve the account's tier, select the
// listings whose cooldown has elapsed and promote them until the server
// reports the daily quota is used up.
type Runner struct {
	api             fler.API
	log             *slog.Logger
	nowFunc         func() time.Time
	continueOnError bool
	dryRun          bool
}

// RunnerOption configures the Runner.
type RunnerOption func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.log = l
	}
}

// WithNowFunc overrides the clock used for eligibility decisions.
func WithNowFunc(f func() time.Time) RunnerOption {
	return func(r *Runner) {
		r.nowFunc = f
	}
}

// WithContinueOnError logs promotion failures other than quota exhaustion
// and moves on to the next listing instead of aborting the run.
func WithContinueOnError(v bool) RunnerOption {
	return func(r *Runner) {
		r.continueOnError = v
	}
}

// WithDryRun stops the run after filtering; nothing is promoted.
func WithDryRun(v bool) RunnerOption {
	return func(r *Runner) {
		r.dryRun = v
	}
}

// NewRunner creates a Runner backed by api.
func NewRunner(api fler.API, opts ...RunnerOption) *Runner {
	r := &Runner{
		api:     api,
		log:     slog.Default(),
		nowFunc: time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a single topping pass. Failures before promotion starts
// return a nil summary. Once promotion has started, the summary reflects
// every attempt made, including when an error is returned alongside it.
func (r *Runner) Run(ctx context.Context) (summary *domain.RunSummary, err error) {
	start := r.nowFunc()
	state := StateInit

	defer func() {
		metrics.TopRunDuration.Observe(r.nowFunc().Sub(start).Seconds())
		switch {
		case err != nil:
			metrics.TopRunsTotal.WithLabelValues("failed").Inc()
			r.log.Error("topping run failed", "state", state.String(), "error", err)
		case summary.Halted:
			metrics.TopRunsTotal.WithLabelValues("halted").Inc()
		default:
			metrics.TopRunsTotal.WithLabelValues("completed").Inc()
		}
		if summary != nil {
			summary.FinishedAt = r.nowFunc()
		}
	}()

	state = r.enter(StateFetchingAccount)
	acct, err := r.api.AccountInfo(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching account info: %w", err)
	}

	state = r.enter(StateFetchingListings)
	listings, err := r.api.Products(ctx, fler.ProductQuery{
		Fields:  ListingFields,
		Sort:    fler.SortTopDate,
		Reverse: true,
	})
	if err != nil {
		return nil, fmt.Errorf("fetching listings: %w", err)
	}

	state = r.enter(StateFiltering)
	tier, err := ResolveTier(acct.Rank())
	if err != nil {
		return nil, err
	}

	eligible, err := Filter(listings, tier.Cooldown, r.nowFunc())
	if err != nil {
		return nil, fmt.Errorf("filtering listings: %w", err)
	}
	if err := SortMostOverdue(eligible); err != nil {
		return nil, fmt.Errorf("ordering listings: %w", err)
	}

	metrics.EligibleListings.Set(float64(len(eligible)))
	metrics.TierCooldownSeconds.Set(tier.Cooldown.Seconds())
	metrics.TierMaxPerDay.Set(tier.MaxPerDay)

	r.log.Info("quota tier resolved",
		"rank", acct.Rank(),
		"cooldown", tier.Cooldown.String(),
		"max_per_day", tier.MaxPerDay,
		"listings", len(listings),
		"eligible", len(eligible),
	)

	summary = &domain.RunSummary{
		ToppedIDs: []string{},
		Eligible:  len(eligible),
		DryRun:    r.dryRun,
		Rank:      acct.Rank(),
		Tier:      tier,
		StartedAt: start,
	}

	if r.dryRun {
		for i := range eligible {
			r.log.Info("would top listing", "id", eligible[i].ID, "title", eligible[i].Title)
		}
		state = r.enter(StateDone)
		return summary, nil
	}

	state = r.enter(StatePromoting)
	if err := r.promote(ctx, eligible, summary); err != nil {
		return summary, err
	}

	state = r.enter(StateDone)
	r.log.Info("topping run finished",
		"topped", summary.ToppedCount,
		"ids", summary.ToppedIDs,
		"halted", summary.Halted,
	)
	return summary, nil
}

func (r *Runner) promote(ctx context.Context, eligible []domain.Listing, summary *domain.RunSummary) error {
	for i := range eligible {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := eligible[i].ID.String()
		_, err := r.api.Top(ctx, id)

		switch {
		case err == nil:
			summary.Record(domain.PromotionOutcome{ListingID: id, Succeeded: true})
			metrics.ListingsToppedTotal.Inc()
			r.log.Info("listing topped", "id", id, "title", eligible[i].Title)

		case fler.IsPromotionUnavailable(err):
			summary.Record(domain.PromotionOutcome{ListingID: id, HaltedRun: true, Error: err.Error()})
			metrics.QuotaExhaustedTotal.Inc()
			r.log.Info("promotion quota exhausted, stopping", "id", id, "topped", summary.ToppedCount)
			return nil

		default:
			summary.Record(domain.PromotionOutcome{ListingID: id, Error: err.Error()})
			metrics.PromotionFailuresTotal.Inc()
			if !r.continueOnError || errors.Is(err, context.Canceled) {
				return fmt.Errorf("topping listing %s: %w", id, err)
			}
			r.log.Warn("topping listing failed, continuing", "id", id, "error", err)
		}
	}
	return nil
}

func (r *Runner) enter(s State) State {
	r.log.Debug("topping run state", "state", s.String())
	return s
}
