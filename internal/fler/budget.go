package fler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// ErrDailyLimitReached is returned when the client-side daily call budget
// has been exhausted.
var ErrDailyLimitReached = errors.New("daily API call budget reached")

// CallBudget paces outbound API calls with a token bucket and caps the
// number of calls per fixed 24-hour window. The window starts when the
// budget is created and restarts on the first call after it ends. It bounds
// this client's own traffic; it is not the server's promotion quota.
type CallBudget struct {
	limiter  *rate.Limiter
	used     atomic.Int64
	maxDaily int64
	resetAt  time.Time
	mu       sync.Mutex
	nowFunc  func() time.Time
}

// CallBudgetOption configures the CallBudget.
type CallBudgetOption func(*CallBudget)

// WithBudgetNowFunc overrides the time function for testing.
func WithBudgetNowFunc(f func() time.Time) CallBudgetOption {
	return func(b *CallBudget) {
		b.nowFunc = f
	}
}

// NewCallBudget creates a budget allowing perSecond calls with the given
// burst and at most maxDaily calls per window.
func NewCallBudget(perSecond float64, burst int, maxDaily int64, opts ...CallBudgetOption) *CallBudget {
	b := &CallBudget{
		limiter:  rate.NewLimiter(rate.Limit(perSecond), burst),
		maxDaily: maxDaily,
		nowFunc:  time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	b.resetAt = b.nowFunc().Add(24 * time.Hour)
	return b
}

// Wait blocks until a call is allowed or ctx is canceled. The daily slot is
// reserved before pacing and given back if the wait fails.
func (b *CallBudget) Wait(ctx context.Context) error {
	b.rollWindow()

	if err := b.reserve(); err != nil {
		return err
	}

	if err := b.limiter.Wait(ctx); err != nil {
		b.used.Add(-1)
		return fmt.Errorf("call budget wait: %w", err)
	}
	return nil
}

func (b *CallBudget) reserve() error {
	for {
		used := b.used.Load()
		if used >= b.maxDaily {
			return fmt.Errorf("%w (%d/%d)", ErrDailyLimitReached, used, b.maxDaily)
		}
		if b.used.CompareAndSwap(used, used+1) {
			return nil
		}
	}
}

// Snapshot returns the current usage of the budget.
func (b *CallBudget) Snapshot() domain.QuotaStatus {
	b.mu.Lock()
	resetAt := b.resetAt
	b.mu.Unlock()

	used := b.used.Load()
	return domain.QuotaStatus{
		DailyLimit: b.maxDaily,
		DailyUsed:  used,
		Remaining:  max(b.maxDaily-used, 0),
		ResetAt:    resetAt,
	}
}

func (b *CallBudget) rollWindow() {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.nowFunc()
	if now.After(b.resetAt) {
		b.used.Store(0)
		b.resetAt = now.Add(24 * time.Hour)
	}
}
