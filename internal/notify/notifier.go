// Package notify delivers topping run summaries to chat backends.
package notify

import (
	"context"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// Notifier sends the outcome of a topping run. summary may be nil when the
// run failed before promotion started; runErr is nil for clean runs.
type Notifier interface {
	SendRunSummary(ctx context.Context, summary *domain.RunSummary, runErr error) error
}
