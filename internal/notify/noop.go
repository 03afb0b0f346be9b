package notify

import (
	"context"
	"log/slog"

	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// NoOpNotifier implements Notifier by logging discarded summaries. It is used
// when no notification backend is configured.
type NoOpNotifier struct {
	log *slog.Logger
}

// NewNoOpNotifier creates a notifier that discards summaries with a log message.
func NewNoOpNotifier(log *slog.Logger) *NoOpNotifier {
	return &NoOpNotifier{log: log}
}

// SendRunSummary logs and discards a run summary.
func (n *NoOpNotifier) SendRunSummary(_ context.Context, summary *domain.RunSummary, runErr error) error {
	args := []any{"failed", runErr != nil}
	if summary != nil {
		args = append(args, "topped", summary.ToppedCount, "halted", summary.Halted)
	}
	n.log.Debug("run summary discarded (no backend configured)", args...)
	return nil
}
