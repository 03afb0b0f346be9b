package engine

import (
	"context"
	"errors"
	"testing"

	ptestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/metrics"
)

func TestGuard_SerializesSameJob(t *testing.T) {
	t.Parallel()

	g := NewGuard(nil, "h", 0, quietLogger())
	before := ptestutil.ToFloat64(metrics.SchedulerSkippedRunsTotal.WithLabelValues("guard_test"))

	var nestedSame, nestedOther error
	err := g.Do(context.Background(), "guard_test", func(ctx context.Context, runID string) (JobResult, error) {
		assert.Empty(t, runID)
		nestedSame = g.Do(ctx, "guard_test", func(context.Context, string) (JobResult, error) {
			t.Fatal("nested run of the same job must not start")
			return JobResult{}, nil
		})
		nestedOther = g.Do(ctx, "guard_other", func(context.Context, string) (JobResult, error) {
			return JobResult{}, nil
		})
		return JobResult{}, nil
	})

	require.NoError(t, err)
	require.ErrorIs(t, nestedSame, ErrLockHeld)
	require.NoError(t, nestedOther)

	after := ptestutil.ToFloat64(metrics.SchedulerSkippedRunsTotal.WithLabelValues("guard_test"))
	assert.InDelta(t, before+1, after, 0.001)

	// The lock is released after the run.
	require.NoError(t, g.Do(context.Background(), "guard_test", func(context.Context, string) (JobResult, error) {
		return JobResult{}, nil
	}))
}

func TestGuard_PropagatesJobError(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	g := NewGuard(nil, "h", 0, quietLogger())
	err := g.Do(context.Background(), "x", func(context.Context, string) (JobResult, error) {
		return JobResult{}, boom
	})
	require.ErrorIs(t, err, boom)
	assert.Equal(t, defaultLockTTL, g.ttl)
}
