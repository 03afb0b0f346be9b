package engine

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/fler"
	notifyMocks "github.com/donaldgifford/fler-tools/internal/notify/mocks"
	storeMocks "github.com/donaldgifford/fler-tools/internal/store/mocks"
	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

var testNow = time.Unix(1_700_000_000, 0)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAPI struct {
	accountErr error
	quotaAfter int
	calls      int
}

func (f *fakeAPI) AccountInfo(_ context.Context) (*domain.Account, error) {
	if f.accountErr != nil {
		return nil, f.accountErr
	}
	return &domain.Account{Seller: domain.Seller{FlerRank: 85}}, nil
}

func (f *fakeAPI) Products(_ context.Context, _ fler.ProductQuery) ([]domain.Listing, error) {
	ts := func(d time.Duration) domain.Epoch {
		return domain.Epoch(strconv.FormatInt(testNow.Add(-d).Unix(), 10))
	}
	return []domain.Listing{
		{ID: "1", IsTopable: true, TsTop: ts(7 * time.Hour)},
		{ID: "2", IsTopable: true, TsTop: ts(10 * time.Hour)},
	}, nil
}

func (f *fakeAPI) Top(_ context.Context, _ string) (json.RawMessage, error) {
	f.calls++
	if f.quotaAfter > 0 && f.calls > f.quotaAfter {
		return nil, &fler.APIError{Message: fler.PromotionUnavailable}
	}
	return json.RawMessage(`{}`), nil
}

type fakeExporter struct {
	lines int
	err   error
}

func (f *fakeExporter) Export(_ context.Context) (int, error) {
	return f.lines, f.err
}

func newRunner(api fler.API) *topping.Runner {
	return topping.NewRunner(api,
		topping.WithLogger(quietLogger()),
		topping.WithNowFunc(func() time.Time { return testNow }),
	)
}

func TestNewEngine_Defaults(t *testing.T) {
	t.Parallel()

	eng := NewEngine(newRunner(&fakeAPI{}), nil, WithLogger(quietLogger()))

	assert.NotNil(t, eng.notifier)
	assert.NotEmpty(t, eng.holder)
	assert.Nil(t, eng.Store())
	assert.Equal(t, defaultLockTTL, eng.lockTTL)
}

func TestNewEngine_WithOptions(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mn := notifyMocks.NewMockNotifier(t)

	eng := NewEngine(newRunner(&fakeAPI{}), nil,
		WithLogger(quietLogger()),
		WithStore(ms),
		WithNotifier(mn),
		WithLockTTL(time.Minute),
		WithHolder("host-a"),
	)

	assert.Same(t, ms, eng.Store())
	assert.Same(t, mn, eng.notifier)
	assert.Equal(t, "host-a", eng.holder)
	assert.Equal(t, time.Minute, eng.lockTTL)
}

func TestRunTop_NoStore(t *testing.T) {
	t.Parallel()

	mn := notifyMocks.NewMockNotifier(t)
	mn.On("SendRunSummary", mock.Anything, mock.AnythingOfType("*domain.RunSummary"), nil).Return(nil).Once()

	eng := NewEngine(newRunner(&fakeAPI{}), nil, WithLogger(quietLogger()), WithNotifier(mn))

	summary, err := eng.RunTop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "1"}, summary.ToppedIDs)
}

func TestRunTop_RecordsLedgerAndPromotions(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mn := notifyMocks.NewMockNotifier(t)

	ms.On("AcquireSchedulerLock", mock.Anything, JobTop, "host-a", time.Minute).Return(true, nil).Once()
	ms.On("InsertJobRun", mock.Anything, JobTop).Return("run-1", nil).Once()
	ms.On("InsertPromotions", mock.Anything, "run-1", mock.AnythingOfType("time.Time"),
		mock.MatchedBy(func(o []domain.PromotionOutcome) bool {
			return len(o) == 2 && o[0].Succeeded && o[1].HaltedRun
		}),
	).Return(nil).Once()
	ms.On("CompleteJobRun", mock.Anything, "run-1", domain.JobStatusHalted, "", 1).Return(nil).Once()
	ms.On("ReleaseSchedulerLock", mock.Anything, JobTop, "host-a").Return(nil).Once()
	mn.On("SendRunSummary", mock.Anything, mock.Anything, nil).Return(nil).Once()

	eng := NewEngine(newRunner(&fakeAPI{quotaAfter: 1}), nil,
		WithLogger(quietLogger()),
		WithStore(ms),
		WithNotifier(mn),
		WithLockTTL(time.Minute),
		WithHolder("host-a"),
	)

	summary, err := eng.RunTop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.ToppedCount)
	assert.True(t, summary.Halted)
}

func TestRunTop_LockHeldElsewhere(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mn := notifyMocks.NewMockNotifier(t)
	ms.On("AcquireSchedulerLock", mock.Anything, JobTop, "host-a", mock.Anything).Return(false, nil).Once()

	api := &fakeAPI{}
	eng := NewEngine(newRunner(api), nil,
		WithLogger(quietLogger()),
		WithStore(ms),
		WithNotifier(mn),
		WithHolder("host-a"),
	)

	summary, err := eng.RunTop(context.Background())
	require.ErrorIs(t, err, ErrLockHeld)
	assert.Nil(t, summary)
	assert.Zero(t, api.calls)
	mn.AssertNotCalled(t, "SendRunSummary", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunTop_FailureIsRecordedAndNotified(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	mn := notifyMocks.NewMockNotifier(t)
	boom := errors.New("boom")

	ms.On("AcquireSchedulerLock", mock.Anything, JobTop, mock.Anything, mock.Anything).Return(true, nil).Once()
	ms.On("InsertJobRun", mock.Anything, JobTop).Return("run-2", nil).Once()
	ms.On("CompleteJobRun", mock.Anything, "run-2", domain.JobStatusFailed,
		mock.MatchedBy(func(s string) bool { return s != "" }), 0,
	).Return(nil).Once()
	ms.On("ReleaseSchedulerLock", mock.Anything, JobTop, mock.Anything).Return(nil).Once()
	mn.On("SendRunSummary", mock.Anything, (*domain.RunSummary)(nil),
		mock.MatchedBy(func(err error) bool { return errors.Is(err, boom) }),
	).Return(errors.New("webhook down")).Once()

	eng := NewEngine(newRunner(&fakeAPI{accountErr: boom}), nil,
		WithLogger(quietLogger()),
		WithStore(ms),
		WithNotifier(mn),
	)

	summary, err := eng.RunTop(context.Background())
	require.ErrorIs(t, err, boom)
	assert.Nil(t, summary)
}

func TestRunTop_LedgerStartFailureStillRuns(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.On("AcquireSchedulerLock", mock.Anything, JobTop, mock.Anything, mock.Anything).Return(true, nil).Once()
	ms.On("InsertJobRun", mock.Anything, JobTop).Return("", errors.New("db full")).Once()
	ms.On("InsertPromotions", mock.Anything, "", mock.Anything, mock.Anything).Return(nil).Once()
	ms.On("ReleaseSchedulerLock", mock.Anything, JobTop, mock.Anything).Return(nil).Once()

	eng := NewEngine(newRunner(&fakeAPI{}), nil, WithLogger(quietLogger()), WithStore(ms))

	summary, err := eng.RunTop(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ToppedCount)
}

func TestExportStats(t *testing.T) {
	t.Parallel()

	t.Run("disabled", func(t *testing.T) {
		t.Parallel()
		eng := NewEngine(newRunner(&fakeAPI{}), nil, WithLogger(quietLogger()))
		_, err := eng.ExportStats(context.Background())
		require.ErrorIs(t, err, ErrStatsDisabled)
	})

	t.Run("records rows", func(t *testing.T) {
		t.Parallel()
		ms := storeMocks.NewMockStore(t)
		ms.On("AcquireSchedulerLock", mock.Anything, JobStats, mock.Anything, mock.Anything).Return(true, nil).Once()
		ms.On("InsertJobRun", mock.Anything, JobStats).Return("run-3", nil).Once()
		ms.On("CompleteJobRun", mock.Anything, "run-3", domain.JobStatusSucceeded, "", 16).Return(nil).Once()
		ms.On("ReleaseSchedulerLock", mock.Anything, JobStats, mock.Anything).Return(nil).Once()

		eng := NewEngine(newRunner(&fakeAPI{}), &fakeExporter{lines: 16}, WithLogger(quietLogger()), WithStore(ms))
		n, err := eng.ExportStats(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 16, n)
	})

	t.Run("exporter error", func(t *testing.T) {
		t.Parallel()
		eng := NewEngine(newRunner(&fakeAPI{}), &fakeExporter{err: errors.New("carbon down")}, WithLogger(quietLogger()))
		_, err := eng.ExportStats(context.Background())
		require.Error(t, err)
	})
}

func TestRecoverStaleRuns(t *testing.T) {
	t.Parallel()

	ms := storeMocks.NewMockStore(t)
	ms.On("RecoverStaleJobRuns", mock.Anything, 2*time.Minute).Return(3, nil).Once()

	eng := NewEngine(newRunner(&fakeAPI{}), nil,
		WithLogger(quietLogger()),
		WithStore(ms),
		WithLockTTL(time.Minute),
	)
	require.NoError(t, eng.RecoverStaleRuns(context.Background()))

	noStore := NewEngine(newRunner(&fakeAPI{}), nil, WithLogger(quietLogger()))
	require.NoError(t, noStore.RecoverStaleRuns(context.Background()))
}
