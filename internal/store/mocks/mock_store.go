// Package mocks provides testify mocks for store.Store.
package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/donaldgifford/fler-tools/internal/store"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// MockStore is a testify mock implementing store.Store.
type MockStore struct {
	mock.Mock
}

var _ store.Store = (*MockStore)(nil)

// NewMockStore creates a MockStore whose expectations are asserted when the
// test finishes.
func NewMockStore(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockStore {
	m := &MockStore{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockStore) InsertJobRun(ctx context.Context, jobName string) (string, error) {
	args := m.Called(ctx, jobName)
	return args.String(0), args.Error(1)
}

func (m *MockStore) CompleteJobRun(ctx context.Context, id, status, errText string, rowsAffected int) error {
	return m.Called(ctx, id, status, errText, rowsAffected).Error(0)
}

func (m *MockStore) ListJobRuns(ctx context.Context, jobName string, limit int) ([]domain.JobRun, error) {
	args := m.Called(ctx, jobName, limit)
	runs, _ := args.Get(0).([]domain.JobRun)
	return runs, args.Error(1)
}

func (m *MockStore) ListLatestJobRuns(ctx context.Context) ([]domain.JobRun, error) {
	args := m.Called(ctx)
	runs, _ := args.Get(0).([]domain.JobRun)
	return runs, args.Error(1)
}

func (m *MockStore) RecoverStaleJobRuns(ctx context.Context, olderThan time.Duration) (int, error) {
	args := m.Called(ctx, olderThan)
	return args.Int(0), args.Error(1)
}

func (m *MockStore) AcquireSchedulerLock(ctx context.Context, jobName, holder string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, jobName, holder, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockStore) ReleaseSchedulerLock(ctx context.Context, jobName, holder string) error {
	return m.Called(ctx, jobName, holder).Error(0)
}

func (m *MockStore) InsertPromotions(
	ctx context.Context,
	runID string,
	at time.Time,
	outcomes []domain.PromotionOutcome,
) error {
	return m.Called(ctx, runID, at, outcomes).Error(0)
}

func (m *MockStore) ListPromotions(
	ctx context.Context,
	q *store.PromotionQuery,
) ([]domain.PromotionRecord, int, error) {
	args := m.Called(ctx, q)
	recs, _ := args.Get(0).([]domain.PromotionRecord)
	return recs, args.Int(1), args.Error(2)
}

func (m *MockStore) Migrate(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}

func (m *MockStore) Ping(ctx context.Context) error {
	return m.Called(ctx).Error(0)
}
