// Package mocks provides testify mocks for notify.Notifier.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/donaldgifford/fler-tools/internal/notify"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

// MockNotifier is a testify mock implementing notify.Notifier.
type MockNotifier struct {
	mock.Mock
}

var _ notify.Notifier = (*MockNotifier)(nil)

// NewMockNotifier creates a MockNotifier whose expectations are asserted
// when the test finishes.
func NewMockNotifier(t interface {
	mock.TestingT
	Cleanup(func())
},
) *MockNotifier {
	m := &MockNotifier{}
	m.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *MockNotifier) SendRunSummary(ctx context.Context, summary *domain.RunSummary, runErr error) error {
	return m.Called(ctx, summary, runErr).Error(0)
}
