package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetryingHTTPClient(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		failures  int32
		failCode  int
		wantErr   bool
		wantCalls int32
	}{
		{name: "succeeds first time", wantCalls: 1},
		{name: "retries server errors", failures: 2, failCode: http.StatusBadGateway, wantCalls: 3},
		{name: "gives up after max retries", failures: 10, failCode: http.StatusServiceUnavailable, wantErr: true, wantCalls: 3},
		{name: "does not retry client errors", failures: 10, failCode: http.StatusBadRequest, wantErr: true, wantCalls: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var calls atomic.Int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				if calls.Add(1) <= tt.failures {
					w.WriteHeader(tt.failCode)
					return
				}
				w.WriteHeader(http.StatusNoContent)
			}))
			defer srv.Close()

			client := NewRetryingHTTPClient(2, time.Millisecond, 5*time.Millisecond, nil)
			d := NewDiscordNotifier(srv.URL, WithHTTPClient(client))

			err := d.SendRunSummary(context.Background(), testSummary(1, false), nil)
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantCalls, calls.Load())
		})
	}
}
