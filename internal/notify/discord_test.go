package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/donaldgifford/fler-tools/internal/metrics"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

func testSummary(topped int, halted bool) *domain.RunSummary {
	s := &domain.RunSummary{
		Eligible:   topped + 1,
		Rank:       85.2,
		Tier:       domain.QuotaTier{MinRank: 80, MaxPerDay: 4, Cooldown: 6 * time.Hour},
		Halted:     halted,
		FinishedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ToppedIDs:  []string{},
	}
	for i := range topped {
		s.Record(domain.PromotionOutcome{ListingID: fmt.Sprintf("%d", 100+i), Succeeded: true})
	}
	return s
}

func TestDiscordNotifier_SendRunSummary(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		summary    *domain.RunSummary
		runErr     error
		statusCode int
		wantErr    bool
		errMsg     string
		wantColor  int
		wantTitle  string
	}{
		{
			name:       "topped listings are green",
			summary:    testSummary(2, false),
			statusCode: http.StatusNoContent,
			wantColor:  colorGreen,
			wantTitle:  "Topped 2 listing(s)",
		},
		{
			name:       "quota exhausted is yellow",
			summary:    testSummary(1, true),
			statusCode: http.StatusNoContent,
			wantColor:  colorYellow,
			wantTitle:  "Topped 1 listing(s), quota exhausted",
		},
		{
			name:       "nothing topped is grey",
			summary:    testSummary(0, false),
			statusCode: http.StatusNoContent,
			wantColor:  colorGrey,
			wantTitle:  "Topped 0 listing(s)",
		},
		{
			name:       "failed run with partial summary is red",
			summary:    testSummary(1, false),
			runErr:     errors.New("topping listing 7: boom"),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
			wantTitle:  "Topping run failed after 1 promotion(s)",
		},
		{
			name:       "failed run without summary is red",
			runErr:     errors.New("fetching account info: timeout"),
			statusCode: http.StatusNoContent,
			wantColor:  colorRed,
			wantTitle:  "Topping run failed",
		},
		{
			name:       "discord returns 429 rate limited",
			summary:    testSummary(1, false),
			statusCode: http.StatusTooManyRequests,
			wantErr:    true,
			errMsg:     "rate limited",
		},
		{
			name:       "discord returns 400 error",
			summary:    testSummary(1, false),
			statusCode: http.StatusBadRequest,
			wantErr:    true,
			errMsg:     "discord returned 400",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var received discordWebhookPayload
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodPost, r.Method)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				assert.NoError(t, json.NewDecoder(r.Body).Decode(&received))
				w.WriteHeader(tt.statusCode)
			}))
			defer srv.Close()

			d := NewDiscordNotifier(srv.URL, WithUsername("fler"))
			err := d.SendRunSummary(context.Background(), tt.summary, tt.runErr)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "fler", received.Username)
			require.Len(t, received.Embeds, 1)
			assert.Equal(t, tt.wantColor, received.Embeds[0].Color)
			assert.Equal(t, tt.wantTitle, received.Embeds[0].Title)
			if tt.runErr != nil {
				assert.Contains(t, received.Embeds[0].Description, tt.runErr.Error())
			}
		})
	}
}

func TestBuildEmbed_TruncatesListingIDs(t *testing.T) {
	t.Parallel()

	embed := buildEmbed(testSummary(maxListedIDs+5, false), nil)

	var listings string
	for _, f := range embed.Fields {
		if f.Name == "Listings" {
			listings = f.Value
		}
	}
	assert.Contains(t, listings, "(+5 more)")
	assert.Equal(t, "2024-05-01T12:00:00Z", embed.Timestamp)
}

func TestDiscordNotifier_NetworkError(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("http://127.0.0.1:1")
	err := d.SendRunSummary(context.Background(), testSummary(1, false), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "sending discord webhook")
}

func TestDiscordNotifier_InvalidWebhookURL(t *testing.T) {
	t.Parallel()

	d := NewDiscordNotifier("://bad")
	err := d.SendRunSummary(context.Background(), testSummary(1, false), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "creating discord request")
}

func TestWithHTTPClient(t *testing.T) {
	t.Parallel()

	custom := &http.Client{}
	d := NewDiscordNotifier("https://example.com", WithHTTPClient(custom))
	assert.Same(t, custom, d.client)
}

func getNotificationHistogramSampleCount() uint64 {
	ch := make(chan prometheus.Metric, 1)
	metrics.NotificationDuration.Collect(ch)
	m := <-ch
	pb := &dto.Metric{}
	_ = m.Write(pb)
	return pb.GetHistogram().GetSampleCount()
}

func TestSendRunSummary_ObservesNotificationDuration(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	before := getNotificationHistogramSampleCount()

	d := NewDiscordNotifier(srv.URL)
	require.NoError(t, d.SendRunSummary(context.Background(), testSummary(1, false), nil))

	after := getNotificationHistogramSampleCount()
	assert.Greater(t, after, before, "NotificationDuration histogram sample count should increase")
}

// compile-time interface check.
var _ Notifier = (*DiscordNotifier)(nil)
