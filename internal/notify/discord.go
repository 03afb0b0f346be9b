package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/donaldgifford/fler-tools/internal/metrics"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

const (
	colorGreen  = 0x2ECC71 // listings topped
	colorYellow = 0xF1C40F // quota exhausted
	colorGrey   = 0x95A5A6 // nothing to do
	colorRed    = 0xE74C3C // run failed

	maxListedIDs = 20
)

// DiscordNotifier implements Notifier via Discord webhook.
type DiscordNotifier struct {
	webhookURL string
	username   string
	client     *http.Client
}

// NewDiscordNotifier creates a new DiscordNotifier.
func NewDiscordNotifier(webhookURL string, opts ...DiscordOption) *DiscordNotifier {
	d := &DiscordNotifier{
		webhookURL: webhookURL,
		client:     http.DefaultClient,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// DiscordOption configures a DiscordNotifier.
type DiscordOption func(*DiscordNotifier)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(c *http.Client) DiscordOption {
	return func(d *DiscordNotifier) {
		d.client = c
	}
}

// WithUsername overrides the webhook's display name.
func WithUsername(name string) DiscordOption {
	return func(d *DiscordNotifier) {
		d.username = name
	}
}

type discordWebhookPayload struct {
	Username string         `json:"username,omitempty"`
	Embeds   []discordEmbed `json:"embeds"`
}

type discordEmbed struct {
	Title       string              `json:"title"`
	Color       int                 `json:"color"`
	Description string              `json:"description,omitempty"`
	Fields      []discordEmbedField `json:"fields,omitempty"`
	Timestamp   string              `json:"timestamp,omitempty"`
}

type discordEmbedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// SendRunSummary posts the run outcome as a single embed.
func (d *DiscordNotifier) SendRunSummary(ctx context.Context, summary *domain.RunSummary, runErr error) error {
	payload := discordWebhookPayload{
		Username: d.username,
		Embeds:   []discordEmbed{buildEmbed(summary, runErr)},
	}
	return d.post(ctx, payload)
}

func buildEmbed(summary *domain.RunSummary, runErr error) discordEmbed {
	if summary == nil {
		return discordEmbed{
			Title:       "Topping run failed",
			Color:       colorRed,
			Description: errText(runErr),
		}
	}

	embed := discordEmbed{
		Title: runTitle(summary, runErr),
		Color: runColor(summary, runErr),
		Fields: []discordEmbedField{
			{Name: "Topped", Value: fmt.Sprintf("%d of %d eligible", summary.ToppedCount, summary.Eligible), Inline: true},
			{Name: "Rank", Value: fmt.Sprintf("%.1f", summary.Rank), Inline: true},
			{Name: "Cooldown", Value: summary.Tier.Cooldown.String(), Inline: true},
		},
	}
	if !summary.FinishedAt.IsZero() {
		embed.Timestamp = summary.FinishedAt.UTC().Format(time.RFC3339)
	}

	if len(summary.ToppedIDs) > 0 {
		ids := summary.ToppedIDs
		more := ""
		if len(ids) > maxListedIDs {
			more = fmt.Sprintf(" (+%d more)", len(ids)-maxListedIDs)
			ids = ids[:maxListedIDs]
		}
		embed.Fields = append(embed.Fields, discordEmbedField{
			Name:  "Listings",
			Value: strings.Join(ids, ", ") + more,
		})
	}

	if runErr != nil {
		embed.Description = errText(runErr)
	}
	return embed
}

func runTitle(s *domain.RunSummary, runErr error) string {
	switch {
	case runErr != nil:
		return fmt.Sprintf("Topping run failed after %d promotion(s)", s.ToppedCount)
	case s.DryRun:
		return fmt.Sprintf("Dry run: %d listing(s) eligible", s.Eligible)
	case s.Halted:
		return fmt.Sprintf("Topped %d listing(s), quota exhausted", s.ToppedCount)
	default:
		return fmt.Sprintf("Topped %d listing(s)", s.ToppedCount)
	}
}

func runColor(s *domain.RunSummary, runErr error) int {
	switch {
	case runErr != nil:
		return colorRed
	case s.Halted:
		return colorYellow
	case s.ToppedCount > 0:
		return colorGreen
	default:
		return colorGrey
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	if len(msg) > 1000 {
		msg = msg[:1000] + "..."
	}
	return "```" + msg + "```"
}

func (d *DiscordNotifier) post(ctx context.Context, payload discordWebhookPayload) (err error) {
	start := time.Now()
	defer func() {
		metrics.NotificationDuration.Observe(time.Since(start).Seconds())
		result := "sent"
		if err != nil {
			result = "failed"
		}
		metrics.NotificationsTotal.WithLabelValues(result).Inc()
	}()

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshaling discord payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("creating discord request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return fmt.Errorf("sending discord webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("discord rate limited (429)")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return fmt.Errorf("discord returned %d (body unreadable)", resp.StatusCode)
		}
		return fmt.Errorf("discord returned %d: %s", resp.StatusCode, respBody)
	}

	return nil
}
