package main

import "errors"

// KnownMetrics is the set of metric names exported by the fler daemon plus
// recording rule names referenced in dashboards and alerts.
var KnownMetrics = map[string]bool{
	// HTTP metrics.
	"fler_http_request_duration_seconds": true,
	"fler_http_requests_total":           true,

	// Health metrics.
	"fler_healthz_up": true,
	"fler_readyz_up":  true,

	// Fler API client metrics.
	"fler_api_calls_total":            true,
	"fler_api_call_duration_seconds":  true,
	"fler_api_daily_usage":            true,
	"fler_api_daily_limit_hits_total": true,

	// Topping metrics.
	"fler_top_runs_total":           true,
	"fler_top_run_duration_seconds": true,
	"fler_listings_topped_total":    true,
	"fler_promotion_failures_total": true,
	"fler_quota_exhausted_total":    true,
	"fler_eligible_listings":        true,
	"fler_tier_cooldown_seconds":    true,
	"fler_tier_max_per_day":         true,

	// Account statistics.
	"fler_account_rank":       true,
	"fler_account_fans":       true,
	"fler_account_rating_pct": true,
	"fler_products_available": true,
	"fler_products_sold":      true,

	// Carbon export metrics.
	"fler_carbon_lines_sent_total": true,
	"fler_carbon_failures_total":   true,

	// Scheduler metrics.
	"fler_scheduler_next_top_timestamp":   true,
	"fler_scheduler_next_stats_timestamp": true,
	"fler_scheduler_skipped_runs_total":   true,

	// Notification metrics.
	"fler_notification_duration_seconds": true,
	"fler_notifications_total":           true,

	// Recording rules.
	"fler:http_requests:rate5m":   true,
	"fler:http_errors:rate5m":     true,
	"fler:api_calls:rate5m":       true,
	"fler:listings_topped:rate1h": true,

	// Standard Prometheus metrics referenced in dashboards.
	"up":                         true,
	"process_start_time_seconds": true,
}

// Config controls which artifacts the generator produces and where they go.
type Config struct {
	OutputDir        string
	DashboardEnabled bool
	RulesEnabled     bool
}

// DefaultConfig returns a Config that generates all artifacts into ../../deploy
// (relative to tools/dashgen/).
func DefaultConfig() Config {
	return Config{
		OutputDir:        "../../deploy",
		DashboardEnabled: true,
		RulesEnabled:     true,
	}
}

// Validate checks that the config is usable.
func (c Config) Validate() error {
	if c.OutputDir == "" {
		return errors.New("output directory must be set")
	}
	if !c.DashboardEnabled && !c.RulesEnabled {
		return errors.New("at least one of dashboard or rules must be enabled")
	}
	return nil
}
