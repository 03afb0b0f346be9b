// Package metrics defines Prometheus metrics for fler-tools.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "fler"

// HTTP metrics for the daemon's own API.
var (
	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "Duration of HTTP requests in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests.",
	}, []string{"method", "path", "status"})

	HealthzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "healthz_up",
		Help:      "1 if the last /healthz probe succeeded.",
	})

	ReadyzUp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "readyz_up",
		Help:      "1 if the last /readyz probe succeeded.",
	})
)

// Fler API client metrics.
var (
	APICallsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_calls_total",
		Help:      "Total Fler API calls by endpoint and outcome.",
	}, []string{"endpoint", "outcome"})

	APICallDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "api_call_duration_seconds",
		Help:      "Duration of Fler API calls in seconds.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"endpoint"})

	APIDailyUsage = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "api_daily_usage",
		Help:      "Fler API calls made within the rolling 24-hour budget window.",
	})

	APIDailyLimitHits = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "api_daily_limit_hits_total",
		Help:      "Total number of calls refused by the client-side daily budget.",
	})
)

// Topping metrics.
var (
	TopRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "top_runs_total",
		Help:      "Total topping runs by result (completed, halted, failed).",
	}, []string{"result"})

	TopRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "top_run_duration_seconds",
		Help:      "Duration of topping runs in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	ListingsToppedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "listings_topped_total",
		Help:      "Total number of successful listing promotions.",
	})

	PromotionFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "promotion_failures_total",
		Help:      "Total promotion attempts that failed for a reason other than quota exhaustion.",
	})

	QuotaExhaustedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_exhausted_total",
		Help:      "Total runs halted by the server's promotion-unavailable signal.",
	})

	EligibleListings = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "eligible_listings",
		Help:      "Listings eligible for promotion in the most recent run.",
	})

	TierCooldownSeconds = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tier_cooldown_seconds",
		Help:      "Cooldown of the quota tier resolved in the most recent run.",
	})

	TierMaxPerDay = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "tier_max_per_day",
		Help:      "Informational daily promotion allowance of the resolved tier.",
	})
)

// Account statistics, refreshed by each stats export.
var (
	AccountRank = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "account_rank",
		Help:      "Seller reputation score (fler_rank).",
	})

	AccountFans = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "account_fans",
		Help:      "Number of fans of the seller account.",
	})

	AccountRatingPct = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "account_rating_pct",
		Help:      "Positive rating percentage of the seller account.",
	})

	ProductsAvailable = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "products_available",
		Help:      "Number of available products.",
	})

	ProductsSold = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "products_sold",
		Help:      "Number of products sold by the account.",
	})
)

// Carbon export metrics.
var (
	CarbonLinesSentTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carbon_lines_sent_total",
		Help:      "Total metric lines delivered to the carbon sink.",
	})

	CarbonFailuresTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "carbon_failures_total",
		Help:      "Total failed carbon deliveries.",
	})
)

// Scheduler metrics.
var (
	SchedulerNextTopTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_top_timestamp",
		Help:      "Unix time of the next scheduled topping run.",
	})

	SchedulerNextStatsTimestamp = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "scheduler_next_stats_timestamp",
		Help:      "Unix time of the next scheduled statistics export.",
	})

	SchedulerSkippedRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "scheduler_skipped_runs_total",
		Help:      "Runs skipped because another run held the lock.",
	}, []string{"job_name"})
)

// Notification metrics.
var (
	NotificationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "notification_duration_seconds",
		Help:      "Duration of run summary notification deliveries in seconds.",
		Buckets:   prometheus.DefBuckets,
	})

	NotificationsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total run summary notifications by result (sent, failed).",
	}, []string{"result"})
)
