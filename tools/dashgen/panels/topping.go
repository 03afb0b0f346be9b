package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// ToppedPerHour returns a timeseries panel showing successful promotions
// and failed attempts per hour.
func ToppedPerHour() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Promotions / hour").
		Description("Successful listing promotions and failed attempts per hour").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(`fler:listings_topped:rate1h * 3600`, "topped", "A")).
		WithTarget(PromQuery(
			fmt.Sprintf("rate(fler_promotion_failures_total{%s}[1h]) * 3600", Job),
			"failed", "B",
		)).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// TopRunsByResult returns a timeseries panel showing topping runs per hour
// by result.
func TopRunsByResult() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Runs by Result").
		Description("Topping runs per hour (completed, halted, failed)").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(
			fmt.Sprintf("sum(increase(fler_top_runs_total{%s}[1h])) by (result)", Job),
			"{{result}}", "A",
		)).
		FillOpacity(10).
		LineWidth(2).
		Legend(TableLegend("sum")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleBars)
}

// RunDuration returns a timeseries panel showing the p95 topping run
// duration.
func RunDuration() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Run Duration (p95)").
		Description("95th percentile topping run duration").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(8).
		WithTarget(PromQuery(Quantile(0.95, "fler_top_run_duration_seconds"), "p95", "A")).
		Unit("s").
		FillOpacity(10).
		LineWidth(2).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// EligibleStat returns a stat panel showing the listings eligible in the
// most recent run.
func EligibleStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Eligible Listings").
		Description("Listings past their cooldown in the most recent run").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_eligible_listings{%s}", Job), "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeArea)
}

// CooldownStat returns a stat panel showing the cooldown of the resolved
// quota tier.
func CooldownStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Tier Cooldown").
		Description("Cooldown of the quota tier resolved from the seller rank").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_tier_cooldown_seconds{%s}", Job), "", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}

// QuotaExhaustedStat returns a stat panel counting runs halted by the
// server's promotion-unavailable answer in the past 24 hours.
func QuotaExhaustedStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Quota Halts (24h)").
		Description("Runs stopped because the promotion quota was used up").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(fmt.Sprintf("increase(fler_quota_exhausted_total{%s}[24h])", Job), "", "A")).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		GraphMode(common.BigValueGraphModeNone)
}

// NextTopStat returns a stat panel showing time until the next scheduled
// topping run.
func NextTopStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Next Run").
		Description("Time until the next scheduled topping run").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_scheduler_next_top_timestamp{%s} - time()", Job), "", "A")).
		Unit("s").
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}
