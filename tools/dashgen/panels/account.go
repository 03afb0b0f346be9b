package panels

import (
	"fmt"

	"github.com/grafana/grafana-foundation-sdk/go/common"
	"github.com/grafana/grafana-foundation-sdk/go/stat"
	"github.com/grafana/grafana-foundation-sdk/go/timeseries"
)

// RankFans returns a timeseries panel with the seller rank and fan count.
func RankFans() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Rank and Fans").
		Description("Seller reputation score and number of fans").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_account_rank{%s}", Job), "rank", "A")).
		WithTarget(PromQuery(fmt.Sprintf("fler_account_fans{%s}", Job), "fans", "B")).
		FillOpacity(0).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// Products returns a timeseries panel with available and sold product
// counts.
func Products() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Products").
		Description("Available products and products sold").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(TSWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_products_available{%s}", Job), "available", "A")).
		WithTarget(PromQuery(fmt.Sprintf("fler_products_sold{%s}", Job), "sold", "B")).
		FillOpacity(0).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}

// RatingStat returns a stat panel showing the positive rating percentage.
func RatingStat() *stat.PanelBuilder {
	return stat.NewPanelBuilder().
		Title("Rating").
		Description("Positive rating percentage").
		Datasource(DSRef()).
		Height(StatHeight).
		Span(StatWidth).
		WithTarget(PromQuery(fmt.Sprintf("fler_account_rating_pct{%s}", Job), "", "A")).
		Unit("percent").
		Thresholds(ThresholdsRedGreen(95)).
		ColorScheme(ColorSchemeThresholds()).
		ColorMode(common.BigValueColorModeBackground).
		GraphMode(common.BigValueGraphModeNone)
}

// CarbonLines returns a timeseries panel showing metric lines delivered to
// carbon and failed deliveries.
func CarbonLines() *timeseries.PanelBuilder {
	return timeseries.NewPanelBuilder().
		Title("Carbon Export").
		Description("Metric lines delivered to carbon and failed deliveries per minute").
		Datasource(DSRef()).
		Height(TSHeight).
		Span(18).
		WithTarget(PromQuery(fmt.Sprintf("rate(fler_carbon_lines_sent_total{%s}[5m]) * 60", Job), "lines/min", "A")).
		WithTarget(PromQuery(fmt.Sprintf("rate(fler_carbon_failures_total{%s}[5m]) * 60", Job), "failures/min", "B")).
		FillOpacity(10).
		LineWidth(2).
		Tooltip(MultiTooltip()).
		Thresholds(ThresholdsGreenOnly()).
		ColorScheme(ColorSchemePaletteClassic()).
		DrawStyle(common.GraphDrawStyleLine)
}
