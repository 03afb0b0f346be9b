// Package dashboards assembles Grafana dashboard definitions from panel builders.
package dashboards

import (
	"github.com/grafana/grafana-foundation-sdk/go/dashboard"

	"github.com/donaldgifford/fler-tools/tools/dashgen/panels"
)

// UID is the stable dashboard identifier.
const UID = "fler-overview"

// BuildOverview constructs the Fler Overview dashboard with all metric rows.
func BuildOverview() *dashboard.DashboardBuilder {
	b := dashboard.NewDashboardBuilder("Fler Overview").
		Uid(UID).
		Tags([]string{"fler", "fler-tools"}).
		Refresh("1m").
		Time("now-24h", "now").
		Timezone("browser").
		Editable().
		Tooltip(dashboard.DashboardCursorSyncCrosshair).
		WithVariable(datasourceVar())

	// Row 1: Overview.
	b.WithRow(dashboard.NewRowBuilder("Overview").
		WithPanel(panels.HealthzStat()).
		WithPanel(panels.ReadyzStat()).
		WithPanel(panels.BudgetGauge()).
		WithPanel(panels.UptimeStat()))

	// Row 2: Topping state.
	b.WithRow(dashboard.NewRowBuilder("Topping").
		WithPanel(panels.EligibleStat()).
		WithPanel(panels.CooldownStat()).
		WithPanel(panels.QuotaExhaustedStat()).
		WithPanel(panels.NextTopStat()))

	// Row 3: Topping history.
	b.WithRow(dashboard.NewRowBuilder("Runs").
		WithPanel(panels.ToppedPerHour()).
		WithPanel(panels.TopRunsByResult()).
		WithPanel(panels.RunDuration()))

	// Row 4: Fler API.
	b.WithRow(dashboard.NewRowBuilder("Fler API").
		WithPanel(panels.APICallsRate()).
		WithPanel(panels.APILatency()).
		WithPanel(panels.DailyUsage()).
		WithPanel(panels.LimitHits()))

	// Row 5: Account statistics.
	b.WithRow(dashboard.NewRowBuilder("Account").
		WithPanel(panels.RatingStat()).
		WithPanel(panels.CarbonLines()).
		WithPanel(panels.RankFans()).
		WithPanel(panels.Products()))

	// Row 6: HTTP.
	b.WithRow(dashboard.NewRowBuilder("HTTP").
		WithPanel(panels.RequestRate()).
		WithPanel(panels.LatencyPercentiles()).
		WithPanel(panels.ErrorRate()))

	// Row 7: Notifications and scheduling.
	b.WithRow(dashboard.NewRowBuilder("Notifications").
		WithPanel(panels.NotificationLatency()).
		WithPanel(panels.NotificationFailures()).
		WithPanel(panels.SkippedRuns()))

	return b
}

func datasourceVar() *dashboard.DatasourceVariableBuilder {
	return dashboard.NewDatasourceVariableBuilder("datasource").
		Label("Datasource").
		Type("prometheus")
}
