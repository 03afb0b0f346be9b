package rules

// AlertRules returns a PrometheusRule CR containing alert rules for
// fler-tools operational monitoring.
func AlertRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fler-alerts",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fler-alerts",
					Rules: []Rule{
						{
							Alert: "FlerDown",
							Expr:  `absent(up{job="fler"})`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "The fler daemon is down",
								"description": "The fler job has been absent for more than 2 minutes.",
							},
						},
						{
							Alert: "FlerReadinessDown",
							Expr:  `fler_readyz_up == 0`,
							For:   "2m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "The fler readiness check is failing",
								"description": "The readiness probe has been reporting not-ready for more than 2 minutes.",
							},
						},
						{
							Alert: "FlerHighErrorRate",
							Expr:  `fler:http_errors:rate5m / fler:http_requests:rate5m > 0.05`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "High HTTP error rate on the fler daemon",
								"description": "More than 5% of HTTP requests are returning 5xx errors over the last 5 minutes.",
							},
						},
						{
							Alert: "FlerTopRunsFailing",
							Expr:  `increase(fler_top_runs_total{result="failed"}[1h]) > 1`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Topping runs are failing",
								"description": "More than one topping run failed in the last hour. Check credentials and the Fler API.",
							},
						},
						{
							Alert: "FlerToppingStalled",
							Expr:  `increase(fler_listings_topped_total[24h]) == 0 and fler_eligible_listings > 0`,
							For:   "1h",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "No listing has been promoted for 24 hours",
								"description": "Listings are eligible for promotion but none was topped in the last 24 hours.",
							},
						},
						{
							Alert: "FlerAPIBudgetHigh",
							Expr:  `fler_api_daily_usage > 1600`,
							For:   "5m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Fler API daily usage is above 80% of the budget",
								"description": "Rolling 24h Fler API usage has exceeded 1600 calls (default budget is 2000).",
							},
						},
						{
							Alert: "FlerAPIBudgetExhausted",
							Expr:  `increase(fler_api_daily_limit_hits_total[5m]) > 0`,
							For:   "0m",
							Labels: map[string]string{
								"severity": "critical",
							},
							Annotations: map[string]string{
								"summary":     "Fler API daily budget has been reached",
								"description": "Calls are being refused by the client-side budget. Topping and stats export pause until the window rolls over.",
							},
						},
						{
							Alert: "FlerCarbonFailures",
							Expr:  `increase(fler_carbon_failures_total[15m]) > 0`,
							For:   "15m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Stats export to carbon is failing",
								"description": "Account statistics could not be delivered to the carbon server for 15 minutes.",
							},
						},
						{
							Alert: "FlerNotificationFailures",
							Expr:  `increase(fler_notifications_total{result="failed"}[5m]) > 0`,
							For:   "1m",
							Labels: map[string]string{
								"severity": "warning",
							},
							Annotations: map[string]string{
								"summary":     "Notification delivery failures detected",
								"description": "One or more run summaries (Discord webhooks) failed to send after retries.",
							},
						},
					},
				},
			},
		},
	}
}
