package rules

// RecordingRules returns a PrometheusRule CR containing pre-computed rate
// expressions used by dashboards and alert rules.
func RecordingRules() PrometheusRule {
	return PrometheusRule{
		APIVersion: "monitoring.coreos.com/v1",
		Kind:       "PrometheusRule",
		Metadata: PrometheusRuleMetadata{
			Name: "fler-recording-rules",
			Labels: map[string]string{
				"prometheus": "system-rules-prometheus",
			},
		},
		Spec: PrometheusRuleSpec{
			Groups: []RuleGroup{
				{
					Name: "fler-recording",
					Rules: []Rule{
						{
							Record: "fler:http_requests:rate5m",
							Expr:   `sum(rate(fler_http_requests_total[5m]))`,
						},
						{
							Record: "fler:http_errors:rate5m",
							Expr:   `sum(rate(fler_http_requests_total{status=~"5.."}[5m]))`,
						},
						{
							Record: "fler:api_calls:rate5m",
							Expr:   `sum(rate(fler_api_calls_total[5m])) by (outcome)`,
						},
						{
							Record: "fler:listings_topped:rate1h",
							Expr:   `rate(fler_listings_topped_total[1h])`,
						},
					},
				},
			},
		},
	}
}
