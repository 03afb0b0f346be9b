package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	io_prometheus_client "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	mw "github.com/donaldgifford/fler-tools/internal/api/middleware"
	"github.com/donaldgifford/fler-tools/internal/metrics"
)

func TestMetricsMiddleware(t *testing.T) {
	tests := []struct {
		name   string
		method string
		route  string
		target string
		status int
	}{
		{name: "records trigger", method: http.MethodPost, route: "/api/v1/top", target: "/api/v1/top", status: http.StatusOK},
		{name: "records conflict", method: http.MethodPost, route: "/api/v1/stats/export", target: "/api/v1/stats/export", status: http.StatusConflict},
		{name: "uses route template", method: http.MethodGet, route: "/api/v1/jobs/:job_name", target: "/api/v1/jobs/top", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := echo.New()
			e.Use(mw.Metrics())
			e.Add(tt.method, tt.route, func(c echo.Context) error {
				return c.NoContent(tt.status)
			})

			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, httptest.NewRequest(tt.method, tt.target, http.NoBody))
			require.Equal(t, tt.status, rec.Code)

			labels := []string{tt.method, tt.route, strconv.Itoa(tt.status)}
			assert.Positive(t, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(labels...)))

			observer, err := metrics.HTTPRequestDuration.GetMetricWithLabelValues(labels...)
			require.NoError(t, err)
			m := &io_prometheus_client.Metric{}
			require.NoError(t, observer.(prometheus.Metric).Write(m))
			assert.Positive(t, m.GetHistogram().GetSampleCount())
		})
	}
}

func TestMetricsMiddleware_ProbeGauges(t *testing.T) {
	e := echo.New()
	e.Use(mw.Metrics())

	healthy := true
	e.GET("/readyz", func(c echo.Context) error {
		if healthy {
			return c.NoContent(http.StatusOK)
		}
		return c.NoContent(http.StatusServiceUnavailable)
	})

	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.InDelta(t, 1.0, testutil.ToFloat64(metrics.ReadyzUp), 0)

	healthy = false
	e.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/readyz", http.NoBody))
	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.ReadyzUp), 0)

	assert.InDelta(t, 0.0, testutil.ToFloat64(metrics.HTTPRequestsTotal.WithLabelValues(http.MethodGet, "/readyz", "200")), 0)
}
