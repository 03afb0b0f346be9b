package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humaecho"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/api/openapi"
	"github.com/donaldgifford/fler-tools/internal/api/handlers"
	mw "github.com/donaldgifford/fler-tools/internal/api/middleware"
	"github.com/donaldgifford/fler-tools/internal/engine"
	"github.com/donaldgifford/fler-tools/internal/stats"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the daemon: scheduler, HTTP API and metrics",
		Long: "Run topping passes every top.interval and stats exports every\n" +
			"carbon.interval, and serve the HTTP API, health probes and Prometheus\n" +
			"metrics until interrupted.",
		RunE: runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.connectFler(); err != nil {
		return err
	}
	if err := a.openStore(ctx, false); err != nil {
		return err
	}

	var exporter *stats.Exporter
	if a.cfg.Carbon.Enabled {
		if exporter, err = a.newExporter(nil); err != nil {
			return err
		}
	}

	eng := a.newEngine(exporter)
	if err := eng.RecoverStaleRuns(ctx); err != nil {
		a.log.Warn("recovering stale runs", "error", err)
	}

	sched, err := newScheduler(a, eng)
	if err != nil {
		return err
	}
	if sched != nil {
		sched.Start()
	}

	e := newServer(a, eng)
	addr := fmt.Sprintf("%s:%d", a.cfg.Server.Host, a.cfg.Server.Port)

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("starting server", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
	case err = <-errCh:
	}

	a.log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if sched != nil {
		select {
		case <-sched.Stop().Done():
		case <-shutdownCtx.Done():
			a.log.Warn("scheduled job still running at shutdown")
		}
	}
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		err = errors.Join(err, fmt.Errorf("shutting down server: %w", serr))
	}

	a.log.Info("server stopped")
	return err
}

// newScheduler returns nil when neither topping nor stats export is
// scheduled.
func newScheduler(a *app, eng *engine.Engine) (*engine.Scheduler, error) {
	var topEvery, statsEvery time.Duration
	if a.cfg.Top.Enabled {
		topEvery = a.cfg.Top.Interval
	}
	if a.cfg.Carbon.Enabled {
		statsEvery = a.cfg.Carbon.Interval
	}
	if topEvery <= 0 && statsEvery <= 0 {
		a.log.Warn("no scheduled jobs; serving the API only")
		return nil, nil
	}
	return engine.NewScheduler(eng, topEvery, statsEvery, a.log)
}

// newServer builds the Echo server with the health probes, the metrics
// endpoint and the Huma API.
func newServer(a *app, eng *engine.Engine) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = a.cfg.Server.ReadTimeout
	e.Server.WriteTimeout = a.cfg.Server.WriteTimeout

	e.Use(mw.Recovery(a.log), mw.RequestLog(a.log), mw.Metrics())

	health := handlers.NewHealthHandler(a.store)
	e.GET("/healthz", health.Healthz)
	e.GET("/readyz", health.Readyz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := humaecho.New(e, huma.DefaultConfig("fler", Version))
	openapi.RegisterRoutes(e)

	handlers.RegisterTierRoutes(api, handlers.NewTierHandler())
	handlers.RegisterQuotaRoutes(api, handlers.NewQuotaHandler(a.budget))
	handlers.RegisterListingRoutes(api, handlers.NewListingsHandler(a.client, nil))
	handlers.RegisterTriggerRoutes(api, handlers.NewTriggerHandler(eng, eng))
	if a.store != nil {
		handlers.RegisterJobRoutes(api, handlers.NewJobsHandler(a.store))
	}

	return e
}
