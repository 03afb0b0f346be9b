package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/donaldgifford/fler-tools/internal/config"
	"github.com/donaldgifford/fler-tools/internal/engine"
	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/internal/notify"
	"github.com/donaldgifford/fler-tools/internal/stats"
	"github.com/donaldgifford/fler-tools/internal/store"
	"github.com/donaldgifford/fler-tools/internal/topping"
	"github.com/donaldgifford/fler-tools/internal/tracing"
)

// Version is set at build time via ldflags.
var Version = "dev"

var errNoDatabase = errors.New("no database configured (set database.host)")

// app holds the dependencies shared by one command invocation.
type app struct {
	cfg     *config.Config
	log     *slog.Logger
	client  *fler.Client
	budget  *fler.CallBudget
	store   store.Store
	closers []func(context.Context) error
}

// newApp loads the configuration and sets up logging and tracing.
func newApp(ctx context.Context) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg, log: newLogger(cfg)}

	shutdown, err := tracing.Setup(ctx, tracing.Config{
		Enabled:     cfg.Tracing.Enabled,
		Endpoint:    cfg.Tracing.Endpoint,
		Insecure:    cfg.Tracing.Insecure,
		SampleRatio: cfg.Tracing.SampleRatio,
		Version:     Version,
	}, a.log)
	if err != nil {
		return nil, fmt.Errorf("setting up tracing: %w", err)
	}
	a.closers = append(a.closers, shutdown)

	return a, nil
}

// close releases resources in reverse order of acquisition.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.log.Warn("shutdown", "error", err)
		}
	}
}

// connectFler creates the signed API client. Credentials are required.
func (a *app) connectFler() error {
	if err := a.cfg.ValidateCredentials(); err != nil {
		return err
	}

	rl := a.cfg.Fler.RateLimit
	a.budget = fler.NewCallBudget(rl.PerSecond, rl.Burst, rl.DailyLimit)

	client, err := fler.NewClient(
		fler.Credentials{PrivateKey: []byte(a.cfg.Fler.PrivateKey), PublicKey: a.cfg.Fler.PublicKey},
		a.cfg.Fler.Server,
		fler.WithTimeout(a.cfg.Fler.Timeout),
		fler.WithCallBudget(a.budget),
		fler.WithLogger(a.log),
	)
	if err != nil {
		return fmt.Errorf("creating fler client: %w", err)
	}
	a.client = client
	return nil
}

// openStore connects to PostgreSQL and applies migrations. Without a
// configured database it returns errNoDatabase when required and nil
// otherwise.
func (a *app) openStore(ctx context.Context, required bool) error {
	if !a.cfg.Database.Enabled() {
		if required {
			return errNoDatabase
		}
		return nil
	}

	ps, err := store.NewPostgresStore(ctx, a.cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	a.closers = append(a.closers, func(context.Context) error {
		ps.Close()
		return nil
	})

	if err := ps.Migrate(ctx); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	a.store = ps
	return nil
}

func (a *app) newRunner() *topping.Runner {
	return topping.NewRunner(a.client,
		topping.WithLogger(a.log),
		topping.WithContinueOnError(a.cfg.Top.ContinueOnError),
		topping.WithDryRun(a.cfg.Top.DryRun),
	)
}

// newExporter builds a stats exporter writing to sink. A nil sink sends
// to the configured carbon server.
func (a *app) newExporter(sink stats.Sink) (*stats.Exporter, error) {
	if sink == nil {
		w, err := stats.NewCarbonWriter(a.cfg.Carbon.Host, a.cfg.Carbon.Port,
			stats.WithProtocol(a.cfg.Carbon.Protocol),
			stats.WithTimeout(a.cfg.Carbon.Timeout),
		)
		if err != nil {
			return nil, err
		}
		sink = w
	}
	return stats.NewExporter(a.client, sink,
		stats.WithPrefix(a.cfg.Carbon.Prefix),
		stats.WithLogger(a.log),
	), nil
}

func (a *app) newNotifier() notify.Notifier {
	d := a.cfg.Notifications.Discord
	if !d.Enabled {
		return notify.NewNoOpNotifier(a.log)
	}

	opts := []notify.DiscordOption{
		notify.WithHTTPClient(notify.NewRetryingHTTPClient(3, time.Second, 30*time.Second, a.log)),
	}
	if d.Username != "" {
		opts = append(opts, notify.WithUsername(d.Username))
	}
	return notify.NewDiscordNotifier(d.WebhookURL, opts...)
}

// newEngine wires the runner, the optional exporter, the store and the
// notifier. exporter may be nil.
func (a *app) newEngine(exporter *stats.Exporter) *engine.Engine {
	opts := []engine.EngineOption{
		engine.WithLogger(a.log),
		engine.WithNotifier(a.newNotifier()),
		engine.WithLockTTL(a.cfg.Top.LockTTL),
	}
	if a.store != nil {
		opts = append(opts, engine.WithStore(a.store))
	}

	var se engine.StatsExporter
	if exporter != nil {
		se = exporter
	}
	return engine.NewEngine(a.newRunner(), se, opts...)
}
