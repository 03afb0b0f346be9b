// Package config handles loading and validating the fler-tools configuration
// from YAML files with environment variable substitution.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	Fler          FlerConfig          `yaml:"fler"`
	Top           TopConfig           `yaml:"top"`
	Carbon        CarbonConfig        `yaml:"carbon"`
	Server        ServerConfig        `yaml:"server"`
	Database      DatabaseConfig      `yaml:"database"`
	Notifications NotificationsConfig `yaml:"notifications"`
	Logging       LoggingConfig       `yaml:"logging"`
	Tracing       TracingConfig       `yaml:"tracing"`
}

// FlerConfig defines the seller API endpoint and credentials.
type FlerConfig struct {
	Server     string          `yaml:"server"`
	PrivateKey string          `yaml:"private_key"`
	PublicKey  string          `yaml:"public_key"`
	Timeout    time.Duration   `yaml:"timeout"`
	RateLimit  RateLimitConfig `yaml:"rate_limit"`
}

// RateLimitConfig paces outbound API calls.
type RateLimitConfig struct {
	PerSecond  float64 `yaml:"per_second"`
	Burst      int     `yaml:"burst"`
	DailyLimit int64   `yaml:"daily_limit"`
}

// TopConfig controls the promotion run.
type TopConfig struct {
	Enabled         bool          `yaml:"enabled"`
	Interval        time.Duration `yaml:"interval"` // daemon only
	ContinueOnError bool          `yaml:"continue_on_error"`
	DryRun          bool          `yaml:"dry_run"`
	LockTTL         time.Duration `yaml:"lock_ttl"`
}

// CarbonConfig defines the statistics sink.
type CarbonConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Host     string        `yaml:"host"`
	Port     int           `yaml:"port"`
	Protocol string        `yaml:"protocol"` // udp, tcp
	Prefix   string        `yaml:"prefix"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// ServerConfig defines the Echo HTTP server settings.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// DatabaseConfig defines PostgreSQL connection settings. The database is
// optional; leave host empty to run without the job ledger.
type DatabaseConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"sslmode"`
}

// Enabled reports whether a database is configured.
func (d *DatabaseConfig) Enabled() bool {
	return d.Host != ""
}

// DSN returns a PostgreSQL connection string.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d dbname=%s user=%s password=%s sslmode=%s",
		d.Host, d.Port, d.Name, d.User, d.Password, d.SSLMode,
	)
}

// NotificationsConfig defines notification targets.
type NotificationsConfig struct {
	Discord DiscordConfig `yaml:"discord"`
}

// DiscordConfig defines Discord webhook settings.
type DiscordConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Username   string `yaml:"username"`
}

// LoggingConfig defines logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
}

// TracingConfig defines OTLP trace export.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"` // host:port of an OTLP gRPC collector
	Insecure    bool    `yaml:"insecure"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

// Load reads and parses a YAML config file, performing environment variable
// substitution and validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // config path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config content.
func Parse(data []byte) (*Config, error) {
	expanded := os.ExpandEnv(string(data))

	cfg := &Config{}
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parsing config YAML: %w", err)
	}

	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	cfg := &Config{Top: TopConfig{Enabled: true}}
	applyDefaults(cfg)
	return cfg
}

func applyDefaults(cfg *Config) {
	applyFlerDefaults(&cfg.Fler)
	applyTopDefaults(&cfg.Top)
	applyCarbonDefaults(&cfg.Carbon)
	applyServerDefaults(&cfg.Server)
	applyDatabaseDefaults(&cfg.Database)
	applyLoggingDefaults(&cfg.Logging)
}

func applyFlerDefaults(f *FlerConfig) {
	if f.Server == "" {
		f.Server = "https://www.fler.cz"
	}
	if f.Timeout == 0 {
		f.Timeout = 5 * time.Second
	}
	if f.RateLimit.PerSecond == 0 {
		f.RateLimit.PerSecond = 2
	}
	if f.RateLimit.Burst == 0 {
		f.RateLimit.Burst = 5
	}
	if f.RateLimit.DailyLimit == 0 {
		f.RateLimit.DailyLimit = 2000
	}
}

func applyTopDefaults(t *TopConfig) {
	if t.Interval == 0 {
		t.Interval = 30 * time.Minute
	}
	if t.LockTTL == 0 {
		t.LockTTL = 15 * time.Minute
	}
}

func applyCarbonDefaults(c *CarbonConfig) {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 2003
	}
	if c.Protocol == "" {
		c.Protocol = "udp"
	}
	if c.Prefix == "" {
		c.Prefix = "fler"
	}
	if c.Interval == 0 {
		c.Interval = 5 * time.Minute
	}
	if c.Timeout == 0 {
		c.Timeout = 5 * time.Second
	}
}

func applyServerDefaults(s *ServerConfig) {
	if s.Host == "" {
		s.Host = "0.0.0.0"
	}
	if s.Port == 0 {
		s.Port = 8080
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = 30 * time.Second
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = 2 * time.Minute
	}
}

func applyDatabaseDefaults(d *DatabaseConfig) {
	if d.Port == 0 {
		d.Port = 5432
	}
	if d.SSLMode == "" {
		d.SSLMode = "disable"
	}
}

func applyLoggingDefaults(l *LoggingConfig) {
	if l.Level == "" {
		l.Level = "warn"
	}
	if l.Format == "" {
		l.Format = "text"
	}
}

// Validate checks the settings that every command depends on.
// Credentials are checked separately by ValidateCredentials because
// offline commands do not need them.
func (cfg *Config) Validate() error {
	var errs []error

	if u, err := url.Parse(cfg.Fler.Server); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("fler.server must be an absolute URL (got %q)", cfg.Fler.Server))
	}
	if cfg.Fler.Timeout < 0 {
		errs = append(errs, errors.New("fler.timeout must not be negative"))
	}
	if cfg.Fler.RateLimit.PerSecond < 0 {
		errs = append(errs, errors.New("fler.rate_limit.per_second must not be negative"))
	}
	if cfg.Fler.RateLimit.Burst < 0 || cfg.Fler.RateLimit.DailyLimit < 0 {
		errs = append(errs, errors.New("fler.rate_limit burst and daily_limit must not be negative"))
	}

	if cfg.Top.Interval < 0 || cfg.Top.LockTTL < 0 {
		errs = append(errs, errors.New("top.interval and top.lock_ttl must not be negative"))
	}

	switch cfg.Carbon.Protocol {
	case "udp", "tcp":
	default:
		errs = append(errs, fmt.Errorf("carbon.protocol must be one of: udp, tcp (got %q)", cfg.Carbon.Protocol))
	}
	if cfg.Carbon.Port < 1 || cfg.Carbon.Port > 65535 {
		errs = append(errs, fmt.Errorf("carbon.port must be between 1 and 65535 (got %d)", cfg.Carbon.Port))
	}
	if cfg.Carbon.Interval < 0 {
		errs = append(errs, errors.New("carbon.interval must not be negative"))
	}

	if cfg.Database.Enabled() {
		if cfg.Database.Name == "" {
			errs = append(errs, errors.New("database.name is required when database.host is set"))
		}
		if cfg.Database.User == "" {
			errs = append(errs, errors.New("database.user is required when database.host is set"))
		}
	}

	if cfg.Notifications.Discord.Enabled && cfg.Notifications.Discord.WebhookURL == "" {
		errs = append(errs, errors.New("notifications.discord.webhook_url is required when discord is enabled"))
	}

	if cfg.Tracing.Enabled && cfg.Tracing.Endpoint == "" {
		errs = append(errs, errors.New("tracing.endpoint is required when tracing is enabled"))
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, fmt.Errorf("tracing.sample_ratio must be between 0 and 1 (got %g)", cfg.Tracing.SampleRatio))
	}

	switch cfg.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level must be one of: debug, info, warn, error (got %q)", cfg.Logging.Level))
	}
	switch cfg.Logging.Format {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("logging.format must be one of: text, json (got %q)", cfg.Logging.Format))
	}

	return errors.Join(errs...)
}

// ValidateCredentials reports whether both API keys are set.
func (cfg *Config) ValidateCredentials() error {
	var errs []error
	if cfg.Fler.PrivateKey == "" {
		errs = append(errs, errors.New("fler.private_key is required"))
	}
	if cfg.Fler.PublicKey == "" {
		errs = append(errs, errors.New("fler.public_key is required"))
	}
	return errors.Join(errs...)
}
