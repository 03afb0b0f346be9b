// Package cmd implements the fler commands.
package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/donaldgifford/fler-tools/internal/config"
	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:   "fler",
	Short: "Promote and monitor listings on the Fler marketplace",
	Long: "fler talks to the Fler seller API. It promotes (\"tops\") listings whose\n" +
		"cooldown has elapsed until the daily quota runs out, exports account and\n" +
		"listing statistics to carbon, and can run both on a schedule as a daemon.",
	SilenceUsage: true,
}

// Root returns the root cobra command for documentation generation.
func Root() *cobra.Command {
	return rootCmd
}

// Execute runs the root command. SIGINT and SIGTERM cancel the command's
// context.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "config file (YAML); built-in defaults when empty")
	pf.BoolP("verbose", "v", false, "log progress at info level")
	pf.BoolP("debug", "d", false, "log API requests and carbon lines at debug level")
	pf.String("private-key", "", "Fler API private key")
	pf.String("public-key", "", "Fler API public key")
	pf.String("server", fler.DefaultServer, "Fler server URL")
	pf.StringP("output", "o", "table", "output format (table, json)")

	bindFlag(pf, "config", "config", "FLER_CONFIG")
	bindFlag(pf, "verbose", "verbose", "")
	bindFlag(pf, "debug", "debug", "")
	bindFlag(pf, "fler.private_key", "private-key", "FLER_PRIVATE_KEY")
	bindFlag(pf, "fler.public_key", "public-key", "FLER_PUBLIC_KEY")
	bindFlag(pf, "fler.server", "server", "FLER_SERVER")
	bindFlag(pf, "output", "output", "FLER_OUTPUT")

	rootCmd.AddCommand(
		topCmd(),
		statsCmd(),
		serveCmd(),
		pingCmd(),
		tierCmd(),
		listingsCmd(),
		migrateCmd(),
		jobsCmd(),
		remoteCmd(),
		versionCmd(),
	)
}

// bindFlag binds a flag, and optionally an environment variable, to a
// viper key.
func bindFlag(fs *pflag.FlagSet, key, flag, env string) {
	cobra.CheckErr(viper.BindPFlag(key, fs.Lookup(flag)))
	if env != "" {
		cobra.CheckErr(viper.BindEnv(key, env))
	}
}

// loadConfig reads the config file (if any) and applies flag and
// environment overrides on top of it.
func loadConfig() (*config.Config, error) {
	cfg := config.Default()
	if path := viper.GetString("config"); path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("loading config: %w", err)
		}
		cfg = loaded
	}

	applyOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	overrideString(&cfg.Fler.PrivateKey, "fler.private_key")
	overrideString(&cfg.Fler.PublicKey, "fler.public_key")
	overrideString(&cfg.Fler.Server, "fler.server")

	overrideBool(&cfg.Top.DryRun, "top.dry_run")
	overrideBool(&cfg.Top.ContinueOnError, "top.continue_on_error")

	overrideString(&cfg.Carbon.Host, "carbon.host")
	overrideString(&cfg.Carbon.Protocol, "carbon.protocol")
	overrideString(&cfg.Carbon.Prefix, "carbon.prefix")
	if viper.IsSet("carbon.port") {
		cfg.Carbon.Port = viper.GetInt("carbon.port")
	}
}

func overrideString(dst *string, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetString(key)
	}
}

func overrideBool(dst *bool, key string) {
	if viper.IsSet(key) {
		*dst = viper.GetBool(key)
	}
}

// newLogger builds the process logger. The configured level is lowered by
// -v and -d.
func newLogger(cfg *config.Config) *slog.Logger {
	level := logger.LevelFromFlags(
		logger.ParseLevel(cfg.Logging.Level),
		viper.GetBool("verbose"),
		viper.GetBool("debug"),
	)
	log := logger.New(level, cfg.Logging.Format)
	slog.SetDefault(log)
	return log
}

func jsonOutput() bool {
	return strings.EqualFold(viper.GetString("output"), "json")
}
