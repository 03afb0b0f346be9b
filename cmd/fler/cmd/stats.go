package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/internal/stats"
)

func statsCmd() *cobra.Command {
	var printOnly bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Export account and listing statistics to carbon",
		Long: "Collect account figures and per-listing attributes and send them to a\n" +
			"carbon (graphite) server as plaintext lines \"fler.<path> <value> <ts>\".",
		Example: `  fler stats --carbon-host graphite.local
  fler stats --carbon-protocol tcp --carbon-port 2004
  fler stats --print`,
		RunE: func(cmd *cobra.Command, _ []string) error {
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

			var sink stats.Sink
			if printOnly {
				sink = stats.NewWriterSink(os.Stdout)
			}
			exporter, err := a.newExporter(sink)
			if err != nil {
				return err
			}

			n, err := a.newEngine(exporter).ExportStats(ctx)
			if err != nil {
				return err
			}
			if !printOnly {
				a.log.Info("stats exported", "lines", n, "carbon", fmt.Sprintf("%s:%d", a.cfg.Carbon.Host, a.cfg.Carbon.Port))
			}
			return nil
		},
	}

	fs := cmd.Flags()
	fs.String("carbon-host", "127.0.0.1", "carbon server host")
	fs.Int("carbon-port", stats.DefaultCarbonPort, "carbon plaintext port")
	fs.String("carbon-protocol", stats.ProtocolUDP, "carbon transport (udp, tcp)")
	fs.String("prefix", stats.DefaultPrefix, "metric path prefix")
	fs.BoolVar(&printOnly, "print", false, "write lines to stdout instead of carbon")
	bindFlag(fs, "carbon.host", "carbon-host", "FLER_CARBON_HOST")
	bindFlag(fs, "carbon.port", "carbon-port", "FLER_CARBON_PORT")
	bindFlag(fs, "carbon.protocol", "carbon-protocol", "FLER_CARBON_PROTOCOL")
	bindFlag(fs, "carbon.prefix", "prefix", "FLER_CARBON_PREFIX")

	return cmd
}
