package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	apiclient "github.com/donaldgifford/fler-tools/internal/api/client"
)

func remoteCmd() *cobra.Command {
	remoteRoot := &cobra.Command{
		Use:   "remote",
		Short: "Drive a running fler daemon over its HTTP API",
		Long: "Trigger runs and read history through a running 'fler serve'. Runs\n" +
			"started this way share the daemon's lock and are recorded in its\n" +
			"job ledger. No Fler credentials are needed locally.",
	}

	pf := remoteRoot.PersistentFlags()
	pf.String("api-url", "http://localhost:8080", "fler daemon URL")
	bindFlag(pf, "api_url", "api-url", "FLER_API_URL")

	remoteRoot.AddCommand(
		remoteTopCmd(),
		remoteStatsCmd(),
		remoteQuotaCmd(),
		remoteJobsCmd(),
		remotePromotionsCmd(),
	)
	return remoteRoot
}

func newAPIClient() *apiclient.Client {
	return apiclient.New(viper.GetString("api_url"))
}

func remoteTopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "top",
		Short: "Run one topping pass on the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, err := newAPIClient().TriggerTop(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(summary)
			}
			return printRunSummary(os.Stdout, summary)
		},
	}
}

func remoteStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Export statistics once through the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			resp, err := newAPIClient().TriggerStatsExport(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Exported %d metric lines.\n", resp.Lines)
			return nil
		},
	}
}

func remoteQuotaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "quota",
		Short: "Show the daemon's daily API call budget",
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := newAPIClient().Quota(cmd.Context())
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(q)
			}
			tw := newTabWriter(os.Stdout)
			tw.writef("LIMIT\tUSED\tREMAINING\tRESETS\n")
			tw.writef("%d\t%d\t%d\t%s\n", q.DailyLimit, q.DailyUsed, q.Remaining, formatTime(q.ResetAt))
			return tw.finish()
		},
	}
}

func remoteJobsCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "jobs [job_name]",
		Short: "List the latest run per job, or one job's history",
		Args:  cobra.MaximumNArgs(1),
		Example: `  fler remote jobs
  fler remote jobs top --limit 5`,
		RunE: func(cmd *cobra.Command, args []string) error {
			c := newAPIClient()

			if len(args) == 0 {
				list, err := c.ListJobs(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(list)
				}
				return printJobRunsTable(os.Stdout, list)
			}

			history, err := c.GetJobHistory(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(history)
			}
			return printJobRunsTable(os.Stdout, history)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show for a single job")
	return cmd
}

func remotePromotionsCmd() *cobra.Command {
	var (
		params apiclient.ListPromotionsParams
		since  time.Duration
	)

	cmd := &cobra.Command{
		Use:   "promotions",
		Short: "Show promotion attempts recorded by the daemon",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if since > 0 {
				params.Since = time.Now().Add(-since)
			}
			resp, err := newAPIClient().ListPromotions(cmd.Context(), &params)
			if err != nil {
				return err
			}
			if jsonOutput() {
				return outputJSON(resp)
			}
			fmt.Printf("Showing %d of %d promotion attempts.\n", len(resp.Promotions), resp.Total)
			return printPromotionsTable(os.Stdout, resp.Promotions)
		},
	}

	cmd.Flags().StringVar(&params.ListingID, "listing", "", "only this listing")
	cmd.Flags().BoolVar(&params.SucceededOnly, "succeeded", false, "only successful promotions")
	cmd.Flags().DurationVar(&since, "since", 0, "only attempts within this duration (e.g. 24h)")
	cmd.Flags().IntVar(&params.Limit, "limit", 50, "page size")
	return cmd
}
