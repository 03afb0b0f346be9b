package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/internal/store"
)

func jobsCmd() *cobra.Command {
	jobsRoot := &cobra.Command{
		Use:   "jobs",
		Short: "View run history from the job ledger",
		Long: "View the recorded topping runs and stats exports, and the outcome of\n" +
			"every promotion attempt. Requires a configured database.",
	}

	jobsRoot.AddCommand(
		jobsListCmd(),
		jobsHistoryCmd(),
		jobsPromotionsCmd(),
	)

	return jobsRoot
}

// withStore runs fn with an opened store.
func withStore(cmd *cobra.Command, fn func(a *app) error) error {
	a, err := newApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.close()

	if err := a.openStore(cmd.Context(), true); err != nil {
		return err
	}
	return fn(a)
}

func jobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List the latest run per job",
		Example: `  fler jobs list
  fler jobs list --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(a *app) error {
				runs, err := a.store.ListLatestJobRuns(cmd.Context())
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(runs)
				}
				if len(runs) == 0 {
					fmt.Println("No job runs found.")
					return nil
				}
				return printJobRunsTable(os.Stdout, runs)
			})
		},
	}
}

func jobsHistoryCmd() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history <job_name>",
		Short: "Show run history for a job",
		Args:  cobra.ExactArgs(1),
		Example: `  fler jobs history top
  fler jobs history stats_export --limit 5 --output json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(a *app) error {
				runs, err := a.store.ListJobRuns(cmd.Context(), args[0], limit)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(runs)
				}
				if len(runs) == 0 {
					fmt.Printf("No runs found for job %q.\n", args[0])
					return nil
				}
				return printJobRunsTable(os.Stdout, runs)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 20, "maximum runs to show")
	return cmd
}

func jobsPromotionsCmd() *cobra.Command {
	var (
		listingID string
		succeeded bool
		since     time.Duration
		limit     int
	)

	cmd := &cobra.Command{
		Use:   "promotions",
		Short: "Show promotion attempts",
		Example: `  fler jobs promotions --since 24h
  fler jobs promotions --listing 1234567 --succeeded`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q := &store.PromotionQuery{SucceededOnly: succeeded, Limit: limit}
			if listingID != "" {
				q.ListingID = &listingID
			}
			if since > 0 {
				from := time.Now().Add(-since)
				q.Since = &from
			}

			return withStore(cmd, func(a *app) error {
				records, total, err := a.store.ListPromotions(cmd.Context(), q)
				if err != nil {
					return err
				}
				if jsonOutput() {
					return outputJSON(records)
				}
				if len(records) == 0 {
					fmt.Println("No promotions found.")
					return nil
				}
				if err := printPromotionsTable(os.Stdout, records); err != nil {
					return err
				}
				if total > len(records) {
					fmt.Printf("\nShowing %d of %d.\n", len(records), total)
				}
				return nil
			})
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&listingID, "listing", "", "only attempts for this listing ID")
	fs.BoolVar(&succeeded, "succeeded", false, "only successful promotions")
	fs.DurationVar(&since, "since", 0, "only attempts within this window (e.g. 24h)")
	fs.IntVar(&limit, "limit", 50, "maximum attempts to show")
	return cmd
}
