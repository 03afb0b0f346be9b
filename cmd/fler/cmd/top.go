package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

func topCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "top",
		Short: "Promote listings whose cooldown has elapsed",
		Long: "Resolve the account's quota tier from its rank, select topable listings\n" +
			"whose last promotion is older than the tier cooldown, and promote them\n" +
			"most overdue first until the server reports the daily quota is used up.",
		Example: `  fler top --private-key KEY --public-key PUB
  fler top --dry-run -v
  FLER_PRIVATE_KEY=... FLER_PUBLIC_KEY=... fler top --output json`,
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

			summary, runErr := a.newEngine(nil).RunTop(ctx)
			if summary != nil {
				var err error
				if jsonOutput() {
					err = outputJSON(summary)
				} else {
					err = printRunSummary(os.Stdout, summary)
				}
				if err != nil {
					return err
				}
			}
			return runErr
		},
	}

	fs := cmd.Flags()
	fs.Bool("dry-run", false, "select eligible listings without promoting them")
	fs.Bool("continue-on-error", false, "keep promoting after a failure other than quota exhaustion")
	bindFlag(fs, "top.dry_run", "dry-run", "FLER_TOP_DRY_RUN")
	bindFlag(fs, "top.continue_on_error", "continue-on-error", "FLER_TOP_CONTINUE_ON_ERROR")

	return cmd
}
