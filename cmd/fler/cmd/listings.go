package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/internal/fler"
	"github.com/donaldgifford/fler-tools/internal/topping"
)

func listingsCmd() *cobra.Command {
	var (
		eligibleOnly bool
		overdue      bool
	)

	cmd := &cobra.Command{
		Use:   "listings",
		Short: "Show listings and whether they can be promoted now",
		Example: `  fler listings
  fler listings --eligible --overdue
  fler listings --output json`,
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

			acct, err := a.client.AccountInfo(ctx)
			if err != nil {
				return fmt.Errorf("fetching account info: %w", err)
			}
			tier, err := topping.ResolveTier(acct.Rank())
			if err != nil {
				return err
			}

			listings, err := a.client.Products(ctx, fler.ProductQuery{
				Fields:  topping.ListingFields,
				Sort:    fler.SortTopDate,
				Reverse: true,
			})
			if err != nil {
				return fmt.Errorf("fetching listings: %w", err)
			}

			if eligibleOnly {
				listings, err = topping.Filter(listings, tier.Cooldown, time.Now())
				if err != nil {
					return err
				}
			}
			if overdue {
				if err := topping.SortMostOverdue(listings); err != nil {
					return err
				}
			}

			statuses, err := topping.Inspect(listings, tier.Cooldown, time.Now())
			if err != nil {
				return err
			}

			if jsonOutput() {
				return outputJSON(statuses)
			}
			if len(statuses) == 0 {
				fmt.Println("No listings found.")
				return nil
			}
			fmt.Printf("Rank %.2f, cooldown %s\n\n", acct.Rank(), tier.Cooldown)
			return printListingsTable(os.Stdout, statuses)
		},
	}

	fs := cmd.Flags()
	fs.BoolVar(&eligibleOnly, "eligible", false, "only show listings that may be promoted now")
	fs.BoolVar(&overdue, "overdue", false, "sort by time since last promotion, longest first")
	return cmd
}
