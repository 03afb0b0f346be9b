package cmd

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/internal/topping"
	domain "github.com/donaldgifford/fler-tools/pkg/types"
)

func tierCmd() *cobra.Command {
	var all bool

	cmd := &cobra.Command{
		Use:   "tier [rank]",
		Short: "Show the promotion quota tier for a rank",
		Long: "Resolve the quota tier unlocked by a seller rank. With a rank argument\n" +
			"the lookup is offline; without one the account's current rank is fetched.",
		Args: cobra.MaximumNArgs(1),
		Example: `  fler tier 85.2
  fler tier --all
  fler tier --private-key KEY --public-key PUB`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			var rank float64
			if len(args) == 1 {
				rank, err = strconv.ParseFloat(args[0], 64)
				if err != nil {
					return fmt.Errorf("invalid rank %q: %w", args[0], err)
				}
			} else {
				if err := a.connectFler(); err != nil {
					return err
				}
				acct, err := a.client.AccountInfo(ctx)
				if err != nil {
					return fmt.Errorf("fetching account info: %w", err)
				}
				rank = acct.Rank()
			}

			tier, err := topping.ResolveTier(rank)
			if err != nil {
				return err
			}

			if jsonOutput() {
				out := struct {
					Rank  float64            `json:"rank"`
					Tier  domain.QuotaTier   `json:"tier"`
					Tiers []domain.QuotaTier `json:"tiers,omitempty"`
				}{Rank: rank, Tier: tier}
				if all {
					out.Tiers = topping.Tiers()
				}
				return outputJSON(out)
			}

			fmt.Printf("Rank %.2f: up to %g promotions per day, cooldown %s\n", rank, tier.MaxPerDay, tier.Cooldown)
			if !all {
				return nil
			}
			fmt.Println()
			return printTiersTable(os.Stdout, topping.Tiers(), &tier)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "also print the full tier table")
	return cmd
}
