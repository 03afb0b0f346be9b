package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/donaldgifford/fler-tools/internal/store"
)

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long: "Create or update the job ledger, lock and promotion history tables.\n" +
			"Migrations are idempotent; serve, top and stats also apply them on start.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.openStore(ctx, true); err != nil {
				return err
			}

			names, err := store.Migrations()
			if err != nil {
				return err
			}
			for _, n := range names {
				fmt.Println("applied", n)
			}
			return nil
		},
	}
}
