package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the credentials are accepted",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.close()

			if err := a.connectFler(); err != nil {
				return err
			}
			if err := a.client.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping %s: %w", a.cfg.Fler.Server, err)
			}
			fmt.Println("ok")
			return nil
		},
	}
}
