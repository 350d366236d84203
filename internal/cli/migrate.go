package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"queryquest/internal/quest/postgres"
)

func newMigrateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pool, err := openPool(ctx, a.cfg)
			if err != nil {
				return err
			}
			defer pool.Close()

			store, err := openPostgresStore(ctx, pool, true)
			if err != nil {
				return err
			}
			defer store.Close()

			version, err := postgres.MigrationVersion(ctx, store.DB())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema version %d\n", version)
			return nil
		},
	}
}
