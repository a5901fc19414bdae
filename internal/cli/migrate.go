package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pkordes/nexttrip/backend/internal/app"
	"github.com/pkordes/nexttrip/backend/internal/config"
)

func (r *root) newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations to the SQL store",
		RunE: func(cmd *cobra.Command, args []string) error {
			switch r.cfg.StoreDriver {
			case config.DriverSQLite, config.DriverPostgres:
			default:
				fmt.Fprintf(cmd.OutOrStdout(), "store driver %q has no schema to migrate\n", r.cfg.StoreDriver)
				return nil
			}
			n, err := app.Migrate(cmd.Context(), r.cfg, r.log)
			if err != nil {
				return err
			}
			if r.output != "table" {
				return r.print(cmd.OutOrStdout(), map[string]any{"driver": r.cfg.StoreDriver, "applied": n})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %d migration(s) to %s store\n", n, r.cfg.StoreDriver)
			return nil
		},
	}
}
