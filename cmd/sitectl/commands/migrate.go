package commands

import (
	"fmt"

	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/config"
	"github.com/muthukrishnan7373/Casa-Terminal-Website/internal/store/dbopen"

	"github.com/spf13/cobra"
)

func migrateCmd() *cobra.Command {
	var driver, dsn, sqlitePath string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply the database schema",
		Long:  "Apply the database schema. Connection settings come from DB_* variables; flags override them.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var db config.Database
			if err := config.ParseEnv(&db); err != nil {
				return err
			}
			if driver != "" {
				db.Driver = driver
			}
			if dsn != "" {
				db.DSN = dsn
			}
			if sqlitePath != "" {
				db.SQLitePath = sqlitePath
			}

			st, err := dbopen.Open(cmd.Context(), db)
			if err != nil {
				return err
			}
			defer st.Close()
			if err := dbopen.Migrate(cmd.Context(), st); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "schema up to date (%s)\n", db.Driver)
			return nil
		},
	}
	cmd.Flags().StringVar(&driver, "driver", "", "database driver: postgres or sqlite")
	cmd.Flags().StringVar(&dsn, "dsn", "", "postgres connection string")
	cmd.Flags().StringVar(&sqlitePath, "sqlite-path", "", "sqlite database file")
	return cmd
}
