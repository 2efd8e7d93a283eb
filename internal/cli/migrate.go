package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newMigrateCmd creates the migrate command
func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending schema migrations",
		Long: `Apply any schema migrations the store has not seen yet.

Serving also migrates on startup; this command exists for applying
migrations ahead of a deploy or against a copy of the database.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			database, err := openDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close() }()

			// Open already ran the migrations; reaching here means the
			// store is current.
			fmt.Println("Database is up to date")
			return nil
		},
	}
}
