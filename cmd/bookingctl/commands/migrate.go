package commands

import (
	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-booking/internal/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create any missing tables",
	RunE: func(cmd *cobra.Command, args []string) error {
		db, ctx, cancel, err := openDB(cmd)
		if err != nil {
			return err
		}
		defer cancel()
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			return err
		}
		Success("schema up to date (%d statements)", len(database.Statements()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
