package commands

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/iliyamo/restaurant-booking/internal/config"
	"github.com/iliyamo/restaurant-booking/internal/database"
)

var (
	// Global flags
	envFile string
	timeout time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "bookingctl",
	Short: "Administer the restaurant booking database",
	Long: `bookingctl applies the schema and manages the data that has no HTTP
write surface: admin accounts, restaurants and their tables.

Connection settings come from the DB_* environment variables, optionally
loaded from an .env file.

Examples:
  bookingctl migrate
  bookingctl user add --email ops@example.com --password s3cret-pass --role admin
  bookingctl restaurant add --manager-email chef@example.com --name "Chez Nous"
  bookingctl table add --restaurant 1 --number 4 --capacity 6`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("load %s: %w", envFile, err)
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		Error("%v", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "Environment file to load if present")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Deadline for database work")
}

// openDB connects using DB_* and returns a context bounded by --timeout.
func openDB(cmd *cobra.Command) (*sql.DB, context.Context, context.CancelFunc, error) {
	c := config.LoadDB()
	db, err := database.Open(c.User, c.Pass, c.Host, c.Port, c.Name)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("connect: %w", err)
	}
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	return db, ctx, cancel, nil
}
