package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/marshallshelly/tillpoint/pkg/store"
	"github.com/spf13/cobra"
)

var (
	// Global flags
	dbURL      string
	verbose    bool
	jsonOutput bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "tillpoint",
	Short: "Tillpoint - point-of-sale inventory and order tracking",
	Long: `Tillpoint is a point-of-sale system backed by PostgreSQL: it maintains
users, products, and orders, records sale transactions atomically, and
prints aggregate reports.

Features:
  - User and product catalog management with referential guards
  - Atomic sale transactions (order + items + stock decrements, all or nothing)
  - Interactive TUI sale screen and non-interactive CLI mode
  - Aggregate reports: dashboard, top products, daily sales, inventory, customers`,
	Version: "1.2.0",
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVar(&dbURL, "db", "", "Database connection URL (defaults to DATABASE_URL)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
}

// resolveDBURL returns the connection URL from the --db flag or the
// DATABASE_URL environment variable.
func resolveDBURL() (string, error) {
	if dbURL != "" {
		return dbURL, nil
	}
	if env := os.Getenv("DATABASE_URL"); env != "" {
		return env, nil
	}
	return "", fmt.Errorf("--db flag or DATABASE_URL is required")
}

// connect opens the store handle used by a command invocation. The caller
// owns the handle and must Close it.
func connect(ctx context.Context) (*store.DB, error) {
	url, err := resolveDBURL()
	if err != nil {
		return nil, err
	}

	db, err := store.ConnectWithURL(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
