package commands

import (
	"context"

	"github.com/marshallshelly/tillpoint/cmd/tillpoint/output"
	"github.com/spf13/cobra"
)

var seedData bool

// initCmd creates the schema and optionally seeds sample data
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the database schema",
	Long: `Create the users, products, orders, and order_items tables if they do
not exist. Safe to run repeatedly.

Examples:
  tillpoint init --db postgres://localhost/tillpoint
  tillpoint init --seed    # also insert a sample catalog into an empty store`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&seedData, "seed", false, "Seed sample users and products when the store is empty")
}

func runInit() error {
	ctx := context.Background()

	db, err := connect(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return err
	}
	output.Success("Schema is up to date")

	if seedData {
		if err := db.Seed(ctx); err != nil {
			return err
		}
		output.Success("Sample data seeded")
	}

	return nil
}
