package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var dbCmd = &cobra.Command{
	Use:   "db",
	Short: "Manage the ailsa database",
}

func init() {
	dbCmd.AddCommand(dbInitCmd)
	dbCmd.AddCommand(dbTestConnCmd)
}

var dbInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the ailsa tables",
	Long: `Create every ailsa table that does not exist yet, using the dialect of
the configured engine. Existing tables are left untouched.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		fmt.Printf("Initialising %s database...\n", cfg.Database.Engine)
		if err := db.Init(cmd.Context()); err != nil {
			return fmt.Errorf("failed to initialise database: %w", err)
		}

		fmt.Println("✓ Database initialised")
		return nil
	},
}

var dbTestConnCmd = &cobra.Command{
	Use:   "test-conn",
	Short: "Test the database connection",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		fmt.Printf("Testing %s connection...\n", cfg.Database.Engine)
		if err := db.Ping(cmd.Context()); err != nil {
			return fmt.Errorf("connection test failed: %w", err)
		}

		fmt.Println("✓ Connected to database")
		return nil
	},
}
