package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/loader"
)

func init() {
	rootCmd.AddCommand(applyCmd)
	rootCmd.AddCommand(exportCmd)
}

var applyCmd = &cobra.Command{
	Use:   "apply <manifest.yaml>",
	Short: "Create the entries of an inventory manifest",
	Long: `Create every customer, server, zone, record and build catalog entry
declared in a manifest. Entries that already exist are skipped, so a
manifest can be applied more than once.

Example manifest:
  apiVersion: ailsa/v1
  kind: Inventory
  customers:
    - name: Acme Ltd
      coid: ACME
  servers:
    - name: web01
      coid: ACME`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		m, err := loader.LoadFromFile(args[0])
		if err != nil {
			return fmt.Errorf("failed to load manifest: %w", err)
		}

		cfg, db, err := openStore()
		if err != nil {
			return err
		}

		res, err := loader.Apply(cmd.Context(), db, cfg.DNS, m)
		if err != nil {
			return err
		}

		fmt.Printf("✓ Manifest applied: %d created, %d already present\n", res.Created, res.Skipped)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <manifest.yaml>",
	Short: "Write the stored inventory to a manifest",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		_, db, err := openStore()
		if err != nil {
			return err
		}

		m, err := loader.Export(cmd.Context(), db)
		if err != nil {
			return fmt.Errorf("failed to export inventory: %w", err)
		}
		if err := loader.SaveToFile(m, args[0]); err != nil {
			return err
		}

		fmt.Printf("✓ Inventory written to %s\n", args[0])
		return nil
	},
}
