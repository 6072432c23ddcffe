package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jbweber/ailsa/internal/config"
	"github.com/jbweber/ailsa/internal/output"
	"github.com/jbweber/ailsa/internal/store"
)

var (
	version = "dev"
	commit  = "unknown"
)

// Global flags
var (
	configPath   string
	outputFormat string
	noHeaders    bool
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "ailsa",
	Short: "Ailsa - server inventory, DNS and build management",
	Long: `Ailsa keeps an inventory of customers and servers, the DNS zones that
name them and the build configuration used to install them, in a MySQL,
SQLite or DuckDB database.

Connection settings are read from a YAML file (--config, $AILSA_CONFIG or
~/.ailsa.yaml).`,
	Version:       fmt.Sprintf("%s (commit: %s)", version, commit),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return output.ValidateFormat(outputFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath(), "Path to configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", string(output.FormatTable), "Output format: table, yaml or json")
	rootCmd.PersistentFlags().BoolVar(&noHeaders, "no-headers", false, "Omit table headers")

	rootCmd.AddCommand(dbCmd)
	rootCmd.AddCommand(customerCmd)
	rootCmd.AddCommand(serverCmd)
	rootCmd.AddCommand(zoneCmd)
	rootCmd.AddCommand(recordCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(vmhostCmd)
	rootCmd.AddCommand(libvirtCmd)
}

// loadConfig reads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.LoadFromFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	return cfg, nil
}

// openStore loads the configuration and opens its database.
func openStore() (*config.Config, *store.DB, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	db, err := store.Open(cfg.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	return cfg, db, nil
}

// printListing renders l in the format selected by -o.
func printListing(l output.Listing) error {
	formatter, err := output.NewFormatter(output.Options{
		Format:    output.Format(outputFormat),
		NoHeaders: noHeaders,
	})
	if err != nil {
		return err
	}

	result, err := formatter.Format(l)
	if err != nil {
		return fmt.Errorf("failed to format output: %w", err)
	}

	fmt.Print(result)
	return nil
}
