package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "catalog-sync",
	Short: "Pushes point of sale inventory changes to the Shopify catalog",
	Long: `catalog-sync keeps the Shopify catalog in step with the point of sale
inventory. Local changes queue up in Postgres and a batch processor
pushes them to the Shopify Admin API, honoring its rate limits.
Conflicts between local and remote state are resolved with the resolve
command or over the HTTP API.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		cfg = config.Load()
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
