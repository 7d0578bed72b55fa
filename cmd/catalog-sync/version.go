package main

import (
	"fmt"

	"github.com/spf13/cobra"

	catalogsync "github.com/slabworks/catalog-sync"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the build version",
	Run: func(_ *cobra.Command, _ []string) {
		sha, build := catalogsync.Version()
		if sha == "" {
			sha = "dev"
		}
		if build == "" {
			build = "unknown"
		}
		fmt.Printf("catalog-sync %s (build %s)\n", sha, build)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
