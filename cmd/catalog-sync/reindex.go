package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/search"
	"github.com/slabworks/catalog-sync/sql"
)

var reindexBatchSize int

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Rebuild the search index from synced inventory",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		if !cfg.Search.Enabled() {
			return errors.New("search is not configured")
		}

		db, err := sql.NewPostgresConn(ctx, sql.GetConnParamFromENV())
		if err != nil {
			return err
		}
		defer db.Close()

		idx, err := search.New(&search.Config{
			App:   cfg.Search.App,
			Key:   cfg.Search.Key,
			Index: cfg.Search.Index,
		})
		if err != nil {
			return err
		}

		count, err := idx.Reindex(ctx, db, reindexBatchSize)
		if err != nil {
			return err
		}

		fmt.Printf("indexed %d records\n", count)

		return nil
	},
}

func init() {
	reindexCmd.Flags().IntVar(&reindexBatchSize, "batch-size", 0,
		"records per index call, 0 uses the default")
	rootCmd.AddCommand(reindexCmd)
}
