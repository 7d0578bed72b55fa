package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync/sqlmodel"
)

var backfillCmd = &cobra.Command{
	Use:   "backfill",
	Short: "Queue every unsynced inventory item",
	Long: `Backfill enqueues a push for every inventory item that has never
been synced or whose last sync failed. Useful when first connecting a
store or after clearing out failures.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		db, err := sql.NewPostgresConn(ctx, sql.GetConnParamFromENV())
		if err != nil {
			return err
		}
		defer db.Close()

		count, err := sqlmodel.QueueItemEnqueueUnsynced(ctx, db)
		if err != nil {
			return err
		}

		fmt.Printf("queued %d items\n", count)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(backfillCmd)
}
