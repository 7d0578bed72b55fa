package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/slabworks/catalog-sync/audit"
	"github.com/slabworks/catalog-sync/inventory"
	"github.com/slabworks/catalog-sync/migration"
	"github.com/slabworks/catalog-sync/process"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		db, err := sql.NewPostgresConn(ctx, sql.GetConnParamFromENV())
		if err != nil {
			return err
		}
		defer db.Close()

		m, err := migration.NewMigrator(ctx, db)
		if err != nil {
			return err
		}

		// The sync queue references inventory items, keep that order
		for _, ml := range []*migration.List{
			process.GetMigrationList(),
			inventory.GetMigrationList(),
			sync.GetMigrationList(),
			audit.GetMigrationList(),
		} {
			if err := m.AddMigrationList(ctx, ml); err != nil {
				return err
			}
		}

		if err := m.Upgrade(ctx); err != nil {
			return err
		}

		log.Info().Msg("migrations applied")

		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}
