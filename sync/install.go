package sync

import (
	"embed"

	"github.com/slabworks/catalog-sync/migration"
)

// MIGRATION_CODE the code for this package's migrations
const MIGRATION_CODE = "sync"

//go:embed db/migrations/*.sql
var migrations embed.FS

// GetMigrationList returns this package's migration list
func GetMigrationList() (ml *migration.List) {
	return migration.NewList(MIGRATION_CODE, migration.MIGRATION_PATH, migrations)
}
