// Package migration applies versioned SQL migrations from embedded
// filesystems. Each package owning tables ships a db/migrations
// directory plus an install.go exposing GetMigrationList; the migrate
// command collects the lists and upgrades them in order:
//
//	m, _ := migration.NewMigrator(ctx, db)
//	_ = m.AddMigrationList(ctx, inventory.GetMigrationList())
//	_ = m.Upgrade(ctx)
//
// Applied versions are tracked per code in the slabworks_migration
// table, so an upgrade only runs what the database has not seen yet
package migration

import (
	"context"
	"embed"

	"github.com/rs/zerolog/log"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/migration/model"
	"github.com/slabworks/catalog-sync/migration/sqlmodel"
	"github.com/slabworks/catalog-sync/sql"
)

// The migrator tracks itself too, its own table comes from here

//go:embed db/migrations/*.sql
var migrations embed.FS

const (
	// MIGRATION_PATH where every package keeps its embedded SQL files
	MIGRATION_PATH = "db/migrations"
	// MIGRATION_CODE the migrator's own list code
	MIGRATION_CODE = "migration"

	ECode010101 = e.Code0101 + "01"
	ECode010102 = e.Code0101 + "02"
	ECode010103 = e.Code0101 + "03"
	ECode010104 = e.Code0101 + "04"
	ECode010105 = e.Code0101 + "05"
	ECode010106 = e.Code0101 + "06"
	ECode010107 = e.Code0101 + "07"
	ECode010108 = e.Code0101 + "08"
	ECode010109 = e.Code0101 + "09"
	ECode01010A = e.Code0101 + "0A"
	ECode01010B = e.Code0101 + "0B"
	ECode01010C = e.Code0101 + "0C"
	ECode01010D = e.Code0101 + "0D"
	ECode01010E = e.Code0101 + "0E"
	ECode01010F = e.Code0101 + "0F"
	ECode01010G = e.Code0101 + "0G"
)

// Migrator applies registered migration lists in order
type Migrator struct {
	db         *sql.Connection
	migrations []*List
}

// NewMigrator initializes the migrator and registers its own list,
// creating the tracking table first on a fresh database
func NewMigrator(ctx context.Context, db *sql.Connection) (m *Migrator, err error) {
	m = &Migrator{db: db}

	ml := NewList(MIGRATION_CODE, MIGRATION_PATH, migrations)

	err = m.AddMigrationList(ctx, ml)
	if err == nil {
		return m, nil
	}
	if !e.ContainsError(err, e.MsgMigrationNotInstalled) {
		return nil, e.W(err, ECode010101)
	}

	// Fresh database. Apply the migrator's own first file by hand, it
	// creates the tracking table the rest of the machinery needs. The
	// regular upgrade reruns it, the file tolerates that
	files, err := ml.filesSince(0)
	if err != nil {
		return nil, e.W(err, ECode010102)
	}
	if len(files) == 0 {
		return nil, e.N(ECode010103, e.MsgMigrationInstallFailed)
	}
	if _, err := m.db.Exec(ctx, string(files[0].SQL)); err != nil {
		return nil, e.W(err, ECode010104)
	}

	if err := m.AddMigrationList(ctx, ml); err != nil {
		return nil, e.W(err, ECode010105)
	}

	return m, nil
}

// AddMigrationList registers a package's migration list, loading the
// files newer than the latest version the database has seen for its
// code
func (m *Migrator) AddMigrationList(ctx context.Context, ml *List) (err error) {
	from := 0
	latest, err := sqlmodel.MigrationGetLatest(ctx, m.db, ml.code)
	if err != nil {
		if !e.ContainsError(err, e.MsgMigrationNone) {
			return e.W(err, ECode010106)
		}
		// Nothing applied for this code yet, load from the beginning
	} else {
		from = latest.Version
	}

	ml.files, err = ml.filesSince(from)
	if err != nil {
		return e.W(err, ECode010107)
	}

	m.migrations = append(m.migrations, ml)
	return nil
}

// Upgrade applies every outstanding file of every registered list, in
// registration order
func (m *Migrator) Upgrade(ctx context.Context) (err error) {
	for _, ml := range m.migrations {
		if err := m.upgradeList(ctx, ml); err != nil {
			return e.W(err, ECode010108, ml.code)
		}
	}

	return nil
}

func (m *Migrator) upgradeList(ctx context.Context, ml *List) (err error) {
	for _, f := range ml.files {
		id, run, err := m.shouldRun(ctx, ml, f)
		if err != nil {
			return e.W(err, ECode010109)
		}
		if !run {
			continue
		}

		if err := m.apply(ctx, id, ml, f); err != nil {
			return e.W(err, ECode01010A)
		}
	}

	return nil
}

// shouldRun decides whether the file still needs to be applied and
// returns the id of its tracking record, inserting one on first sight.
// Completed versions are skipped, pending and failed ones run again
func (m *Migrator) shouldRun(ctx context.Context, ml *List,
	f *File) (id int, run bool, err error) {
	rec, err := sqlmodel.MigrationGetByCodeAndVersion(ctx, m.db, ml.code, f.Version)
	if err != nil {
		if !e.ContainsError(err, e.MsgMigrationCodeVersionDNE) {
			return 0, false, e.W(err, ECode01010B)
		}

		id, err = sqlmodel.MigrationInsert(ctx, m.db, &sqlmodel.MigrationInsertParam{
			Code:    ml.code,
			Version: f.Version,
			Status:  model.MigrationStatusPending,
			SQL:     string(f.SQL),
		})
		if err != nil {
			return 0, false, e.W(err, ECode01010C)
		}

		return id, true, nil
	}

	switch rec.Status {
	case model.MigrationStatusComplete:
		return rec.ID, false, nil
	case model.MigrationStatusFailed:
		// The file may have been fixed since the failure, keep the
		// stored copy current
		newSQL := string(f.SQL)
		if err := sqlmodel.MigrationUpdate(ctx, m.db, rec.ID, &sqlmodel.MigrationUpdateParam{
			SQL: &newSQL,
		}); err != nil {
			return 0, false, e.W(err, ECode01010D)
		}
	}

	return rec.ID, true, nil
}

// apply runs the migration file and settles its tracking record
func (m *Migrator) apply(ctx context.Context, id int, ml *List, f *File) (err error) {
	if _, err := m.db.Exec(ctx, string(f.SQL)); err != nil {
		if err2 := m.settle(ctx, id, model.MigrationStatusFailed, err.Error()); err2 != nil {
			return e.W(err2, ECode01010E, err.Error())
		}

		return e.W(err, ECode01010F)
	}

	if err := m.settle(ctx, id, model.MigrationStatusComplete, ""); err != nil {
		return e.W(err, ECode01010G)
	}

	log.Info().Msgf("migrated %s to version %d", ml.code, f.Version)

	return nil
}

// settle records the outcome of an apply on the tracking record
func (m *Migrator) settle(ctx context.Context, id int, status, errMsg string) (err error) {
	return sqlmodel.MigrationUpdate(ctx, m.db, id, &sqlmodel.MigrationUpdateParam{
		Status: &status,
		Err:    &errMsg,
	})
}
