package sqlmodel

import (
	"context"
	"fmt"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/migration/model"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	MigrationTableName = "slabworks_migration"

	ECode010301 = e.Code0103 + "01"
	ECode010302 = e.Code0103 + "02"
	ECode010303 = e.Code0103 + "03"
	ECode010304 = e.Code0103 + "04"
	ECode010305 = e.Code0103 + "05"
	ECode010306 = e.Code0103 + "06"
	ECode010307 = e.Code0103 + "07"
	ECode010308 = e.Code0103 + "08"
	ECode010309 = e.Code0103 + "09"
	ECode01030A = e.Code0103 + "0A"
)

// MigrationGetParam get params. Only the migrator reads this table, the
// filters cover what it asks for
type MigrationGetParam struct {
	Limit          uint64
	Code           *string
	Version        *int
	OrderByVersion string
}

// MigrationUpdateParam update params
type MigrationUpdateParam struct {
	Status *string
	SQL    *string
	Err    *string
}

// MigrationInsertParam insert params
type MigrationInsertParam struct {
	Code    string
	Version int
	Status  string
	SQL     string
	Err     string
}

// MigrationInsert adds a tracking record for a migration file,
// returning the new id
func MigrationInsert(ctx context.Context, db *sql.Connection,
	input *MigrationInsertParam) (id int, err error) {
	ib := db.Insert(MigrationTableName).
		Columns(`slabworks_migration_code,slabworks_migration_version,
		slabworks_migration_status,slabworks_migration_sql,slabworks_migration_err,
		created_on,updated_on`).
		Values(input.Code, input.Version,
			input.Status, input.SQL, input.Err,
			"now()", "now()",
		).Suffix("RETURNING slabworks_migration_id")

	id, err = db.ExecInsertReturningID(ctx, ib)
	if err != nil {
		return 0, e.W(err, ECode010301,
			fmt.Sprintf("params: %s, %d, %s", input.Code, input.Version, input.Status))
	}

	return id, nil
}

// MigrationUpdate performs update on the set fields of a tracking
// record
func MigrationUpdate(ctx context.Context, db *sql.Connection, id int,
	up *MigrationUpdateParam) (err error) {
	if up == nil {
		return nil // Nothing to update
	}

	ub := db.Update(MigrationTableName).
		Set("updated_on", "now()").
		Where("slabworks_migration_id=?", id)

	if up.Status != nil {
		ub = ub.Set("slabworks_migration_status", *up.Status)
	}

	if up.SQL != nil {
		ub = ub.Set("slabworks_migration_sql", *up.SQL)
	}

	if up.Err != nil {
		ub = ub.Set("slabworks_migration_err", *up.Err)
	}

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode010302, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// MigrationGet performs select
func MigrationGet(ctx context.Context, db *sql.Connection,
	p *MigrationGetParam) (mList []*model.Migration, err error) {
	fields := `slabworks_migration_id,slabworks_migration_code,slabworks_migration_version,
	slabworks_migration_status,slabworks_migration_sql,slabworks_migration_err,
	created_on::TEXT,updated_on::TEXT`

	limit := p.Limit
	if limit == 0 {
		limit = 1
	}

	sb := db.Select(sql.FieldPlaceHolder).
		From(MigrationTableName).
		Limit(limit)

	if p.Code != nil {
		sb = sb.Where("slabworks_migration_code=?", *p.Code)
	}

	if p.Version != nil && *p.Version >= 0 {
		sb = sb.Where("slabworks_migration_version=?", *p.Version)
	}

	if p.OrderByVersion != "" {
		sb = sb.OrderBy(fmt.Sprintf("slabworks_migration_version %s", p.OrderByVersion))
	}

	rows, err := db.ToSQLWFieldAndQuery(ctx, sb, fields)
	if err != nil {
		return nil, e.W(err, ECode010303)
	}
	defer rows.Close()

	for rows.Next() {
		m := &model.Migration{}
		if err := rows.Scan(&m.ID, &m.Code, &m.Version,
			&m.Status, &m.SQL, &m.Err,
			&m.CreatedOn, &m.UpdatedOn); err != nil {
			return nil, e.W(err, ECode010304)
		}

		mList = append(mList, m)
	}

	if err := rows.Err(); err != nil {
		return nil, e.W(err, ECode010305)
	}

	return mList, nil
}

// MigrationGetByCodeAndVersion returns the tracking record for the
// code and version pair
func MigrationGetByCodeAndVersion(ctx context.Context, db *sql.Connection,
	code string, version int) (m *model.Migration, err error) {
	mList, err := MigrationGet(ctx, db, &MigrationGetParam{
		Code:    &code,
		Version: &version,
	})
	if err != nil {
		return nil, e.W(err, ECode010306,
			fmt.Sprintf("code: %s, version: %d", code, version))
	}

	if len(mList) != 1 {
		return nil, e.N(ECode010307, e.MsgMigrationCodeVersionDNE)
	}

	return mList[0], nil
}

// MigrationGetLatest returns the newest applied version for the code.
// A missing tracking table reads as not installed, so the migrator can
// bootstrap itself
func MigrationGetLatest(ctx context.Context, db *sql.Connection,
	code string) (m *model.Migration, err error) {
	mList, err := MigrationGet(ctx, db, &MigrationGetParam{
		Code:           &code,
		OrderByVersion: "desc",
	})
	if err != nil {
		if e.ContainsError(err, e.PQErr42P01) {
			return nil, e.N(ECode010308, e.MsgMigrationNotInstalled)
		}

		return nil, e.W(err, ECode010309, fmt.Sprintf("code: %s", code))
	}

	if len(mList) != 1 {
		return nil, e.N(ECode01030A, e.MsgMigrationNone)
	}

	return mList[0], nil
}
