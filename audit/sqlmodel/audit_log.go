package sqlmodel

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	AuditLogTableName     = "catalog_audit_log"
	AuditLogDefaultSortBy = "catalog_audit_log_id"

	ECode070201 = e.Code0702 + "01"
	ECode070202 = e.Code0702 + "02"
	ECode070203 = e.Code0702 + "03"
	ECode070204 = e.Code0702 + "04"
	ECode070205 = e.Code0702 + "05"
	ECode070206 = e.Code0702 + "06"
	ECode070207 = e.Code0702 + "07"
)

// AuditLogGetParam get params
type AuditLogGetParam struct {
	Limit     *uint64
	Offset    uint64
	UID       *string
	Event     *string
	Level     *string
	FlagCount bool
	OrderByID string
}

// AuditLogInsert adds the record, returning the new id
func AuditLogInsert(ctx context.Context, db *sql.Connection,
	r *model.Record) (id int, err error) {
	b, err := json.Marshal(r.Context)
	if err != nil {
		return 0, e.W(err, ECode070201, r.UID)
	}

	ib := db.Insert(AuditLogTableName).
		Columns(`catalog_audit_log_uid,catalog_audit_log_level,
		catalog_audit_log_event,catalog_audit_log_message,
		catalog_audit_log_context,created_on`).
		Values(r.UID, r.Level,
			r.Event, r.Message,
			string(b), "now()",
		).Suffix("RETURNING catalog_audit_log_id")

	id, err = db.ExecInsertReturningID(ctx, ib)
	if err != nil {
		return 0, e.W(err, ECode070202,
			fmt.Sprintf("params: %s, %s, %s", r.UID, r.Level, r.Event))
	}

	return id, nil
}

// AuditLogGet performs select
func AuditLogGet(ctx context.Context, db *sql.Connection,
	p *AuditLogGetParam) (rList []*model.Record, count int, err error) {
	fields := `catalog_audit_log_uid,catalog_audit_log_level,
	catalog_audit_log_event,catalog_audit_log_message,
	catalog_audit_log_context,created_on::TEXT`

	limit := uint64(10)
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}

	sb := db.Select("{fields}").
		From(AuditLogTableName).
		Limit(limit)

	if p.UID != nil {
		sb = sb.Where("catalog_audit_log_uid=?", *p.UID)
	}

	if p.Event != nil {
		sb = sb.Where("catalog_audit_log_event=?", *p.Event)
	}

	if p.Level != nil {
		sb = sb.Where("catalog_audit_log_level=?", *p.Level)
	}

	if p.FlagCount {
		stmt, bindList, err := sb.ToSql()
		if err != nil {
			return nil, 0, e.W(err, ECode070203)
		}

		row := db.QueryRow(ctx, strings.Replace(stmt, "{fields}", "count(*)", 1), bindList...)
		if err := row.Scan(&count); err != nil {
			return nil, 0, e.W(err, ECode070204,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}
	}

	sb = sb.Offset(p.Offset)

	if p.OrderByID != "" {
		sb = sb.OrderBy(fmt.Sprintf("catalog_audit_log_id %s", p.OrderByID))
	}

	stmt, bindList, err := sb.ToSql()
	if err != nil {
		return nil, 0, e.W(err, ECode070205)
	}

	stmt = strings.Replace(stmt, "{fields}", fields, 1)
	rows, err := db.Query(ctx, stmt, bindList...)
	if err != nil {
		return nil, 0, e.W(err, ECode070206,
			fmt.Sprintf("bindList: %v", bindList))
	}
	defer rows.Close()

	for rows.Next() {
		r := &model.Record{}
		var rawCtx []byte
		if err := rows.Scan(&r.UID, &r.Level,
			&r.Event, &r.Message,
			&rawCtx, &r.CreatedOn); err != nil {
			return nil, 0, e.W(err, ECode070207,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}

		if len(rawCtx) > 0 {
			// Context is display only, a decode failure is not fatal
			_ = json.Unmarshal(rawCtx, &r.Context)
		}

		rList = append(rList, r)
	}

	return rList, count, nil
}
