// Package audit records the notable events of the catalog sync, such
// as terminal push failures and conflict resolutions, to one or more
// sinks. The database sink is the durable trail, the kafka sink feeds
// downstream consumers.
package audit

import (
	"context"

	"github.com/google/uuid"

	"github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/audit/sqlmodel"
	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	ECode070101 = e.Code0701 + "01"
	ECode070102 = e.Code0701 + "02"
)

// Sink receives audit records
type Sink interface {
	Write(ctx context.Context, r *model.Record) error
}

// New builds a record for the event, assigning it a unique id
func New(level, event, msg string, recCtx map[string]interface{}) (r *model.Record) {
	return &model.Record{
		UID:     uuid.NewString(),
		Level:   level,
		Event:   event,
		Message: msg,
		Context: recCtx,
	}
}

// SQLSink writes records to the catalog_audit_log table
type SQLSink struct {
	db *sql.Connection
}

// NewSQLSink returns a sink writing to the database
func NewSQLSink(db *sql.Connection) (s *SQLSink) {
	return &SQLSink{
		db: db,
	}
}

// Write implements Sink
func (s *SQLSink) Write(ctx context.Context, r *model.Record) (err error) {
	if _, err := sqlmodel.AuditLogInsert(ctx, s.db, r); err != nil {
		return e.W(err, ECode070101)
	}

	return nil
}

// MultiSink fans a record out to each sink, stopping on the first
// failure
type MultiSink struct {
	sinks []Sink
}

// NewMultiSink returns a sink writing to all of the passed sinks
func NewMultiSink(sinks ...Sink) (s *MultiSink) {
	return &MultiSink{
		sinks: sinks,
	}
}

// Write implements Sink
func (s *MultiSink) Write(ctx context.Context, r *model.Record) (err error) {
	for _, sink := range s.sinks {
		if err := sink.Write(ctx, r); err != nil {
			return e.W(err, ECode070102)
		}
	}

	return nil
}

// NopSink discards records, used when no audit trail is configured
type NopSink struct{}

// Write implements Sink
func (s *NopSink) Write(ctx context.Context, r *model.Record) (err error) {
	return nil
}
