package sql

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode020501 = e.Code0205 + "01"
	ECode020502 = e.Code0205 + "02"
)

// Rows wraps pgx.Rows so scan and iteration failures come back wrapped
// with the query that produced them
type Rows struct {
	rows  pgx.Rows
	query string
}

// Scan delegates to pgx, wrapping any error with the query
func (r *Rows) Scan(dest ...interface{}) error {
	if err := r.rows.Scan(dest...); err != nil {
		return e.W(err, ECode020501, fmt.Sprintf("query: %s", r.query))
	}

	return nil
}

// Err reports any error hit while iterating
func (r *Rows) Err() error {
	if err := r.rows.Err(); err != nil {
		return e.W(err, ECode020502, fmt.Sprintf("query: %s", r.query))
	}

	return nil
}

// Close releases the rows. pgx cannot fail here, the error return is
// kept so callers can treat it like database/sql
func (r *Rows) Close() error {
	r.rows.Close()

	return nil
}

// Next advances to the next row
func (r *Rows) Next() bool {
	return r.rows.Next()
}
