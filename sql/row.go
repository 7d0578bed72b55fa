package sql

import (
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode020201 = e.Code0202 + "01"
)

// Row wraps pgx.Row so a scan failure comes back wrapped with the
// query that produced it
type Row struct {
	row   pgx.Row
	query string
}

// Scan delegates to pgx, wrapping any error with the query
func (r *Row) Scan(dest ...interface{}) error {
	if err := r.row.Scan(dest...); err != nil {
		return e.W(err, ECode020201, fmt.Sprintf("query: %s", r.query))
	}

	return nil
}
