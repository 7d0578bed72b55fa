package sql

import (
	"context"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/slabworks/catalog-sync/e"
)

const (
	// FieldPlaceHolder stand-in select field, swapped for the real
	// field list or a count when the query executes
	FieldPlaceHolder = "<FIELD_PLACE_HOLDER>"
	// FieldCount select field used by QueryCount
	FieldCount = "count(*) AS cnt"

	ECode020101 = e.Code0201 + "01"
	ECode020102 = e.Code0201 + "02"
)

// QueryCount runs the builder with its select field swapped for a
// count. The builder must carry FieldPlaceHolder as its select field
// and no offset yet, so one builder serves both the fetch and the
// count
func (c *Connection) QueryCount(ctx context.Context, sb sq.SelectBuilder) (count int, err error) {
	stmt, bindParams, err := sb.ToSql()
	if err != nil {
		return 0, e.W(err, ECode020101)
	}

	cntStmt := strings.Replace(stmt, FieldPlaceHolder, FieldCount, 1)
	if err := c.QueryRow(ctx, cntStmt, bindParams...).Scan(&count); err != nil {
		return 0, e.W(err, ECode020102,
			fmt.Sprintf("bindParams: %+v", bindParams))
	}

	return count, nil
}
