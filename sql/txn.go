package sql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode020401 = e.Code0204 + "01"
	ECode020402 = e.Code0204 + "02"
	ECode020403 = e.Code0204 + "03"
	ECode020404 = e.Code0204 + "04"
	ECode020405 = e.Code0204 + "05"
	ECode020406 = e.Code0204 + "06"
)

// Txn wrapper of the pgx.Tx
type Txn struct {
	txn pgx.Tx
}

// RollbackIfInTxn same as Rollback, except if it is not in a txn, it will not
// return an error
func (t *Txn) RollbackIfInTxn(ctx context.Context) {
	if t.txn == nil {
		return
	}

	_ = t.Rollback(ctx)
}

// Rollback attempts to roll back the txn
func (t *Txn) Rollback(ctx context.Context) (err error) {
	if t.txn == nil {
		return e.W(nil, ECode020401)
	}

	if err := t.txn.Rollback(ctx); err != nil {
		return e.W(err, ECode020402)
	}

	t.txn = nil

	return nil
}

// Commit attempts to commit the txn
func (t *Txn) Commit(ctx context.Context) (err error) {
	if t.txn == nil {
		return e.W(nil, ECode020403)
	}

	if err = t.txn.Commit(ctx); err != nil {
		return e.W(err, ECode020404)
	}

	t.txn = nil

	return nil
}

// Exec executes the query in the txn
func (t *Txn) Exec(ctx context.Context, query string, args ...interface{}) (commandTag pgconn.CommandTag, err error) {
	res, err := t.txn.Exec(ctx, query, args...)
	if err != nil {
		// Not logging args because it may contain sensitive information. The
		// caller can log them if needed
		return res, e.W(err, ECode020405, fmt.Sprintf("query: %s\n", query))
	}

	return res, nil
}

// Query runs the query in the txn
func (t *Txn) Query(ctx context.Context, query string, args ...interface{}) (rows pgx.Rows, err error) {
	sqlRows, err := t.txn.Query(ctx, query, args...)
	if err != nil {
		// Not logging args because it may contain sensitive information. The
		// caller can log them if needed
		return nil, e.W(err, ECode020406, fmt.Sprintf("query: %s\n", query))
	}

	return sqlRows, nil
}

// QueryRow runs the query in the txn, returning the single row
func (t *Txn) QueryRow(ctx context.Context, query string, args ...interface{}) (row pgx.Row) {
	return t.txn.QueryRow(ctx, query, args...)
}
