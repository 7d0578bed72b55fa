package e

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	// PQErr55P03LockNotAvailable Postgres code for a NOWAIT lock failure
	PQErr55P03LockNotAvailable = "55P03"
	// PQErr58030IOError Postgres code for i/o error ("could not write to temporary file")
	PQErr58030IOError = "58030"
	// PQErr42P01 Postgres code for relation "<string>" does not exist
	PQErr42P01 = "42P01"
)

// IsPQError checks if the passed error is the specified Postgres error code
func IsPQError(err error, errorCode string) bool {
	var pgErr *pgconn.PgError
	if ee := AsExtendedError(err); ee != nil {
		return ee.AsError(&pgErr) && pgErr.Code == errorCode
	}

	return errors.As(err, &pgErr) && pgErr.Code == errorCode
}
