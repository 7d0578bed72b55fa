package model

// Lifecycle of a tracking record. A file starts out pending, settles
// into complete on success and failed otherwise. Failed files run
// again on the next upgrade
const (
	MigrationStatusPending  = "pending"
	MigrationStatusFailed   = "failed"
	MigrationStatusComplete = "complete"
)

// Migration tracks a single applied (or attempted) schema migration
type Migration struct {
	ID        int
	Code      string
	Version   int
	Status    string
	SQL       string
	Err       string
	CreatedOn string
	UpdatedOn string
}
