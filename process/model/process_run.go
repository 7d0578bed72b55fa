package model

import "time"

// Statuses of a single run record. A run begins as running and settles
// into completed or failed
const (
	ProcessRunStatusRunning   = "running"
	ProcessRunStatusCompleted = "completed"
	ProcessRunStatusFailed    = "failed"
)

// ProcessRun one execution of a registered process, kept as history
type ProcessRun struct {
	ID        int
	ProcessID int
	Status    string
	RunTime   time.Duration
	Error     string
	CreatedOn time.Time
	UpdatedOn time.Time
}
