package sqlmodel

import (
	"context"
	"time"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/process/model"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	ProcessRunTable = "process_run"

	ECode030301 = e.Code0303 + "01"
	ECode030302 = e.Code0303 + "02"
	ECode030303 = e.Code0303 + "03"
)

// ProcessRunCreate inserts a running record for the process and
// returns it
func ProcessRunCreate(ctx context.Context, db *sql.Connection, processID int) (pr *model.ProcessRun, err error) {
	now := time.Now()
	pr = &model.ProcessRun{
		ProcessID: processID,
		Status:    model.ProcessRunStatusRunning,
		CreatedOn: now,
		UpdatedOn: now,
	}

	sb := db.Insert(ProcessRunTable).
		Columns("process_id", "process_run_status", "process_run_time",
			"process_run_error", "created_on", "updated_on").
		Values(pr.ProcessID, pr.Status, pr.RunTime.Seconds(), pr.Error,
			pr.CreatedOn, pr.UpdatedOn).
		Suffix("RETURNING process_run_id")

	pr.ID, err = db.ExecInsertReturningID(ctx, sb)
	if err != nil {
		return nil, e.W(err, ECode030301)
	}

	return pr, nil
}

// ProcessRunComplete settles the record as completed
func ProcessRunComplete(ctx context.Context, db *sql.Connection, id int, msg string, runTime time.Duration) (err error) {
	if err := processRunSettle(ctx, db, id,
		model.ProcessRunStatusCompleted, msg, runTime); err != nil {
		return e.W(err, ECode030302)
	}

	return nil
}

// ProcessRunFail settles the record as failed with the run's error
func ProcessRunFail(ctx context.Context, db *sql.Connection, id int, msg string, runTime time.Duration) (err error) {
	if err := processRunSettle(ctx, db, id,
		model.ProcessRunStatusFailed, msg, runTime); err != nil {
		return e.W(err, ECode030303)
	}

	return nil
}

// processRunSettle writes the terminal status, run time and message
func processRunSettle(ctx context.Context, db *sql.Connection, id int,
	status, msg string, runTime time.Duration) (err error) {
	ub := db.Update(ProcessRunTable).
		Set("process_run_status", status).
		Set("process_run_time", runTime.Seconds()).
		Set("process_run_error", msg).
		Set("updated_on", db.Expr("now()")).
		Where("process_run_id=?", id)

	return db.ExecUpdate(ctx, ub)
}
