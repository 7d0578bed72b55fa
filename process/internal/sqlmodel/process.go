package sqlmodel

import (
	"context"
	"fmt"
	"time"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/process/model"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	ProcessTable = "process"

	ECode030201 = e.Code0302 + "01"
	ECode030202 = e.Code0302 + "02"
	ECode030203 = e.Code0302 + "03"
	ECode030204 = e.Code0302 + "04"
	ECode030205 = e.Code0302 + "05"
	// ECode030206_getByCode_notFound no process exists with the specified code
	ECode030206_getByCode_notFound = e.Code0302 + "06"
	ECode030207                    = e.Code0302 + "07"
	ECode030208                    = e.Code0302 + "08"
	ECode030209                    = e.Code0302 + "09"
	ECode03020A                    = e.Code0302 + "0A"
	// ECode03020B_lock_alreadyRunning another session holds the process lock
	ECode03020B_lock_alreadyRunning = e.Code0302 + "0B"
	// ECode03020C_lock_statusInactive the process is not active
	ECode03020C_lock_statusInactive = e.Code0302 + "0C"
	// ECode03020D_lock_notReady the process' next run time has not been reached
	ECode03020D_lock_notReady = e.Code0302 + "0D"
	ECode03020E               = e.Code0302 + "0E"
)

// ProcessGetParam get params
type ProcessGetParam struct {
	Limit                int
	Offset               int
	ID                   *int
	Code                 *string
	Status               string
	FlagCount            bool
	OrderByID            string
	ForNoKeyUpdateNoWait bool
}

// ProcessUpsert upsert a record into the process table
func ProcessUpsert(ctx context.Context, db *sql.Connection, p *model.Process) (id int, err error) {
	sb := db.Insert(ProcessTable).
		Columns("process_code", "process_name", "process_status", "process_message",
			"process_interval", "created_on", "updated_on").
		Values(p.Code, p.Name, model.ProcessStatusActive, "",
			int(p.Interval.Seconds()), "now()", "now()").
		Suffix(`ON CONFLICT ON CONSTRAINT process__ukey DO UPDATE
		SET process_name=excluded.process_name, updated_on=now()
		RETURNING process_id`)

	id, err = db.ExecInsertReturningID(ctx, sb)
	if err != nil {
		return 0, e.W(err, ECode030201)
	}

	return id, nil
}

// ProcessGet returns processes matching the filters
func ProcessGet(ctx context.Context, db *sql.Connection, p *ProcessGetParam) (pList []*model.Process, count int, err error) {
	fields := `process_id, process_code, process_name, process_status, process_message,
		process_interval, process_last_run, process_next_run, process_success_count,
		created_on, updated_on`

	if p.Limit == 0 {
		p.Limit = 1
	}

	sb := db.Select(sql.FieldPlaceHolder).
		From(ProcessTable).
		Limit(uint64(p.Limit))

	if p.ID != nil {
		sb = sb.Where("process_id=?", *p.ID)
	}

	if p.Code != nil && *p.Code != "" {
		sb = sb.Where("process_code=?", *p.Code)
	}

	if p.Status != "" {
		sb = sb.Where("process_status=?", p.Status)
	}

	if p.FlagCount {
		count, err = db.QueryCount(ctx, sb)
		if err != nil {
			return nil, 0, e.W(err, ECode030202)
		}
	}

	sb = sb.Offset(uint64(p.Offset))

	if p.OrderByID != "" {
		sb = sb.OrderBy(fmt.Sprintf("process_id %s", p.OrderByID))
	}

	if p.ForNoKeyUpdateNoWait {
		sb = sb.Suffix("FOR NO KEY UPDATE NOWAIT")
	}

	rows, err := db.ToSQLWFieldAndQuery(ctx, sb, fields)
	if err != nil {
		return nil, 0, e.W(err, ECode030203)
	}
	defer rows.Close()

	for rows.Next() {
		d := &model.Process{}
		var intervalSeconds int64
		if err := rows.Scan(&d.ID, &d.Code, &d.Name, &d.Status, &d.Message,
			&intervalSeconds, &d.LastRunTime, &d.NextRunTime, &d.SuccessCount,
			&d.CreatedOn, &d.UpdatedOn); err != nil {
			return nil, 0, e.W(err, ECode030204)
		}

		d.Interval = time.Duration(intervalSeconds) * time.Second

		pList = append(pList, d)
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.W(err, ECode03020E)
	}

	return pList, count, nil
}

// ProcessGetByCode returns the process record with the specified code
func ProcessGetByCode(ctx context.Context, db *sql.Connection, code string) (p *model.Process, err error) {
	pList, _, err := ProcessGet(ctx, db, &ProcessGetParam{
		Code: &code,
	})
	if err != nil {
		return nil, e.W(err, ECode030205)
	}

	if len(pList) == 0 {
		return nil, e.N(ECode030206_getByCode_notFound, "unable to find process by code")
	}

	return pList[0], nil
}

// ProcessLock establishes a row lock on the process record within the passed
// connection's transaction. The lock is released when the transaction commits
// or rolls back. If another session already holds the lock, or the process is
// not active, or its next run time has not been reached yet, a distinct error
// is returned so the caller can skip the run.
func ProcessLock(ctx context.Context, db *sql.Connection, id int) (p *model.Process, err error) {
	pList, _, err := ProcessGet(ctx, db, &ProcessGetParam{
		ID:                   &id,
		ForNoKeyUpdateNoWait: true,
	})
	if err != nil {
		if e.IsPQError(err, e.PQErr55P03LockNotAvailable) {
			return nil, e.N(ECode03020B_lock_alreadyRunning, "process locked by another session")
		}

		return nil, e.W(err, ECode030207)
	}

	if len(pList) == 0 {
		return nil, e.N(ECode030208, "unable to find process by id")
	}

	p = pList[0]

	if p.Status != model.ProcessStatusActive {
		return nil, e.N(ECode03020C_lock_statusInactive, "process inactive")
	}

	if p.Interval > 0 && p.NextRunTime.After(time.Now()) {
		return nil, e.N(ECode03020D_lock_notReady, "process not ready to run")
	}

	return p, nil
}

// ProcessSetRunTime stamps the last run time and schedules the next one
// based on the process' interval
func ProcessSetRunTime(ctx context.Context, db *sql.Connection, id int) (err error) {
	ub := db.Update(ProcessTable).
		Set("process_last_run", db.Expr("now()")).
		Set("process_next_run", db.Expr("now() + process_interval * INTERVAL '1 second'")).
		Set("updated_on", "now()").
		Where("process_id=?", id)

	if err := db.ExecUpdate(ctx, ub); err != nil {
		return e.W(err, ECode030209)
	}

	return nil
}

// ProcessSetLastSuccess increments the success counter and records the run time
// in the process message
func ProcessSetLastSuccess(ctx context.Context, db *sql.Connection, id int, runTime time.Duration) (err error) {
	ub := db.Update(ProcessTable).
		Set("process_success_count", db.Expr("process_success_count + 1")).
		Set("process_message", fmt.Sprintf("last run completed in %s", runTime)).
		Set("updated_on", "now()").
		Where("process_id=?", id)

	if err := db.ExecUpdate(ctx, ub); err != nil {
		return e.W(err, ECode03020A)
	}

	return nil
}

