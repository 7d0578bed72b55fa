// Package process provides singleton process management backed by the
// process/process_run tables. A registered process can only have one run in
// flight at a time, enforced with a row lock held for the duration of the run.
package process

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/process/internal/sqlmodel"
	"github.com/slabworks/catalog-sync/process/model"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	ECode030101 = e.Code0301 + "01"
	ECode030102 = e.Code0301 + "02"
	ECode030103 = e.Code0301 + "03"
	ECode030104 = e.Code0301 + "04"
	ECode030105 = e.Code0301 + "05"
	ECode030106 = e.Code0301 + "06"
	ECode030107 = e.Code0301 + "07"
	ECode030108 = e.Code0301 + "08"
	ECode030109 = e.Code0301 + "09"
	ECode03010A = e.Code0301 + "0A"
	ECode03010B = e.Code0301 + "0B"
	ECode03010C = e.Code0301 + "0C"
	ECode03010D = e.Code0301 + "0D"
	ECode03010E = e.Code0301 + "0E"
)

// Processor manages the registered processes of this instance and runs
// them under their database locks
type Processor struct {
	db         *sql.Connection
	registered map[string]*registration
}

// RunResponse the outcome of asking for a run. Either the run was
// skipped, with a reason, or it happened and Run holds its record
type RunResponse struct {
	Skipped    bool
	SkipReason string
	Run        *model.ProcessRun
}

type registration struct {
	proc *model.Process
	f    func() error
}

// NewProcessor returns a new instance of a processor
func NewProcessor(db *sql.Connection) (p *Processor) {
	return &Processor{
		db: db,
	}
}

// Register makes the process runnable through this processor, creating
// its process row on first sight. Register everything at startup, a
// Run for an unregistered code fails.
//
// The run func is invoked while the processor holds the process row
// lock, so only one invocation executes at a time across all instances
func (p *Processor) Register(ctx context.Context, code, name string, f func() error) (err error) {
	if _, ok := p.registered[code]; ok {
		return e.N(ECode030101,
			fmt.Sprintf("process '%s' already registered", code))
	}

	proc, err := sqlmodel.ProcessGetByCode(ctx, p.db, code)
	if err != nil {
		if !e.ContainsError(err, sqlmodel.ECode030206_getByCode_notFound) {
			return e.W(err, ECode030102)
		}

		// First registration anywhere, create the row
		proc = &model.Process{
			Code:   code,
			Name:   name,
			Status: model.ProcessStatusActive,
		}

		id, err := sqlmodel.ProcessUpsert(ctx, p.db, proc)
		if err != nil {
			return e.W(err, ECode030103)
		}
		proc.ID = id
	}

	// An operator can park a process by flipping its status
	if proc.Status != model.ProcessStatusActive {
		return e.N(ECode030104, "process inactive")
	}

	if p.registered == nil {
		p.registered = make(map[string]*registration, 1)
	}
	p.registered[code] = &registration{
		proc: proc,
		f:    f,
	}

	return nil
}

// Run executes the registered process. The lock is taken before the
// run func and released by the closing commit, so a second caller
// anywhere is skipped with a reason rather than run twice. When the
// run func fails, the response still carries the failed run record
// alongside the error
func (p *Processor) Run(ctx context.Context, code string) (rr *RunResponse, err error) {
	reg, ok := p.registered[code]
	if !ok {
		return nil, e.N(ECode030105,
			fmt.Sprintf("process '%s' was not registered", code))
	}

	dbLock, err := p.db.BeginReturnDB(ctx)
	if err != nil {
		return nil, e.W(err, ECode030106)
	}
	defer dbLock.RollbackIfInTxn(ctx)

	rr = &RunResponse{}

	proc, err := sqlmodel.ProcessLock(ctx, dbLock, reg.proc.ID)
	if err != nil {
		switch {
		case e.ContainsError(err, sqlmodel.ECode03020B_lock_alreadyRunning):
			rr.Skipped = true
			rr.SkipReason = "process already running"
			return rr, nil
		case e.ContainsError(err, sqlmodel.ECode03020C_lock_statusInactive):
			rr.Skipped = true
			rr.SkipReason = "process no longer active"
			return rr, nil
		case e.ContainsError(err, sqlmodel.ECode03020D_lock_notReady):
			rr.Skipped = true
			rr.SkipReason = "process not scheduled to run yet"
			return rr, nil
		}

		return nil, e.W(err, ECode030107)
	}

	// A process with an interval, set by an operator on the row, moves
	// its scheduling window forward at the start of the run
	if proc.Interval > 0 {
		if err := sqlmodel.ProcessSetRunTime(ctx, dbLock, proc.ID); err != nil {
			return nil, e.W(err, ECode030108)
		}
	}

	rr.Run, err = sqlmodel.ProcessRunCreate(ctx, p.db, proc.ID)
	if err != nil {
		return nil, e.W(err, ECode030109)
	}

	start := time.Now()
	if err := reg.f(); err != nil {
		rr.Run.RunTime = time.Since(start)

		// Best effort, the originating error is the one to surface
		if err2 := sqlmodel.ProcessRunFail(ctx, p.db, rr.Run.ID,
			err.Error(), rr.Run.RunTime); err2 != nil {
			log.Warn().Err(e.W(err2, ECode03010A)).
				Msg("process run fail not recorded")
		}

		return rr, e.W(err, ECode03010B)
	}

	rr.Run.RunTime = time.Since(start)

	if err := sqlmodel.ProcessRunComplete(ctx, p.db, rr.Run.ID, "",
		rr.Run.RunTime); err != nil {
		rr.Run.Error = err.Error()
		return rr, e.W(err, ECode03010C)
	}

	if err := sqlmodel.ProcessSetLastSuccess(ctx, dbLock, proc.ID,
		rr.Run.RunTime); err != nil {
		rr.Run.Error = err.Error()
		return rr, e.W(err, ECode03010D)
	}

	// Releases the lock
	if err := dbLock.Commit(ctx); err != nil {
		return nil, e.W(err, ECode03010E)
	}

	return rr, nil
}
