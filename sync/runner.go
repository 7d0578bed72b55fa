package sync

import (
	"context"
	"sync/atomic"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/process"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	// ProcessName shown in the process run history
	ProcessName = "Catalog sync batch"

	ECode050601 = e.Code0506 + "01"
	ECode050602 = e.Code0506 + "02"
	ECode050603 = e.Code0506 + "03"
)

// Runner executes batch runs under the registered process lock, so at
// most one run is in flight across all service instances. Triggers
// that arrive while a run holds the lock are skipped, not queued.
type Runner struct {
	proc *process.Processor
	sp   *Processor

	// Guards the fields below, which carry the trigger's arguments
	// into the run func registered with the process manager
	running  atomic.Bool
	ctx      context.Context
	maxItems int
	last     *RunResult
}

// RunReport what a triggered run produced
type RunReport struct {
	Skipped    bool       `json:"skipped"`
	SkipReason string     `json:"skipReason,omitempty"`
	Result     *RunResult `json:"result,omitempty"`
}

// NewRunner registers the batch process and returns a runner for it
func NewRunner(ctx context.Context, db *sql.Connection, sp *Processor) (r *Runner, err error) {
	r = &Runner{
		proc: process.NewProcessor(db),
		sp:   sp,
	}

	if err := r.proc.Register(ctx, ProcessCode, ProcessName, r.run); err != nil {
		return nil, e.W(err, ECode050601)
	}

	return r, nil
}

// run invoked by the process manager while it holds the process lock
func (r *Runner) run() (err error) {
	res, err := r.sp.RunBatch(r.ctx, r.maxItems)
	r.last = res
	if err != nil {
		return e.W(err, ECode050602)
	}

	return nil
}

// Run executes one batch run. A maxItems of 0 or less uses the
// processor's configured batch size. If another run is already in
// flight, in this instance or another one, the trigger is skipped and
// the report says why
func (r *Runner) Run(ctx context.Context, maxItems int) (rr *RunReport, err error) {
	if !r.running.CompareAndSwap(false, true) {
		return &RunReport{
			Skipped:    true,
			SkipReason: "run already in flight",
		}, nil
	}
	defer r.running.Store(false)

	r.ctx = ctx
	r.maxItems = maxItems
	r.last = nil

	resp, err := r.proc.Run(ctx, ProcessCode)
	if err != nil {
		// A partial result may still exist, e.g. a run canceled
		// mid-batch after settling some items
		return &RunReport{Result: r.last}, e.W(err, ECode050603)
	}

	if resp.Skipped {
		return &RunReport{
			Skipped:    true,
			SkipReason: resp.SkipReason,
		}, nil
	}

	return &RunReport{Result: r.last}, nil
}
