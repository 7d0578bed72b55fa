// Package sync pushes local inventory changes to the remote Shopify
// catalog through a durable database queue. Local edits enqueue work
// with QueueStore.Enqueue, and a single Processor run claims a batch,
// performs the remote calls sequentially and settles each row as
// completed, requeued or failed. Conflicts flagged by operators are
// settled through the Resolver. Batch runs are serialized through the
// process package so only one writer talks to a store at a time.
package sync

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/slabworks/catalog-sync/audit"
	auditmodel "github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/e"
	invmodel "github.com/slabworks/catalog-sync/inventory/model"
	invsqlmodel "github.com/slabworks/catalog-sync/inventory/sqlmodel"
	"github.com/slabworks/catalog-sync/process"
	"github.com/slabworks/catalog-sync/shopify"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync/model"
)

const (
	ECode050301 = e.Code0503 + "01"
	ECode050302 = e.Code0503 + "02"
	ECode050303 = e.Code0503 + "03"
	ECode050304 = e.Code0503 + "04"
	ECode050305 = e.Code0503 + "05"
	ECode050306 = e.Code0503 + "06"
	ECode050307 = e.Code0503 + "07"
	ECode050308 = e.Code0503 + "08"
	ECode050309 = e.Code0503 + "09"
	ECode05030A = e.Code0503 + "0A"
	ECode05030B = e.Code0503 + "0B"
	ECode05030C = e.Code0503 + "0C"
	ECode05030D = e.Code0503 + "0D"
	ECode05030E = e.Code0503 + "0E"
	ECode05030F = e.Code0503 + "0F"
	ECode05030G = e.Code0503 + "0G"
	ECode05030H = e.Code0503 + "0H"
	ECode05030I = e.Code0503 + "0I"
)

const (
	// ProcessCode registered for batch runs
	ProcessCode = "catalog-sync-batch"

	// DefaultMaxItems claimed per batch run
	DefaultMaxItems = 25

	// DefaultPacing wait between remote calls within a batch
	DefaultPacing = 2 * time.Second

	// DefaultCooldown wait after a throttled remote call
	DefaultCooldown = 30 * time.Second
)

// Processor claims queued sync work and pushes it to the remote
// catalog one item at a time
type Processor struct {
	queue    QueueStore
	items    ItemStore
	catalog  CatalogClient
	auditor  audit.Sink
	searcher Searcher
	maxItems int
	pacing   time.Duration
	cooldown time.Duration
	log      *process.Logger
}

// NewProcessor returns a processor using the database backed stores.
// Audit records are discarded and no search index is updated until
// sinks are attached with SetAudit / SetSearcher
func NewProcessor(db *sql.Connection, catalog CatalogClient) (p *Processor) {
	return &Processor{
		queue:    NewQueueStore(db),
		items:    NewItemStore(db),
		catalog:  catalog,
		auditor:  &audit.NopSink{},
		maxItems: DefaultMaxItems,
		pacing:   DefaultPacing,
		cooldown: DefaultCooldown,
		log:      process.NewLogger(ProcessCode),
	}
}

// SetMaxItems overrides the default batch size
func (p *Processor) SetMaxItems(n int) {
	if n > 0 {
		p.maxItems = n
	}
}

// SetPacing overrides the wait between remote calls
func (p *Processor) SetPacing(d time.Duration) {
	p.pacing = d
}

// SetCooldown overrides the wait after a throttled call
func (p *Processor) SetCooldown(d time.Duration) {
	p.cooldown = d
}

// SetAudit attaches the audit sink
func (p *Processor) SetAudit(s audit.Sink) {
	p.auditor = s
}

// SetSearcher attaches the search index updated after pushes
func (p *Processor) SetSearcher(s Searcher) {
	p.searcher = s
}

// SetStores overrides the queue and item stores
func (p *Processor) SetStores(qs QueueStore, is ItemStore) {
	p.queue = qs
	p.items = is
}

// RunResult tallies the outcomes of one batch run
type RunResult struct {
	Processed   int `json:"processed"`
	Success     int `json:"success"`
	FailRetry   int `json:"failRetry"`
	Fail        int `json:"fail"`
	RateLimited int `json:"rateLimited"`
	Recovered   int `json:"recovered"`
}

// Message summarizes the run for process logs and API responses
func (rr *RunResult) Message() string {
	return fmt.Sprintf(
		"processed %d (success: %d, will retry: %d, failed: %d, rate limited: %d, recovered: %d)",
		rr.Processed, rr.Success, rr.FailRetry, rr.Fail, rr.RateLimited, rr.Recovered)
}

// RunBatch reconciles work left behind by an interrupted run, then
// claims up to maxItems queued rows and pushes them sequentially. If
// maxItems is zero or negative the configured batch size is used. The
// context ending mid batch releases the unprocessed claims and returns
// the tallies so far
func (p *Processor) RunBatch(ctx context.Context, maxItems int) (res *RunResult, err error) {
	if maxItems <= 0 {
		maxItems = p.maxItems
	}

	p.log.ResetTime()
	res = &RunResult{}

	if err := p.reconcile(ctx, res); err != nil {
		return nil, e.W(err, ECode050301)
	}

	qiList, err := p.queue.Claim(ctx, maxItems)
	if err != nil {
		return nil, e.W(err, ECode050302)
	}

	if len(qiList) == 0 {
		p.log.Info(res.Message())
		return res, nil
	}

	p.log.Info("claimed %d queue items", len(qiList))

	for idx, qi := range qiList {
		select {
		case <-ctx.Done():
			p.releaseRemaining(ctx, qiList[idx:])
			return res, e.W(ctx.Err(), ECode050303)
		default:
		}

		outcome := p.processItem(ctx, qi, res)

		if idx == len(qiList)-1 {
			break
		}

		// Space out the remote calls. A throttled item waits the
		// longer cooldown before the next call
		wait := p.pacing
		if outcome == shopify.OutcomeRateLimited {
			wait = p.cooldown
		}

		if err := sleepCtx(ctx, wait); err != nil {
			p.releaseRemaining(ctx, qiList[idx+1:])
			return res, e.W(err, ECode050304)
		}
	}

	p.log.Info(res.Message())

	return res, nil
}

// reconcile settles queue items a previous run left in processing. An
// item holding remote refs finished its remote write before the run
// died, so the linkage is recorded locally and the item completed
// instead of pushed again. Anything else is released back to queued
func (p *Processor) reconcile(ctx context.Context, res *RunResult) (err error) {
	qiList, err := p.queue.GetByStatus(ctx, []string{model.QueueStatusProcessing})
	if err != nil {
		return e.W(err, ECode050305)
	}

	for _, qi := range qiList {
		if !qi.HasRemoteRefs() {
			if err := p.queue.Release(ctx, qi.ID,
				"Requeued after interrupted run"); err != nil {
				return e.W(err, ECode050308)
			}
			continue
		}

		if err := p.items.SetRemoteRefs(ctx, qi.InventoryItemID, &shopify.RemoteRefs{
			ProductID:       qi.RemoteProductID,
			VariantID:       qi.RemoteVariantID,
			InventoryItemID: qi.RemoteInventoryItemID,
		}); err != nil {
			return e.W(err, ECode050306)
		}

		if err := p.queue.SetCompleted(ctx, qi.ID); err != nil {
			return e.W(err, ECode050307)
		}

		p.writeAudit(ctx, auditmodel.LevelInfo, auditmodel.EventSyncRecovered,
			"Adopted remote product created by an interrupted run",
			map[string]interface{}{
				"queueItemId":     qi.ID,
				"inventoryItemId": qi.InventoryItemID,
				"remoteProductId": qi.RemoteProductID,
			})

		res.Recovered++
	}

	return nil
}

// processItem pushes a single claimed queue item and settles its row.
// The returned outcome drives the pacing delay before the next item
func (p *Processor) processItem(ctx context.Context, qi *model.QueueItem,
	res *RunResult) (outcome string) {
	res.Processed++

	item, err := p.items.GetByID(ctx, qi.InventoryItemID)
	if err != nil {
		if !e.ContainsError(err, invsqlmodel.ECode04020G_getByID_notFound) {
			// Storage failed before the push started, so the claim
			// goes back without consuming retry budget
			if err := p.queue.Release(ctx, qi.ID,
				"Requeued after storage error"); err != nil {
				p.log.Error("release of queue item %d failed: %s",
					qi.ID, err.Error())
			}
			res.FailRetry++
			return shopify.OutcomeTransient
		}

		p.failPermanent(ctx, qi, nil, e.MsgInventoryItemDoesNotExist)
		res.Fail++
		return shopify.OutcomePermanent
	}

	if qi.Action != model.QueueActionDelete {
		if missing := item.MissingSyncFields(); len(missing) > 0 {
			p.failPermanent(ctx, qi, item,
				e.MsgInventoryItemNotSyncable+": "+strings.Join(missing, ", "))
			res.Fail++
			return shopify.OutcomePermanent
		}
	}

	if qi.Action == model.QueueActionDelete {
		err = p.processDelete(ctx, qi, item)
	} else {
		err = p.processPush(ctx, qi, item)
	}
	if err == nil {
		res.Success++
		return ""
	}

	msg := remoteErrMsg(err)
	outcome = shopify.Classify(err)

	switch outcome {
	case shopify.OutcomeRateLimited:
		// A throttled attempt does not consume retry budget
		if err := p.queue.RequeueRateLimited(ctx, qi.ID); err != nil {
			p.log.Error("requeue of rate limited queue item %d failed: %s",
				qi.ID, err.Error())
		}
		res.RateLimited++

	case shopify.OutcomePermanent:
		p.failPermanent(ctx, qi, item, msg)
		res.Fail++

	default:
		newRetries := qi.Retries + 1
		willRetry := newRetries <= qi.MaxRetries
		attemptMsg := fmt.Sprintf("Attempt %d: %s", newRetries, msg)

		if err := p.queue.SetError(ctx, qi.ID, attemptMsg, willRetry); err != nil {
			p.log.Error("set error on queue item %d failed: %s",
				qi.ID, err.Error())
		}

		if willRetry {
			res.FailRetry++
			return outcome
		}

		if err := p.items.SetSyncStatus(ctx, item.ID, invmodel.SyncStatusFailed,
			attemptMsg); err != nil {
			p.log.Error("set sync status on inventory item %d failed: %s",
				item.ID, err.Error())
		}

		p.writeAudit(ctx, auditmodel.LevelError, auditmodel.EventSyncFailed,
			"Retries exhausted: "+msg, map[string]interface{}{
				"queueItemId":     qi.ID,
				"inventoryItemId": qi.InventoryItemID,
				"action":          qi.Action,
				"error":           msg,
				"attempts":        newRetries,
			})
		res.Fail++
	}

	return outcome
}

// processPush creates or updates the remote product for the item, then
// records the linkage locally and completes the queue row
func (p *Processor) processPush(ctx context.Context, qi *model.QueueItem,
	item *invmodel.InventoryItem) (err error) {
	// Remote refs on the queue row mean an earlier attempt already
	// created the product, adopt them instead of creating a duplicate
	if !item.IsLinked() && qi.HasRemoteRefs() {
		refs := &shopify.RemoteRefs{
			ProductID:       qi.RemoteProductID,
			VariantID:       qi.RemoteVariantID,
			InventoryItemID: qi.RemoteInventoryItemID,
		}

		if err := p.items.SetRemoteRefs(ctx, item.ID, refs); err != nil {
			return e.W(err, ECode050309)
		}

		item.RemoteProductID = refs.ProductID
		item.RemoteVariantID = refs.VariantID
		item.RemoteInventoryItemID = refs.InventoryItemID

		p.log.Info("adopted remote product %s for inventory item %d",
			refs.ProductID, item.ID)
	}

	created := false
	if !item.IsLinked() {
		refs, err := p.catalog.CreateProduct(ctx, item)
		if err != nil {
			return e.W(err, ECode05030A)
		}

		// Record the new remote ids on the queue row before anything
		// else. If a later write fails, the retry adopts these ids
		// instead of creating the product again
		if err := p.queue.SetRemoteRefs(ctx, qi.ID, refs); err != nil {
			return e.W(err, ECode05030B)
		}

		qi.RemoteProductID = refs.ProductID
		qi.RemoteVariantID = refs.VariantID
		qi.RemoteInventoryItemID = refs.InventoryItemID

		item.RemoteProductID = refs.ProductID
		item.RemoteVariantID = refs.VariantID
		item.RemoteInventoryItemID = refs.InventoryItemID

		created = true
	} else {
		if err := p.catalog.UpdateProduct(ctx, item); err != nil {
			return e.W(err, ECode05030C)
		}
	}

	// A newly created product already holds zero on hand, only a
	// positive count needs the extra call. Updates push the count as
	// is, a sellout must zero the remote stock
	if item.RemoteInventoryItemID != "" && (!created || item.Quantity > 0) {
		if err := p.catalog.SetQuantity(ctx, item.StoreKey, item.LocationID,
			item.RemoteInventoryItemID, item.Quantity); err != nil {
			return e.W(err, ECode05030D)
		}
	}

	if err := p.items.SetRemoteRefs(ctx, item.ID, &shopify.RemoteRefs{
		ProductID:       item.RemoteProductID,
		VariantID:       item.RemoteVariantID,
		InventoryItemID: item.RemoteInventoryItemID,
	}); err != nil {
		return e.W(err, ECode05030E)
	}

	if err := p.queue.SetCompleted(ctx, qi.ID); err != nil {
		return e.W(err, ECode05030F)
	}

	if p.searcher != nil {
		if err := p.searcher.Push(item); err != nil {
			p.log.Warn("search push of inventory item %d failed: %s",
				item.ID, err.Error())
		}
	}

	return nil
}

// processDelete removes the remote product and clears the local
// linkage. An item that was never pushed completes without any remote
// call
func (p *Processor) processDelete(ctx context.Context, qi *model.QueueItem,
	item *invmodel.InventoryItem) (err error) {
	if item.RemoteProductID != "" {
		if err := p.catalog.DeleteProduct(ctx, item.StoreKey,
			item.RemoteProductID); err != nil {
			return e.W(err, ECode05030G)
		}
	}

	if err := p.items.ClearRemoteRefs(ctx, item.ID); err != nil {
		return e.W(err, ECode05030H)
	}

	if err := p.queue.SetCompleted(ctx, qi.ID); err != nil {
		return e.W(err, ECode05030I)
	}

	if p.searcher != nil {
		if err := p.searcher.Remove(item.ID); err != nil {
			p.log.Warn("search removal of inventory item %d failed: %s",
				item.ID, err.Error())
		}
	}

	if item.RemoteProductID != "" {
		p.writeAudit(ctx, auditmodel.LevelInfo, auditmodel.EventRemoteDeleted,
			"Removed product from remote catalog", map[string]interface{}{
				"queueItemId":     qi.ID,
				"inventoryItemId": item.ID,
				"remoteProductId": item.RemoteProductID,
			})
	}

	return nil
}

// failPermanent settles a queue item that retrying cannot fix, marking
// both the row and the inventory item failed and auditing the event
func (p *Processor) failPermanent(ctx context.Context, qi *model.QueueItem,
	item *invmodel.InventoryItem, msg string) {
	attemptMsg := fmt.Sprintf("Attempt %d: %s", qi.Retries+1, msg)

	if err := p.queue.SetError(ctx, qi.ID, attemptMsg, false); err != nil {
		p.log.Error("set error on queue item %d failed: %s", qi.ID, err.Error())
	}

	if item != nil {
		if err := p.items.SetSyncStatus(ctx, item.ID, invmodel.SyncStatusFailed,
			attemptMsg); err != nil {
			p.log.Error("set sync status on inventory item %d failed: %s",
				item.ID, err.Error())
		}
	}

	p.writeAudit(ctx, auditmodel.LevelError, auditmodel.EventSyncFailed, msg,
		map[string]interface{}{
			"queueItemId":     qi.ID,
			"inventoryItemId": qi.InventoryItemID,
			"action":          qi.Action,
			"error":           msg,
			"attempts":        qi.Retries + 1,
		})
}

// writeAudit records the event, logging instead of failing the run if
// the sink rejects it
func (p *Processor) writeAudit(ctx context.Context, level, event, msg string,
	recCtx map[string]interface{}) {
	if err := p.auditor.Write(ctx, audit.New(level, event, msg, recCtx)); err != nil {
		p.log.Warn("audit write failed for event %s: %s", event, err.Error())
	}
}

// releaseRemaining returns unprocessed claims to the queue when a run
// stops early. The writes run on a detached context so a canceled run
// can still clean up after itself
func (p *Processor) releaseRemaining(ctx context.Context, qiList []*model.QueueItem) {
	ctx = context.WithoutCancel(ctx)

	for _, qi := range qiList {
		if err := p.queue.Release(ctx, qi.ID, ""); err != nil {
			p.log.Error("release of queue item %d failed: %s", qi.ID, err.Error())
		}
	}
}

// remoteErrMsg extracts the concise message from a push failure for
// storage on the queue row. The full wrap chain stays in the logs
func remoteErrMsg(err error) (msg string) {
	var se *shopify.Error

	if ee := e.AsExtendedError(err); ee != nil {
		if ee.AsError(&se) {
			return se.Msg
		}

		if ee.Message != "" {
			return ee.Message
		}
	}

	if errors.As(err, &se) {
		return se.Msg
	}

	return err.Error()
}

// sleepCtx waits for the duration unless the context ends first
func sleepCtx(ctx context.Context, d time.Duration) (err error) {
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
