package sync

import (
	"context"

	"github.com/slabworks/catalog-sync/audit"
	auditmodel "github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/e"
	invmodel "github.com/slabworks/catalog-sync/inventory/model"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync/model"
)

const (
	ECode050401 = e.Code0504 + "01"
	ECode050402 = e.Code0504 + "02"
	ECode050403 = e.Code0504 + "03"
	ECode050404 = e.Code0504 + "04"
	ECode050405 = e.Code0504 + "05"
	ECode050406 = e.Code0504 + "06"
	ECode050407 = e.Code0504 + "07"
	ECode050408 = e.Code0504 + "08"
	ECode050409 = e.Code0504 + "09"
	ECode05040A = e.Code0504 + "0A"
	ECode05040B = e.Code0504 + "0B"
	ECode05040C = e.Code0504 + "0C"
	ECode05040D = e.Code0504 + "0D"
)

// Resolver settles a conflicted inventory item in one of three ways:
// push the local state back out, adopt the remote state locally, or
// apply an operator supplied merge and push that
type Resolver struct {
	queue   QueueStore
	items   ItemStore
	catalog CatalogClient
	auditor audit.Sink
}

// NewResolver returns a resolver using the database backed stores
func NewResolver(db *sql.Connection, catalog CatalogClient) (r *Resolver) {
	return &Resolver{
		queue:   NewQueueStore(db),
		items:   NewItemStore(db),
		catalog: catalog,
		auditor: &audit.NopSink{},
	}
}

// SetAudit attaches the audit sink
func (r *Resolver) SetAudit(s audit.Sink) {
	r.auditor = s
}

// SetStores overrides the queue and item stores
func (r *Resolver) SetStores(qs QueueStore, is ItemStore) {
	r.queue = qs
	r.items = is
}

// ResolveResult reports how a conflict was settled
type ResolveResult struct {
	InventoryItemID int    `json:"inventoryItemId"`
	Resolution      string `json:"resolution"`
	Message         string `json:"message"`
}

// Resolve settles the conflict on the inventory item. use_local queues
// the local state for push, use_shopify fetches the remote product and
// applies its state locally, manual_merge applies the passed fields
// locally and queues the result for push. The merge data is only
// consulted for manual_merge
func (r *Resolver) Resolve(ctx context.Context, itemID int, resolution string,
	md *model.MergeData) (rr *ResolveResult, err error) {
	item, err := r.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, e.W(err, ECode050401)
	}

	rr = &ResolveResult{
		InventoryItemID: item.ID,
		Resolution:      resolution,
	}

	switch resolution {
	case model.ResolutionUseLocal:
		if _, err := r.queue.Enqueue(ctx, item.ID,
			model.QueueActionUpdate); err != nil {
			return nil, e.W(err, ECode050402)
		}

		if err := r.items.SetSyncStatus(ctx, item.ID,
			invmodel.SyncStatusPending, ""); err != nil {
			return nil, e.W(err, ECode050403)
		}

		rr.Message = "Queued local state for push"

	case model.ResolutionUseShopify:
		if !item.IsLinked() {
			return nil, e.N(ECode050404, e.MsgRemoteLinkageMissing)
		}

		p, err := r.catalog.GetProduct(ctx, item.StoreKey, item.RemoteProductID)
		if err != nil {
			return nil, e.W(err, ECode050405)
		}

		v := p.FindVariant(item.RemoteVariantID)
		if v == nil {
			return nil, e.N(ECode050406, e.MsgRemoteVariantGone)
		}

		price, err := v.PriceValue()
		if err != nil {
			return nil, e.W(err, ECode050407, "price: "+v.Price)
		}

		if err := r.items.ApplyRemoteState(ctx, item.ID, p.Title, price,
			v.InventoryQuantity); err != nil {
			return nil, e.W(err, ECode050408)
		}

		rr.Message = "Applied remote state locally"

	case model.ResolutionManualMerge:
		if md == nil || md.IsEmpty() {
			return nil, e.N(ECode050409, e.MsgMergeDataRequired)
		}

		if err := r.items.ApplyMerge(ctx, item.ID, md); err != nil {
			return nil, e.W(err, ECode05040A)
		}

		if _, err := r.queue.Enqueue(ctx, item.ID,
			model.QueueActionUpdate); err != nil {
			return nil, e.W(err, ECode05040B)
		}

		rr.Message = "Merged and queued for push"

	default:
		return nil, e.N(ECode05040C, e.MsgInvalidResolution+": "+resolution)
	}

	if err := r.auditor.Write(ctx, audit.New(auditmodel.LevelInfo,
		auditmodel.EventSyncResolved, rr.Message, map[string]interface{}{
			"inventoryItemId": item.ID,
			"resolution":      resolution,
		})); err != nil {
		return nil, e.W(err, ECode05040D)
	}

	return rr, nil
}
