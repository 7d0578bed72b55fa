package sync

import (
	"context"

	"github.com/slabworks/catalog-sync/e"
	invmodel "github.com/slabworks/catalog-sync/inventory/model"
	invsqlmodel "github.com/slabworks/catalog-sync/inventory/sqlmodel"
	"github.com/slabworks/catalog-sync/shopify"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync/model"
	"github.com/slabworks/catalog-sync/sync/sqlmodel"
)

const (
	ECode050501 = e.Code0505 + "01"
	ECode050502 = e.Code0505 + "02"
	ECode050503 = e.Code0505 + "03"
	ECode050504 = e.Code0505 + "04"
	ECode050505 = e.Code0505 + "05"
	ECode050506 = e.Code0505 + "06"
	ECode050507 = e.Code0505 + "07"
	ECode050508 = e.Code0505 + "08"
	ECode050509 = e.Code0505 + "09"
	ECode05050A = e.Code0505 + "0A"
	ECode05050B = e.Code0505 + "0B"
	ECode05050C = e.Code0505 + "0C"
	ECode05050D = e.Code0505 + "0D"
	ECode05050E = e.Code0505 + "0E"
	ECode05050F = e.Code0505 + "0F"
	ECode05050G = e.Code0505 + "0G"
	ECode05050H = e.Code0505 + "0H"
	ECode05050I = e.Code0505 + "0I"
	ECode05050J = e.Code0505 + "0J"
	ECode05050K = e.Code0505 + "0K"
	ECode05050L = e.Code0505 + "0L"
	ECode05050M = e.Code0505 + "0M"
	ECode05050N = e.Code0505 + "0N"
	ECode05050O = e.Code0505 + "0O"
)

// QueueStore persistence operations on the sync queue
type QueueStore interface {
	Enqueue(ctx context.Context, inventoryItemID int, action string) (id int, err error)
	Claim(ctx context.Context, limit int) ([]*model.QueueItem, error)
	GetByStatus(ctx context.Context, statusList []string) ([]*model.QueueItem, error)
	SetRemoteRefs(ctx context.Context, id int, refs *shopify.RemoteRefs) error
	SetCompleted(ctx context.Context, id int) error
	SetError(ctx context.Context, id int, msg string, willRetry bool) error
	RequeueRateLimited(ctx context.Context, id int) error
	Release(ctx context.Context, id int, msg string) error
}

// ItemStore persistence operations on inventory items
type ItemStore interface {
	GetByID(ctx context.Context, id int) (*invmodel.InventoryItem, error)
	SetRemoteRefs(ctx context.Context, id int, refs *shopify.RemoteRefs) error
	ClearRemoteRefs(ctx context.Context, id int) error
	SetSyncStatus(ctx context.Context, id int, status, syncErr string) error
	ApplyRemoteState(ctx context.Context, id int, title string, price float64, quantity int) error
	ApplyMerge(ctx context.Context, id int, md *model.MergeData) error
}

// CatalogClient the remote catalog calls the processor performs
type CatalogClient interface {
	CreateProduct(ctx context.Context, item *invmodel.InventoryItem) (*shopify.RemoteRefs, error)
	UpdateProduct(ctx context.Context, item *invmodel.InventoryItem) error
	DeleteProduct(ctx context.Context, storeKey, productID string) error
	SetQuantity(ctx context.Context, storeKey, locationID, remoteInventoryItemID string, quantity int) error
	GetProduct(ctx context.Context, storeKey, productID string) (*shopify.Product, error)
}

// Searcher pushes synced items into the storefront search index
type Searcher interface {
	Push(item *invmodel.InventoryItem) error
	Remove(itemID int) error
}

// sqlQueueStore QueueStore backed by the catalog_sync_queue table
type sqlQueueStore struct {
	db *sql.Connection
}

// NewQueueStore returns the database backed queue store
func NewQueueStore(db *sql.Connection) (qs QueueStore) {
	return &sqlQueueStore{
		db: db,
	}
}

// Enqueue implements QueueStore
func (qs *sqlQueueStore) Enqueue(ctx context.Context, inventoryItemID int,
	action string) (id int, err error) {
	id, err = sqlmodel.QueueItemUpsert(ctx, qs.db, &model.QueueItem{
		InventoryItemID: inventoryItemID,
		Action:          action,
	})
	if err != nil {
		return 0, e.W(err, ECode050501)
	}

	return id, nil
}

// Claim implements QueueStore
func (qs *sqlQueueStore) Claim(ctx context.Context,
	limit int) (qiList []*model.QueueItem, err error) {
	qiList, err = sqlmodel.QueueItemClaim(ctx, qs.db, limit)
	if err != nil {
		return nil, e.W(err, ECode050502)
	}

	return qiList, nil
}

// GetByStatus implements QueueStore
func (qs *sqlQueueStore) GetByStatus(ctx context.Context,
	statusList []string) (qiList []*model.QueueItem, err error) {
	limit := uint64(1000)
	qiList, _, err = sqlmodel.QueueItemGet(ctx, qs.db, &sqlmodel.QueueItemGetParam{
		Limit:          &limit,
		Status:         &statusList,
		OrderByCreated: "asc",
	})
	if err != nil {
		return nil, e.W(err, ECode050503)
	}

	return qiList, nil
}

// SetRemoteRefs implements QueueStore
func (qs *sqlQueueStore) SetRemoteRefs(ctx context.Context, id int,
	refs *shopify.RemoteRefs) (err error) {
	if err := sqlmodel.QueueItemSetRemoteRefs(ctx, qs.db, id,
		refs.ProductID, refs.VariantID, refs.InventoryItemID); err != nil {
		return e.W(err, ECode050504)
	}

	return nil
}

// SetCompleted implements QueueStore
func (qs *sqlQueueStore) SetCompleted(ctx context.Context, id int) (err error) {
	if err := sqlmodel.QueueItemSetCompleted(ctx, qs.db, id); err != nil {
		return e.W(err, ECode050505)
	}

	return nil
}

// SetError implements QueueStore
func (qs *sqlQueueStore) SetError(ctx context.Context, id int, msg string,
	willRetry bool) (err error) {
	if err := sqlmodel.QueueItemSetError(ctx, qs.db, id, msg, willRetry); err != nil {
		return e.W(err, ECode050506)
	}

	return nil
}

// RequeueRateLimited implements QueueStore
func (qs *sqlQueueStore) RequeueRateLimited(ctx context.Context, id int) (err error) {
	if err := sqlmodel.QueueItemRequeueRateLimited(ctx, qs.db, id); err != nil {
		return e.W(err, ECode050507)
	}

	return nil
}

// Release implements QueueStore
func (qs *sqlQueueStore) Release(ctx context.Context, id int, msg string) (err error) {
	if err := sqlmodel.QueueItemRelease(ctx, qs.db, id, msg); err != nil {
		return e.W(err, ECode050508)
	}

	return nil
}

// sqlItemStore ItemStore backed by the inventory_item table
type sqlItemStore struct {
	db *sql.Connection
}

// NewItemStore returns the database backed item store
func NewItemStore(db *sql.Connection) (is ItemStore) {
	return &sqlItemStore{
		db: db,
	}
}

// GetByID implements ItemStore
func (is *sqlItemStore) GetByID(ctx context.Context,
	id int) (item *invmodel.InventoryItem, err error) {
	item, err = invsqlmodel.InventoryItemGetByID(ctx, is.db, id)
	if err != nil {
		return nil, e.W(err, ECode050509)
	}

	return item, nil
}

// SetRemoteRefs implements ItemStore
func (is *sqlItemStore) SetRemoteRefs(ctx context.Context, id int,
	refs *shopify.RemoteRefs) (err error) {
	if err := invsqlmodel.InventoryItemSetRemoteRefs(ctx, is.db, id,
		refs.ProductID, refs.VariantID, refs.InventoryItemID); err != nil {
		return e.W(err, ECode05050A)
	}

	return nil
}

// ClearRemoteRefs implements ItemStore
func (is *sqlItemStore) ClearRemoteRefs(ctx context.Context, id int) (err error) {
	if err := invsqlmodel.InventoryItemClearRemoteRefs(ctx, is.db, id); err != nil {
		return e.W(err, ECode05050B)
	}

	return nil
}

// SetSyncStatus implements ItemStore
func (is *sqlItemStore) SetSyncStatus(ctx context.Context, id int,
	status, syncErr string) (err error) {
	if err := invsqlmodel.InventoryItemSetSyncStatus(ctx, is.db, id,
		status, syncErr); err != nil {
		return e.W(err, ECode05050C)
	}

	return nil
}

// ApplyRemoteState implements ItemStore
func (is *sqlItemStore) ApplyRemoteState(ctx context.Context, id int,
	title string, price float64, quantity int) (err error) {
	if err := invsqlmodel.InventoryItemApplyRemoteState(ctx, is.db, id,
		title, price, quantity); err != nil {
		return e.W(err, ECode05050D)
	}

	return nil
}

// ApplyMerge implements ItemStore
func (is *sqlItemStore) ApplyMerge(ctx context.Context, id int,
	md *model.MergeData) (err error) {
	if err := invsqlmodel.InventoryItemApplyMerge(ctx, is.db, id,
		&invsqlmodel.InventoryItemUpdateParam{
			Title:       md.Title,
			Description: md.Description,
			Price:       md.Price,
			Quantity:    md.Quantity,
		}); err != nil {
		return e.W(err, ECode05050E)
	}

	return nil
}

// remoteCatalog CatalogClient resolving a per store client for each
// call through the registry
type remoteCatalog struct {
	registry *shopify.Registry
}

// NewCatalogClient returns a catalog client backed by the registry
func NewCatalogClient(registry *shopify.Registry) (cc CatalogClient) {
	return &remoteCatalog{
		registry: registry,
	}
}

// productInput maps the item's listing fields to the push payload
func productInput(item *invmodel.InventoryItem) (pi *shopify.ProductInput) {
	return &shopify.ProductInput{
		ID:              item.RemoteProductID,
		VariantID:       item.RemoteVariantID,
		Title:           item.RemoteTitle(),
		DescriptionHTML: item.Description,
		SKU:             item.SKU,
		Price:           item.Price,
		Tags:            item.RemoteTags(),
	}
}

// CreateProduct implements CatalogClient
func (rc *remoteCatalog) CreateProduct(ctx context.Context,
	item *invmodel.InventoryItem) (refs *shopify.RemoteRefs, err error) {
	client, err := rc.registry.Client(ctx, item.StoreKey)
	if err != nil {
		return nil, e.W(err, ECode05050F)
	}

	refs, err = client.CreateProduct(ctx, productInput(item))
	if err != nil {
		return nil, e.W(err, ECode05050G)
	}

	return refs, nil
}

// UpdateProduct implements CatalogClient
func (rc *remoteCatalog) UpdateProduct(ctx context.Context,
	item *invmodel.InventoryItem) (err error) {
	client, err := rc.registry.Client(ctx, item.StoreKey)
	if err != nil {
		return e.W(err, ECode05050H)
	}

	if err := client.UpdateProduct(ctx, productInput(item)); err != nil {
		return e.W(err, ECode05050I)
	}

	return nil
}

// DeleteProduct implements CatalogClient
func (rc *remoteCatalog) DeleteProduct(ctx context.Context,
	storeKey, productID string) (err error) {
	client, err := rc.registry.Client(ctx, storeKey)
	if err != nil {
		return e.W(err, ECode05050J)
	}

	if err := client.DeleteProduct(ctx, productID); err != nil {
		return e.W(err, ECode05050K)
	}

	return nil
}

// SetQuantity implements CatalogClient
func (rc *remoteCatalog) SetQuantity(ctx context.Context, storeKey, locationID,
	remoteInventoryItemID string, quantity int) (err error) {
	client, err := rc.registry.Client(ctx, storeKey)
	if err != nil {
		return e.W(err, ECode05050L)
	}

	if err := client.SetOnHandQuantity(ctx, remoteInventoryItemID,
		locationID, quantity); err != nil {
		return e.W(err, ECode05050M)
	}

	return nil
}

// GetProduct implements CatalogClient
func (rc *remoteCatalog) GetProduct(ctx context.Context,
	storeKey, productID string) (p *shopify.Product, err error) {
	client, err := rc.registry.Client(ctx, storeKey)
	if err != nil {
		return nil, e.W(err, ECode05050N)
	}

	p, err = client.GetProduct(ctx, productID)
	if err != nil {
		return nil, e.W(err, ECode05050O)
	}

	return p, nil
}
