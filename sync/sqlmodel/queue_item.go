package sqlmodel

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/sql"
	"github.com/slabworks/catalog-sync/sync/model"
)

const (
	QueueItemTableName     = "catalog_sync_queue"
	QueueItemDefaultSortBy = "catalog_sync_queue_id"

	ECode050201 = e.Code0502 + "01"
	ECode050202 = e.Code0502 + "02"
	ECode050203 = e.Code0502 + "03"
	ECode050204 = e.Code0502 + "04"
	ECode050205 = e.Code0502 + "05"
	ECode050206 = e.Code0502 + "06"
	ECode050207 = e.Code0502 + "07"
	ECode050208 = e.Code0502 + "08"
	ECode050209 = e.Code0502 + "09"
	ECode05020B = e.Code0502 + "0B"
	ECode05020C = e.Code0502 + "0C"
	ECode05020D = e.Code0502 + "0D"
	ECode05020E = e.Code0502 + "0E"
	ECode05020F = e.Code0502 + "0F"
	ECode05020G = e.Code0502 + "0G"
	ECode05020H = e.Code0502 + "0H"
	ECode05020I = e.Code0502 + "0I"
	ECode05020J = e.Code0502 + "0J"

	ECode05020A_getByID_notFound = e.Code0502 + "0A"
)

const queueItemFields = `catalog_sync_queue_id,inventory_item_id,
	catalog_sync_queue_action,catalog_sync_queue_status,
	catalog_sync_queue_retries,catalog_sync_queue_max_retries,
	catalog_sync_queue_error,catalog_sync_queue_remote_product_id,
	catalog_sync_queue_remote_variant_id,
	catalog_sync_queue_remote_inventory_item_id,
	started_on::TEXT,completed_on::TEXT,created_on::TEXT,updated_on::TEXT`

// Claims the oldest queued items for processing, skipping rows already
// locked by another session. Items whose inventory item already has a
// sibling in processing are left queued so a single item is never
// pushed concurrently
const stmtQueueItemClaim = `
UPDATE ` + QueueItemTableName + ` SET
	catalog_sync_queue_status = 'processing',
	started_on = now(),
	updated_on = now()
WHERE catalog_sync_queue_id IN (
	SELECT q.catalog_sync_queue_id
	FROM ` + QueueItemTableName + ` q
	WHERE q.catalog_sync_queue_status = 'queued'
	AND NOT EXISTS (
		SELECT 1 FROM ` + QueueItemTableName + ` p
		WHERE p.inventory_item_id = q.inventory_item_id
		AND p.catalog_sync_queue_status = 'processing'
	)
	ORDER BY q.created_on ASC, q.catalog_sync_queue_id ASC
	LIMIT $1
	FOR UPDATE SKIP LOCKED
)
RETURNING ` + queueItemFields

// Enqueues a create for every unsynced inventory item that does not
// already have an open queue item
const stmtQueueItemEnqueueUnsynced = `
INSERT INTO ` + QueueItemTableName + ` (inventory_item_id,
	catalog_sync_queue_action, catalog_sync_queue_status,
	catalog_sync_queue_retries, catalog_sync_queue_max_retries,
	created_on, updated_on)
SELECT i.inventory_item_id, 'create', 'queued', 0, $1, now(), now()
FROM inventory_item i
WHERE i.inventory_item_sync_status = 'unsynced'
AND NOT EXISTS (
	SELECT 1 FROM ` + QueueItemTableName + ` q
	WHERE q.inventory_item_id = i.inventory_item_id
	AND q.catalog_sync_queue_status IN ('queued', 'processing')
)`

// QueueItemGetParam get params
type QueueItemGetParam struct {
	Limit           *uint64
	Offset          uint64
	ID              *int
	InventoryItemID *int
	Action          *string
	Status          *[]string
	FlagCount       bool
	FlagForUpdate   bool
	OrderByID       string
	OrderByCreated  string
	DataHandler     func(*model.QueueItem) error
}

// QueueItemUpsert adds a new queued item for the inventory item. If a
// queued item already exists for it, the existing row is refreshed
// instead so at most one queued entry exists per inventory item. A
// delete always supersedes the queued action and a queued create is
// never downgraded
func QueueItemUpsert(ctx context.Context, db *sql.Connection,
	input *model.QueueItem) (id int, err error) {
	maxRetries := input.MaxRetries
	if maxRetries <= 0 {
		maxRetries = model.DefaultMaxRetries
	}

	ib := db.Insert(QueueItemTableName).
		Columns(`inventory_item_id,catalog_sync_queue_action,
		catalog_sync_queue_status,catalog_sync_queue_retries,
		catalog_sync_queue_max_retries,created_on,updated_on`).
		Values(input.InventoryItemID, input.Action,
			model.QueueStatusQueued, 0,
			maxRetries, "now()", "now()",
		).Suffix(`ON CONFLICT (inventory_item_id)
		WHERE catalog_sync_queue_status = 'queued'
		DO UPDATE SET catalog_sync_queue_action = CASE
			WHEN excluded.catalog_sync_queue_action = 'delete' THEN 'delete'
			WHEN catalog_sync_queue.catalog_sync_queue_action = 'create' THEN 'create'
			ELSE excluded.catalog_sync_queue_action END,
		updated_on = now()
		RETURNING catalog_sync_queue_id`)

	id, err = db.ExecInsertReturningID(ctx, ib)
	if err != nil {
		return 0, e.W(err, ECode050201,
			fmt.Sprintf("params: %d, %s", input.InventoryItemID, input.Action))
	}

	return id, nil
}

// QueueItemGet performs select
func QueueItemGet(ctx context.Context, db *sql.Connection,
	p *QueueItemGetParam) (qiList []*model.QueueItem, count int, err error) {
	limit := uint64(10)
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}

	sb := db.Select("{fields}").
		From(QueueItemTableName).
		Limit(limit)

	if p.ID != nil && *p.ID >= 0 {
		sb = sb.Where("catalog_sync_queue_id=?", *p.ID)
	}

	if p.InventoryItemID != nil && *p.InventoryItemID >= 0 {
		sb = sb.Where("inventory_item_id=?", *p.InventoryItemID)
	}

	if p.Action != nil {
		sb = sb.Where("catalog_sync_queue_action=?", *p.Action)
	}

	if p.Status != nil && len(*p.Status) > 0 {
		sb = sb.Where("catalog_sync_queue_status = ANY(?)", *p.Status)
	}

	if p.FlagCount {
		stmt, bindList, err := sb.ToSql()
		if err != nil {
			return nil, 0, e.W(err, ECode050202)
		}

		row := db.QueryRow(ctx, strings.Replace(stmt, "{fields}", "count(*)", 1), bindList...)
		if err := row.Scan(&count); err != nil {
			return nil, 0, e.W(err, ECode050203,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}
	}

	sb = sb.Offset(p.Offset)

	if p.OrderByID != "" {
		sb = sb.OrderBy(fmt.Sprintf("catalog_sync_queue_id %s", p.OrderByID))
	}

	if p.OrderByCreated != "" {
		sb = sb.OrderBy(fmt.Sprintf("created_on %s", p.OrderByCreated))
	}

	if p.FlagForUpdate {
		sb = sb.Suffix("FOR UPDATE")
	}

	stmt, bindList, err := sb.ToSql()
	if err != nil {
		return nil, 0, e.W(err, ECode050204)
	}

	stmt = strings.Replace(stmt, "{fields}", queueItemFields, 1)
	rows, err := db.Query(ctx, stmt, bindList...)
	if err != nil {
		return nil, 0, e.W(err, ECode050205,
			fmt.Sprintf("bindList: %v", bindList))
	}
	defer rows.Close()

	for rows.Next() {
		qi := &model.QueueItem{}
		if err := rows.Scan(&qi.ID, &qi.InventoryItemID,
			&qi.Action, &qi.Status,
			&qi.Retries, &qi.MaxRetries,
			&qi.Error, &qi.RemoteProductID,
			&qi.RemoteVariantID,
			&qi.RemoteInventoryItemID,
			&qi.StartedOn, &qi.CompletedOn,
			&qi.CreatedOn, &qi.UpdatedOn); err != nil {
			return nil, 0, e.W(err, ECode050206,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}

		if p.DataHandler != nil {
			if err := p.DataHandler(qi); err != nil {
				return nil, 0, e.W(err, ECode050208)
			}
		} else {
			qiList = append(qiList, qi)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.W(err, ECode050207)
	}

	return qiList, count, nil
}

// QueueItemGetByID returns the queue item with the specified id
func QueueItemGetByID(ctx context.Context, db *sql.Connection,
	id int) (qi *model.QueueItem, err error) {
	qiList, _, err := QueueItemGet(ctx, db, &QueueItemGetParam{
		ID: &id,
	})
	if err != nil {
		return nil, e.W(err, ECode050209)
	}

	if len(qiList) != 1 {
		return nil, e.N(ECode05020A_getByID_notFound, e.MsgQueueItemDoesNotExist)
	}

	return qiList[0], nil
}

// QueueItemClaim atomically moves up to limit queued items into
// processing and returns them, oldest first
func QueueItemClaim(ctx context.Context, db *sql.Connection,
	limit int) (qiList []*model.QueueItem, err error) {
	rows, err := db.Query(ctx, stmtQueueItemClaim, limit)
	if err != nil {
		return nil, e.W(err, ECode05020B)
	}
	defer rows.Close()

	for rows.Next() {
		qi := &model.QueueItem{}
		if err := rows.Scan(&qi.ID, &qi.InventoryItemID,
			&qi.Action, &qi.Status,
			&qi.Retries, &qi.MaxRetries,
			&qi.Error, &qi.RemoteProductID,
			&qi.RemoteVariantID,
			&qi.RemoteInventoryItemID,
			&qi.StartedOn, &qi.CompletedOn,
			&qi.CreatedOn, &qi.UpdatedOn); err != nil {
			return nil, e.W(err, ECode05020C)
		}

		qiList = append(qiList, qi)
	}

	if err := rows.Err(); err != nil {
		return nil, e.W(err, ECode05020D)
	}

	// The returning clause does not guarantee ordering
	sort.Slice(qiList, func(i, j int) bool {
		return qiList[i].ID < qiList[j].ID
	})

	return qiList, nil
}

// QueueItemSetCompleted marks the item as successfully processed
func QueueItemSetCompleted(ctx context.Context, db *sql.Connection,
	id int) (err error) {
	ub := db.Update(QueueItemTableName).
		Set("catalog_sync_queue_status", model.QueueStatusCompleted).
		Set("catalog_sync_queue_error", "").
		Set("completed_on", "now()").
		Set("updated_on", "now()").
		Where("catalog_sync_queue_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode05020E, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// QueueItemSetError records a failed attempt, incrementing the retry
// count. If willRetry is set the item returns to queued for the next
// batch, otherwise it is marked failed
func QueueItemSetError(ctx context.Context, db *sql.Connection, id int,
	msg string, willRetry bool) (err error) {
	ub := db.Update(QueueItemTableName).
		Set("catalog_sync_queue_retries", db.Expr("catalog_sync_queue_retries + ?", 1)).
		Set("catalog_sync_queue_error", msg).
		Set("updated_on", "now()").
		Where("catalog_sync_queue_id=?", id)

	if willRetry {
		ub = ub.Set("catalog_sync_queue_status", model.QueueStatusQueued).
			Set("started_on", nil)
	} else {
		ub = ub.Set("catalog_sync_queue_status", model.QueueStatusFailed).
			Set("completed_on", "now()")
	}

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode05020F,
			fmt.Sprintf("id: %d, willRetry: %t", id, willRetry))
	}

	return nil
}

// QueueItemRequeueRateLimited returns a rate limited item to the queue
// without consuming a retry
func QueueItemRequeueRateLimited(ctx context.Context, db *sql.Connection,
	id int) (err error) {
	ub := db.Update(QueueItemTableName).
		Set("catalog_sync_queue_status", model.QueueStatusQueued).
		Set("catalog_sync_queue_error", e.MsgRateLimited).
		Set("started_on", nil).
		Set("updated_on", "now()").
		Where("catalog_sync_queue_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode05020G, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// QueueItemRelease returns a processing item to queued without
// consuming a retry, optionally recording why
func QueueItemRelease(ctx context.Context, db *sql.Connection, id int,
	msg string) (err error) {
	ub := db.Update(QueueItemTableName).
		Set("catalog_sync_queue_status", model.QueueStatusQueued).
		Set("started_on", nil).
		Set("updated_on", "now()").
		Where("catalog_sync_queue_id=?", id)

	if msg != "" {
		ub = ub.Set("catalog_sync_queue_error", msg)
	}

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode05020H, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// QueueItemSetRemoteRefs stores the ids returned by the remote create
// on the queue item while it is still processing. If the run dies
// before the inventory item is updated, the next run finishes the
// linkage from here instead of creating a duplicate product
func QueueItemSetRemoteRefs(ctx context.Context, db *sql.Connection, id int,
	productID, variantID, remoteInventoryItemID string) (err error) {
	ub := db.Update(QueueItemTableName).
		Set("catalog_sync_queue_remote_product_id", productID).
		Set("catalog_sync_queue_remote_variant_id", variantID).
		Set("catalog_sync_queue_remote_inventory_item_id", remoteInventoryItemID).
		Set("updated_on", "now()").
		Where("catalog_sync_queue_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode05020I,
			fmt.Sprintf("id: %d, productID: %s", id, productID))
	}

	return nil
}

// QueueItemEnqueueUnsynced adds a queued create for every unsynced
// inventory item that does not already have one, returning the number
// of items enqueued
func QueueItemEnqueueUnsynced(ctx context.Context, db *sql.Connection) (count int, err error) {
	res, err := db.Exec(ctx, stmtQueueItemEnqueueUnsynced, model.DefaultMaxRetries)
	if err != nil {
		return 0, e.W(err, ECode05020J)
	}

	return int(res.RowsAffected()), nil
}
