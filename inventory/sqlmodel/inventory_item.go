package sqlmodel

import (
	"context"
	"fmt"
	"strings"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/inventory/model"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	InventoryItemTableName     = "inventory_item"
	InventoryItemDefaultSortBy = "inventory_item_id"

	ECode040201 = e.Code0402 + "01"
	ECode040202 = e.Code0402 + "02"
	ECode040203 = e.Code0402 + "03"
	ECode040204 = e.Code0402 + "04"
	ECode040205 = e.Code0402 + "05"
	ECode040206 = e.Code0402 + "06"
	ECode040207 = e.Code0402 + "07"
	ECode040208 = e.Code0402 + "08"
	ECode040209 = e.Code0402 + "09"
	ECode04020A = e.Code0402 + "0A"
	ECode04020B = e.Code0402 + "0B"
	ECode04020C = e.Code0402 + "0C"
	ECode04020D = e.Code0402 + "0D"
	ECode04020E = e.Code0402 + "0E"
	ECode04020F = e.Code0402 + "0F"

	ECode04020G_getByID_notFound = e.Code0402 + "0G"
	ECode04020H                  = e.Code0402 + "0H"
)

// InventoryItemGetParam get params
type InventoryItemGetParam struct {
	Limit          *uint64
	Offset         uint64
	ID             *int
	IDs            *[]int
	SKU            *string
	StoreKey       *string
	SyncStatus     *[]string
	FlagCount      bool
	OrderByID      string
	OrderByCreated string
	DataHandler    func(*model.InventoryItem) error
}

// InventoryItemUpdateParam update params
type InventoryItemUpdateParam struct {
	Title          *string
	Description    *string
	Price          *float64
	Quantity       *int
	Brand          *string
	Subject        *string
	CardNumber     *string
	GradingCompany *string
	Grade          *string
	LocationID     *string
	SyncStatus     *string
}

// InventoryItemInsert adds a new inventory item, returning the new id
func InventoryItemInsert(ctx context.Context, db *sql.Connection,
	input *model.InventoryItem) (id int, err error) {
	ib := db.Insert(InventoryItemTableName).
		Columns(`inventory_item_store_key,inventory_item_location_id,
		inventory_item_sku,inventory_item_title,inventory_item_description,
		inventory_item_price,inventory_item_quantity,inventory_item_brand,
		inventory_item_subject,inventory_item_card_number,
		inventory_item_grading_company,inventory_item_grade,
		inventory_item_sync_status,created_on,updated_on`).
		Values(input.StoreKey, input.LocationID,
			input.SKU, input.Title, input.Description,
			input.Price, input.Quantity, input.Brand,
			input.Subject, input.CardNumber,
			input.GradingCompany, input.Grade,
			model.SyncStatusUnsynced, "now()", "now()",
		).Suffix("RETURNING inventory_item_id")

	id, err = db.ExecInsertReturningID(ctx, ib)
	if err != nil {
		return 0, e.W(err, ECode040201,
			fmt.Sprintf("params: %s, %s, %s", input.StoreKey, input.LocationID, input.SKU))
	}

	return id, nil
}

// InventoryItemUpdate performs update on the locally owned fields
func InventoryItemUpdate(ctx context.Context, db *sql.Connection, id int,
	up *InventoryItemUpdateParam) (err error) {
	if up == nil {
		return nil // Nothing to update
	}

	ub := db.Update(InventoryItemTableName).
		Set("updated_on", "now()").
		Where("inventory_item_id=?", id)

	if up.Title != nil {
		ub = ub.Set("inventory_item_title", *up.Title)
	}

	if up.Description != nil {
		ub = ub.Set("inventory_item_description", *up.Description)
	}

	if up.Price != nil {
		ub = ub.Set("inventory_item_price", *up.Price)
	}

	if up.Quantity != nil {
		ub = ub.Set("inventory_item_quantity", *up.Quantity)
	}

	if up.Brand != nil {
		ub = ub.Set("inventory_item_brand", *up.Brand)
	}

	if up.Subject != nil {
		ub = ub.Set("inventory_item_subject", *up.Subject)
	}

	if up.CardNumber != nil {
		ub = ub.Set("inventory_item_card_number", *up.CardNumber)
	}

	if up.GradingCompany != nil {
		ub = ub.Set("inventory_item_grading_company", *up.GradingCompany)
	}

	if up.Grade != nil {
		ub = ub.Set("inventory_item_grade", *up.Grade)
	}

	if up.LocationID != nil {
		ub = ub.Set("inventory_item_location_id", *up.LocationID)
	}

	if up.SyncStatus != nil {
		ub = ub.Set("inventory_item_sync_status", *up.SyncStatus)
	}

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode040202, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// InventoryItemGet performs select
func InventoryItemGet(ctx context.Context, db *sql.Connection,
	p *InventoryItemGetParam) (iList []*model.InventoryItem, count int, err error) {
	fields := `inventory_item_id,inventory_item_store_key,inventory_item_location_id,
	inventory_item_sku,inventory_item_title,inventory_item_description,
	inventory_item_price,inventory_item_quantity,inventory_item_brand,
	inventory_item_subject,inventory_item_card_number,
	inventory_item_grading_company,inventory_item_grade,
	inventory_item_remote_product_id,inventory_item_remote_variant_id,
	inventory_item_remote_inventory_item_id,inventory_item_sync_status,
	inventory_item_last_sync_error,inventory_item_last_synced_on::TEXT,
	created_on::TEXT,updated_on::TEXT`

	limit := uint64(10)
	if p.Limit != nil && *p.Limit > 0 {
		limit = *p.Limit
	}

	sb := db.Select("{fields}").
		From(InventoryItemTableName).
		Limit(limit)

	if p.ID != nil && *p.ID >= 0 {
		sb = sb.Where("inventory_item_id=?", *p.ID)
	}

	if p.IDs != nil && len(*p.IDs) > 0 {
		sb = sb.Where("inventory_item_id = ANY(?)", *p.IDs)
	}

	if p.SKU != nil {
		sb = sb.Where("inventory_item_sku=?", *p.SKU)
	}

	if p.StoreKey != nil {
		sb = sb.Where("inventory_item_store_key=?", *p.StoreKey)
	}

	if p.SyncStatus != nil && len(*p.SyncStatus) > 0 {
		sb = sb.Where("inventory_item_sync_status = ANY(?)", *p.SyncStatus)
	}

	if p.FlagCount {
		stmt, bindList, err := sb.ToSql()
		if err != nil {
			return nil, 0, e.W(err, ECode040203)
		}

		row := db.QueryRow(ctx, strings.Replace(stmt, "{fields}", "count(*)", 1), bindList...)
		if err := row.Scan(&count); err != nil {
			return nil, 0, e.W(err, ECode040204,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}
	}

	sb = sb.Offset(p.Offset)

	if p.OrderByID != "" {
		sb = sb.OrderBy(fmt.Sprintf("inventory_item_id %s", p.OrderByID))
	}

	if p.OrderByCreated != "" {
		sb = sb.OrderBy(fmt.Sprintf("created_on %s", p.OrderByCreated))
	}

	stmt, bindList, err := sb.ToSql()
	if err != nil {
		return nil, 0, e.W(err, ECode040205)
	}

	stmt = strings.Replace(stmt, "{fields}", fields, 1)
	rows, err := db.Query(ctx, stmt, bindList...)
	if err != nil {
		return nil, 0, e.W(err, ECode040206,
			fmt.Sprintf("bindList: %v", bindList))
	}
	defer rows.Close()

	for rows.Next() {
		i := &model.InventoryItem{}
		if err := rows.Scan(&i.ID, &i.StoreKey, &i.LocationID,
			&i.SKU, &i.Title, &i.Description,
			&i.Price, &i.Quantity, &i.Brand,
			&i.Subject, &i.CardNumber,
			&i.GradingCompany, &i.Grade,
			&i.RemoteProductID, &i.RemoteVariantID,
			&i.RemoteInventoryItemID, &i.SyncStatus,
			&i.LastSyncError, &i.LastSyncedOn,
			&i.CreatedOn, &i.UpdatedOn); err != nil {
			return nil, 0, e.W(err, ECode040207,
				fmt.Sprintf("stmt: %s | bindList: %v", stmt, bindList))
		}

		if p.DataHandler != nil {
			if err := p.DataHandler(i); err != nil {
				return nil, 0, e.W(err, ECode04020H)
			}
		} else {
			iList = append(iList, i)
		}
	}

	if err := rows.Err(); err != nil {
		return nil, 0, e.W(err, ECode040208)
	}

	return iList, count, nil
}

// InventoryItemGetByID returns the inventory item with the specified id
func InventoryItemGetByID(ctx context.Context, db *sql.Connection,
	id int) (i *model.InventoryItem, err error) {
	iList, _, err := InventoryItemGet(ctx, db, &InventoryItemGetParam{
		ID: &id,
	})
	if err != nil {
		return nil, e.W(err, ECode040209)
	}

	if len(iList) != 1 {
		return nil, e.N(ECode04020G_getByID_notFound, e.MsgInventoryItemDoesNotExist)
	}

	return iList[0], nil
}

// InventoryItemSetRemoteRefs stores the remote catalog ids on the item
// and marks it as successfully synced
func InventoryItemSetRemoteRefs(ctx context.Context, db *sql.Connection, id int,
	productID, variantID, remoteInventoryItemID string) (err error) {
	ub := db.Update(InventoryItemTableName).
		Set("inventory_item_remote_product_id", productID).
		Set("inventory_item_remote_variant_id", variantID).
		Set("inventory_item_remote_inventory_item_id", remoteInventoryItemID).
		Set("inventory_item_sync_status", model.SyncStatusCompleted).
		Set("inventory_item_last_sync_error", "").
		Set("inventory_item_last_synced_on", "now()").
		Set("updated_on", "now()").
		Where("inventory_item_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode04020A,
			fmt.Sprintf("id: %d, productID: %s", id, productID))
	}

	return nil
}

// InventoryItemClearRemoteRefs removes the remote catalog linkage,
// returning the item to the unsynced state
func InventoryItemClearRemoteRefs(ctx context.Context, db *sql.Connection,
	id int) (err error) {
	ub := db.Update(InventoryItemTableName).
		Set("inventory_item_remote_product_id", "").
		Set("inventory_item_remote_variant_id", "").
		Set("inventory_item_remote_inventory_item_id", "").
		Set("inventory_item_sync_status", model.SyncStatusUnsynced).
		Set("inventory_item_last_sync_error", "").
		Set("updated_on", "now()").
		Where("inventory_item_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode04020B, fmt.Sprintf("id: %d", id))
	}

	return nil
}

// InventoryItemSetSyncStatus sets the sync status and last sync error.
// A completed status also clears the error and stamps the last synced
// time
func InventoryItemSetSyncStatus(ctx context.Context, db *sql.Connection, id int,
	status, syncErr string) (err error) {
	ub := db.Update(InventoryItemTableName).
		Set("inventory_item_sync_status", status).
		Set("updated_on", "now()").
		Where("inventory_item_id=?", id)

	if status == model.SyncStatusCompleted {
		ub = ub.Set("inventory_item_last_sync_error", "").
			Set("inventory_item_last_synced_on", "now()")
	} else {
		ub = ub.Set("inventory_item_last_sync_error", syncErr)
	}

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode04020C,
			fmt.Sprintf("id: %d, status: %s", id, status))
	}

	return nil
}

// InventoryItemApplyRemoteState overwrites the locally owned listing
// fields with the values currently in the remote catalog and marks the
// item as synced
func InventoryItemApplyRemoteState(ctx context.Context, db *sql.Connection, id int,
	title string, price float64, quantity int) (err error) {
	ub := db.Update(InventoryItemTableName).
		Set("inventory_item_title", title).
		Set("inventory_item_price", price).
		Set("inventory_item_quantity", quantity).
		Set("inventory_item_sync_status", model.SyncStatusCompleted).
		Set("inventory_item_last_sync_error", "").
		Set("inventory_item_last_synced_on", "now()").
		Set("updated_on", "now()").
		Where("inventory_item_id=?", id)

	err = db.ExecUpdate(ctx, ub)
	if err != nil {
		return e.W(err, ECode04020D,
			fmt.Sprintf("id: %d, title: %s", id, title))
	}

	return nil
}

// InventoryItemApplyMerge applies the caller selected field values and
// flags the item as pending so the next batch pushes the merged state
func InventoryItemApplyMerge(ctx context.Context, db *sql.Connection, id int,
	up *InventoryItemUpdateParam) (err error) {
	if up == nil {
		return e.N(ECode04020E, e.MsgMergeDataRequired)
	}

	status := model.SyncStatusPending
	up.SyncStatus = &status

	if err := InventoryItemUpdate(ctx, db, id, up); err != nil {
		return e.W(err, ECode04020F, fmt.Sprintf("id: %d", id))
	}

	return nil
}
