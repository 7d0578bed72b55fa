package model

import (
	"fmt"
	"strings"
)

// Sync statuses for an inventory item. An item begins as unsynced, moves
// to pending once queued for a remote push and ends in completed or
// failed depending on the outcome of that push.
const (
	SyncStatusUnsynced  = "unsynced"
	SyncStatusPending   = "pending"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// InventoryItem is a sellable unit in the local point of sale catalog,
// optionally linked to a product/variant in the remote storefront
type InventoryItem struct {
	ID                    int     `json:"id"`
	StoreKey              string  `json:"storeKey"`
	LocationID            string  `json:"locationId"`
	SKU                   string  `json:"sku"`
	Title                 string  `json:"title"`
	Description           string  `json:"description"`
	Price                 float64 `json:"price"`
	Quantity              int     `json:"quantity"`
	Brand                 string  `json:"brand"`
	Subject               string  `json:"subject"`
	CardNumber            string  `json:"cardNumber"`
	GradingCompany        string  `json:"gradingCompany"`
	Grade                 string  `json:"grade"`
	RemoteProductID       string  `json:"remoteProductId"`
	RemoteVariantID       string  `json:"remoteVariantId"`
	RemoteInventoryItemID string  `json:"remoteInventoryItemId"`
	SyncStatus            string  `json:"syncStatus"`
	LastSyncError         string  `json:"lastSyncError"`
	LastSyncedOn          *string `json:"lastSyncedOn"`
	CreatedOn             string  `json:"createdOn"`
	UpdatedOn             string  `json:"updatedOn"`
}

// MissingSyncFields returns the names of the required fields that are
// empty. An item can only be pushed to the remote catalog when all of
// them are set
func (i *InventoryItem) MissingSyncFields() (missing []string) {
	if i.StoreKey == "" {
		missing = append(missing, "storeKey")
	}

	if i.LocationID == "" {
		missing = append(missing, "locationId")
	}

	if i.SKU == "" {
		missing = append(missing, "sku")
	}

	return missing
}

// IsLinked indicates whether the item is already associated with a
// remote product/variant
func (i *InventoryItem) IsLinked() bool {
	return i.RemoteProductID != "" && i.RemoteVariantID != ""
}

// IsGraded indicates whether the item is a professionally graded card
func (i *InventoryItem) IsGraded() bool {
	return i.GradingCompany != "" && i.Grade != ""
}

// RemoteTitle builds the product title used in the remote catalog. An
// explicitly set title always wins. Otherwise the title is assembled
// from the card attributes, with graded cards carrying the grading
// company and grade. If no attributes are set, falls back to the SKU
func (i *InventoryItem) RemoteTitle() string {
	if i.Title != "" {
		return i.Title
	}

	parts := make([]string, 0, 5)
	if i.Brand != "" {
		parts = append(parts, i.Brand)
	}

	if i.Subject != "" {
		parts = append(parts, i.Subject)
	}

	if i.CardNumber != "" {
		parts = append(parts, fmt.Sprintf("#%s", i.CardNumber))
	}

	if i.IsGraded() {
		parts = append(parts, i.GradingCompany, i.Grade)
	}

	if len(parts) == 0 {
		return i.SKU
	}

	return strings.Join(parts, " ")
}

// RemoteTags builds the list of tags attached to the remote product,
// skipping attributes that are not set
func (i *InventoryItem) RemoteTags() (tags []string) {
	if i.Brand != "" {
		tags = append(tags, i.Brand)
	}

	if i.GradingCompany != "" {
		tags = append(tags, i.GradingCompany)
	}

	if i.IsGraded() {
		tags = append(tags, "graded")
	}

	return tags
}
