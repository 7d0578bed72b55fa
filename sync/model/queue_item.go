package model

// Queue item statuses. An item is claimed from queued into processing
// by exactly one batch run and ends in completed or failed. Rate
// limited items return to queued without consuming a retry
const (
	QueueStatusQueued     = "queued"
	QueueStatusProcessing = "processing"
	QueueStatusCompleted  = "completed"
	QueueStatusFailed     = "failed"
)

// Queue item actions
const (
	QueueActionCreate = "create"
	QueueActionUpdate = "update"
	QueueActionDelete = "delete"
)

// Conflict resolution strategies
const (
	ResolutionUseLocal    = "use_local"
	ResolutionUseShopify  = "use_shopify"
	ResolutionManualMerge = "manual_merge"
)

// DefaultMaxRetries the number of retries an item is allowed before it
// is marked failed
const DefaultMaxRetries = 3

// QueueItem model
type QueueItem struct {
	ID                    int     `json:"id"`
	InventoryItemID       int     `json:"inventoryItemId"`
	Action                string  `json:"action"`
	Status                string  `json:"status"`
	Retries               int     `json:"retries"`
	MaxRetries            int     `json:"maxRetries"`
	Error                 string  `json:"error"`
	RemoteProductID       string  `json:"remoteProductId"`
	RemoteVariantID       string  `json:"remoteVariantId"`
	RemoteInventoryItemID string  `json:"remoteInventoryItemId"`
	StartedOn             *string `json:"startedOn"`
	CompletedOn           *string `json:"completedOn"`
	CreatedOn             string  `json:"createdOn"`
	UpdatedOn             string  `json:"updatedOn"`
}

// HasRemoteRefs indicates whether a remote product was already created
// for this queue item. Set as soon as the remote create returns, so an
// interrupted run can be finished without creating a duplicate
func (qi *QueueItem) HasRemoteRefs() bool {
	return qi.RemoteProductID != ""
}

// MergeData carries the caller selected field values for a manual
// merge resolution. Only the set fields are applied
type MergeData struct {
	Title       *string  `json:"title,omitempty"`
	Description *string  `json:"description,omitempty"`
	Price       *float64 `json:"price,omitempty"`
	Quantity    *int     `json:"quantity,omitempty"`
}

// IsEmpty indicates whether no fields were provided
func (md *MergeData) IsEmpty() bool {
	return md == nil || (md.Title == nil && md.Description == nil &&
		md.Price == nil && md.Quantity == nil)
}
