package model

// Record levels
const (
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Audited events
const (
	EventSyncFailed    = "sync.failed"
	EventSyncResolved  = "sync.resolved"
	EventSyncRecovered = "sync.recovered"
	EventRemoteDeleted = "sync.remote_deleted"
)

// Record a single audit trail entry. Context carries the event
// specific details, such as the queue item and inventory item ids
type Record struct {
	UID       string                 `json:"uid"`
	Level     string                 `json:"level"`
	Event     string                 `json:"event"`
	Message   string                 `json:"message"`
	Context   map[string]interface{} `json:"context,omitempty"`
	CreatedOn string                 `json:"createdOn,omitempty"`
}
