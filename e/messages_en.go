package e

// This defines reusable error messages

const (
	MsgUnknownInternalServerError = "Unknown Internal Server Error"

	// migrations
	MsgMigrationCodeVersionDNE         = "Migration code/version does not exist"
	MsgMigrationNotInstalled           = "Migrations library not installed"
	MsgMigrationNone                   = "No migrations exist yet"
	MsgMigrationFileNameInvalid        = "Invalid migration file name"
	MsgMigrationFileNameVersionInvalid = "Invalid migration file name version"
	MsgMigrationInstallFailed          = "Migrator installation failed"

	// inventory
	MsgInventoryItemDoesNotExist = "Inventory item does not exist"
	MsgInventoryItemNotSyncable  = "Inventory item is missing required sync fields"

	// sync
	MsgQueueItemDoesNotExist = "Sync queue item does not exist"
	MsgRateLimited           = "Rate limited, will retry"
	MsgInvalidResolution     = "Invalid resolution strategy"
	MsgMergeDataRequired     = "Merge data is required for a manual merge"
	MsgRemoteLinkageMissing  = "Inventory item is not linked to a remote product"
	MsgRemoteVariantGone     = "Remote variant does not exist"
	MsgRemoteProductGone     = "Remote product does not exist"

	// shopify
	MsgStoreCredentialsDoNotExist = "Store credentials do not exist"
)
