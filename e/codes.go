package e

// Constants in here define error codes that are unique to a package/function.
// The first two characters define the package, within this repo, and the
// second two characters define the file within that package. Furthermore,
// when creating an error, the e.N func should be called, which will also
// take a two character unique id within the file.
//
// Valid values for the characters are: 0-9 and A-Z. Note, this does not
// guarantee uniqueness across all repos, but it is assumed that other repos
// will not include eachother. If they do, some extra checks should be taken
// to ensure unique error codes.

const (
	// package: migration
	Code0101 = "0101" // package:migration | migration/migrator.go
	Code0102 = "0102" // package:migration | migration/migration_list.go
	Code0103 = "0103" // package:migration/sqlmodel | migration/sqlmodel/migration.go

	// package: sql
	Code0201 = "0201" // package:sql | sql/count.go
	Code0202 = "0202" // package:sql | sql/row.go
	Code0203 = "0203" // package:sql | sql/sql.go
	Code0204 = "0204" // package:sql | sql/txn.go
	Code0205 = "0205" // package:sql | sql/rows.go

	// package: process
	Code0301 = "0301" // package:process | process/process.go
	Code0302 = "0302" // package:process/sqlmodel | process/internal/sqlmodel/process.go
	Code0303 = "0303" // package:process/sqlmodel | process/internal/sqlmodel/process_run.go

	// package: inventory
	Code0402 = "0402" // package:inventory/sqlmodel | inventory/sqlmodel/inventory_item.go

	// package: sync
	Code0502 = "0502" // package:sync/sqlmodel | sync/sqlmodel/queue_item.go
	Code0503 = "0503" // package:sync | sync/processor.go
	Code0504 = "0504" // package:sync | sync/resolver.go
	Code0505 = "0505" // package:sync | sync/store.go
	Code0506 = "0506" // package:sync | sync/runner.go

	// package: shopify
	Code0601 = "0601" // package:shopify | shopify/client.go
	Code0602 = "0602" // package:shopify | shopify/product.go
	Code0603 = "0603" // package:shopify | shopify/inventory.go
	Code0604 = "0604" // package:shopify | shopify/registry.go

	// package: audit
	Code0701 = "0701" // package:audit | audit/audit.go
	Code0702 = "0702" // package:audit/sqlmodel | audit/sqlmodel/audit_log.go
	Code0703 = "0703" // package:audit | audit/kafka_sink.go

	// package: kafka
	Code0801 = "0801" // package:kafka | kafka/connection.go
	Code0802 = "0802" // package:kafka/msk | kafka/msk/sasl.go

	// package: search
	Code0901 = "0901" // package:search | search/search.go
	Code0902 = "0902" // package:search | search/reindex.go

	// package: secrets
	Code0A01 = "0A01" // package:secrets | secrets/secrets.go

	// package: api
	Code0B01 = "0B01" // package:api | api/api.go
	Code0B02 = "0B02" // package:api | api/handlers.go
)
