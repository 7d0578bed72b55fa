package search

import (
	"context"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/inventory/model"
	"github.com/slabworks/catalog-sync/inventory/sqlmodel"
	"github.com/slabworks/catalog-sync/sql"
)

const (
	// DefaultReindexBatchSize records saved per index call
	DefaultReindexBatchSize = 500

	ECode090201 = e.Code0902 + "01"
	ECode090202 = e.Code0902 + "02"
	ECode090203 = e.Code0902 + "03"
)

// Reindex pushes every successfully synced inventory item into the
// index in batches, for rebuilding the index after a configuration
// change or recovering from drift. Returns the number of records
// pushed
func (idx *Index) Reindex(ctx context.Context, db *sql.Connection,
	batchSize int) (count int, err error) {
	if batchSize <= 0 {
		batchSize = DefaultReindexBatchSize
	}

	batch := make([]*Record, 0, batchSize)

	flush := func() (err error) {
		if len(batch) == 0 {
			return nil
		}

		if _, err := idx.index.SaveObjects(batch); err != nil {
			return e.W(err, ECode090201)
		}

		count += len(batch)
		batch = batch[:0]

		return nil
	}

	// Effectively no limit, rows stream through the data handler
	limit := uint64(1000000)
	status := []string{model.SyncStatusCompleted}
	_, _, err = sqlmodel.InventoryItemGet(ctx, db, &sqlmodel.InventoryItemGetParam{
		Limit:      &limit,
		SyncStatus: &status,
		OrderByID:  "asc",
		DataHandler: func(i *model.InventoryItem) error {
			batch = append(batch, NewRecord(i))
			if len(batch) < batchSize {
				return nil
			}

			return flush()
		},
	})
	if err != nil {
		return count, e.W(err, ECode090202)
	}

	if err := flush(); err != nil {
		return count, e.W(err, ECode090203)
	}

	return count, nil
}
