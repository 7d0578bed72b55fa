// Package search pushes synced catalog items into the Algolia index
// the storefront search is served from.
package search

import (
	"strconv"

	"github.com/algolia/algoliasearch-client-go/v3/algolia/search"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/inventory/model"
)

const (
	ECode090101 = e.Code0901 + "01"
	ECode090102 = e.Code0901 + "02"
	ECode090103 = e.Code0901 + "03"
	ECode090104 = e.Code0901 + "04"
	ECode090105 = e.Code0901 + "05"
)

// Config the Algolia application credentials and index name
type Config struct {
	App   string
	Key   string
	Index string
}

// Index handler for pushing catalog records to the search index
type Index struct {
	client *search.Client
	index  *search.Index
}

// Record the searchable subset of an inventory item
type Record struct {
	ObjectID       string  `json:"objectID"`
	SKU            string  `json:"sku"`
	Title          string  `json:"title"`
	Brand          string  `json:"brand"`
	Subject        string  `json:"subject"`
	CardNumber     string  `json:"cardNumber"`
	GradingCompany string  `json:"gradingCompany"`
	Grade          string  `json:"grade"`
	Price          float64 `json:"price"`
	Quantity       int     `json:"quantity"`
	StoreKey       string  `json:"storeKey"`
}

// NewRecord maps an inventory item into its searchable form
func NewRecord(item *model.InventoryItem) (r *Record) {
	return &Record{
		ObjectID:       strconv.Itoa(item.ID),
		SKU:            item.SKU,
		Title:          item.RemoteTitle(),
		Brand:          item.Brand,
		Subject:        item.Subject,
		CardNumber:     item.CardNumber,
		GradingCompany: item.GradingCompany,
		Grade:          item.Grade,
		Price:          item.Price,
		Quantity:       item.Quantity,
		StoreKey:       item.StoreKey,
	}
}

// New initializes a new search index handler
func New(conf *Config) (idx *Index, err error) {
	// Validate all required configurations are specified
	if conf.App == "" {
		return nil, e.N(ECode090101, "search app not specified")
	}

	if conf.Key == "" {
		return nil, e.N(ECode090102, "search key not specified")
	}

	if conf.Index == "" {
		return nil, e.N(ECode090103, "search index not specified")
	}

	idx = &Index{}
	idx.client = search.NewClient(conf.App, conf.Key)
	idx.index = idx.client.InitIndex(conf.Index)

	return idx, nil
}

// Push saves the item's searchable record to the index
func (idx *Index) Push(item *model.InventoryItem) (err error) {
	if _, err = idx.index.SaveObject(NewRecord(item)); err != nil {
		return e.W(err, ECode090104, item.SKU)
	}

	return nil
}

// Remove deletes the item's record from the index
func (idx *Index) Remove(itemID int) (err error) {
	if _, err = idx.index.DeleteObject(strconv.Itoa(itemID)); err != nil {
		return e.W(err, ECode090105)
	}

	return nil
}
