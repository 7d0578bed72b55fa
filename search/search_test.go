package search

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slabworks/catalog-sync/e"
	"github.com/slabworks/catalog-sync/inventory/model"
)

func TestNewRecord(t *testing.T) {
	item := &model.InventoryItem{
		ID:             42,
		StoreKey:       "slabworks",
		SKU:            "PSA-0042",
		Brand:          "Upper Deck",
		Subject:        "Ken Griffey Jr",
		CardNumber:     "1",
		GradingCompany: "PSA",
		Grade:          "9",
		Price:          159.99,
		Quantity:       1,
	}

	r := NewRecord(item)
	assert.Equal(t, "42", r.ObjectID)
	assert.Equal(t, "PSA-0042", r.SKU)
	assert.Equal(t, "Upper Deck Ken Griffey Jr #1 PSA 9", r.Title)
	assert.Equal(t, "PSA", r.GradingCompany)
	assert.Equal(t, 159.99, r.Price)
	assert.Equal(t, "slabworks", r.StoreKey)
}

func TestNewMissingConfig(t *testing.T) {
	tests := []struct {
		name string
		conf *Config
		code string
	}{
		{"no app", &Config{Key: "k", Index: "i"}, ECode090101},
		{"no key", &Config{App: "a", Index: "i"}, ECode090102},
		{"no index", &Config{App: "a", Key: "k"}, ECode090103},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idx, err := New(tt.conf)
			assert.Nil(t, idx)
			assert.True(t, e.ContainsError(err, tt.code))
		})
	}
}

func TestNew(t *testing.T) {
	idx, err := New(&Config{App: "a", Key: "k", Index: "catalog"})
	assert.NoError(t, err)
	assert.NotNil(t, idx)
}
