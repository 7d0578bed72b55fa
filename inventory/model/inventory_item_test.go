package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRemoteTitle(t *testing.T) {
	t.Run("explicit title wins", func(t *testing.T) {
		i := &InventoryItem{
			Title: "Custom Listing Title",
			Brand: "Topps",
		}
		assert.Equal(t, "Custom Listing Title", i.RemoteTitle())
	})

	t.Run("assembled from attributes", func(t *testing.T) {
		i := &InventoryItem{
			Brand:      "Upper Deck",
			Subject:    "Ken Griffey Jr",
			CardNumber: "1",
		}
		assert.Equal(t, "Upper Deck Ken Griffey Jr #1", i.RemoteTitle())
	})

	t.Run("graded cards carry company and grade", func(t *testing.T) {
		i := &InventoryItem{
			Brand:          "Upper Deck",
			Subject:        "Ken Griffey Jr",
			CardNumber:     "1",
			GradingCompany: "PSA",
			Grade:          "9",
		}
		assert.Equal(t, "Upper Deck Ken Griffey Jr #1 PSA 9", i.RemoteTitle())
	})

	t.Run("grade without company is ignored", func(t *testing.T) {
		i := &InventoryItem{
			Brand: "Upper Deck",
			Grade: "9",
		}
		assert.Equal(t, "Upper Deck", i.RemoteTitle())
	})

	t.Run("falls back to sku", func(t *testing.T) {
		i := &InventoryItem{SKU: "PSA-0001"}
		assert.Equal(t, "PSA-0001", i.RemoteTitle())
	})
}

func TestRemoteTags(t *testing.T) {
	i := &InventoryItem{
		Brand:          "Upper Deck",
		GradingCompany: "PSA",
		Grade:          "9",
	}
	assert.Equal(t, []string{"Upper Deck", "PSA", "graded"}, i.RemoteTags())

	raw := &InventoryItem{Brand: "Upper Deck"}
	assert.Equal(t, []string{"Upper Deck"}, raw.RemoteTags())

	assert.Nil(t, (&InventoryItem{}).RemoteTags())
}

func TestMissingSyncFields(t *testing.T) {
	i := &InventoryItem{
		StoreKey:   "slabworks",
		LocationID: "gid://shopify/Location/1",
		SKU:        "PSA-0001",
	}
	assert.Empty(t, i.MissingSyncFields())

	i.LocationID = ""
	i.SKU = ""
	assert.Equal(t, []string{"locationId", "sku"}, i.MissingSyncFields())
}

func TestIsLinked(t *testing.T) {
	i := &InventoryItem{}
	assert.False(t, i.IsLinked())

	// Both ids are needed, a product without its variant is not usable
	i.RemoteProductID = "gid://shopify/Product/100"
	assert.False(t, i.IsLinked())

	i.RemoteVariantID = "gid://shopify/ProductVariant/200"
	assert.True(t, i.IsLinked())
}
