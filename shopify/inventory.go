package shopify

import (
	"context"
	"fmt"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode060301 = e.Code0603 + "01"
	ECode060302 = e.Code0603 + "02"
)

const gqlInventorySetOnHand = `
mutation inventorySetOnHandQuantities($input: InventorySetOnHandQuantitiesInput!) {
	inventorySetOnHandQuantities(input: $input) {
		userErrors {
			field
			message
		}
	}
}`

// inventorySetRes response shape for the inventorySetOnHandQuantities
// mutation
type inventorySetRes struct {
	InventorySetOnHandQuantities struct {
		UserErrors []userError `json:"userErrors"`
	} `json:"inventorySetOnHandQuantities"`
}

// SetOnHandQuantity sets the absolute on hand quantity for the
// inventory item at the location
func (c *Client) SetOnHandQuantity(ctx context.Context,
	inventoryItemID, locationID string, quantity int) (err error) {
	vars := map[string]interface{}{
		"input": map[string]interface{}{
			"reason": "correction",
			"setQuantities": []map[string]interface{}{{
				"inventoryItemId": inventoryItemID,
				"locationId":      locationID,
				"quantity":        quantity,
			}},
		},
	}

	res := &inventorySetRes{}
	if err := c.send(ctx, gqlInventorySetOnHand, vars, res); err != nil {
		return e.W(err, ECode060301,
			fmt.Sprintf("inventoryItemID: %s, locationID: %s", inventoryItemID, locationID))
	}

	if len(res.InventorySetOnHandQuantities.UserErrors) > 0 {
		return e.W(newUserErrorsError(res.InventorySetOnHandQuantities.UserErrors), ECode060302)
	}

	return nil
}
