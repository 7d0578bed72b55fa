package shopify

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/slabworks/catalog-sync/e"
)

const (
	ECode060201 = e.Code0602 + "01"
	ECode060202 = e.Code0602 + "02"
	ECode060203 = e.Code0602 + "03"
	ECode060204 = e.Code0602 + "04"
	ECode060205 = e.Code0602 + "05"
	ECode060206 = e.Code0602 + "06"
	ECode060207 = e.Code0602 + "07"
	ECode060209 = e.Code0602 + "09"
	ECode06020A = e.Code0602 + "0A"

	ECode060208_getProduct_notFound = e.Code0602 + "08"
)

// The sync always manages single variant products, so every product is
// written with the default option
const (
	defaultOptionName  = "Title"
	defaultOptionValue = "Default Title"
)

const gqlProductSet = `
mutation productSet($input: ProductSetInput!) {
	productSet(input: $input, synchronous: true) {
		product {
			id
			variants(first: 1) {
				nodes {
					id
					inventoryItem {
						id
					}
				}
			}
		}
		userErrors {
			field
			message
		}
	}
}`

const gqlProductGet = `
query product($id: ID!) {
	product(id: $id) {
		id
		title
		status
		variants(first: 100) {
			nodes {
				id
				sku
				price
				inventoryQuantity
				inventoryItem {
					id
				}
			}
		}
	}
}`

const gqlProductDelete = `
mutation productDelete($input: ProductDeleteInput!) {
	productDelete(input: $input) {
		deletedProductId
		userErrors {
			field
			message
		}
	}
}`

// RemoteRefs the ids identifying a product in the remote catalog
type RemoteRefs struct {
	ProductID       string `json:"productId"`
	VariantID       string `json:"variantId"`
	InventoryItemID string `json:"inventoryItemId"`
}

// Product the remote product state
type Product struct {
	ID       string    `json:"id"`
	Title    string    `json:"title"`
	Status   string    `json:"status"`
	Variants []Variant `json:"variants"`
}

// Variant a product variant. The price is kept as returned by the API
type Variant struct {
	ID                string `json:"id"`
	SKU               string `json:"sku"`
	Price             string `json:"price"`
	InventoryQuantity int    `json:"inventoryQuantity"`
	InventoryItemID   string `json:"inventoryItemId"`
}

// PriceValue parses the price into a number
func (v *Variant) PriceValue() (price float64, err error) {
	return strconv.ParseFloat(v.Price, 64)
}

// FindVariant returns the variant with the specified id, or nil if the
// product no longer has it
func (p *Product) FindVariant(variantID string) (v *Variant) {
	for idx := range p.Variants {
		if p.Variants[idx].ID == variantID {
			return &p.Variants[idx]
		}
	}

	return nil
}

// ProductInput the fields pushed to the remote product. ID and
// VariantID must be set when updating an existing product
type ProductInput struct {
	ID              string
	VariantID       string
	Title           string
	DescriptionHTML string
	SKU             string
	Price           float64
	Tags            []string
}

// productSetRes response shape for the productSet mutation
type productSetRes struct {
	ProductSet struct {
		Product struct {
			ID       string `json:"id"`
			Variants struct {
				Nodes []struct {
					ID            string `json:"id"`
					InventoryItem struct {
						ID string `json:"id"`
					} `json:"inventoryItem"`
				} `json:"nodes"`
			} `json:"variants"`
		} `json:"product"`
		UserErrors []userError `json:"userErrors"`
	} `json:"productSet"`
}

// productGetRes response shape for the product query
type productGetRes struct {
	Product *struct {
		ID       string `json:"id"`
		Title    string `json:"title"`
		Status   string `json:"status"`
		Variants struct {
			Nodes []struct {
				ID                string `json:"id"`
				SKU               string `json:"sku"`
				Price             string `json:"price"`
				InventoryQuantity int    `json:"inventoryQuantity"`
				InventoryItem     struct {
					ID string `json:"id"`
				} `json:"inventoryItem"`
			} `json:"nodes"`
		} `json:"variants"`
	} `json:"product"`
}

// productDeleteRes response shape for the productDelete mutation
type productDeleteRes struct {
	ProductDelete struct {
		DeletedProductID string      `json:"deletedProductId"`
		UserErrors       []userError `json:"userErrors"`
	} `json:"productDelete"`
}

// buildProductSetInput maps the input to the mutation's variables
func buildProductSetInput(pi *ProductInput) (input map[string]interface{}) {
	variant := map[string]interface{}{
		"price": strconv.FormatFloat(pi.Price, 'f', 2, 64),
		"sku":   pi.SKU,
		"optionValues": []map[string]interface{}{{
			"optionName": defaultOptionName,
			"name":       defaultOptionValue,
		}},
	}
	if pi.VariantID != "" {
		variant["id"] = pi.VariantID
	}

	input = map[string]interface{}{
		"title":           pi.Title,
		"descriptionHtml": pi.DescriptionHTML,
		"status":          "ACTIVE",
		"productOptions": []map[string]interface{}{{
			"name": defaultOptionName,
			"values": []map[string]interface{}{{
				"name": defaultOptionValue,
			}},
		}},
		"variants": []interface{}{variant},
	}

	if len(pi.Tags) > 0 {
		input["tags"] = pi.Tags
	}

	if pi.ID != "" {
		input["id"] = pi.ID
	}

	return input
}

// CreateProduct creates the product with its single variant, returning
// the ids of the created product, variant and inventory item
func (c *Client) CreateProduct(ctx context.Context, pi *ProductInput) (refs *RemoteRefs, err error) {
	res := &productSetRes{}
	if err := c.send(ctx, gqlProductSet, map[string]interface{}{
		"input": buildProductSetInput(pi),
	}, res); err != nil {
		return nil, e.W(err, ECode060201, fmt.Sprintf("sku: %s", pi.SKU))
	}

	if len(res.ProductSet.UserErrors) > 0 {
		return nil, e.W(newUserErrorsError(res.ProductSet.UserErrors), ECode060202)
	}

	if res.ProductSet.Product.ID == "" || len(res.ProductSet.Product.Variants.Nodes) == 0 {
		return nil, e.N(ECode060203, "product create returned no variant")
	}

	node := res.ProductSet.Product.Variants.Nodes[0]

	return &RemoteRefs{
		ProductID:       res.ProductSet.Product.ID,
		VariantID:       node.ID,
		InventoryItemID: node.InventoryItem.ID,
	}, nil
}

// UpdateProduct pushes the listing fields to the already linked
// product and variant
func (c *Client) UpdateProduct(ctx context.Context, pi *ProductInput) (err error) {
	if pi.ID == "" || pi.VariantID == "" {
		return e.N(ECode060204, e.MsgRemoteLinkageMissing)
	}

	res := &productSetRes{}
	if err := c.send(ctx, gqlProductSet, map[string]interface{}{
		"input": buildProductSetInput(pi),
	}, res); err != nil {
		return e.W(err, ECode060205, fmt.Sprintf("id: %s", pi.ID))
	}

	if len(res.ProductSet.UserErrors) > 0 {
		return e.W(newUserErrorsError(res.ProductSet.UserErrors), ECode060206)
	}

	return nil
}

// GetProduct fetches the current remote state of the product
func (c *Client) GetProduct(ctx context.Context, productID string) (p *Product, err error) {
	res := &productGetRes{}
	if err := c.send(ctx, gqlProductGet, map[string]interface{}{
		"id": productID,
	}, res); err != nil {
		return nil, e.W(err, ECode060207, fmt.Sprintf("id: %s", productID))
	}

	if res.Product == nil {
		return nil, e.N(ECode060208_getProduct_notFound, e.MsgRemoteProductGone)
	}

	p = &Product{
		ID:     res.Product.ID,
		Title:  res.Product.Title,
		Status: res.Product.Status,
	}

	for _, node := range res.Product.Variants.Nodes {
		p.Variants = append(p.Variants, Variant{
			ID:                node.ID,
			SKU:               node.SKU,
			Price:             node.Price,
			InventoryQuantity: node.InventoryQuantity,
			InventoryItemID:   node.InventoryItem.ID,
		})
	}

	return p, nil
}

// DeleteProduct removes the product from the remote catalog. A product
// that is already gone counts as deleted
func (c *Client) DeleteProduct(ctx context.Context, productID string) (err error) {
	res := &productDeleteRes{}
	if err := c.send(ctx, gqlProductDelete, map[string]interface{}{
		"input": map[string]interface{}{
			"id": productID,
		},
	}, res); err != nil {
		return e.W(err, ECode060209, fmt.Sprintf("id: %s", productID))
	}

	if len(res.ProductDelete.UserErrors) > 0 {
		ue := newUserErrorsError(res.ProductDelete.UserErrors)
		if strings.Contains(ue.Msg, "does not exist") {
			return nil
		}

		return e.W(ue, ECode06020A)
	}

	return nil
}
