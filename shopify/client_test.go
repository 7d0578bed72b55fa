package shopify

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/slabworks/catalog-sync/e"
)

// gqlCapture records what the test server received
type gqlCapture struct {
	Hits      int
	Token     string
	Query     string
	Variables map[string]interface{}
}

// newTestClient returns a client pointed at a server answering every
// request with the status and body
func newTestClient(t *testing.T, status int, body string, rec *gqlCapture) *Client {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rec != nil {
			rec.Hits++
			rec.Token = r.Header.Get("X-Shopify-Access-Token")
			req := &gqlReq{}
			_ = json.NewDecoder(r.Body).Decode(req)
			rec.Query = req.Query
			rec.Variables = req.Variables
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	c := NewClient("example.myshopify.com", "shpat-test")
	c.SetBaseURL(srv.URL)

	return c
}

func TestClientCreateProduct(t *testing.T) {
	rec := &gqlCapture{}
	c := newTestClient(t, http.StatusOK, `{"data":{"productSet":{
		"product":{"id":"gid://shopify/Product/100","variants":{"nodes":[
			{"id":"gid://shopify/ProductVariant/200",
			"inventoryItem":{"id":"gid://shopify/InventoryItem/300"}}]}},
		"userErrors":[]}}}`, rec)

	refs, err := c.CreateProduct(context.Background(), &ProductInput{
		Title: "1989 Upper Deck Ken Griffey Jr #1 PSA 9",
		SKU:   "PSA-0001",
		Price: 149.99,
	})
	assert.NoError(t, err)
	assert.Equal(t, "gid://shopify/Product/100", refs.ProductID)
	assert.Equal(t, "gid://shopify/ProductVariant/200", refs.VariantID)
	assert.Equal(t, "gid://shopify/InventoryItem/300", refs.InventoryItemID)

	assert.Equal(t, "shpat-test", rec.Token)
	assert.Contains(t, rec.Query, "productSet")

	input := rec.Variables["input"].(map[string]interface{})
	assert.Equal(t, "1989 Upper Deck Ken Griffey Jr #1 PSA 9", input["title"])
	assert.Equal(t, "ACTIVE", input["status"])

	variant := input["variants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "PSA-0001", variant["sku"])
	assert.Equal(t, "149.99", variant["price"])
	assert.NotContains(t, variant, "id")
}

func TestClientCreateProduct_UserErrors(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"data":{"productSet":{
		"product":{"id":""},
		"userErrors":[{"field":["input","title"],"message":"can't be blank"}]}}}`, nil)

	refs, err := c.CreateProduct(context.Background(), &ProductInput{SKU: "PSA-0001"})
	assert.Error(t, err)
	assert.Nil(t, refs)
	assert.Equal(t, OutcomePermanent, Classify(err))
	assert.True(t, e.ContainsError(err, "input.title: can't be blank"))
}

func TestClientUpdateProduct(t *testing.T) {
	rec := &gqlCapture{}
	c := newTestClient(t, http.StatusOK, `{"data":{"productSet":{
		"product":{"id":"gid://shopify/Product/100"},"userErrors":[]}}}`, rec)

	err := c.UpdateProduct(context.Background(), &ProductInput{
		ID:        "gid://shopify/Product/100",
		VariantID: "gid://shopify/ProductVariant/200",
		Title:     "1989 Upper Deck Ken Griffey Jr #1 PSA 9",
		SKU:       "PSA-0001",
		Price:     175,
	})
	assert.NoError(t, err)

	input := rec.Variables["input"].(map[string]interface{})
	assert.Equal(t, "gid://shopify/Product/100", input["id"])

	variant := input["variants"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "gid://shopify/ProductVariant/200", variant["id"])
	assert.Equal(t, "175.00", variant["price"])
}

func TestClientUpdateProduct_NotLinked(t *testing.T) {
	rec := &gqlCapture{}
	c := newTestClient(t, http.StatusOK, `{}`, rec)

	err := c.UpdateProduct(context.Background(), &ProductInput{SKU: "PSA-0001"})
	assert.Error(t, err)
	assert.True(t, e.ContainsError(err, e.MsgRemoteLinkageMissing))
	assert.Equal(t, 0, rec.Hits)
}

func TestClientGetProduct(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"data":{"product":{
		"id":"gid://shopify/Product/100",
		"title":"1989 Upper Deck Ken Griffey Jr #1 PSA 9",
		"status":"ACTIVE",
		"variants":{"nodes":[{
			"id":"gid://shopify/ProductVariant/200",
			"sku":"PSA-0001",
			"price":"159.99",
			"inventoryQuantity":2,
			"inventoryItem":{"id":"gid://shopify/InventoryItem/300"}}]}}}}`, nil)

	p, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
	assert.NoError(t, err)
	assert.Equal(t, "1989 Upper Deck Ken Griffey Jr #1 PSA 9", p.Title)
	assert.Len(t, p.Variants, 1)

	v := p.FindVariant("gid://shopify/ProductVariant/200")
	assert.NotNil(t, v)
	assert.Equal(t, "PSA-0001", v.SKU)
	assert.Equal(t, 2, v.InventoryQuantity)
	assert.Equal(t, "gid://shopify/InventoryItem/300", v.InventoryItemID)

	price, err := v.PriceValue()
	assert.NoError(t, err)
	assert.Equal(t, 159.99, price)

	assert.Nil(t, p.FindVariant("gid://shopify/ProductVariant/999"))
}

func TestClientGetProduct_Gone(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"data":{"product":null}}`, nil)

	p, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
	assert.Error(t, err)
	assert.Nil(t, p)
	assert.True(t, e.ContainsError(err, ECode060208_getProduct_notFound))
	assert.True(t, e.ContainsError(err, e.MsgRemoteProductGone))
}

func TestClientDeleteProduct(t *testing.T) {
	rec := &gqlCapture{}
	c := newTestClient(t, http.StatusOK, `{"data":{"productDelete":{
		"deletedProductId":"gid://shopify/Product/100","userErrors":[]}}}`, rec)

	err := c.DeleteProduct(context.Background(), "gid://shopify/Product/100")
	assert.NoError(t, err)
	assert.Contains(t, rec.Query, "productDelete")
}

func TestClientDeleteProduct_AlreadyGone(t *testing.T) {
	c := newTestClient(t, http.StatusOK, `{"data":{"productDelete":{
		"deletedProductId":null,
		"userErrors":[{"field":["id"],"message":"Product does not exist"}]}}}`, nil)

	// A product that is already gone counts as deleted
	err := c.DeleteProduct(context.Background(), "gid://shopify/Product/100")
	assert.NoError(t, err)
}

func TestClientSetOnHandQuantity(t *testing.T) {
	rec := &gqlCapture{}
	c := newTestClient(t, http.StatusOK, `{"data":{"inventorySetOnHandQuantities":{
		"userErrors":[]}}}`, rec)

	err := c.SetOnHandQuantity(context.Background(),
		"gid://shopify/InventoryItem/300", "gid://shopify/Location/1", 3)
	assert.NoError(t, err)

	input := rec.Variables["input"].(map[string]interface{})
	assert.Equal(t, "correction", input["reason"])

	sq := input["setQuantities"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, "gid://shopify/InventoryItem/300", sq["inventoryItemId"])
	assert.Equal(t, "gid://shopify/Location/1", sq["locationId"])
	assert.Equal(t, float64(3), sq["quantity"])
}

func TestClassify(t *testing.T) {
	t.Run("rate limited status", func(t *testing.T) {
		c := newTestClient(t, http.StatusTooManyRequests, ``, nil)

		_, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
		assert.Error(t, err)
		assert.Equal(t, OutcomeRateLimited, Classify(err))
		assert.True(t, e.ContainsError(err, ECode060104))
	})

	t.Run("throttled extension", func(t *testing.T) {
		c := newTestClient(t, http.StatusOK,
			`{"errors":[{"message":"Throttled","extensions":{"code":"THROTTLED"}}]}`, nil)

		_, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
		assert.Error(t, err)
		assert.Equal(t, OutcomeRateLimited, Classify(err))
	})

	t.Run("server error", func(t *testing.T) {
		c := newTestClient(t, http.StatusBadGateway, ``, nil)

		_, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
		assert.Error(t, err)
		assert.Equal(t, OutcomeTransient, Classify(err))
	})

	t.Run("rejected request", func(t *testing.T) {
		c := newTestClient(t, http.StatusUnauthorized, `{"errors":"Invalid API key"}`, nil)

		_, err := c.GetProduct(context.Background(), "gid://shopify/Product/100")
		assert.Error(t, err)
		assert.Equal(t, OutcomePermanent, Classify(err))
	})

	t.Run("unrecognized errors default to transient", func(t *testing.T) {
		assert.Equal(t, OutcomeTransient, Classify(errors.New("connection refused")))
		assert.Equal(t, OutcomeTransient,
			Classify(e.W(errors.New("connection refused"), ECode060101)))
	})

	t.Run("nil", func(t *testing.T) {
		assert.Equal(t, "", Classify(nil))
	})
}
