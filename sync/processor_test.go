package sync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	auditmodel "github.com/slabworks/catalog-sync/audit/model"
	"github.com/slabworks/catalog-sync/e"
	invmodel "github.com/slabworks/catalog-sync/inventory/model"
	invsqlmodel "github.com/slabworks/catalog-sync/inventory/sqlmodel"
	"github.com/slabworks/catalog-sync/shopify"
	"github.com/slabworks/catalog-sync/sync/model"
)

// MockQueueStore is a mock implementation of the QueueStore interface for testing
type MockQueueStore struct {
	mock.Mock
}

func (m *MockQueueStore) Enqueue(ctx context.Context, inventoryItemID int, action string) (int, error) {
	args := m.Called(ctx, inventoryItemID, action)
	return args.Int(0), args.Error(1)
}

func (m *MockQueueStore) Claim(ctx context.Context, limit int) ([]*model.QueueItem, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QueueItem), args.Error(1)
}

func (m *MockQueueStore) GetByStatus(ctx context.Context, statusList []string) ([]*model.QueueItem, error) {
	args := m.Called(ctx, statusList)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*model.QueueItem), args.Error(1)
}

func (m *MockQueueStore) SetRemoteRefs(ctx context.Context, id int, refs *shopify.RemoteRefs) error {
	args := m.Called(ctx, id, refs)
	return args.Error(0)
}

func (m *MockQueueStore) SetCompleted(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueueStore) SetError(ctx context.Context, id int, msg string, willRetry bool) error {
	args := m.Called(ctx, id, msg, willRetry)
	return args.Error(0)
}

func (m *MockQueueStore) RequeueRateLimited(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockQueueStore) Release(ctx context.Context, id int, msg string) error {
	args := m.Called(ctx, id, msg)
	return args.Error(0)
}

// MockItemStore is a mock implementation of the ItemStore interface for testing
type MockItemStore struct {
	mock.Mock
}

func (m *MockItemStore) GetByID(ctx context.Context, id int) (*invmodel.InventoryItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*invmodel.InventoryItem), args.Error(1)
}

func (m *MockItemStore) SetRemoteRefs(ctx context.Context, id int, refs *shopify.RemoteRefs) error {
	args := m.Called(ctx, id, refs)
	return args.Error(0)
}

func (m *MockItemStore) ClearRemoteRefs(ctx context.Context, id int) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockItemStore) SetSyncStatus(ctx context.Context, id int, status, syncErr string) error {
	args := m.Called(ctx, id, status, syncErr)
	return args.Error(0)
}

func (m *MockItemStore) ApplyRemoteState(ctx context.Context, id int, title string, price float64, quantity int) error {
	args := m.Called(ctx, id, title, price, quantity)
	return args.Error(0)
}

func (m *MockItemStore) ApplyMerge(ctx context.Context, id int, md *model.MergeData) error {
	args := m.Called(ctx, id, md)
	return args.Error(0)
}

// MockCatalog is a mock implementation of the CatalogClient interface for testing
type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) CreateProduct(ctx context.Context, item *invmodel.InventoryItem) (*shopify.RemoteRefs, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.RemoteRefs), args.Error(1)
}

func (m *MockCatalog) UpdateProduct(ctx context.Context, item *invmodel.InventoryItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockCatalog) DeleteProduct(ctx context.Context, storeKey, productID string) error {
	args := m.Called(ctx, storeKey, productID)
	return args.Error(0)
}

func (m *MockCatalog) SetQuantity(ctx context.Context, storeKey, locationID, remoteInventoryItemID string, quantity int) error {
	args := m.Called(ctx, storeKey, locationID, remoteInventoryItemID, quantity)
	return args.Error(0)
}

func (m *MockCatalog) GetProduct(ctx context.Context, storeKey, productID string) (*shopify.Product, error) {
	args := m.Called(ctx, storeKey, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shopify.Product), args.Error(1)
}

// MockSearcher is a mock implementation of the Searcher interface for testing
type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Push(item *invmodel.InventoryItem) error {
	args := m.Called(item)
	return args.Error(0)
}

func (m *MockSearcher) Remove(itemID int) error {
	args := m.Called(itemID)
	return args.Error(0)
}

// captureSink collects audit records so tests can assert on them
type captureSink struct {
	records []*auditmodel.Record
}

func (s *captureSink) Write(ctx context.Context, r *auditmodel.Record) error {
	s.records = append(s.records, r)
	return nil
}

func newTestProcessor(qs QueueStore, is ItemStore, cat CatalogClient) *Processor {
	p := NewProcessor(nil, cat)
	p.SetStores(qs, is)
	p.SetPacing(0)
	p.SetCooldown(0)
	return p
}

func testItem() *invmodel.InventoryItem {
	return &invmodel.InventoryItem{
		ID:         7,
		StoreKey:   "slabworks",
		LocationID: "gid://shopify/Location/1",
		SKU:        "PSA-0001",
		Brand:      "Topps",
		Subject:    "Ken Griffey Jr",
		CardNumber: "24",
		Price:      149.99,
		Quantity:   1,
	}
}

func testQueueItem(action string) *model.QueueItem {
	return &model.QueueItem{
		ID:              1,
		InventoryItemID: 7,
		Action:          action,
		Status:          model.QueueStatusProcessing,
		MaxRetries:      3,
	}
}

func testRefs() *shopify.RemoteRefs {
	return &shopify.RemoteRefs{
		ProductID:       "gid://shopify/Product/100",
		VariantID:       "gid://shopify/ProductVariant/200",
		InventoryItemID: "gid://shopify/InventoryItem/300",
	}
}

func remoteErr(outcome string, msg string) error {
	return e.W(&shopify.Error{
		Outcome: outcome,
		Msg:     msg,
	}, shopify.ECode060105)
}

func expectEmptyReconcile(mockQueue *MockQueueStore) {
	mockQueue.On("GetByStatus", mock.Anything,
		[]string{model.QueueStatusProcessing}).Return([]*model.QueueItem{}, nil)
}

func TestProcessor_RunBatch_Create(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	mockSearch := new(MockSearcher)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetSearcher(mockSearch)
	p.SetAudit(sink)

	qi := testQueueItem(model.QueueActionCreate)
	item := testItem()
	refs := testRefs()

	var order []string

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).
		Run(func(args mock.Arguments) {
			order = append(order, "catalog.CreateProduct")
		}).Return(refs, nil)
	mockQueue.On("SetRemoteRefs", mock.Anything, 1, refs).
		Run(func(args mock.Arguments) {
			order = append(order, "queue.SetRemoteRefs")
		}).Return(nil)
	mockCatalog.On("SetQuantity", mock.Anything, "slabworks",
		"gid://shopify/Location/1", "gid://shopify/InventoryItem/300", 1).
		Return(nil)
	mockItems.On("SetRemoteRefs", mock.Anything, 7, refs).
		Run(func(args mock.Arguments) {
			order = append(order, "items.SetRemoteRefs")
		}).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)
	mockSearch.On("Push", item).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.Success)
	assert.Equal(t, 0, res.Fail)
	assert.Equal(t, 0, res.FailRetry)

	// The queue row must hold the remote ids before any further write
	// so an interrupted run can adopt them instead of creating again
	assert.Equal(t, []string{"catalog.CreateProduct", "queue.SetRemoteRefs",
		"items.SetRemoteRefs"}, order)

	assert.Equal(t, "gid://shopify/Product/100", item.RemoteProductID)
	assert.Empty(t, sink.records)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
	mockSearch.AssertExpectations(t)
}

func TestProcessor_RunBatch_CreateZeroQuantity(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionCreate)
	item := testItem()
	item.Quantity = 0
	refs := testRefs()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).Return(refs, nil)
	mockQueue.On("SetRemoteRefs", mock.Anything, 1, refs).Return(nil)
	mockItems.On("SetRemoteRefs", mock.Anything, 7, refs).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	// A fresh product already holds zero on hand
	mockCatalog.AssertNotCalled(t, "SetQuantity", mock.Anything, mock.Anything,
		mock.Anything, mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_Update(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionUpdate)
	item := testItem()
	item.RemoteProductID = "gid://shopify/Product/100"
	item.RemoteVariantID = "gid://shopify/ProductVariant/200"
	item.RemoteInventoryItemID = "gid://shopify/InventoryItem/300"
	item.Quantity = 0

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("UpdateProduct", mock.Anything, item).Return(nil)
	mockCatalog.On("SetQuantity", mock.Anything, "slabworks",
		"gid://shopify/Location/1", "gid://shopify/InventoryItem/300", 0).
		Return(nil)
	mockItems.On("SetRemoteRefs", mock.Anything, 7, testRefs()).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	// A linked item updates in place, it must never create a second
	// remote product
	mockCatalog.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_AdoptsBreadcrumb(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	// The previous attempt created the product and recorded the ids on
	// the queue row, then died before the inventory write
	qi := testQueueItem(model.QueueActionCreate)
	qi.Retries = 1
	qi.RemoteProductID = "gid://shopify/Product/100"
	qi.RemoteVariantID = "gid://shopify/ProductVariant/200"
	qi.RemoteInventoryItemID = "gid://shopify/InventoryItem/300"
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockItems.On("SetRemoteRefs", mock.Anything, 7, testRefs()).Return(nil)
	mockCatalog.On("UpdateProduct", mock.Anything, item).Return(nil)
	mockCatalog.On("SetQuantity", mock.Anything, "slabworks",
		"gid://shopify/Location/1", "gid://shopify/InventoryItem/300", 1).
		Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	mockCatalog.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_RateLimited(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionCreate)
	qi.Retries = 2
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).
		Return(nil, remoteErr(shopify.OutcomeRateLimited, "too many requests"))
	mockQueue.On("RequeueRateLimited", mock.Anything, 1).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Processed)
	assert.Equal(t, 1, res.RateLimited)
	assert.Equal(t, 0, res.Fail)
	assert.Equal(t, 0, res.FailRetry)

	// Throttling must not consume retry budget
	mockQueue.AssertNotCalled(t, "SetError",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	mockItems.AssertNotCalled(t, "SetSyncStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_TransientRetries(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionCreate)
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).
		Return(nil, remoteErr(shopify.OutcomeTransient, "server error"))
	mockQueue.On("SetError", mock.Anything, 1, "Attempt 1: server error", true).
		Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.FailRetry)
	assert.Equal(t, 0, res.Fail)

	// The item stays pending while attempts remain
	mockItems.AssertNotCalled(t, "SetSyncStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_RetriesExhausted(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetAudit(sink)

	qi := testQueueItem(model.QueueActionCreate)
	qi.Retries = 3
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).
		Return(nil, remoteErr(shopify.OutcomeTransient, "server error"))
	mockQueue.On("SetError", mock.Anything, 1, "Attempt 4: server error", false).
		Return(nil)
	mockItems.On("SetSyncStatus", mock.Anything, 7, invmodel.SyncStatusFailed,
		"Attempt 4: server error").Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Fail)
	assert.Equal(t, 0, res.FailRetry)

	assert.Len(t, sink.records, 1)
	assert.Equal(t, auditmodel.EventSyncFailed, sink.records[0].Event)
	assert.Equal(t, auditmodel.LevelError, sink.records[0].Level)
	assert.Equal(t, 4, sink.records[0].Context["attempts"])

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_PermanentFailsImmediately(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetAudit(sink)

	qi := testQueueItem(model.QueueActionCreate)
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("CreateProduct", mock.Anything, item).
		Return(nil, remoteErr(shopify.OutcomePermanent, "title: can't be blank"))
	mockQueue.On("SetError", mock.Anything, 1,
		"Attempt 1: title: can't be blank", false).Return(nil)
	mockItems.On("SetSyncStatus", mock.Anything, 7, invmodel.SyncStatusFailed,
		"Attempt 1: title: can't be blank").Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Fail)
	assert.Equal(t, 0, res.FailRetry)

	assert.Len(t, sink.records, 1)
	assert.Equal(t, auditmodel.EventSyncFailed, sink.records[0].Event)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
}

func TestProcessor_RunBatch_MissingFieldsFailWithoutRemoteCall(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionCreate)
	item := testItem()
	item.SKU = ""
	item.LocationID = ""

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockQueue.On("SetError", mock.Anything, 1,
		"Attempt 1: "+e.MsgInventoryItemNotSyncable+": locationId, sku", false).
		Return(nil)
	mockItems.On("SetSyncStatus", mock.Anything, 7, invmodel.SyncStatusFailed,
		mock.AnythingOfType("string")).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Fail)

	mockCatalog.AssertNotCalled(t, "CreateProduct", mock.Anything, mock.Anything)
	mockCatalog.AssertNotCalled(t, "UpdateProduct", mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestProcessor_RunBatch_Delete(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	mockSearch := new(MockSearcher)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetSearcher(mockSearch)
	p.SetAudit(sink)

	qi := testQueueItem(model.QueueActionDelete)
	item := testItem()
	item.RemoteProductID = "gid://shopify/Product/100"
	item.RemoteVariantID = "gid://shopify/ProductVariant/200"

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockCatalog.On("DeleteProduct", mock.Anything, "slabworks",
		"gid://shopify/Product/100").Return(nil)
	mockItems.On("ClearRemoteRefs", mock.Anything, 7).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)
	mockSearch.On("Remove", 7).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	assert.Len(t, sink.records, 1)
	assert.Equal(t, auditmodel.EventRemoteDeleted, sink.records[0].Event)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
	mockCatalog.AssertExpectations(t)
	mockSearch.AssertExpectations(t)
}

func TestProcessor_RunBatch_DeleteUnlinked(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionDelete)
	item := testItem()

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).Return(item, nil)
	mockItems.On("ClearRemoteRefs", mock.Anything, 7).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Success)

	// Never pushed, so there is nothing to delete remotely
	mockCatalog.AssertNotCalled(t, "DeleteProduct",
		mock.Anything, mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestProcessor_RunBatch_Reconcile(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetAudit(sink)

	// Row 1 finished its remote create before the previous run died,
	// row 2 never got that far
	qi1 := testQueueItem(model.QueueActionCreate)
	qi1.RemoteProductID = "gid://shopify/Product/100"
	qi1.RemoteVariantID = "gid://shopify/ProductVariant/200"
	qi1.RemoteInventoryItemID = "gid://shopify/InventoryItem/300"
	qi2 := testQueueItem(model.QueueActionUpdate)
	qi2.ID = 2
	qi2.InventoryItemID = 8

	mockQueue.On("GetByStatus", mock.Anything,
		[]string{model.QueueStatusProcessing}).
		Return([]*model.QueueItem{qi1, qi2}, nil)
	mockItems.On("SetRemoteRefs", mock.Anything, 7, testRefs()).Return(nil)
	mockQueue.On("SetCompleted", mock.Anything, 1).Return(nil)
	mockQueue.On("Release", mock.Anything, 2, "Requeued after interrupted run").
		Return(nil)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{}, nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Recovered)
	assert.Equal(t, 0, res.Processed)

	assert.Len(t, sink.records, 1)
	assert.Equal(t, auditmodel.EventSyncRecovered, sink.records[0].Event)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestProcessor_RunBatch_EmptyQueue(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{}, nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 0, res.Processed)

	mockQueue.AssertExpectations(t)
}

func TestProcessor_RunBatch_ItemGone(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)
	sink := &captureSink{}

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)
	p.SetAudit(sink)

	qi := testQueueItem(model.QueueActionUpdate)

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).
		Return(nil, e.N(invsqlmodel.ECode04020G_getByID_notFound,
			e.MsgInventoryItemDoesNotExist))
	mockQueue.On("SetError", mock.Anything, 1,
		"Attempt 1: "+e.MsgInventoryItemDoesNotExist, false).Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.Fail)

	mockItems.AssertNotCalled(t, "SetSyncStatus",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	assert.Len(t, sink.records, 1)
	assert.Equal(t, auditmodel.EventSyncFailed, sink.records[0].Event)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestProcessor_RunBatch_StorageErrorReleasesClaim(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi := testQueueItem(model.QueueActionUpdate)

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi}, nil)
	mockItems.On("GetByID", mock.Anything, 7).
		Return(nil, errors.New("connection refused"))
	mockQueue.On("Release", mock.Anything, 1, "Requeued after storage error").
		Return(nil)

	res, err := p.RunBatch(context.Background(), 0)
	assert.NoError(t, err)
	assert.Equal(t, 1, res.FailRetry)
	assert.Equal(t, 0, res.Fail)

	mockQueue.AssertNotCalled(t, "SetError",
		mock.Anything, mock.Anything, mock.Anything, mock.Anything)

	mockQueue.AssertExpectations(t)
	mockItems.AssertExpectations(t)
}

func TestProcessor_RunBatch_CanceledReleasesClaims(t *testing.T) {
	mockQueue := new(MockQueueStore)
	mockItems := new(MockItemStore)
	mockCatalog := new(MockCatalog)

	p := newTestProcessor(mockQueue, mockItems, mockCatalog)

	qi1 := testQueueItem(model.QueueActionCreate)
	qi2 := testQueueItem(model.QueueActionCreate)
	qi2.ID = 2
	qi2.InventoryItemID = 8

	expectEmptyReconcile(mockQueue)
	mockQueue.On("Claim", mock.Anything, DefaultMaxItems).
		Return([]*model.QueueItem{qi1, qi2}, nil)
	mockQueue.On("Release", mock.Anything, 1, "").Return(nil)
	mockQueue.On("Release", mock.Anything, 2, "").Return(nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := p.RunBatch(ctx, 0)
	assert.Error(t, err)
	assert.Equal(t, 0, res.Processed)

	mockQueue.AssertExpectations(t)
	mockItems.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRemoteErrMsg(t *testing.T) {
	err := remoteErr(shopify.OutcomeTransient, "server error")
	assert.Equal(t, "server error", remoteErrMsg(err))

	err = e.N(ECode050404, e.MsgRemoteLinkageMissing)
	assert.Contains(t, remoteErrMsg(err), e.MsgRemoteLinkageMissing)

	err = errors.New("plain failure")
	assert.Equal(t, "plain failure", remoteErrMsg(err))
}
