package returns

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/shared"
)

// Test helpers
func createTestReturn(t *testing.T) *CustomerReturn {
	r, err := NewCustomerReturn("RMA-2026-0001", uuid.New(), uuid.New(), "damaged on arrival")
	require.NoError(t, err)
	r.ClearDomainEvents()
	return r
}

func addTestLine(t *testing.T, r *CustomerReturn, exchangeVariant *uuid.UUID) *ReturnItem {
	item, err := r.AddItem(uuid.New(), uuid.New(), exchangeVariant)
	require.NoError(t, err)
	return item
}

// ============================================
// Creation Tests
// ============================================

func TestNewCustomerReturn(t *testing.T) {
	orderID := uuid.New()
	r, err := NewCustomerReturn("RMA-2026-0001", orderID, uuid.New(), "")

	require.NoError(t, err)
	assert.Equal(t, orderID, r.OrderID)
	assert.Equal(t, ReceptionStatusAwaiting, r.Status())
	assert.Equal(t, 1, r.Version)

	events := r.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeCustomerReturnCreated, events[0].EventType())
}

func TestNewCustomerReturn_Validation(t *testing.T) {
	_, err := NewCustomerReturn("", uuid.New(), uuid.New(), "")
	assert.True(t, shared.IsValidation(err))

	_, err = NewCustomerReturn("RMA-2026-0001", uuid.Nil, uuid.New(), "")
	assert.True(t, shared.IsValidation(err))

	_, err = NewCustomerReturn("RMA-2026-0001", uuid.New(), uuid.Nil, "")
	assert.True(t, shared.IsValidation(err))
}

// ============================================
// AddItem Tests
// ============================================

func TestCustomerReturn_AddItem(t *testing.T) {
	r := createTestReturn(t)

	item := addTestLine(t, r, nil)

	assert.Equal(t, ReceptionStatusAwaiting, item.ReceptionStatus)
	assert.False(t, item.ExchangeRequested())
	assert.Empty(t, r.GetDomainEvents())
}

func TestCustomerReturn_AddItem_WithExchange(t *testing.T) {
	r := createTestReturn(t)
	exchangeVariant := uuid.New()

	item := addTestLine(t, r, &exchangeVariant)

	assert.True(t, item.ExchangeRequested())

	events := r.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*ExchangeRequestedEvent)
	require.True(t, ok)
	assert.Equal(t, exchangeVariant, evt.ExchangeVariantID)
}

func TestCustomerReturn_AddItem_DuplicateUnit(t *testing.T) {
	r := createTestReturn(t)
	unitID := uuid.New()
	_, err := r.AddItem(unitID, uuid.New(), nil)
	require.NoError(t, err)

	_, err = r.AddItem(unitID, uuid.New(), nil)

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestCustomerReturn_AddItem_AfterReceiptStarted(t *testing.T) {
	r := createTestReturn(t)
	item := addTestLine(t, r, nil)
	_, err := r.ReceiveItem(item.ID)
	require.NoError(t, err)

	_, err = r.AddItem(uuid.New(), uuid.New(), nil)

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

// ============================================
// ReceiveItem Tests
// ============================================

func TestCustomerReturn_ReceiveItem(t *testing.T) {
	r := createTestReturn(t)
	item := addTestLine(t, r, nil)
	r.ClearDomainEvents()

	received, err := r.ReceiveItem(item.ID)

	require.NoError(t, err)
	assert.Equal(t, ReceptionStatusReceived, received.ReceptionStatus)
	require.NotNil(t, received.ReceivedAt)
	assert.Equal(t, ReceptionStatusReceived, r.Status())

	events := r.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*ReturnItemReceivedEvent)
	require.True(t, ok)
	assert.Equal(t, item.InventoryUnitID, evt.InventoryUnitID)
	assert.Equal(t, r.StockLocationID, evt.StockLocationID)
}

func TestCustomerReturn_ReceiveItem_TwiceIsConflict(t *testing.T) {
	r := createTestReturn(t)
	item := addTestLine(t, r, nil)
	_, err := r.ReceiveItem(item.ID)
	require.NoError(t, err)

	_, err = r.ReceiveItem(item.ID)

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestCustomerReturn_ReceiveItem_NotFound(t *testing.T) {
	r := createTestReturn(t)

	_, err := r.ReceiveItem(uuid.New())

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

// ============================================
// Partial Reception Tests
// ============================================

func TestCustomerReturn_PartialReception(t *testing.T) {
	r := createTestReturn(t)
	first := addTestLine(t, r, nil)
	second := addTestLine(t, r, nil)

	_, err := r.ReceiveItem(first.ID)
	require.NoError(t, err)

	// Sibling line untouched, aggregate still awaiting
	assert.Equal(t, ReceptionStatusAwaiting, r.GetItem(second.ID).ReceptionStatus)
	assert.Equal(t, ReceptionStatusAwaiting, r.Status())
	assert.False(t, r.IsFullyReceived())

	_, err = r.ReceiveItem(second.ID)
	require.NoError(t, err)
	assert.True(t, r.IsFullyReceived())
}

// ============================================
// Exchange Unit Linking Tests
// ============================================

func TestCustomerReturn_RecordExchangeUnit(t *testing.T) {
	r := createTestReturn(t)
	exchangeVariant := uuid.New()
	item := addTestLine(t, r, &exchangeVariant)
	exchangeUnitID := uuid.New()

	require.NoError(t, r.RecordExchangeUnit(item.ID, exchangeUnitID))

	require.NotNil(t, r.GetItem(item.ID).ExchangeUnitID)
	assert.Equal(t, exchangeUnitID, *r.GetItem(item.ID).ExchangeUnitID)
}

func TestCustomerReturn_RecordExchangeUnit_NotRequested(t *testing.T) {
	r := createTestReturn(t)
	item := addTestLine(t, r, nil)

	err := r.RecordExchangeUnit(item.ID, uuid.New())

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestCustomerReturn_RecordExchangeUnit_Twice(t *testing.T) {
	r := createTestReturn(t)
	exchangeVariant := uuid.New()
	item := addTestLine(t, r, &exchangeVariant)
	require.NoError(t, r.RecordExchangeUnit(item.ID, uuid.New()))

	err := r.RecordExchangeUnit(item.ID, uuid.New())

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

// ============================================
// Cancel Tests
// ============================================

func TestCustomerReturn_Cancel(t *testing.T) {
	r := createTestReturn(t)
	addTestLine(t, r, nil)
	addTestLine(t, r, nil)

	outcome, err := r.Cancel()

	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, outcome)
	assert.Equal(t, ReceptionStatusCanceled, r.Status())
}

func TestCustomerReturn_Cancel_Idempotent(t *testing.T) {
	r := createTestReturn(t)
	addTestLine(t, r, nil)
	_, err := r.Cancel()
	require.NoError(t, err)

	outcome, err := r.Cancel()

	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeAlreadyDone, outcome)
}

func TestCustomerReturn_Cancel_AfterReceipt(t *testing.T) {
	r := createTestReturn(t)
	item := addTestLine(t, r, nil)
	_, err := r.ReceiveItem(item.ID)
	require.NoError(t, err)

	_, err = r.Cancel()

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}
