package order

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// Test helpers
func createTestOrder(t *testing.T) *Order {
	o, err := NewOrder("R-2026-0001", valueobject.USD)
	require.NoError(t, err)
	return o
}

func addTestItem(t *testing.T, o *Order, name string, digital bool, quantity int, priceCents int64) *LineItem {
	price := valueobject.MustMoney(priceCents, o.CurrencyCode)
	item, err := o.AddItem(uuid.New(), name, "SKU-"+name, digital, quantity, price)
	require.NoError(t, err)
	return item
}

func addressedOrder(t *testing.T, o *Order) {
	require.NoError(t, o.SetAddresses(uuid.New(), uuid.New()))
}

// advanceToPayment walks a physical order Cart -> Payment with valid guards
func advanceToPayment(t *testing.T, o *Order) {
	addressedOrder(t, o)
	require.NoError(t, o.SetShippingMethod(uuid.New(), 500))
	require.NoError(t, o.Next(AdvanceInput{}))
	require.NoError(t, o.Next(AdvanceInput{}))
	require.NoError(t, o.Next(AdvanceInput{}))
	require.Equal(t, StatePayment, o.State)
}

// ============================================
// State Tests
// ============================================

func TestState_IsValid(t *testing.T) {
	tests := []struct {
		state   State
		isValid bool
	}{
		{StateCart, true},
		{StateAddress, true},
		{StateDelivery, true},
		{StatePayment, true},
		{StateConfirm, true},
		{StateComplete, true},
		{StateCanceled, true},
		{State("INVALID"), false},
		{State(""), false},
	}

	for _, tt := range tests {
		t.Run(string(tt.state), func(t *testing.T) {
			assert.Equal(t, tt.isValid, tt.state.IsValid())
		})
	}
}

func TestState_CanTransitionTo(t *testing.T) {
	tests := []struct {
		from     State
		to       State
		canTrans bool
	}{
		// Forward moves go exactly one step
		{StateCart, StateAddress, true},
		{StateCart, StateDelivery, false},
		{StateCart, StatePayment, false},
		{StateAddress, StateDelivery, true},
		{StateAddress, StatePayment, false},
		{StateDelivery, StatePayment, true},
		{StatePayment, StateConfirm, true},
		{StateConfirm, StateComplete, true},
		// No backward moves
		{StateAddress, StateCart, false},
		{StateConfirm, StatePayment, false},
		// Canceled from any non-terminal
		{StateCart, StateCanceled, true},
		{StateDelivery, StateCanceled, true},
		{StateConfirm, StateCanceled, true},
		// Terminal states go nowhere
		{StateComplete, StateCanceled, false},
		{StateCanceled, StateCart, false},
		{StateCanceled, StateCanceled, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.canTrans, tt.from.CanTransitionTo(tt.to))
		})
	}
}

func TestState_IsTerminal(t *testing.T) {
	assert.True(t, StateComplete.IsTerminal())
	assert.True(t, StateCanceled.IsTerminal())
	assert.False(t, StateCart.IsTerminal())
	assert.False(t, StateConfirm.IsTerminal())
}

// ============================================
// Order Creation Tests
// ============================================

func TestNewOrder(t *testing.T) {
	o, err := NewOrder("R-2026-0001", valueobject.USD)

	require.NoError(t, err)
	assert.Equal(t, "R-2026-0001", o.Number)
	assert.Equal(t, StateCart, o.State)
	assert.Equal(t, valueobject.USD, o.CurrencyCode)
	assert.Equal(t, 1, o.Version)
	assert.Empty(t, o.Items)
	assert.Zero(t, o.TotalCents)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderCreated, events[0].EventType())
}

func TestNewOrder_Validation(t *testing.T) {
	tests := []struct {
		name     string
		number   string
		currency valueobject.Currency
	}{
		{"empty number", "", valueobject.USD},
		{"unknown currency", "R-2026-0001", valueobject.Currency("XXX")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewOrder(tt.number, tt.currency)
			require.Error(t, err)
			assert.True(t, shared.IsValidation(err))
		})
	}
}

// ============================================
// Line Item Tests
// ============================================

func TestOrder_AddItem(t *testing.T) {
	o := createTestOrder(t)

	item := addTestItem(t, o, "Widget", false, 2, 1500)

	assert.Equal(t, 2, item.Quantity)
	assert.Equal(t, int64(1500), item.PriceCents)
	assert.Equal(t, int64(3000), o.ItemTotalCents)
	assert.Equal(t, int64(3000), o.TotalCents)
}

func TestOrder_AddItem_MergesSameVariant(t *testing.T) {
	o := createTestOrder(t)
	variantID := uuid.New()
	price := valueobject.MustMoney(1000, o.CurrencyCode)

	_, err := o.AddItem(variantID, "Widget", "SKU-W", false, 1, price)
	require.NoError(t, err)

	// Second add keeps the originally captured price even if the caller
	// passes a different one
	newPrice := valueobject.MustMoney(1200, o.CurrencyCode)
	item, err := o.AddItem(variantID, "Widget", "SKU-W", false, 2, newPrice)
	require.NoError(t, err)

	assert.Equal(t, 1, o.ItemCount())
	assert.Equal(t, 3, item.Quantity)
	assert.Equal(t, int64(1000), item.PriceCents)
	assert.Equal(t, int64(3000), o.ItemTotalCents)
}

func TestOrder_AddItem_CurrencyMismatch(t *testing.T) {
	o := createTestOrder(t)
	price := valueobject.MustMoney(1000, valueobject.EUR)

	_, err := o.AddItem(uuid.New(), "Widget", "SKU-W", false, 1, price)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

func TestOrder_AddItem_OutsideCart(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	require.NoError(t, o.Next(AdvanceInput{}))

	price := valueobject.MustMoney(1000, o.CurrencyCode)
	_, err := o.AddItem(uuid.New(), "Gadget", "SKU-G", false, 1, price)

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

func TestOrder_RemoveItem(t *testing.T) {
	o := createTestOrder(t)
	item := addTestItem(t, o, "Widget", false, 2, 1500)
	addTestItem(t, o, "Gadget", false, 1, 500)

	require.NoError(t, o.RemoveItem(item.ID))

	assert.Equal(t, 1, o.ItemCount())
	assert.Equal(t, int64(500), o.TotalCents)
}

func TestOrder_RemoveItem_NotFound(t *testing.T) {
	o := createTestOrder(t)

	err := o.RemoveItem(uuid.New())

	require.Error(t, err)
	assert.True(t, shared.IsNotFound(err))
}

func TestOrder_UpdateItemQuantity(t *testing.T) {
	o := createTestOrder(t)
	item := addTestItem(t, o, "Widget", false, 2, 1500)

	require.NoError(t, o.UpdateItemQuantity(item.ID, 5))

	assert.Equal(t, 5, o.GetItem(item.ID).Quantity)
	assert.Equal(t, int64(7500), o.TotalCents)
}

func TestOrder_UpdateItemQuantity_Invalid(t *testing.T) {
	o := createTestOrder(t)
	item := addTestItem(t, o, "Widget", false, 2, 1500)

	err := o.UpdateItemQuantity(item.ID, 0)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

// ============================================
// Totals Tests
// ============================================

func TestOrder_Totals(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 2, 1500)
	addTestItem(t, o, "Gadget", false, 3, 200)

	require.NoError(t, o.SetShippingMethod(uuid.New(), 499))
	require.NoError(t, o.ApplyAdjustment(-300))

	assert.Equal(t, int64(3600), o.ItemTotalCents)
	assert.Equal(t, int64(499), o.ShipmentTotalCents)
	assert.Equal(t, int64(-300), o.AdjustmentTotalCents)
	assert.Equal(t, int64(3799), o.TotalCents)
}

func TestOrder_ApplyAdjustment_BelowZero(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)

	err := o.ApplyAdjustment(-1500)

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
}

// ============================================
// Forward Transition Tests
// ============================================

func TestOrder_Next_EmptyCart(t *testing.T) {
	o := createTestOrder(t)

	err := o.Next(AdvanceInput{})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StateCart, o.State)
}

func TestOrder_Next_ToAddress(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)

	require.NoError(t, o.Next(AdvanceInput{}))

	assert.Equal(t, StateAddress, o.State)
}

func TestOrder_Next_ToDelivery_RequiresAddresses(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	require.NoError(t, o.Next(AdvanceInput{}))

	err := o.Next(AdvanceInput{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	addressedOrder(t, o)
	require.NoError(t, o.Next(AdvanceInput{}))
	assert.Equal(t, StateDelivery, o.State)
}

func TestOrder_Next_ToPayment_RequiresShippingMethod(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	addressedOrder(t, o)
	require.NoError(t, o.Next(AdvanceInput{}))
	require.NoError(t, o.Next(AdvanceInput{}))

	err := o.Next(AdvanceInput{})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))

	require.NoError(t, o.SetShippingMethod(uuid.New(), 500))
	require.NoError(t, o.Next(AdvanceInput{}))
	assert.Equal(t, StatePayment, o.State)
}

func TestOrder_Next_ToPayment_EmitsAllocationTrigger(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 2, 1000)
	o.ClearDomainEvents()

	advanceToPayment(t, o)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*OrderPaymentEnteredEvent)
	require.True(t, ok)
	assert.Equal(t, o.ID, evt.AggregateID())
	require.Len(t, evt.Items, 1)
	assert.Equal(t, 2, evt.Items[0].Quantity)
}

func TestOrder_Next_ToConfirm_PaymentGuard(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	advanceToPayment(t, o)

	// 1000 item + 500 shipping
	err := o.Next(AdvanceInput{CapturedCents: 1499})
	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StatePayment, o.State)

	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))
	assert.Equal(t, StateConfirm, o.State)
}

func TestOrder_Next_ToComplete(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	advanceToPayment(t, o)
	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))
	o.ClearDomainEvents()

	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))

	assert.Equal(t, StateComplete, o.State)
	require.NotNil(t, o.CompletedAt)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	assert.Equal(t, EventTypeOrderCompleted, events[0].EventType())
}

func TestOrder_Next_Complete_RechecksPayment(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	advanceToPayment(t, o)
	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))

	// A refund between Confirm and Complete drops the captured total
	err := o.Next(AdvanceInput{CapturedCents: 900})

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StateConfirm, o.State)
}

func TestOrder_Next_FromTerminal(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	_, err := o.Cancel("changed mind")
	require.NoError(t, err)

	err = o.Next(AdvanceInput{})

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
}

// ============================================
// Digital Order Tests
// ============================================

func TestOrder_IsFullyDigital(t *testing.T) {
	o := createTestOrder(t)
	assert.False(t, o.IsFullyDigital())

	addTestItem(t, o, "Ebook", true, 1, 999)
	assert.True(t, o.IsFullyDigital())

	addTestItem(t, o, "Widget", false, 1, 1000)
	assert.False(t, o.IsFullyDigital())
}

func TestOrder_SkipToPayment_Digital(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Ebook", true, 1, 999)
	o.ClearDomainEvents()

	require.NoError(t, o.SkipToPayment())

	assert.Equal(t, StatePayment, o.State)
	// Digital orders never trigger allocation
	assert.Empty(t, o.GetDomainEvents())
}

func TestOrder_SkipToPayment_Physical(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)

	err := o.SkipToPayment()

	require.Error(t, err)
	assert.True(t, shared.IsValidation(err))
	assert.Equal(t, StateCart, o.State)
}

func TestOrder_Digital_WalksStatesWithVacuousGuards(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Ebook", true, 2, 999)
	o.ClearDomainEvents()

	// No addresses, no shipping method: guards pass vacuously
	require.NoError(t, o.Next(AdvanceInput{}))
	require.NoError(t, o.Next(AdvanceInput{}))
	require.NoError(t, o.Next(AdvanceInput{}))

	assert.Equal(t, StatePayment, o.State)
	assert.Empty(t, o.GetDomainEvents())
}

// ============================================
// Cancellation Tests
// ============================================

func TestOrder_Cancel(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	o.ClearDomainEvents()

	outcome, err := o.Cancel("customer request")

	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, outcome)
	assert.Equal(t, StateCanceled, o.State)
	assert.Equal(t, "customer request", o.CancelReason)
	require.NotNil(t, o.CanceledAt)

	events := o.GetDomainEvents()
	require.Len(t, events, 1)
	evt, ok := events[0].(*OrderCanceledEvent)
	require.True(t, ok)
	assert.False(t, evt.WasAllocated)
}

func TestOrder_Cancel_AfterAllocation(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	advanceToPayment(t, o)
	o.ClearDomainEvents()

	outcome, err := o.Cancel("payment abandoned")

	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeApplied, outcome)

	evt, ok := o.GetDomainEvents()[0].(*OrderCanceledEvent)
	require.True(t, ok)
	assert.True(t, evt.WasAllocated)
}

func TestOrder_Cancel_Idempotent(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	_, err := o.Cancel("first")
	require.NoError(t, err)
	o.ClearDomainEvents()

	outcome, err := o.Cancel("second")

	require.NoError(t, err)
	assert.Equal(t, shared.OutcomeAlreadyDone, outcome)
	assert.Equal(t, "first", o.CancelReason)
	assert.Empty(t, o.GetDomainEvents())
}

func TestOrder_Cancel_Completed(t *testing.T) {
	o := createTestOrder(t)
	addTestItem(t, o, "Widget", false, 1, 1000)
	advanceToPayment(t, o)
	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))
	require.NoError(t, o.Next(AdvanceInput{CapturedCents: 1500}))

	_, err := o.Cancel("too late")

	require.Error(t, err)
	assert.True(t, shared.IsConflict(err))
	assert.Equal(t, StateComplete, o.State)
}
