package order

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// State represents the checkout state of an order
type State string

const (
	StateCart     State = "CART"
	StateAddress  State = "ADDRESS"
	StateDelivery State = "DELIVERY"
	StatePayment  State = "PAYMENT"
	StateConfirm  State = "CONFIRM"
	StateComplete State = "COMPLETE"
	StateCanceled State = "CANCELED"
)

// stateRanks orders the forward checkout states. Canceled has no rank; it is
// reachable from any non-terminal state. Persisted values are the string
// tokens above and must never be renamed or reused.
var stateRanks = map[State]int{
	StateCart:     0,
	StateAddress:  1,
	StateDelivery: 2,
	StatePayment:  3,
	StateConfirm:  4,
	StateComplete: 5,
}

// IsValid checks if the state is a valid order State
func (s State) IsValid() bool {
	switch s {
	case StateCart, StateAddress, StateDelivery, StatePayment, StateConfirm, StateComplete, StateCanceled:
		return true
	}
	return false
}

// String returns the string representation of State
func (s State) String() string {
	return string(s)
}

// Rank returns the forward position of the state, and whether the state
// participates in forward ordering at all (Canceled does not).
func (s State) Rank() (int, bool) {
	r, ok := stateRanks[s]
	return r, ok
}

// IsTerminal reports whether the state permits no further transitions
func (s State) IsTerminal() bool {
	return s == StateComplete || s == StateCanceled
}

// next returns the immediate forward successor of the state
func (s State) next() (State, bool) {
	switch s {
	case StateCart:
		return StateAddress, true
	case StateAddress:
		return StateDelivery, true
	case StateDelivery:
		return StatePayment, true
	case StatePayment:
		return StateConfirm, true
	case StateConfirm:
		return StateComplete, true
	}
	return "", false
}

// CanTransitionTo checks if the state can transition to the target state.
// Forward moves go one step at a time; Canceled is reachable from any
// non-terminal state.
func (s State) CanTransitionTo(target State) bool {
	if target == StateCanceled {
		return !s.IsTerminal()
	}
	next, ok := s.next()
	return ok && next == target
}

// AdvanceInput carries the pre-resolved collaborator values a forward
// transition may need. Payment sufficiency is an external signal; the state
// machine never fetches it live.
type AdvanceInput struct {
	// CapturedCents is the sum of completed payment captures for the order,
	// in minor units of the order currency.
	CapturedCents int64
}

// Order is the aggregate root coordinating the checkout workflow. It owns
// its line items; shipments and inventory units react to its events but are
// separate aggregates with their own consistency boundaries.
type Order struct {
	shared.BaseAggregateRoot
	Number           string
	CurrencyCode     valueobject.Currency
	State            State
	Items            []LineItem `gorm:"foreignKey:OrderID"`
	ShipAddressID    *uuid.UUID
	BillAddressID    *uuid.UUID
	ShippingMethodID *uuid.UUID
	// Monetary totals in integer minor units of CurrencyCode.
	ItemTotalCents       int64
	ShipmentTotalCents   int64
	AdjustmentTotalCents int64
	TotalCents           int64
	CompletedAt          *time.Time
	CanceledAt           *time.Time
	CancelReason         string
}

// TableName returns the table name for GORM
func (Order) TableName() string {
	return "orders"
}

// NewOrder creates a new order in the Cart state
func NewOrder(number string, currency valueobject.Currency) (*Order, error) {
	if number == "" {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewValidationError("INVALID_ORDER_NUMBER", "Order number cannot exceed 50 characters")
	}
	if !currency.IsValid() {
		return nil, shared.NewValidationError("INVALID_CURRENCY", fmt.Sprintf("Unknown currency code %q", currency))
	}

	o := &Order{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CurrencyCode:      currency,
		State:             StateCart,
		Items:             make([]LineItem, 0),
	}

	o.AddDomainEvent(NewOrderCreatedEvent(o))

	return o, nil
}

// AddItem adds a line item with a captured price snapshot. If a line for the
// same variant already exists the quantity merges into it; the originally
// captured price is kept. Only allowed in the Cart state.
func (o *Order) AddItem(variantID uuid.UUID, name, sku string, digital bool, quantity int, unitPrice valueobject.Money) (*LineItem, error) {
	if o.State != StateCart {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot add items to an order that has left the cart")
	}
	if unitPrice.Currency() != o.CurrencyCode {
		return nil, shared.NewValidationError("CURRENCY_MISMATCH",
			fmt.Sprintf("Price currency %s does not match order currency %s", unitPrice.Currency(), o.CurrencyCode))
	}

	if existing := o.GetItemByVariant(variantID); existing != nil {
		if err := existing.addQuantity(quantity); err != nil {
			return nil, err
		}
		o.recalculateTotals()
		o.UpdatedAt = time.Now()
		return existing, nil
	}

	item, err := NewLineItem(o.ID, variantID, name, sku, digital, quantity, unitPrice)
	if err != nil {
		return nil, err
	}

	o.Items = append(o.Items, *item)
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return o.GetItemByVariant(variantID), nil
}

// RemoveItem removes a line item. Only allowed in the Cart state.
func (o *Order) RemoveItem(itemID uuid.UUID) error {
	if o.State != StateCart {
		return shared.NewConflictError("INVALID_STATE", "Cannot remove items from an order that has left the cart")
	}

	for idx, item := range o.Items {
		if item.ID == itemID {
			o.Items = append(o.Items[:idx], o.Items[idx+1:]...)
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewNotFoundError("ITEM_NOT_FOUND", "Order line item not found")
}

// UpdateItemQuantity changes the quantity of an existing line item.
// Only allowed in the Cart state.
func (o *Order) UpdateItemQuantity(itemID uuid.UUID, quantity int) error {
	if o.State != StateCart {
		return shared.NewConflictError("INVALID_STATE", "Cannot update items on an order that has left the cart")
	}

	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			if err := o.Items[idx].setQuantity(quantity); err != nil {
				return err
			}
			o.recalculateTotals()
			o.UpdatedAt = time.Now()
			return nil
		}
	}

	return shared.NewNotFoundError("ITEM_NOT_FOUND", "Order line item not found")
}

// SetAddresses records the opaque ship and bill address references
func (o *Order) SetAddresses(shipAddressID, billAddressID uuid.UUID) error {
	if o.State.IsTerminal() {
		return shared.NewConflictError("INVALID_STATE", "Cannot change addresses on a terminal order")
	}
	if shipAddressID == uuid.Nil || billAddressID == uuid.Nil {
		return shared.NewValidationError("INVALID_ADDRESS", "Address references cannot be empty")
	}

	o.ShipAddressID = &shipAddressID
	o.BillAddressID = &billAddressID
	o.UpdatedAt = time.Now()

	return nil
}

// SetShippingMethod selects a shipping method and captures its cost
func (o *Order) SetShippingMethod(methodID uuid.UUID, costCents int64) error {
	if o.State.IsTerminal() {
		return shared.NewConflictError("INVALID_STATE", "Cannot change shipping method on a terminal order")
	}
	if rank, _ := o.State.Rank(); rank > stateRanks[StateDelivery] {
		return shared.NewConflictError("INVALID_STATE", "Shipping method is fixed once the order reaches payment")
	}
	if methodID == uuid.Nil {
		return shared.NewValidationError("INVALID_SHIPPING_METHOD", "Shipping method ID cannot be empty")
	}
	if costCents < 0 {
		return shared.NewValidationError("INVALID_SHIPPING_COST", "Shipping cost cannot be negative")
	}

	o.ShippingMethodID = &methodID
	o.ShipmentTotalCents = costCents
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// ApplyAdjustment sets the order-level adjustment (promotion outcome passed
// in from the outside; this engine does not compute promotions). Allowed
// until the order reaches payment.
func (o *Order) ApplyAdjustment(cents int64) error {
	if rank, ok := o.State.Rank(); !ok || rank > stateRanks[StateDelivery] {
		return shared.NewConflictError("INVALID_STATE", "Cannot adjust an order that has reached payment")
	}
	if o.ItemTotalCents+o.ShipmentTotalCents+cents < 0 {
		return shared.NewValidationError("INVALID_ADJUSTMENT", "Adjustment cannot push the order total below zero")
	}

	o.AdjustmentTotalCents = cents
	o.recalculateTotals()
	o.UpdatedAt = time.Now()

	return nil
}

// Next advances the order one state forward, applying the guard for the
// target state. It never skips states; digital-only orders pass the address
// and delivery guards vacuously but still walk through those states.
// Repeating Next on a terminal state is a conflict, not a no-op.
func (o *Order) Next(input AdvanceInput) error {
	target, ok := o.State.next()
	if !ok {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot advance order in %s state", o.State))
	}

	switch target {
	case StateAddress:
		return o.toAddress()
	case StateDelivery:
		return o.toDelivery()
	case StatePayment:
		return o.toPayment()
	case StateConfirm:
		return o.toConfirm(input.CapturedCents)
	case StateComplete:
		return o.complete(input.CapturedCents)
	}

	return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("No transition from %s", o.State))
}

// toAddress applies the Cart -> Address guard: at least one line item.
// Address validation is vacuous for fully digital orders.
func (o *Order) toAddress() error {
	if len(o.Items) == 0 {
		return shared.NewValidationError("EMPTY_CART", "Cannot leave the cart without line items")
	}

	o.transitionTo(StateAddress)
	return nil
}

// toDelivery applies the Address -> Delivery guard: physical orders need
// both addresses; digital orders skip.
func (o *Order) toDelivery() error {
	if !o.IsFullyDigital() {
		if o.ShipAddressID == nil || o.BillAddressID == nil {
			return shared.NewValidationError("MISSING_ADDRESS", "Ship and bill addresses are required before delivery")
		}
	}

	o.transitionTo(StateDelivery)
	return nil
}

// toPayment applies the Delivery -> Payment guard: physical orders need a
// shipping method. This is the trigger point for inventory allocation, so a
// physical order emits the allocation event here; digital orders create no
// shipment and emit nothing.
func (o *Order) toPayment() error {
	if !o.IsFullyDigital() {
		if o.ShippingMethodID == nil {
			return shared.NewValidationError("MISSING_SHIPPING_METHOD", "A shipping method must be selected before payment")
		}
	}

	o.transitionTo(StatePayment)

	if !o.IsFullyDigital() {
		o.AddDomainEvent(NewOrderPaymentEnteredEvent(o))
	}

	return nil
}

// toConfirm applies the Payment -> Confirm guard: captured payments must
// cover the order total.
func (o *Order) toConfirm(capturedCents int64) error {
	if capturedCents < o.TotalCents {
		return shared.NewValidationError("INSUFFICIENT_PAYMENT",
			fmt.Sprintf("Captured %d of %d minor units", capturedCents, o.TotalCents))
	}

	o.transitionTo(StateConfirm)
	return nil
}

// complete applies the Confirm -> Complete guard, re-checking payment
// sufficiency, and emits the finalize-inventory event. The event is stored in
// the outbox in the same transaction as the state write, which is what makes
// the irreversible stock commitment atomic with completion.
func (o *Order) complete(capturedCents int64) error {
	if o.State != StateConfirm {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot complete order in %s state", o.State))
	}
	if capturedCents < o.TotalCents {
		return shared.NewValidationError("INSUFFICIENT_PAYMENT",
			fmt.Sprintf("Captured %d of %d minor units", capturedCents, o.TotalCents))
	}

	now := time.Now()
	o.State = StateComplete
	o.CompletedAt = &now
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderCompletedEvent(o))

	return nil
}

// SkipToPayment is the named jump for fully digital orders: Cart -> Payment
// without walking Address/Delivery. It is the only sanctioned state skip.
func (o *Order) SkipToPayment() error {
	if o.State != StateCart {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot skip to payment from %s state", o.State))
	}
	if len(o.Items) == 0 {
		return shared.NewValidationError("EMPTY_CART", "Cannot leave the cart without line items")
	}
	if !o.IsFullyDigital() {
		return shared.NewValidationError("NOT_DIGITAL", "Only fully digital orders may skip address and delivery")
	}

	o.transitionTo(StatePayment)
	return nil
}

// Cancel moves any non-terminal order to Canceled and emits the
// release-inventory event. Canceling an already-canceled order is an
// idempotent no-op; canceling a completed order is a conflict (completed
// stock is recovered through the return workflow, not cancellation).
func (o *Order) Cancel(reason string) (shared.Outcome, error) {
	if o.State == StateCanceled {
		return shared.OutcomeAlreadyDone, nil
	}
	if o.State == StateComplete {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", "Completed orders cannot be canceled; use the return workflow")
	}
	if reason == "" {
		return shared.OutcomeApplied, shared.NewValidationError("INVALID_REASON", "Cancel reason is required")
	}

	wasAllocated := o.hasReachedPayment()
	now := time.Now()
	o.State = StateCanceled
	o.CanceledAt = &now
	o.CancelReason = reason
	o.UpdatedAt = now

	o.AddDomainEvent(NewOrderCanceledEvent(o, wasAllocated))

	return shared.OutcomeApplied, nil
}

// transitionTo applies a forward move without guards. Callers validate first.
func (o *Order) transitionTo(target State) {
	o.State = target
	o.UpdatedAt = time.Now()
}

// hasReachedPayment reports whether the order ever passed the allocation
// trigger point, i.e. whether shipments/units may exist for it.
func (o *Order) hasReachedPayment() bool {
	rank, ok := o.State.Rank()
	return ok && rank >= stateRanks[StatePayment] && !o.IsFullyDigital()
}

// recalculateTotals recalculates the order totals
func (o *Order) recalculateTotals() {
	var itemTotal int64
	for _, item := range o.Items {
		itemTotal += item.PriceCents * int64(item.Quantity)
	}
	o.ItemTotalCents = itemTotal
	o.TotalCents = o.ItemTotalCents + o.ShipmentTotalCents + o.AdjustmentTotalCents
}

// IsFullyDigital reports whether every line item is digital. An empty order
// is not digital; it is undecided.
func (o *Order) IsFullyDigital() bool {
	if len(o.Items) == 0 {
		return false
	}
	for _, item := range o.Items {
		if !item.Digital {
			return false
		}
	}
	return true
}

// ItemCount returns the number of line items in the order
func (o *Order) ItemCount() int {
	return len(o.Items)
}

// TotalQuantity returns the total physical-unit count across line items
func (o *Order) TotalQuantity() int {
	total := 0
	for _, item := range o.Items {
		total += item.Quantity
	}
	return total
}

// GetItem returns a line item by its ID
func (o *Order) GetItem(itemID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].ID == itemID {
			return &o.Items[idx]
		}
	}
	return nil
}

// GetItemByVariant returns a line item by variant ID
func (o *Order) GetItemByVariant(variantID uuid.UUID) *LineItem {
	for idx := range o.Items {
		if o.Items[idx].VariantID == variantID {
			return &o.Items[idx]
		}
	}
	return nil
}

// Total returns the order total as Money
func (o *Order) Total() valueobject.Money {
	m, _ := valueobject.NewMoney(o.TotalCents, o.CurrencyCode)
	return m
}

// IsCart returns true if the order is still a cart
func (o *Order) IsCart() bool {
	return o.State == StateCart
}

// IsComplete returns true if the order is complete
func (o *Order) IsComplete() bool {
	return o.State == StateComplete
}

// IsCanceled returns true if the order is canceled
func (o *Order) IsCanceled() bool {
	return o.State == StateCanceled
}

// IsTerminal returns true if the order is in a terminal state
func (o *Order) IsTerminal() bool {
	return o.State.IsTerminal()
}

// CanModifyItems returns true if line items may still be added or removed
func (o *Order) CanModifyItems() bool {
	return o.IsCart()
}
