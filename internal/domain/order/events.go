package order

import (
	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// Event type constants for the order aggregate
const (
	EventTypeOrderCreated        = "order.created"
	EventTypeOrderPaymentEntered = "order.payment_entered"
	EventTypeOrderCompleted      = "order.completed"
	EventTypeOrderCanceled       = "order.canceled"
)

// AggregateTypeOrder identifies the order aggregate in event metadata
const AggregateTypeOrder = "Order"

// EventLineItem is the line item snapshot carried inside order events so
// that reacting aggregates do not have to reload the order.
type EventLineItem struct {
	LineItemID uuid.UUID `json:"line_item_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	SKU        string    `json:"sku"`
	Digital    bool      `json:"digital"`
	Quantity   int       `json:"quantity"`
}

func snapshotItems(o *Order) []EventLineItem {
	items := make([]EventLineItem, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, EventLineItem{
			LineItemID: item.ID,
			VariantID:  item.VariantID,
			SKU:        item.CapturedSKU,
			Digital:    item.Digital,
			Quantity:   item.Quantity,
		})
	}
	return items
}

// OrderCreatedEvent is emitted when a new order (cart) is created
type OrderCreatedEvent struct {
	shared.BaseDomainEvent
	Number       string               `json:"number"`
	CurrencyCode valueobject.Currency `json:"currency_code"`
}

// NewOrderCreatedEvent creates a new OrderCreatedEvent
func NewOrderCreatedEvent(o *Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCreated, AggregateTypeOrder, o.ID),
		Number:          o.Number,
		CurrencyCode:    o.CurrencyCode,
	}
}

// OrderPaymentEnteredEvent is emitted when a physical order reaches the
// Payment state. It is the trigger for inventory allocation.
type OrderPaymentEnteredEvent struct {
	shared.BaseDomainEvent
	Number           string          `json:"number"`
	ShippingMethodID *uuid.UUID      `json:"shipping_method_id,omitempty"`
	ShipAddressID    *uuid.UUID      `json:"ship_address_id,omitempty"`
	Items            []EventLineItem `json:"items"`
}

// NewOrderPaymentEnteredEvent creates a new OrderPaymentEnteredEvent
func NewOrderPaymentEnteredEvent(o *Order) *OrderPaymentEnteredEvent {
	return &OrderPaymentEnteredEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeOrderPaymentEntered, AggregateTypeOrder, o.ID),
		Number:           o.Number,
		ShippingMethodID: o.ShippingMethodID,
		ShipAddressID:    o.ShipAddressID,
		Items:            snapshotItems(o),
	}
}

// OrderCompletedEvent is emitted when an order completes. It triggers
// finalization of the order's shipments and the irreversible stock
// commitment.
type OrderCompletedEvent struct {
	shared.BaseDomainEvent
	Number     string `json:"number"`
	TotalCents int64  `json:"total_cents"`
}

// NewOrderCompletedEvent creates a new OrderCompletedEvent
func NewOrderCompletedEvent(o *Order) *OrderCompletedEvent {
	return &OrderCompletedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCompleted, AggregateTypeOrder, o.ID),
		Number:          o.Number,
		TotalCents:      o.TotalCents,
	}
}

// OrderCanceledEvent is emitted when an order is canceled. WasAllocated
// tells the inventory side whether shipments and units may exist and need
// releasing.
type OrderCanceledEvent struct {
	shared.BaseDomainEvent
	Number       string `json:"number"`
	Reason       string `json:"reason"`
	WasAllocated bool   `json:"was_allocated"`
}

// NewOrderCanceledEvent creates a new OrderCanceledEvent
func NewOrderCanceledEvent(o *Order, wasAllocated bool) *OrderCanceledEvent {
	return &OrderCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeOrderCanceled, AggregateTypeOrder, o.ID),
		Number:          o.Number,
		Reason:          o.CancelReason,
		WasAllocated:    wasAllocated,
	}
}
