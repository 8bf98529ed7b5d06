package returns

import (
	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Event type constants for the return aggregate
const (
	EventTypeCustomerReturnCreated = "customer_return.created"
	EventTypeReturnItemReceived    = "customer_return.item_received"
	EventTypeExchangeRequested     = "customer_return.exchange_requested"
)

// AggregateTypeCustomerReturn identifies the return aggregate in event
// metadata
const AggregateTypeCustomerReturn = "CustomerReturn"

// CustomerReturnCreatedEvent is emitted when a return authorization is
// opened
type CustomerReturnCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Number  string    `json:"number"`
}

// NewCustomerReturnCreatedEvent creates a new CustomerReturnCreatedEvent
func NewCustomerReturnCreatedEvent(r *CustomerReturn) *CustomerReturnCreatedEvent {
	return &CustomerReturnCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerReturnCreated, AggregateTypeCustomerReturn, r.ID),
		OrderID:         r.OrderID,
		Number:          r.Number,
	}
}

// ReturnItemReceivedEvent is emitted when a physical item comes back. The
// inventory side reacts by returning the unit and restocking.
type ReturnItemReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID `json:"order_id"`
	ReturnItemID    uuid.UUID `json:"return_item_id"`
	InventoryUnitID uuid.UUID `json:"inventory_unit_id"`
	VariantID       uuid.UUID `json:"variant_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
}

// NewReturnItemReceivedEvent creates a new ReturnItemReceivedEvent
func NewReturnItemReceivedEvent(r *CustomerReturn, item *ReturnItem) *ReturnItemReceivedEvent {
	return &ReturnItemReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeReturnItemReceived, AggregateTypeCustomerReturn, r.ID),
		OrderID:         r.OrderID,
		ReturnItemID:    item.ID,
		InventoryUnitID: item.InventoryUnitID,
		VariantID:       item.VariantID,
		StockLocationID: r.StockLocationID,
	}
}

// ExchangeRequestedEvent is emitted when a return line asks for a
// replacement unit
type ExchangeRequestedEvent struct {
	shared.BaseDomainEvent
	OrderID           uuid.UUID `json:"order_id"`
	ReturnItemID      uuid.UUID `json:"return_item_id"`
	InventoryUnitID   uuid.UUID `json:"inventory_unit_id"`
	ExchangeVariantID uuid.UUID `json:"exchange_variant_id"`
	StockLocationID   uuid.UUID `json:"stock_location_id"`
}

// NewExchangeRequestedEvent creates a new ExchangeRequestedEvent
func NewExchangeRequestedEvent(r *CustomerReturn, item *ReturnItem) *ExchangeRequestedEvent {
	var exchangeVariant uuid.UUID
	if item.ExchangeVariantID != nil {
		exchangeVariant = *item.ExchangeVariantID
	}
	return &ExchangeRequestedEvent{
		BaseDomainEvent:   shared.NewBaseDomainEvent(EventTypeExchangeRequested, AggregateTypeCustomerReturn, r.ID),
		OrderID:           r.OrderID,
		ReturnItemID:      item.ID,
		InventoryUnitID:   item.InventoryUnitID,
		ExchangeVariantID: exchangeVariant,
		StockLocationID:   r.StockLocationID,
	}
}
