package inventory

import (
	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// Event type constants for the inventory aggregates
const (
	EventTypeShipmentReady     = "shipment.ready"
	EventTypeShipmentShipped   = "shipment.shipped"
	EventTypeShipmentDelivered = "shipment.delivered"
	EventTypeShipmentCanceled  = "shipment.canceled"

	EventTypeInventoryUnitCreated  = "inventory_unit.created"
	EventTypeInventoryUnitShipped  = "inventory_unit.shipped"
	EventTypeInventoryUnitReturned = "inventory_unit.returned"
	EventTypeInventoryUnitReleased = "inventory_unit.released"
)

// Aggregate type identifiers used in event metadata
const (
	AggregateTypeShipment      = "Shipment"
	AggregateTypeInventoryUnit = "InventoryUnit"
)

// ShipmentReadyEvent is emitted when allocation readies a shipment
type ShipmentReadyEvent struct {
	shared.BaseDomainEvent
	OrderID         uuid.UUID `json:"order_id"`
	StockLocationID uuid.UUID `json:"stock_location_id"`
	Number          string    `json:"number"`
}

// NewShipmentReadyEvent creates a new ShipmentReadyEvent
func NewShipmentReadyEvent(s *Shipment) *ShipmentReadyEvent {
	return &ShipmentReadyEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentReady, AggregateTypeShipment, s.ID),
		OrderID:         s.OrderID,
		StockLocationID: s.StockLocationID,
		Number:          s.Number,
	}
}

// ShipmentShippedEvent is emitted when a shipment is dispatched
type ShipmentShippedEvent struct {
	shared.BaseDomainEvent
	OrderID        uuid.UUID `json:"order_id"`
	Number         string    `json:"number"`
	TrackingNumber string    `json:"tracking_number"`
}

// NewShipmentShippedEvent creates a new ShipmentShippedEvent
func NewShipmentShippedEvent(s *Shipment) *ShipmentShippedEvent {
	return &ShipmentShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentShipped, AggregateTypeShipment, s.ID),
		OrderID:         s.OrderID,
		Number:          s.Number,
		TrackingNumber:  s.TrackingNumber,
	}
}

// ShipmentDeliveredEvent is emitted when a shipment is confirmed delivered
type ShipmentDeliveredEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Number  string    `json:"number"`
}

// NewShipmentDeliveredEvent creates a new ShipmentDeliveredEvent
func NewShipmentDeliveredEvent(s *Shipment) *ShipmentDeliveredEvent {
	return &ShipmentDeliveredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentDelivered, AggregateTypeShipment, s.ID),
		OrderID:         s.OrderID,
		Number:          s.Number,
	}
}

// ShipmentCanceledEvent is emitted when a not-yet-shipped shipment is
// canceled. Consumers use it to put released stock back in the ledger.
type ShipmentCanceledEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID `json:"order_id"`
	Number  string    `json:"number"`
}

// NewShipmentCanceledEvent creates a new ShipmentCanceledEvent
func NewShipmentCanceledEvent(s *Shipment) *ShipmentCanceledEvent {
	return &ShipmentCanceledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeShipmentCanceled, AggregateTypeShipment, s.ID),
		OrderID:         s.OrderID,
		Number:          s.Number,
	}
}

// InventoryUnitCreatedEvent is emitted when a unit is allocated
type InventoryUnitCreatedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID `json:"order_id"`
	VariantID  uuid.UUID `json:"variant_id"`
	State      UnitState `json:"state"`
	IsExchange bool      `json:"is_exchange"`
}

// NewInventoryUnitCreatedEvent creates a new InventoryUnitCreatedEvent
func NewInventoryUnitCreatedEvent(u *InventoryUnit) *InventoryUnitCreatedEvent {
	return &InventoryUnitCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryUnitCreated, AggregateTypeInventoryUnit, u.ID),
		OrderID:         u.OrderID,
		VariantID:       u.VariantID,
		State:           u.State,
		IsExchange:      u.IsExchange(),
	}
}

// InventoryUnitShippedEvent is emitted when a unit ships
type InventoryUnitShippedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	VariantID uuid.UUID `json:"variant_id"`
}

// NewInventoryUnitShippedEvent creates a new InventoryUnitShippedEvent
func NewInventoryUnitShippedEvent(u *InventoryUnit) *InventoryUnitShippedEvent {
	return &InventoryUnitShippedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryUnitShipped, AggregateTypeInventoryUnit, u.ID),
		OrderID:         u.OrderID,
		VariantID:       u.VariantID,
	}
}

// InventoryUnitReturnedEvent is emitted when a shipped unit comes back
type InventoryUnitReturnedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	VariantID uuid.UUID `json:"variant_id"`
}

// NewInventoryUnitReturnedEvent creates a new InventoryUnitReturnedEvent
func NewInventoryUnitReturnedEvent(u *InventoryUnit) *InventoryUnitReturnedEvent {
	return &InventoryUnitReturnedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryUnitReturned, AggregateTypeInventoryUnit, u.ID),
		OrderID:         u.OrderID,
		VariantID:       u.VariantID,
	}
}

// InventoryUnitReleasedEvent is emitted when cancellation frees a reserved
// unit back to available stock
type InventoryUnitReleasedEvent struct {
	shared.BaseDomainEvent
	OrderID   uuid.UUID `json:"order_id"`
	VariantID uuid.UUID `json:"variant_id"`
}

// NewInventoryUnitReleasedEvent creates a new InventoryUnitReleasedEvent
func NewInventoryUnitReleasedEvent(u *InventoryUnit) *InventoryUnitReleasedEvent {
	return &InventoryUnitReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInventoryUnitReleased, AggregateTypeInventoryUnit, u.ID),
		OrderID:         u.OrderID,
		VariantID:       u.VariantID,
	}
}
