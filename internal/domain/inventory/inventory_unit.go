package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// UnitState represents the lifecycle state of an inventory unit
type UnitState string

const (
	UnitStateOnHand      UnitState = "ON_HAND"
	UnitStateBackordered UnitState = "BACKORDERED"
	UnitStateShipped     UnitState = "SHIPPED"
	UnitStateReturned    UnitState = "RETURNED"
)

// IsValid checks if the state is a valid UnitState
func (s UnitState) IsValid() bool {
	switch s {
	case UnitStateOnHand, UnitStateBackordered, UnitStateShipped, UnitStateReturned:
		return true
	}
	return false
}

// String returns the string representation of UnitState
func (s UnitState) String() string {
	return string(s)
}

// InventoryUnit is the smallest trackable allocation of stock: exactly one
// physical unit of one variant, committed to one order line. A line of
// quantity N is backed by N units, which is what makes per-unit return and
// exchange tracking possible without quantity arithmetic.
//
// OnHand and Backordered convert in either direction; Shipped is reachable
// only from OnHand; Returned only from Shipped, exactly once.
type InventoryUnit struct {
	shared.BaseAggregateRoot
	OrderID    uuid.UUID  `gorm:"type:uuid;not null;index"`
	LineItemID uuid.UUID  `gorm:"type:uuid;not null;index"`
	ShipmentID *uuid.UUID `gorm:"type:uuid;index"`
	VariantID  uuid.UUID  `gorm:"type:uuid;not null"`
	SKU        string     `gorm:"not null"`
	State      UnitState  `gorm:"not null"`
	// OriginalReturnItemID links an exchange unit back to the return line
	// that spawned it. Nil for ordinary allocations.
	OriginalReturnItemID *uuid.UUID `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (InventoryUnit) TableName() string {
	return "inventory_units"
}

// NewInventoryUnit creates a unit in the OnHand or Backordered state
func NewInventoryUnit(orderID, lineItemID, variantID uuid.UUID, sku string, state UnitState) (*InventoryUnit, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if lineItemID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LINE_ITEM_ID", "Line item ID cannot be empty")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_VARIANT_ID", "Variant ID cannot be empty")
	}
	if state != UnitStateOnHand && state != UnitStateBackordered {
		return nil, shared.NewValidationError("INVALID_UNIT_STATE", "New units must start OnHand or Backordered")
	}

	u := &InventoryUnit{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		LineItemID:        lineItemID,
		VariantID:         variantID,
		SKU:               sku,
		State:             state,
	}

	u.AddDomainEvent(NewInventoryUnitCreatedEvent(u))

	return u, nil
}

// NewExchangeUnit creates the replacement unit for a return with exchange
// requested. It starts exactly as a freshly allocated unit would and carries
// a back-reference to the return line that spawned it.
func NewExchangeUnit(orderID, lineItemID, variantID uuid.UUID, sku string, state UnitState, returnItemID uuid.UUID) (*InventoryUnit, error) {
	if returnItemID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_RETURN_ITEM_ID", "Return item ID cannot be empty")
	}

	u, err := NewInventoryUnit(orderID, lineItemID, variantID, sku, state)
	if err != nil {
		return nil, err
	}
	u.OriginalReturnItemID = &returnItemID

	return u, nil
}

// AttachToShipment places the unit in a shipment. Location is carried by
// the shipment, never by the unit.
func (u *InventoryUnit) AttachToShipment(shipmentID uuid.UUID) error {
	if shipmentID == uuid.Nil {
		return shared.NewValidationError("INVALID_SHIPMENT_ID", "Shipment ID cannot be empty")
	}
	if u.State == UnitStateShipped || u.State == UnitStateReturned {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot reassign a %s unit", u.State))
	}

	u.ShipmentID = &shipmentID
	u.UpdatedAt = time.Now()

	return nil
}

// Backorder moves an OnHand unit to Backordered. Idempotent on repeat.
func (u *InventoryUnit) Backorder() (shared.Outcome, error) {
	if u.State == UnitStateBackordered {
		return shared.OutcomeAlreadyDone, nil
	}
	if u.State != UnitStateOnHand {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot backorder a %s unit", u.State))
	}

	u.State = UnitStateBackordered
	u.UpdatedAt = time.Now()

	return shared.OutcomeApplied, nil
}

// FillBackorder moves a Backordered unit to OnHand. Calling it on a unit
// already OnHand is an idempotent no-op, tolerating redelivered fill events.
func (u *InventoryUnit) FillBackorder() (shared.Outcome, error) {
	if u.State == UnitStateOnHand {
		return shared.OutcomeAlreadyDone, nil
	}
	if u.State != UnitStateBackordered {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot fill a %s unit", u.State))
	}

	u.State = UnitStateOnHand
	u.UpdatedAt = time.Now()

	return shared.OutcomeApplied, nil
}

// Ship transitions the unit OnHand -> Shipped. Idempotent when already
// Shipped; a Backordered unit cannot ship.
func (u *InventoryUnit) Ship() (shared.Outcome, error) {
	if u.State == UnitStateShipped {
		return shared.OutcomeAlreadyDone, nil
	}
	if u.State != UnitStateOnHand {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot ship a %s unit", u.State))
	}

	u.State = UnitStateShipped
	u.UpdatedAt = time.Now()

	u.AddDomainEvent(NewInventoryUnitShippedEvent(u))

	return shared.OutcomeApplied, nil
}

// CanShip reports whether Ship would succeed without mutating the unit
func (u *InventoryUnit) CanShip() bool {
	return u.State == UnitStateOnHand || u.State == UnitStateShipped
}

// Return transitions the unit Shipped -> Returned. This is deliberately not
// idempotent: a second return of the same unit is a detectable Conflict, not
// a no-op.
func (u *InventoryUnit) Return() error {
	if u.State == UnitStateReturned {
		return shared.NewConflictError("ALREADY_RETURNED", "Inventory unit was already returned")
	}
	if u.State != UnitStateShipped {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot return a %s unit", u.State))
	}

	u.State = UnitStateReturned
	u.UpdatedAt = time.Now()

	u.AddDomainEvent(NewInventoryUnitReturnedEvent(u))

	return nil
}

// IsReleasable reports whether canceling the order should put this unit's
// stock back: reserved but not yet physically dispatched.
func (u *InventoryUnit) IsReleasable() bool {
	return u.State == UnitStateOnHand || u.State == UnitStateBackordered
}

// IsExchange reports whether this unit was created as the replacement side
// of a return.
func (u *InventoryUnit) IsExchange() bool {
	return u.OriginalReturnItemID != nil
}
