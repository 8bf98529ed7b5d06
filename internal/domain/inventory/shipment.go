package inventory

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// ShipmentState represents the dispatch state of a shipment
type ShipmentState string

const (
	ShipmentStatePending   ShipmentState = "PENDING"
	ShipmentStateReady     ShipmentState = "READY"
	ShipmentStateShipped   ShipmentState = "SHIPPED"
	ShipmentStateDelivered ShipmentState = "DELIVERED"
	ShipmentStateCanceled  ShipmentState = "CANCELED"
)

// IsValid checks if the state is a valid ShipmentState
func (s ShipmentState) IsValid() bool {
	switch s {
	case ShipmentStatePending, ShipmentStateReady, ShipmentStateShipped, ShipmentStateDelivered, ShipmentStateCanceled:
		return true
	}
	return false
}

// String returns the string representation of ShipmentState
func (s ShipmentState) String() string {
	return string(s)
}

// CanTransitionTo checks if the state can transition to the target state.
// Canceled is reachable from Pending and Ready only; a package already in
// transit cannot be recalled.
func (s ShipmentState) CanTransitionTo(target ShipmentState) bool {
	switch s {
	case ShipmentStatePending:
		return target == ShipmentStateReady || target == ShipmentStateCanceled
	case ShipmentStateReady:
		return target == ShipmentStateShipped || target == ShipmentStateCanceled
	case ShipmentStateShipped:
		return target == ShipmentStateDelivered
	}
	return false
}

// Shipment is a physical dispatch grouping of inventory units from one
// stock location. All units under a shipment share its StockLocationID by
// construction; a unit never stores a location of its own.
type Shipment struct {
	shared.BaseAggregateRoot
	OrderID         uuid.UUID     `gorm:"type:uuid;not null;index"`
	Number          string        `gorm:"uniqueIndex;not null"`
	StockLocationID uuid.UUID     `gorm:"type:uuid;not null"`
	State           ShipmentState `gorm:"not null"`
	TrackingNumber  string
	Units           []InventoryUnit `gorm:"foreignKey:ShipmentID"`
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
}

// TableName returns the table name for GORM
func (Shipment) TableName() string {
	return "shipments"
}

// NewShipment creates a new shipment in the Pending state
func NewShipment(orderID uuid.UUID, number string, stockLocationID uuid.UUID) (*Shipment, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if number == "" {
		return nil, shared.NewValidationError("INVALID_SHIPMENT_NUMBER", "Shipment number cannot be empty")
	}
	if stockLocationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LOCATION_ID", "Stock location ID cannot be empty")
	}

	return &Shipment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		OrderID:           orderID,
		Number:            number,
		StockLocationID:   stockLocationID,
		State:             ShipmentStatePending,
		Units:             make([]InventoryUnit, 0),
	}, nil
}

// AddUnit attaches an inventory unit to the shipment. Only allowed before
// the shipment leaves Ready.
func (s *Shipment) AddUnit(u *InventoryUnit) error {
	if s.State != ShipmentStatePending && s.State != ShipmentStateReady {
		return shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot add units to a %s shipment", s.State))
	}
	if err := u.AttachToShipment(s.ID); err != nil {
		return err
	}

	s.Units = append(s.Units, *u)
	s.UpdatedAt = time.Now()

	return nil
}

// MarkReady transitions Pending -> Ready once allocation has produced at
// least one OnHand unit. Idempotent when already Ready.
func (s *Shipment) MarkReady() (shared.Outcome, error) {
	if s.State == ShipmentStateReady {
		return shared.OutcomeAlreadyDone, nil
	}
	if !s.State.CanTransitionTo(ShipmentStateReady) {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot ready a %s shipment", s.State))
	}
	if s.OnHandCount() == 0 {
		return shared.OutcomeApplied, shared.NewConflictError("NO_STOCK_ON_HAND", "A shipment with no on-hand units cannot become ready")
	}

	s.State = ShipmentStateReady
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewShipmentReadyEvent(s))

	return shared.OutcomeApplied, nil
}

// Ship transitions the shipment to Shipped and every owned unit OnHand ->
// Shipped as one logical operation. If any unit cannot make its inner
// transition, nothing moves. Repeating Ship on an already-shipped shipment
// is an idempotent success so redelivered triggers stay harmless.
func (s *Shipment) Ship(trackingNumber string) (shared.Outcome, error) {
	if s.State == ShipmentStateShipped || s.State == ShipmentStateDelivered {
		return shared.OutcomeAlreadyDone, nil
	}
	if trackingNumber == "" {
		return shared.OutcomeApplied, shared.NewValidationError("MISSING_TRACKING_NUMBER", "Tracking number is required to ship")
	}
	if !s.State.CanTransitionTo(ShipmentStateShipped) {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot ship a %s shipment", s.State))
	}

	// Validate every unit before mutating any, so a failure leaves the
	// shipment and all its units untouched.
	for idx := range s.Units {
		if !s.Units[idx].CanShip() {
			return shared.OutcomeApplied, shared.NewConflictError("UNIT_NOT_SHIPPABLE",
				fmt.Sprintf("Unit %s is %s and cannot ship", s.Units[idx].ID, s.Units[idx].State))
		}
	}

	for idx := range s.Units {
		if _, err := s.Units[idx].Ship(); err != nil {
			return shared.OutcomeApplied, err
		}
		for _, evt := range s.Units[idx].GetDomainEvents() {
			s.AddDomainEvent(evt)
		}
		s.Units[idx].ClearDomainEvents()
	}

	now := time.Now()
	s.State = ShipmentStateShipped
	s.TrackingNumber = trackingNumber
	s.ShippedAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewShipmentShippedEvent(s))

	return shared.OutcomeApplied, nil
}

// Deliver transitions Shipped -> Delivered. Idempotent when already
// Delivered.
func (s *Shipment) Deliver() (shared.Outcome, error) {
	if s.State == ShipmentStateDelivered {
		return shared.OutcomeAlreadyDone, nil
	}
	if !s.State.CanTransitionTo(ShipmentStateDelivered) {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot deliver a %s shipment", s.State))
	}

	now := time.Now()
	s.State = ShipmentStateDelivered
	s.DeliveredAt = &now
	s.UpdatedAt = now

	s.AddDomainEvent(NewShipmentDeliveredEvent(s))

	return shared.OutcomeApplied, nil
}

// Cancel transitions a not-yet-shipped shipment to Canceled. Idempotent
// when already Canceled; a Shipped or Delivered shipment is a Conflict.
func (s *Shipment) Cancel() (shared.Outcome, error) {
	if s.State == ShipmentStateCanceled {
		return shared.OutcomeAlreadyDone, nil
	}
	if !s.State.CanTransitionTo(ShipmentStateCanceled) {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", fmt.Sprintf("Cannot cancel a %s shipment", s.State))
	}

	s.State = ShipmentStateCanceled
	s.UpdatedAt = time.Now()

	s.AddDomainEvent(NewShipmentCanceledEvent(s))

	return shared.OutcomeApplied, nil
}

// OnHandCount returns how many owned units are currently OnHand
func (s *Shipment) OnHandCount() int {
	count := 0
	for idx := range s.Units {
		if s.Units[idx].State == UnitStateOnHand {
			count++
		}
	}
	return count
}

// BackorderedCount returns how many owned units are currently Backordered
func (s *Shipment) BackorderedCount() int {
	count := 0
	for idx := range s.Units {
		if s.Units[idx].State == UnitStateBackordered {
			count++
		}
	}
	return count
}

// ReleasableUnits returns the units whose stock goes back on cancellation
func (s *Shipment) ReleasableUnits() []*InventoryUnit {
	units := make([]*InventoryUnit, 0, len(s.Units))
	for idx := range s.Units {
		if s.Units[idx].IsReleasable() {
			units = append(units, &s.Units[idx])
		}
	}
	return units
}

// GetUnit returns an owned unit by ID
func (s *Shipment) GetUnit(unitID uuid.UUID) *InventoryUnit {
	for idx := range s.Units {
		if s.Units[idx].ID == unitID {
			return &s.Units[idx]
		}
	}
	return nil
}

// IsTerminal reports whether the shipment permits no further transitions
func (s *Shipment) IsTerminal() bool {
	return s.State == ShipmentStateDelivered || s.State == ShipmentStateCanceled
}
