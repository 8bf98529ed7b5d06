package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// ShipmentRepository provides persistence for the shipment aggregate
type ShipmentRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Shipment, error)
	FindByNumber(ctx context.Context, number string) (*Shipment, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]Shipment, error)
	FindAll(ctx context.Context, filter ShipmentFilter) (*shared.Paginated[Shipment], error)
	Save(ctx context.Context, s *Shipment) error
	SaveWithLock(ctx context.Context, s *Shipment) error
	NextNumber(ctx context.Context) (string, error)
}

// ShipmentFilter describes the queryable attributes of shipment listings
type ShipmentFilter struct {
	shared.Filter
	OrderID *uuid.UUID
	State   *ShipmentState
}

// UnitRepository provides persistence for inventory units
type UnitRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*InventoryUnit, error)
	FindByOrderID(ctx context.Context, orderID uuid.UUID) ([]InventoryUnit, error)
	FindByLineItemID(ctx context.Context, lineItemID uuid.UUID) ([]InventoryUnit, error)
	FindByShipmentID(ctx context.Context, shipmentID uuid.UUID) ([]InventoryUnit, error)
	Save(ctx context.Context, u *InventoryUnit) error
	SaveWithLock(ctx context.Context, u *InventoryUnit) error
	CountByState(ctx context.Context, state UnitState) (int64, error)
}
