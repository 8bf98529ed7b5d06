package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/shared"
)

// ShipmentService handles shipment workflow operations
type ShipmentService struct {
	shipmentRepo inventory.ShipmentRepository
	unitRepo     inventory.UnitRepository
	ledger       inventory.StockLedger
}

// NewShipmentService creates a new ShipmentService
func NewShipmentService(shipmentRepo inventory.ShipmentRepository, unitRepo inventory.UnitRepository, ledger inventory.StockLedger) *ShipmentService {
	return &ShipmentService{shipmentRepo: shipmentRepo, unitRepo: unitRepo, ledger: ledger}
}

// UnitStateSummary counts inventory units in each lifecycle state
func (s *ShipmentService) UnitStateSummary(ctx context.Context) (*UnitStateSummaryResponse, error) {
	summary := &UnitStateSummaryResponse{}
	targets := []struct {
		state inventory.UnitState
		count *int64
	}{
		{inventory.UnitStateOnHand, &summary.OnHand},
		{inventory.UnitStateBackordered, &summary.Backordered},
		{inventory.UnitStateShipped, &summary.Shipped},
		{inventory.UnitStateReturned, &summary.Returned},
	}
	for _, target := range targets {
		n, err := s.unitRepo.CountByState(ctx, target.state)
		if err != nil {
			return nil, err
		}
		*target.count = n
	}
	return summary, nil
}

// GetByID retrieves a shipment by ID
func (s *ShipmentService) GetByID(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}
	response := ToShipmentResponse(shipment)
	return &response, nil
}

// GetByNumber retrieves a shipment by its human-facing number
func (s *ShipmentService) GetByNumber(ctx context.Context, number string) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	response := ToShipmentResponse(shipment)
	return &response, nil
}

// ListByOrder retrieves all shipments of an order, oldest first
func (s *ShipmentService) ListByOrder(ctx context.Context, orderID uuid.UUID) ([]ShipmentResponse, error) {
	shipments, err := s.shipmentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	responses := make([]ShipmentResponse, 0, len(shipments))
	for idx := range shipments {
		responses = append(responses, ToShipmentResponse(&shipments[idx]))
	}
	return responses, nil
}

// List retrieves shipments with filtering and pagination
func (s *ShipmentService) List(ctx context.Context, filter ShipmentListFilter) ([]ShipmentResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := inventory.ShipmentFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  filter.OrderBy,
			OrderDir: filter.OrderDir,
		},
	}
	if filter.OrderID != "" {
		orderID, err := uuid.Parse(filter.OrderID)
		if err != nil {
			return nil, 0, shared.NewValidationError("INVALID_ORDER_ID", "Order ID must be a UUID")
		}
		domainFilter.OrderID = &orderID
	}
	if filter.State != "" {
		state := inventory.ShipmentState(filter.State)
		if !state.IsValid() {
			return nil, 0, shared.NewValidationError("INVALID_STATE", "Unknown shipment state filter")
		}
		domainFilter.State = &state
	}

	page, err := s.shipmentRepo.FindAll(ctx, domainFilter)
	if err != nil {
		return nil, 0, err
	}

	responses := make([]ShipmentResponse, 0, len(page.Items))
	for idx := range page.Items {
		responses = append(responses, ToShipmentResponse(&page.Items[idx]))
	}
	return responses, page.Total, nil
}

// MarkReady readies a pending shipment that holds on-hand stock
func (s *ShipmentService) MarkReady(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	outcome, err := shipment.MarkReady()
	if err != nil {
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if err := s.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			return nil, err
		}
	}

	response := ToShipmentResponse(shipment)
	return &response, nil
}

// Ship dispatches a ready shipment, moving every owned unit to Shipped.
// Repeating the call on a shipped shipment is a no-op.
func (s *ShipmentService) Ship(ctx context.Context, shipmentID uuid.UUID, req ShipShipmentRequest) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	outcome, err := shipment.Ship(req.TrackingNumber)
	if err != nil {
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if err := s.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			return nil, err
		}
	}

	response := ToShipmentResponse(shipment)
	return &response, nil
}

// Deliver records carrier delivery of a shipped shipment
func (s *ShipmentService) Deliver(ctx context.Context, shipmentID uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	outcome, err := shipment.Deliver()
	if err != nil {
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if err := s.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			return nil, err
		}
	}

	response := ToShipmentResponse(shipment)
	return &response, nil
}

// FillBackorder converts a backordered unit to OnHand when stock arrives,
// readying its pending shipment in the same write. Repeating the call for
// an already filled unit is a no-op.
func (s *ShipmentService) FillBackorder(ctx context.Context, shipmentID, unitID uuid.UUID) (*ShipmentResponse, error) {
	shipment, err := s.shipmentRepo.FindByID(ctx, shipmentID)
	if err != nil {
		return nil, err
	}

	unit := shipment.GetUnit(unitID)
	if unit == nil {
		return nil, shared.NewNotFoundError("UNIT_NOT_FOUND", "Inventory unit does not belong to this shipment")
	}

	// The arrived stock must come off the ledger before the unit flips to
	// OnHand, or the same physical unit stays sellable to other orders.
	// Already filled units take the no-op path below and reserve nothing.
	reserve := unit.State == inventory.UnitStateBackordered
	if reserve {
		res, err := s.ledger.Reserve(ctx, shipment.StockLocationID, unit.VariantID, 1)
		if err != nil {
			return nil, err
		}
		if res.Reserved < 1 {
			return nil, shared.NewConflictError("STOCK_UNAVAILABLE",
				"No on-hand stock at the shipment location to fill this backorder")
		}
	}

	outcome, err := unit.FillBackorder()
	if err != nil {
		if reserve {
			_ = s.ledger.Restock(ctx, shipment.StockLocationID, unit.VariantID, 1)
		}
		return nil, err
	}

	if outcome == shared.OutcomeApplied {
		if shipment.State == inventory.ShipmentStatePending {
			if _, err := shipment.MarkReady(); err != nil {
				_ = s.ledger.Restock(ctx, shipment.StockLocationID, unit.VariantID, 1)
				return nil, err
			}
		}

		if err := s.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			_ = s.ledger.Restock(ctx, shipment.StockLocationID, unit.VariantID, 1)
			return nil, err
		}
	}

	response := ToShipmentResponse(shipment)
	return &response, nil
}
