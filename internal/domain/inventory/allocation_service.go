package inventory

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// ShortfallReason classifies why an allocation produced no on-hand stock
type ShortfallReason string

const (
	// ShortfallNone means at least one unit was allocated on hand.
	ShortfallNone ShortfallReason = ""
	// ShortfallBackordered means every unit was promised as a backorder.
	ShortfallBackordered ShortfallReason = "BACKORDERED"
	// ShortfallUnavailable means the ledger could neither reserve nor
	// backorder the requested stock.
	ShortfallUnavailable ShortfallReason = "UNAVAILABLE"
)

// AllocationLine is one physical order line to allocate units for
type AllocationLine struct {
	LineItemID uuid.UUID
	VariantID  uuid.UUID
	SKU        string
	Quantity   int
}

// AllocationRequest describes everything the allocator needs: the order,
// the shipment identity to create, the dispatch location, and the physical
// lines. Digital lines never reach allocation.
type AllocationRequest struct {
	OrderID         uuid.UUID
	ShipmentNumber  string
	StockLocationID uuid.UUID
	Lines           []AllocationLine
}

// AllocationResult reports what allocation produced. When Shortfall is
// ShortfallBackordered the shipment exists with all units backordered and
// stays Pending until backorders fill.
type AllocationResult struct {
	Shipment    *Shipment
	OnHand      int
	Backordered int
	Shortfall   ShortfallReason
}

// AllocationService creates the inventory units and shipment for an order
// entering payment. One unit is created per physical unit of line quantity,
// never one unit per line, so returns and exchanges can address units
// individually.
type AllocationService struct {
	ledger StockLedger
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(ledger StockLedger) *AllocationService {
	return &AllocationService{ledger: ledger}
}

// Allocate reserves stock for every line and builds the shipment. The
// partial-success policy: a mix of on-hand and backordered units readies
// the shipment; all-backordered leaves it Pending and reports the
// shortfall; any quantity the ledger can neither reserve nor backorder
// aborts the whole allocation and puts reserved stock back.
func (s *AllocationService) Allocate(ctx context.Context, req AllocationRequest) (*AllocationResult, error) {
	if len(req.Lines) == 0 {
		return nil, shared.NewValidationError("EMPTY_ALLOCATION", "Allocation requires at least one physical line")
	}

	shipment, err := NewShipment(req.OrderID, req.ShipmentNumber, req.StockLocationID)
	if err != nil {
		return nil, err
	}

	type reserved struct {
		variantID uuid.UUID
		count     int
	}
	var undo []reserved

	rollback := func() {
		for _, r := range undo {
			// Restock failures here leave the ledger short, which a
			// reconciliation pass picks up; the allocation error wins.
			_ = s.ledger.Restock(ctx, req.StockLocationID, r.variantID, r.count)
		}
	}

	result := &AllocationResult{Shipment: shipment}

	for _, line := range req.Lines {
		if line.Quantity < 1 {
			rollback()
			return nil, shared.NewValidationError("INVALID_QUANTITY", "Allocation line quantity must be at least 1")
		}

		res, err := s.ledger.Reserve(ctx, req.StockLocationID, line.VariantID, line.Quantity)
		if err != nil {
			rollback()
			return nil, err
		}
		if res.Reserved > 0 {
			undo = append(undo, reserved{line.VariantID, res.Reserved})
		}

		short := line.Quantity - res.Reserved
		if short > 0 && !res.Backorderable {
			rollback()
			return nil, shared.NewConflictError("STOCK_UNAVAILABLE",
				"Requested stock is neither on hand nor backorderable for variant "+line.VariantID.String())
		}

		for i := 0; i < line.Quantity; i++ {
			state := UnitStateOnHand
			if i >= res.Reserved {
				state = UnitStateBackordered
			}
			unit, err := NewInventoryUnit(req.OrderID, line.LineItemID, line.VariantID, line.SKU, state)
			if err != nil {
				rollback()
				return nil, err
			}
			if err := shipment.AddUnit(unit); err != nil {
				rollback()
				return nil, err
			}
			if state == UnitStateOnHand {
				result.OnHand++
			} else {
				result.Backordered++
			}
		}
	}

	if result.OnHand > 0 {
		if _, err := shipment.MarkReady(); err != nil {
			rollback()
			return nil, err
		}
	} else {
		result.Shortfall = ShortfallBackordered
	}

	return result, nil
}

// AllocateExchange creates the replacement unit for a return line, reusing
// the ordinary reserve-or-backorder decision. The unit is not attached to a
// shipment here; it re-enters the shipment machinery when dispatched.
func (s *AllocationService) AllocateExchange(ctx context.Context, locationID uuid.UUID, orderID, lineItemID, variantID uuid.UUID, sku string, returnItemID uuid.UUID) (*InventoryUnit, error) {
	res, err := s.ledger.Reserve(ctx, locationID, variantID, 1)
	if err != nil {
		return nil, err
	}

	state := UnitStateOnHand
	if res.Reserved == 0 {
		if !res.Backorderable {
			return nil, shared.NewConflictError("STOCK_UNAVAILABLE",
				"Exchange stock is neither on hand nor backorderable for variant "+variantID.String())
		}
		state = UnitStateBackordered
	}

	return NewExchangeUnit(orderID, lineItemID, variantID, sku, state, returnItemID)
}
