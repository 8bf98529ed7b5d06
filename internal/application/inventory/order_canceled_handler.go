package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

// OrderCanceledHandler releases reserved stock when an allocated order is
// canceled. Each not-yet-shipped shipment of the order is canceled and the
// stock its on-hand units held goes back to the ledger. Already terminal
// shipments are skipped, so redelivered events change nothing.
type OrderCanceledHandler struct {
	logger       *zap.Logger
	shipmentRepo inventory.ShipmentRepository
	ledger       inventory.StockLedger
}

// NewOrderCanceledHandler creates a new OrderCanceledHandler
func NewOrderCanceledHandler(logger *zap.Logger, shipmentRepo inventory.ShipmentRepository, ledger inventory.StockLedger) *OrderCanceledHandler {
	return &OrderCanceledHandler{
		logger:       logger,
		shipmentRepo: shipmentRepo,
		ledger:       ledger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCanceledHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCanceled}
}

// Handle cancels the order's open shipments and restocks released units
func (h *OrderCanceledHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	canceled, ok := event.(*order.OrderCanceledEvent)
	if !ok {
		return shared.NewFailureError("UNEXPECTED_EVENT", fmt.Sprintf("Cancellation handler received %s", event.EventType()))
	}
	if !canceled.WasAllocated {
		return nil
	}
	orderID := canceled.AggregateID()

	shipments, err := h.shipmentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	released := 0
	for idx := range shipments {
		shipment := &shipments[idx]
		if shipment.State == inventory.ShipmentStateShipped || shipment.IsTerminal() {
			continue
		}

		// Count on-hand stock per variant before the cancel flips unit
		// states. Backordered units were never decremented in the ledger.
		restock := make(map[uuid.UUID]int)
		for _, unit := range shipment.ReleasableUnits() {
			if unit.State == inventory.UnitStateOnHand {
				restock[unit.VariantID]++
			}
			shipment.AddDomainEvent(inventory.NewInventoryUnitReleasedEvent(unit))
			released++
		}

		if _, err := shipment.Cancel(); err != nil {
			return err
		}
		if err := h.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			return err
		}

		for variantID, count := range restock {
			if err := h.ledger.Restock(ctx, shipment.StockLocationID, variantID, count); err != nil {
				return err
			}
		}
	}

	if released > 0 {
		h.logger.Info("canceled order stock released",
			zap.String("order_id", orderID.String()),
			zap.Int("units", released))
	}

	return nil
}
