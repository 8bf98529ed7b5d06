package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

// OrderCompletedHandler finalizes the shipments of a completed order:
// pending shipments holding on-hand stock become ready for dispatch.
// Shipments still waiting on backorders stay pending until their fills
// arrive.
type OrderCompletedHandler struct {
	logger       *zap.Logger
	shipmentRepo inventory.ShipmentRepository
}

// NewOrderCompletedHandler creates a new OrderCompletedHandler
func NewOrderCompletedHandler(logger *zap.Logger, shipmentRepo inventory.ShipmentRepository) *OrderCompletedHandler {
	return &OrderCompletedHandler{
		logger:       logger,
		shipmentRepo: shipmentRepo,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *OrderCompletedHandler) EventTypes() []string {
	return []string{order.EventTypeOrderCompleted}
}

// Handle readies the completed order's dispatchable shipments
func (h *OrderCompletedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	completed, ok := event.(*order.OrderCompletedEvent)
	if !ok {
		return shared.NewFailureError("UNEXPECTED_EVENT", fmt.Sprintf("Completion handler received %s", event.EventType()))
	}
	orderID := completed.AggregateID()

	shipments, err := h.shipmentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}

	for idx := range shipments {
		shipment := &shipments[idx]
		if shipment.State != inventory.ShipmentStatePending || shipment.OnHandCount() == 0 {
			continue
		}

		outcome, err := shipment.MarkReady()
		if err != nil {
			return err
		}
		if outcome != shared.OutcomeApplied {
			continue
		}
		if err := h.shipmentRepo.SaveWithLock(ctx, shipment); err != nil {
			return err
		}

		h.logger.Info("shipment readied on order completion",
			zap.String("order_id", orderID.String()),
			zap.String("shipment_number", shipment.Number))
	}

	return nil
}
