package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
)

// AllocationHandler reacts to an order entering Payment by allocating
// inventory units and creating the shipment. The handler is idempotent:
// an order that already has shipments is skipped, so redelivered events
// never allocate twice.
type AllocationHandler struct {
	logger       *zap.Logger
	shipmentRepo inventory.ShipmentRepository
	orderRepo    order.Repository
	resolver     inventory.StockLocationResolver
	allocator    *inventory.AllocationService
}

// NewAllocationHandler creates a new AllocationHandler
func NewAllocationHandler(logger *zap.Logger, shipmentRepo inventory.ShipmentRepository, orderRepo order.Repository, resolver inventory.StockLocationResolver, allocator *inventory.AllocationService) *AllocationHandler {
	return &AllocationHandler{
		logger:       logger,
		shipmentRepo: shipmentRepo,
		orderRepo:    orderRepo,
		resolver:     resolver,
		allocator:    allocator,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *AllocationHandler) EventTypes() []string {
	return []string{order.EventTypeOrderPaymentEntered}
}

// Handle allocates stock for the order carried by the event
func (h *AllocationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	entered, ok := event.(*order.OrderPaymentEnteredEvent)
	if !ok {
		return shared.NewFailureError("UNEXPECTED_EVENT", fmt.Sprintf("Allocation handler received %s", event.EventType()))
	}
	orderID := entered.AggregateID()

	// A redelivered payment event can arrive after the order was canceled.
	// Allocating then would reserve stock no cancellation ever releases.
	o, err := h.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return err
	}
	if o.State == order.StateCanceled {
		h.logger.Info("order canceled before allocation, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("event_id", event.EventID().String()))
		return nil
	}

	existing, err := h.shipmentRepo.FindByOrderID(ctx, orderID)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		h.logger.Debug("order already allocated, skipping",
			zap.String("order_id", orderID.String()),
			zap.String("event_id", event.EventID().String()))
		return nil
	}

	lines := make([]inventory.AllocationLine, 0, len(entered.Items))
	for _, item := range entered.Items {
		if item.Digital {
			continue
		}
		lines = append(lines, inventory.AllocationLine{
			LineItemID: item.LineItemID,
			VariantID:  item.VariantID,
			SKU:        item.SKU,
			Quantity:   item.Quantity,
		})
	}
	if len(lines) == 0 {
		return nil
	}

	locationID, err := h.resolver.DefaultOrSelectedLocation(ctx, orderID)
	if err != nil {
		return err
	}

	number, err := h.shipmentRepo.NextNumber(ctx)
	if err != nil {
		return err
	}

	result, err := h.allocator.Allocate(ctx, inventory.AllocationRequest{
		OrderID:         orderID,
		ShipmentNumber:  number,
		StockLocationID: locationID,
		Lines:           lines,
	})
	if err != nil {
		h.logger.Error("stock allocation failed",
			zap.String("order_id", orderID.String()),
			zap.String("order_number", entered.Number),
			zap.Error(err))
		return err
	}

	if err := h.shipmentRepo.Save(ctx, result.Shipment); err != nil {
		return err
	}

	if result.Shortfall == inventory.ShortfallBackordered {
		h.logger.Warn("order fully backordered",
			zap.String("order_id", orderID.String()),
			zap.String("shipment_number", result.Shipment.Number),
			zap.Int("backordered", result.Backordered))
	} else {
		h.logger.Info("order allocated",
			zap.String("order_id", orderID.String()),
			zap.String("shipment_number", result.Shipment.Number),
			zap.Int("on_hand", result.OnHand),
			zap.Int("backordered", result.Backordered))
	}

	return nil
}
