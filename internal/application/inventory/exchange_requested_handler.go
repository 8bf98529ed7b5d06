package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// ExchangeRequestedHandler allocates the replacement unit for a return
// line that asked for an exchange and links it back to the line. A line
// that already carries its exchange unit is skipped, so redelivered events
// never allocate a second replacement.
type ExchangeRequestedHandler struct {
	logger     *zap.Logger
	returnRepo returns.Repository
	unitRepo   inventory.UnitRepository
	orderRepo  order.Repository
	prices     order.PriceResolver
	allocator  *inventory.AllocationService
}

// NewExchangeRequestedHandler creates a new ExchangeRequestedHandler
func NewExchangeRequestedHandler(logger *zap.Logger, returnRepo returns.Repository, unitRepo inventory.UnitRepository, orderRepo order.Repository, prices order.PriceResolver, allocator *inventory.AllocationService) *ExchangeRequestedHandler {
	return &ExchangeRequestedHandler{
		logger:     logger,
		returnRepo: returnRepo,
		unitRepo:   unitRepo,
		orderRepo:  orderRepo,
		prices:     prices,
		allocator:  allocator,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ExchangeRequestedHandler) EventTypes() []string {
	return []string{returns.EventTypeExchangeRequested}
}

// Handle allocates and records the replacement unit
func (h *ExchangeRequestedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	requested, ok := event.(*returns.ExchangeRequestedEvent)
	if !ok {
		return shared.NewFailureError("UNEXPECTED_EVENT", fmt.Sprintf("Exchange handler received %s", event.EventType()))
	}

	ret, err := h.returnRepo.FindByID(ctx, requested.AggregateID())
	if err != nil {
		return err
	}
	item := ret.GetItem(requested.ReturnItemID)
	if item == nil {
		return shared.NewNotFoundError("RETURN_ITEM_NOT_FOUND", "Return item not found")
	}
	if item.ExchangeUnitID != nil {
		h.logger.Debug("exchange already allocated, skipping",
			zap.String("return_item_id", item.ID.String()),
			zap.String("event_id", event.EventID().String()))
		return nil
	}

	original, err := h.unitRepo.FindByID(ctx, requested.InventoryUnitID)
	if err != nil {
		return err
	}

	// A same-variant exchange reuses the returned unit's SKU snapshot;
	// a different variant goes back to the catalog for its details.
	sku := original.SKU
	if requested.ExchangeVariantID != original.VariantID {
		o, err := h.orderRepo.FindByID(ctx, requested.OrderID)
		if err != nil {
			return err
		}
		_, info, err := h.prices.Resolve(ctx, requested.ExchangeVariantID, o.CurrencyCode)
		if err != nil {
			return err
		}
		sku = info.SKU
	}

	unit, err := h.allocator.AllocateExchange(ctx, requested.StockLocationID, requested.OrderID, original.LineItemID, requested.ExchangeVariantID, sku, requested.ReturnItemID)
	if err != nil {
		h.logger.Error("exchange allocation failed",
			zap.String("return_item_id", item.ID.String()),
			zap.String("variant_id", requested.ExchangeVariantID.String()),
			zap.Error(err))
		return err
	}

	if err := h.unitRepo.Save(ctx, unit); err != nil {
		return err
	}

	if err := ret.RecordExchangeUnit(item.ID, unit.ID); err != nil {
		return err
	}
	if err := h.returnRepo.SaveWithLock(ctx, ret); err != nil {
		return err
	}

	h.logger.Info("exchange unit allocated",
		zap.String("return_item_id", item.ID.String()),
		zap.String("unit_id", unit.ID.String()),
		zap.String("unit_state", string(unit.State)))

	return nil
}
