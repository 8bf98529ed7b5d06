package inventory

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/oms/backend/internal/domain/inventory"
	"github.com/oms/backend/internal/domain/returns"
	"github.com/oms/backend/internal/domain/shared"
)

// ReturnReceivedHandler reacts to a physically received return item by
// moving its inventory unit to Returned and putting one unit of stock back
// at the return's location. A unit already Returned means the event was
// redelivered; the conflict is swallowed so the retry loop settles.
type ReturnReceivedHandler struct {
	logger   *zap.Logger
	unitRepo inventory.UnitRepository
	ledger   inventory.StockLedger
}

// NewReturnReceivedHandler creates a new ReturnReceivedHandler
func NewReturnReceivedHandler(logger *zap.Logger, unitRepo inventory.UnitRepository, ledger inventory.StockLedger) *ReturnReceivedHandler {
	return &ReturnReceivedHandler{
		logger:   logger,
		unitRepo: unitRepo,
		ledger:   ledger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ReturnReceivedHandler) EventTypes() []string {
	return []string{returns.EventTypeReturnItemReceived}
}

// Handle returns the received unit and restocks it
func (h *ReturnReceivedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	received, ok := event.(*returns.ReturnItemReceivedEvent)
	if !ok {
		return shared.NewFailureError("UNEXPECTED_EVENT", fmt.Sprintf("Return receipt handler received %s", event.EventType()))
	}

	unit, err := h.unitRepo.FindByID(ctx, received.InventoryUnitID)
	if err != nil {
		return err
	}

	if unit.State == inventory.UnitStateReturned {
		h.logger.Debug("unit already returned, skipping",
			zap.String("unit_id", unit.ID.String()),
			zap.String("event_id", event.EventID().String()))
		return nil
	}

	if err := unit.Return(); err != nil {
		return err
	}
	if err := h.unitRepo.SaveWithLock(ctx, unit); err != nil {
		return err
	}

	if err := h.ledger.Restock(ctx, received.StockLocationID, received.VariantID, 1); err != nil {
		return err
	}

	h.logger.Info("returned unit restocked",
		zap.String("order_id", received.OrderID.String()),
		zap.String("unit_id", unit.ID.String()),
		zap.String("variant_id", received.VariantID.String()))

	return nil
}
