package returns

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// CustomerReturn aggregates the return lines of one order into a single
// authorization. Items are received one by one; the aggregate-level status
// is derived from its lines. It never reopens the order's own state
// machine.
type CustomerReturn struct {
	shared.BaseAggregateRoot
	Number  string    `gorm:"uniqueIndex;not null"`
	OrderID uuid.UUID `gorm:"type:uuid;not null;index"`
	// StockLocationID is where received items are restocked.
	StockLocationID uuid.UUID    `gorm:"type:uuid;not null"`
	Items           []ReturnItem `gorm:"foreignKey:CustomerReturnID"`
	Memo            string
}

// TableName returns the table name for GORM
func (CustomerReturn) TableName() string {
	return "customer_returns"
}

// NewCustomerReturn creates a return authorization with no lines yet
func NewCustomerReturn(number string, orderID, stockLocationID uuid.UUID, memo string) (*CustomerReturn, error) {
	if number == "" {
		return nil, shared.NewValidationError("INVALID_RETURN_NUMBER", "Return number cannot be empty")
	}
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if stockLocationID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_LOCATION_ID", "Stock location ID cannot be empty")
	}

	r := &CustomerReturn{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		OrderID:           orderID,
		StockLocationID:   stockLocationID,
		Items:             make([]ReturnItem, 0),
		Memo:              memo,
	}

	r.AddDomainEvent(NewCustomerReturnCreatedEvent(r))

	return r, nil
}

// AddItem adds a return line for one inventory unit. The caller has
// already verified the unit is Shipped and not claimed by another open
// return; this aggregate only guards against duplicates among its own
// lines.
func (r *CustomerReturn) AddItem(inventoryUnitID, variantID uuid.UUID, exchangeVariantID *uuid.UUID) (*ReturnItem, error) {
	if r.hasReceivedItems() {
		return nil, shared.NewConflictError("INVALID_STATE", "Cannot add lines to a return already being received")
	}
	for idx := range r.Items {
		if r.Items[idx].InventoryUnitID == inventoryUnitID && r.Items[idx].ReceptionStatus != ReceptionStatusCanceled {
			return nil, shared.NewConflictError("DUPLICATE_UNIT", "Inventory unit is already on this return")
		}
	}

	item, err := newReturnItem(r.ID, inventoryUnitID, variantID, exchangeVariantID)
	if err != nil {
		return nil, err
	}

	r.Items = append(r.Items, *item)
	r.UpdatedAt = time.Now()

	if item.ExchangeRequested() {
		r.AddDomainEvent(NewExchangeRequestedEvent(r, item))
	}

	return r.GetItem(item.ID), nil
}

// ReceiveItem records physical receipt of one line. Receiving the same
// line twice is a Conflict, mirroring the unit-level double-return rule.
func (r *CustomerReturn) ReceiveItem(itemID uuid.UUID) (*ReturnItem, error) {
	item := r.GetItem(itemID)
	if item == nil {
		return nil, shared.NewNotFoundError("RETURN_ITEM_NOT_FOUND", "Return item not found")
	}

	switch item.ReceptionStatus {
	case ReceptionStatusReceived:
		return nil, shared.NewConflictError("ALREADY_RECEIVED", "Return item was already received")
	case ReceptionStatusCanceled:
		return nil, shared.NewConflictError("INVALID_STATE", "Canceled return items cannot be received")
	}

	item.markReceived()
	r.UpdatedAt = time.Now()

	r.AddDomainEvent(NewReturnItemReceivedEvent(r, item))

	return item, nil
}

// RecordExchangeUnit links an allocated replacement unit to its line
func (r *CustomerReturn) RecordExchangeUnit(itemID, exchangeUnitID uuid.UUID) error {
	item := r.GetItem(itemID)
	if item == nil {
		return shared.NewNotFoundError("RETURN_ITEM_NOT_FOUND", "Return item not found")
	}
	if !item.ExchangeRequested() {
		return shared.NewConflictError("NO_EXCHANGE_REQUESTED", "Return item did not request an exchange")
	}
	if item.ExchangeUnitID != nil {
		return shared.NewConflictError("EXCHANGE_ALREADY_ALLOCATED", "Exchange unit already allocated for this line")
	}

	item.recordExchangeUnit(exchangeUnitID)
	r.UpdatedAt = time.Now()

	return nil
}

// Cancel voids all lines not yet received. Idempotent when everything is
// already canceled; a fully or partially received return cannot be voided
// wholesale.
func (r *CustomerReturn) Cancel() (shared.Outcome, error) {
	if r.hasReceivedItems() {
		return shared.OutcomeApplied, shared.NewConflictError("INVALID_STATE", "Cannot cancel a return with received items")
	}

	pending := false
	for idx := range r.Items {
		if r.Items[idx].ReceptionStatus == ReceptionStatusAwaiting {
			pending = true
			r.Items[idx].cancel()
		}
	}
	if !pending {
		return shared.OutcomeAlreadyDone, nil
	}

	r.UpdatedAt = time.Now()

	return shared.OutcomeApplied, nil
}

// Status derives the aggregate reception status from its lines
func (r *CustomerReturn) Status() ReceptionStatus {
	if len(r.Items) == 0 {
		return ReceptionStatusAwaiting
	}

	received, canceled := 0, 0
	for idx := range r.Items {
		switch r.Items[idx].ReceptionStatus {
		case ReceptionStatusReceived:
			received++
		case ReceptionStatusCanceled:
			canceled++
		}
	}

	switch {
	case canceled == len(r.Items):
		return ReceptionStatusCanceled
	case received+canceled == len(r.Items):
		return ReceptionStatusReceived
	default:
		return ReceptionStatusAwaiting
	}
}

// IsFullyReceived reports whether every live line has come back
func (r *CustomerReturn) IsFullyReceived() bool {
	return r.Status() == ReceptionStatusReceived
}

// GetItem returns a return line by ID
func (r *CustomerReturn) GetItem(itemID uuid.UUID) *ReturnItem {
	for idx := range r.Items {
		if r.Items[idx].ID == itemID {
			return &r.Items[idx]
		}
	}
	return nil
}

// GetItemByUnit returns the live return line for an inventory unit
func (r *CustomerReturn) GetItemByUnit(unitID uuid.UUID) *ReturnItem {
	for idx := range r.Items {
		if r.Items[idx].InventoryUnitID == unitID && r.Items[idx].ReceptionStatus != ReceptionStatusCanceled {
			return &r.Items[idx]
		}
	}
	return nil
}

func (r *CustomerReturn) hasReceivedItems() bool {
	for idx := range r.Items {
		if r.Items[idx].ReceptionStatus == ReceptionStatusReceived {
			return true
		}
	}
	return false
}

func (r *CustomerReturn) String() string {
	return fmt.Sprintf("CustomerReturn(%s, order=%s, items=%d)", r.Number, r.OrderID, len(r.Items))
}
