package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
)

// ReceptionStatus tracks whether the physical item has come back
type ReceptionStatus string

const (
	ReceptionStatusAwaiting ReceptionStatus = "AWAITING"
	ReceptionStatusReceived ReceptionStatus = "RECEIVED"
	ReceptionStatusCanceled ReceptionStatus = "CANCELED"
)

// IsValid checks if the status is a valid ReceptionStatus
func (s ReceptionStatus) IsValid() bool {
	switch s {
	case ReceptionStatusAwaiting, ReceptionStatusReceived, ReceptionStatusCanceled:
		return true
	}
	return false
}

// String returns the string representation of ReceptionStatus
func (s ReceptionStatus) String() string {
	return string(s)
}

// ReturnItem is one return line referencing exactly one inventory unit.
// There is no quantity field: returning three units of a line is three
// ReturnItems, which is what per-unit tracking buys.
type ReturnItem struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	CustomerReturnID uuid.UUID       `gorm:"type:uuid;not null;index"`
	InventoryUnitID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_return_items_active_unit,where:reception_status = 'AWAITING'"`
	VariantID        uuid.UUID       `gorm:"type:uuid;not null"`
	ReceptionStatus  ReceptionStatus `gorm:"not null"`
	// ExchangeVariantID is set when the customer wants a replacement;
	// usually the returned variant, occasionally a different one.
	ExchangeVariantID *uuid.UUID `gorm:"type:uuid"`
	// ExchangeUnitID is filled once the replacement unit is allocated.
	ExchangeUnitID *uuid.UUID `gorm:"type:uuid"`
	ReceivedAt     *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// TableName returns the table name for GORM
func (ReturnItem) TableName() string {
	return "return_items"
}

func newReturnItem(customerReturnID, inventoryUnitID, variantID uuid.UUID, exchangeVariantID *uuid.UUID) (*ReturnItem, error) {
	if inventoryUnitID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_UNIT_ID", "Inventory unit ID cannot be empty")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_VARIANT_ID", "Variant ID cannot be empty")
	}
	if exchangeVariantID != nil && *exchangeVariantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_EXCHANGE_VARIANT", "Exchange variant ID cannot be empty")
	}

	now := time.Now()
	return &ReturnItem{
		ID:                uuid.New(),
		CustomerReturnID:  customerReturnID,
		InventoryUnitID:   inventoryUnitID,
		VariantID:         variantID,
		ReceptionStatus:   ReceptionStatusAwaiting,
		ExchangeVariantID: exchangeVariantID,
		CreatedAt:         now,
		UpdatedAt:         now,
	}, nil
}

// ExchangeRequested reports whether this line wants a replacement unit
func (i *ReturnItem) ExchangeRequested() bool {
	return i.ExchangeVariantID != nil
}

// markReceived records physical receipt. Non-idempotent: the aggregate
// guards repetition before calling.
func (i *ReturnItem) markReceived() {
	now := time.Now()
	i.ReceptionStatus = ReceptionStatusReceived
	i.ReceivedAt = &now
	i.UpdatedAt = now
}

func (i *ReturnItem) cancel() {
	i.ReceptionStatus = ReceptionStatusCanceled
	i.UpdatedAt = time.Now()
}

// recordExchangeUnit links the allocated replacement unit
func (i *ReturnItem) recordExchangeUnit(unitID uuid.UUID) {
	i.ExchangeUnitID = &unitID
	i.UpdatedAt = time.Now()
}
