package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// LineItem is a child entity of Order capturing a product variant at the
// moment it was added: name, SKU and unit price are snapshots, immune to
// later catalog edits. PriceCents never changes after creation.
type LineItem struct {
	ID           uuid.UUID            `gorm:"type:uuid;primaryKey"`
	OrderID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	VariantID    uuid.UUID            `gorm:"type:uuid;not null"`
	CapturedName string               `gorm:"not null"`
	CapturedSKU  string               `gorm:"not null"`
	Digital      bool                 `gorm:"not null;default:false"`
	Quantity     int                  `gorm:"not null"`
	PriceCents   int64                `gorm:"not null"`
	CurrencyCode valueobject.Currency `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (LineItem) TableName() string {
	return "order_line_items"
}

// NewLineItem creates a new line item with a captured price snapshot
func NewLineItem(orderID, variantID uuid.UUID, name, sku string, digital bool, quantity int, unitPrice valueobject.Money) (*LineItem, error) {
	if orderID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_ORDER_ID", "Order ID cannot be empty")
	}
	if variantID == uuid.Nil {
		return nil, shared.NewValidationError("INVALID_VARIANT_ID", "Variant ID cannot be empty")
	}
	if name == "" {
		return nil, shared.NewValidationError("INVALID_ITEM_NAME", "Item name cannot be empty")
	}
	if sku == "" {
		return nil, shared.NewValidationError("INVALID_ITEM_SKU", "Item SKU cannot be empty")
	}
	if quantity < 1 {
		return nil, shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	if unitPrice.IsNegative() {
		return nil, shared.NewValidationError("INVALID_PRICE", "Unit price cannot be negative")
	}

	now := time.Now()
	return &LineItem{
		ID:           uuid.New(),
		OrderID:      orderID,
		VariantID:    variantID,
		CapturedName: name,
		CapturedSKU:  sku,
		Digital:      digital,
		Quantity:     quantity,
		PriceCents:   unitPrice.Cents(),
		CurrencyCode: unitPrice.Currency(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}, nil
}

// addQuantity merges additional quantity into the line, keeping the
// originally captured price.
func (i *LineItem) addQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	i.Quantity += quantity
	i.UpdatedAt = time.Now()
	return nil
}

// setQuantity replaces the line quantity
func (i *LineItem) setQuantity(quantity int) error {
	if quantity < 1 {
		return shared.NewValidationError("INVALID_QUANTITY", "Quantity must be at least 1")
	}
	i.Quantity = quantity
	i.UpdatedAt = time.Now()
	return nil
}

// SubtotalCents returns quantity times the captured unit price
func (i *LineItem) SubtotalCents() int64 {
	return i.PriceCents * int64(i.Quantity)
}

// Subtotal returns the line subtotal as Money
func (i *LineItem) Subtotal() valueobject.Money {
	m, _ := valueobject.NewMoney(i.SubtotalCents(), i.CurrencyCode)
	return m
}
