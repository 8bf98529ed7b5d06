package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/oms/backend/internal/domain/order"
	"github.com/oms/backend/internal/domain/shared"
	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// ProductVariant is the sellable catalog entry orders reference. The catalog
// is maintained outside the workflow; this table is its local projection.
type ProductVariant struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	SKU       string    `gorm:"uniqueIndex;not null"`
	Digital   bool      `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (ProductVariant) TableName() string {
	return "product_variants"
}

// VariantPrice is the minor-unit price of a variant in one currency
type VariantPrice struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	VariantID    uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_variant_prices_variant_currency"`
	CurrencyCode string    `gorm:"size:3;not null;uniqueIndex:idx_variant_prices_variant_currency"`
	PriceCents   int64     `gorm:"not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName returns the table name for GORM
func (VariantPrice) TableName() string {
	return "variant_prices"
}

// GormPriceResolver implements order.PriceResolver against the local catalog
// projection
type GormPriceResolver struct {
	db *gorm.DB
}

// NewGormPriceResolver creates a new GormPriceResolver
func NewGormPriceResolver(db *gorm.DB) *GormPriceResolver {
	return &GormPriceResolver{db: db}
}

// Resolve looks up the variant and its price for the requested currency
func (r *GormPriceResolver) Resolve(ctx context.Context, variantID uuid.UUID, currency valueobject.Currency) (valueobject.Money, order.VariantInfo, error) {
	var variant ProductVariant
	if err := r.db.WithContext(ctx).First(&variant, "id = ?", variantID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return valueobject.Money{}, order.VariantInfo{},
				shared.NewValidationError("UNKNOWN_VARIANT", "Variant does not exist")
		}
		return valueobject.Money{}, order.VariantInfo{}, err
	}

	var price VariantPrice
	err := r.db.WithContext(ctx).
		Where("variant_id = ? AND currency_code = ?", variantID, string(currency)).
		First(&price).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return valueobject.Money{}, order.VariantInfo{},
				shared.NewValidationError("VARIANT_NOT_PRICED", "Variant has no price in the order currency")
		}
		return valueobject.Money{}, order.VariantInfo{}, err
	}

	money, err := valueobject.NewMoney(price.PriceCents, currency)
	if err != nil {
		return valueobject.Money{}, order.VariantInfo{}, err
	}

	info := order.VariantInfo{
		VariantID: variant.ID,
		Name:      variant.Name,
		SKU:       variant.SKU,
		Digital:   variant.Digital,
	}
	return money, info, nil
}

// Ensure GormPriceResolver implements order.PriceResolver
var _ order.PriceResolver = (*GormPriceResolver)(nil)

// PaymentCapture is a completed capture recorded by the external payment
// processor. The workflow only sums them.
type PaymentCapture struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey"`
	OrderID     uuid.UUID `gorm:"type:uuid;not null;index"`
	AmountCents int64     `gorm:"not null"`
	State       string    `gorm:"size:20;not null"`
	CreatedAt   time.Time
}

// TableName returns the table name for GORM
func (PaymentCapture) TableName() string {
	return "payment_captures"
}

// GormPaymentLedger implements order.PaymentSummarizer against the
// payment_captures table
type GormPaymentLedger struct {
	db *gorm.DB
}

// NewGormPaymentLedger creates a new GormPaymentLedger
func NewGormPaymentLedger(db *gorm.DB) *GormPaymentLedger {
	return &GormPaymentLedger{db: db}
}

// CapturedTotal sums the completed captures for the order
func (l *GormPaymentLedger) CapturedTotal(ctx context.Context, orderID uuid.UUID) (int64, error) {
	var total int64
	err := l.db.WithContext(ctx).
		Model(&PaymentCapture{}).
		Where("order_id = ? AND state = ?", orderID, "COMPLETED").
		Select("COALESCE(SUM(amount_cents), 0)").
		Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Ensure GormPaymentLedger implements order.PaymentSummarizer
var _ order.PaymentSummarizer = (*GormPaymentLedger)(nil)

// ShippingMethod is a configured delivery option with a flat cost
type ShippingMethod struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name      string    `gorm:"not null"`
	CostCents int64     `gorm:"not null"`
	Active    bool      `gorm:"not null;default:true"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName returns the table name for GORM
func (ShippingMethod) TableName() string {
	return "shipping_methods"
}

// GormShippingRateProvider implements order.ShippingRateProvider with
// flat-rate methods from the shipping_methods table
type GormShippingRateProvider struct {
	db *gorm.DB
}

// NewGormShippingRateProvider creates a new GormShippingRateProvider
func NewGormShippingRateProvider(db *gorm.DB) *GormShippingRateProvider {
	return &GormShippingRateProvider{db: db}
}

// RatesFor returns all active shipping methods, cheapest first
func (p *GormShippingRateProvider) RatesFor(ctx context.Context, orderID uuid.UUID) ([]order.ShippingRate, error) {
	var methods []ShippingMethod
	err := p.db.WithContext(ctx).
		Where("active = ?", true).
		Order("cost_cents ASC").
		Find(&methods).Error
	if err != nil {
		return nil, err
	}

	rates := make([]order.ShippingRate, 0, len(methods))
	for _, m := range methods {
		rates = append(rates, order.ShippingRate{
			MethodID:  m.ID,
			Name:      m.Name,
			CostCents: m.CostCents,
		})
	}
	return rates, nil
}

// Ensure GormShippingRateProvider implements order.ShippingRateProvider
var _ order.ShippingRateProvider = (*GormShippingRateProvider)(nil)
