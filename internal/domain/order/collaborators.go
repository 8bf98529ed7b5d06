package order

import (
	"context"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/shared/valueobject"
)

// VariantInfo is the catalog snapshot the engine captures when a variant is
// added to an order. The catalog itself lives outside this system.
type VariantInfo struct {
	VariantID uuid.UUID
	Name      string
	SKU       string
	Digital   bool
}

// PriceResolver resolves the current unit price of a variant in a given
// currency. A variant not priced for the currency returns an error of kind
// Validation.
type PriceResolver interface {
	Resolve(ctx context.Context, variantID uuid.UUID, currency valueobject.Currency) (valueobject.Money, VariantInfo, error)
}

// PaymentSummarizer reports the sum of completed payment captures for an
// order. Payment processing is external; the workflow only consumes the
// captured total when guarding Confirm and Complete.
type PaymentSummarizer interface {
	CapturedTotal(ctx context.Context, orderID uuid.UUID) (int64, error)
}

// ShippingRate is a shipping method with its cost for a particular order
type ShippingRate struct {
	MethodID  uuid.UUID
	Name      string
	CostCents int64
}

// ShippingRateProvider lists the shipping methods available to an order.
// Rate computation is external.
type ShippingRateProvider interface {
	RatesFor(ctx context.Context, orderID uuid.UUID) ([]ShippingRate, error)
}
