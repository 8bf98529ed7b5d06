package order

import (
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/order"
)

// CreateOrderRequest is the request to open a new cart
type CreateOrderRequest struct {
	Currency string `json:"currency" binding:"required,currency_code"`
}

// AddItemRequest is the request to add a variant to the cart
type AddItemRequest struct {
	VariantID uuid.UUID `json:"variant_id" binding:"required"`
	Quantity  int       `json:"quantity" binding:"required,min=1"`
}

// UpdateItemQuantityRequest is the request to change a line's quantity
type UpdateItemQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required,min=1"`
}

// SetAddressesRequest is the request to attach ship and bill addresses
type SetAddressesRequest struct {
	ShipAddressID uuid.UUID `json:"ship_address_id" binding:"required"`
	BillAddressID uuid.UUID `json:"bill_address_id" binding:"required"`
}

// SetShippingMethodRequest is the request to pick a shipping method
type SetShippingMethodRequest struct {
	ShippingMethodID uuid.UUID `json:"shipping_method_id" binding:"required"`
}

// ApplyAdjustmentRequest is the request to apply a promotional adjustment,
// in minor units (negative for discounts)
type ApplyAdjustmentRequest struct {
	AmountCents int64 `json:"amount_cents" binding:"required"`
}

// CancelOrderRequest is the request to cancel an order
type CancelOrderRequest struct {
	Reason string `json:"reason"`
}

// OrderListFilter describes order listing parameters
type OrderListFilter struct {
	State    string `form:"state"`
	Number   string `form:"number"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// LineItemResponse is the API representation of a line item
type LineItemResponse struct {
	ID            uuid.UUID `json:"id"`
	VariantID     uuid.UUID `json:"variant_id"`
	Name          string    `json:"name"`
	SKU           string    `json:"sku"`
	Digital       bool      `json:"digital"`
	Quantity      int       `json:"quantity"`
	PriceCents    int64     `json:"price_cents"`
	SubtotalCents int64     `json:"subtotal_cents"`
}

// OrderResponse is the API representation of an order
type OrderResponse struct {
	ID                   uuid.UUID          `json:"id"`
	Number               string             `json:"number"`
	Currency             string             `json:"currency"`
	State                string             `json:"state"`
	Items                []LineItemResponse `json:"items"`
	ShipAddressID        *uuid.UUID         `json:"ship_address_id,omitempty"`
	BillAddressID        *uuid.UUID         `json:"bill_address_id,omitempty"`
	ShippingMethodID     *uuid.UUID         `json:"shipping_method_id,omitempty"`
	ItemTotalCents       int64              `json:"item_total_cents"`
	ShipmentTotalCents   int64              `json:"shipment_total_cents"`
	AdjustmentTotalCents int64              `json:"adjustment_total_cents"`
	TotalCents           int64              `json:"total_cents"`
	FullyDigital         bool               `json:"fully_digital"`
	Version              int                `json:"version"`
	CompletedAt          *time.Time         `json:"completed_at,omitempty"`
	CanceledAt           *time.Time         `json:"canceled_at,omitempty"`
	CancelReason         string             `json:"cancel_reason,omitempty"`
	CreatedAt            time.Time          `json:"created_at"`
	UpdatedAt            time.Time          `json:"updated_at"`
}

// StateSummaryResponse reports order counts per workflow state
type StateSummaryResponse struct {
	Cart     int64 `json:"cart"`
	Address  int64 `json:"address"`
	Delivery int64 `json:"delivery"`
	Payment  int64 `json:"payment"`
	Confirm  int64 `json:"confirm"`
	Complete int64 `json:"complete"`
	Canceled int64 `json:"canceled"`
}

// ShippingRateResponse is one available shipping method with its cost
type ShippingRateResponse struct {
	MethodID  uuid.UUID `json:"method_id"`
	Name      string    `json:"name"`
	CostCents int64     `json:"cost_cents"`
}

// ToOrderResponse maps an order aggregate to its API representation
func ToOrderResponse(o *order.Order) OrderResponse {
	items := make([]LineItemResponse, 0, len(o.Items))
	for idx := range o.Items {
		item := &o.Items[idx]
		items = append(items, LineItemResponse{
			ID:            item.ID,
			VariantID:     item.VariantID,
			Name:          item.CapturedName,
			SKU:           item.CapturedSKU,
			Digital:       item.Digital,
			Quantity:      item.Quantity,
			PriceCents:    item.PriceCents,
			SubtotalCents: item.SubtotalCents(),
		})
	}

	return OrderResponse{
		ID:                   o.ID,
		Number:               o.Number,
		Currency:             string(o.CurrencyCode),
		State:                o.State.String(),
		Items:                items,
		ShipAddressID:        o.ShipAddressID,
		BillAddressID:        o.BillAddressID,
		ShippingMethodID:     o.ShippingMethodID,
		ItemTotalCents:       o.ItemTotalCents,
		ShipmentTotalCents:   o.ShipmentTotalCents,
		AdjustmentTotalCents: o.AdjustmentTotalCents,
		TotalCents:           o.TotalCents,
		FullyDigital:         o.IsFullyDigital(),
		Version:              o.Version,
		CompletedAt:          o.CompletedAt,
		CanceledAt:           o.CanceledAt,
		CancelReason:         o.CancelReason,
		CreatedAt:            o.CreatedAt,
		UpdatedAt:            o.UpdatedAt,
	}
}
