package inventory

import (
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/inventory"
)

// ShipShipmentRequest is the request to dispatch a ready shipment
type ShipShipmentRequest struct {
	TrackingNumber string `json:"tracking_number" binding:"required"`
}

// UnitStateSummaryResponse reports inventory unit counts per lifecycle state
type UnitStateSummaryResponse struct {
	OnHand      int64 `json:"on_hand"`
	Backordered int64 `json:"backordered"`
	Shipped     int64 `json:"shipped"`
	Returned    int64 `json:"returned"`
}

// ShipmentListFilter describes shipment listing parameters
type ShipmentListFilter struct {
	OrderID  string `form:"order_id"`
	State    string `form:"state"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// InventoryUnitResponse is the API representation of one inventory unit
type InventoryUnitResponse struct {
	ID                   uuid.UUID  `json:"id"`
	OrderID              uuid.UUID  `json:"order_id"`
	LineItemID           uuid.UUID  `json:"line_item_id"`
	ShipmentID           *uuid.UUID `json:"shipment_id,omitempty"`
	VariantID            uuid.UUID  `json:"variant_id"`
	SKU                  string     `json:"sku"`
	State                string     `json:"state"`
	Exchange             bool       `json:"exchange"`
	OriginalReturnItemID *uuid.UUID `json:"original_return_item_id,omitempty"`
}

// ShipmentResponse is the API representation of a shipment
type ShipmentResponse struct {
	ID               uuid.UUID               `json:"id"`
	OrderID          uuid.UUID               `json:"order_id"`
	Number           string                  `json:"number"`
	StockLocationID  uuid.UUID               `json:"stock_location_id"`
	State            string                  `json:"state"`
	TrackingNumber   string                  `json:"tracking_number,omitempty"`
	Units            []InventoryUnitResponse `json:"units"`
	OnHandCount      int                     `json:"on_hand_count"`
	BackorderedCount int                     `json:"backordered_count"`
	ShippedAt        *time.Time              `json:"shipped_at,omitempty"`
	DeliveredAt      *time.Time              `json:"delivered_at,omitempty"`
	Version          int                     `json:"version"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// ToInventoryUnitResponse maps an inventory unit to its API representation
func ToInventoryUnitResponse(u *inventory.InventoryUnit) InventoryUnitResponse {
	return InventoryUnitResponse{
		ID:                   u.ID,
		OrderID:              u.OrderID,
		LineItemID:           u.LineItemID,
		ShipmentID:           u.ShipmentID,
		VariantID:            u.VariantID,
		SKU:                  u.SKU,
		State:                string(u.State),
		Exchange:             u.IsExchange(),
		OriginalReturnItemID: u.OriginalReturnItemID,
	}
}

// ToShipmentResponse maps a shipment aggregate to its API representation
func ToShipmentResponse(s *inventory.Shipment) ShipmentResponse {
	units := make([]InventoryUnitResponse, 0, len(s.Units))
	for idx := range s.Units {
		units = append(units, ToInventoryUnitResponse(&s.Units[idx]))
	}

	return ShipmentResponse{
		ID:               s.ID,
		OrderID:          s.OrderID,
		Number:           s.Number,
		StockLocationID:  s.StockLocationID,
		State:            string(s.State),
		TrackingNumber:   s.TrackingNumber,
		Units:            units,
		OnHandCount:      s.OnHandCount(),
		BackorderedCount: s.BackorderedCount(),
		ShippedAt:        s.ShippedAt,
		DeliveredAt:      s.DeliveredAt,
		Version:          s.Version,
		CreatedAt:        s.CreatedAt,
		UpdatedAt:        s.UpdatedAt,
	}
}
