package returns

import (
	"time"

	"github.com/google/uuid"

	"github.com/oms/backend/internal/domain/returns"
)

// CreateReturnItemRequest is one unit going back, optionally with an
// exchange replacement
type CreateReturnItemRequest struct {
	InventoryUnitID   uuid.UUID  `json:"inventory_unit_id" binding:"required"`
	ExchangeVariantID *uuid.UUID `json:"exchange_variant_id"`
}

// CreateReturnRequest is the request to open a customer return
type CreateReturnRequest struct {
	OrderID         uuid.UUID                 `json:"order_id" binding:"required"`
	StockLocationID *uuid.UUID                `json:"stock_location_id"`
	Memo            string                    `json:"memo"`
	Items           []CreateReturnItemRequest `json:"items" binding:"required,min=1,dive"`
}

// AddReturnItemRequest is the request to add a line to an open return
type AddReturnItemRequest struct {
	InventoryUnitID   uuid.UUID  `json:"inventory_unit_id" binding:"required"`
	ExchangeVariantID *uuid.UUID `json:"exchange_variant_id"`
}

// ReturnListFilter describes return listing parameters
type ReturnListFilter struct {
	OrderID  string `form:"order_id"`
	Number   string `form:"number"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir"`
}

// ReturnItemResponse is the API representation of one return line
type ReturnItemResponse struct {
	ID                uuid.UUID  `json:"id"`
	InventoryUnitID   uuid.UUID  `json:"inventory_unit_id"`
	VariantID         uuid.UUID  `json:"variant_id"`
	ReceptionStatus   string     `json:"reception_status"`
	ExchangeVariantID *uuid.UUID `json:"exchange_variant_id,omitempty"`
	ExchangeUnitID    *uuid.UUID `json:"exchange_unit_id,omitempty"`
	ReceivedAt        *time.Time `json:"received_at,omitempty"`
}

// ReturnResponse is the API representation of a customer return
type ReturnResponse struct {
	ID              uuid.UUID            `json:"id"`
	Number          string               `json:"number"`
	OrderID         uuid.UUID            `json:"order_id"`
	StockLocationID uuid.UUID            `json:"stock_location_id"`
	Status          string               `json:"status"`
	Memo            string               `json:"memo,omitempty"`
	Items           []ReturnItemResponse `json:"items"`
	Version         int                  `json:"version"`
	CreatedAt       time.Time            `json:"created_at"`
	UpdatedAt       time.Time            `json:"updated_at"`
}

// ToReturnResponse maps a customer return aggregate to its API
// representation
func ToReturnResponse(r *returns.CustomerReturn) ReturnResponse {
	items := make([]ReturnItemResponse, 0, len(r.Items))
	for idx := range r.Items {
		item := &r.Items[idx]
		items = append(items, ReturnItemResponse{
			ID:                item.ID,
			InventoryUnitID:   item.InventoryUnitID,
			VariantID:         item.VariantID,
			ReceptionStatus:   item.ReceptionStatus.String(),
			ExchangeVariantID: item.ExchangeVariantID,
			ExchangeUnitID:    item.ExchangeUnitID,
			ReceivedAt:        item.ReceivedAt,
		})
	}

	return ReturnResponse{
		ID:              r.ID,
		Number:          r.Number,
		OrderID:         r.OrderID,
		StockLocationID: r.StockLocationID,
		Status:          r.Status().String(),
		Memo:            r.Memo,
		Items:           items,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
