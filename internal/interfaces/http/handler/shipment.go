package handler

import (
	"github.com/gin-gonic/gin"

	inventoryapp "github.com/oms/backend/internal/application/inventory"
)

// ShipmentHandler handles shipment workflow API endpoints
type ShipmentHandler struct {
	BaseHandler
	shipmentService *inventoryapp.ShipmentService
}

// NewShipmentHandler creates a new ShipmentHandler
func NewShipmentHandler(shipmentService *inventoryapp.ShipmentService) *ShipmentHandler {
	return &ShipmentHandler{shipmentService: shipmentService}
}

// RegisterRoutes registers shipment routes
func (h *ShipmentHandler) RegisterRoutes(rg *gin.RouterGroup) {
	shipments := rg.Group("/shipments")
	{
		shipments.GET("", h.List)
		shipments.GET("/:id", h.GetByID)
		shipments.GET("/number/:number", h.GetByNumber)
		shipments.GET("/stats/units", h.UnitStats)
		shipments.POST("/:id/ready", h.MarkReady)
		shipments.POST("/:id/ship", h.Ship)
		shipments.POST("/:id/deliver", h.Deliver)
		shipments.POST("/:id/units/:unitId/fill-backorder", h.FillBackorder)
	}
	rg.GET("/orders/:id/shipments", h.ListForOrder)
}

// ListForOrder lists the shipments allocated for an order
func (h *ShipmentHandler) ListForOrder(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses, err := h.shipmentService.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, responses)
}

// UnitStats reports inventory unit counts per lifecycle state
func (h *ShipmentHandler) UnitStats(c *gin.Context) {
	summary, err := h.shipmentService.UnitStateSummary(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, summary)
}

// List lists shipments with filters and pagination
func (h *ShipmentHandler) List(c *gin.Context) {
	var filter inventoryapp.ShipmentListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	responses, total, err := h.shipmentService.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Page, filter.PageSize
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, responses, total, page, pageSize)
}

// GetByID retrieves a shipment
func (h *ShipmentHandler) GetByID(c *gin.Context) {
	shipmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.shipmentService.GetByID(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber retrieves a shipment by its number
func (h *ShipmentHandler) GetByNumber(c *gin.Context) {
	resp, err := h.shipmentService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// MarkReady readies a pending shipment
func (h *ShipmentHandler) MarkReady(c *gin.Context) {
	shipmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.shipmentService.MarkReady(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Ship dispatches a ready shipment
func (h *ShipmentHandler) Ship(c *gin.Context) {
	shipmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req inventoryapp.ShipShipmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.shipmentService.Ship(c.Request.Context(), shipmentID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Deliver records carrier delivery
func (h *ShipmentHandler) Deliver(c *gin.Context) {
	shipmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.shipmentService.Deliver(c.Request.Context(), shipmentID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// FillBackorder converts a backordered unit to on-hand stock
func (h *ShipmentHandler) FillBackorder(c *gin.Context) {
	shipmentID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	unitID, err := parseUUIDParam(c, "unitId")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.shipmentService.FillBackorder(c.Request.Context(), shipmentID, unitID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
