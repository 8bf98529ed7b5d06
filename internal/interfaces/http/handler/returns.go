package handler

import (
	"github.com/gin-gonic/gin"

	returnsapp "github.com/oms/backend/internal/application/returns"
)

// ReturnHandler handles customer return API endpoints
type ReturnHandler struct {
	BaseHandler
	returnService *returnsapp.ReturnService
}

// NewReturnHandler creates a new ReturnHandler
func NewReturnHandler(returnService *returnsapp.ReturnService) *ReturnHandler {
	return &ReturnHandler{returnService: returnService}
}

// RegisterRoutes registers return routes
func (h *ReturnHandler) RegisterRoutes(rg *gin.RouterGroup) {
	returns := rg.Group("/returns")
	{
		returns.POST("", h.Create)
		returns.GET("", h.List)
		returns.GET("/:id", h.GetByID)
		returns.GET("/number/:number", h.GetByNumber)
		returns.POST("/:id/items", h.AddItem)
		returns.POST("/:id/items/:itemId/receive", h.ReceiveItem)
		returns.POST("/:id/cancel", h.Cancel)
	}
	rg.GET("/orders/:id/returns", h.ListForOrder)
}

// ListForOrder lists the returns opened against an order
func (h *ReturnHandler) ListForOrder(c *gin.Context) {
	orderID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	responses, err := h.returnService.ListByOrder(c.Request.Context(), orderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, responses)
}

// Create opens a customer return
func (h *ReturnHandler) Create(c *gin.Context) {
	var req returnsapp.CreateReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.returnService.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, resp)
}

// List lists returns with filters and pagination
func (h *ReturnHandler) List(c *gin.Context) {
	var filter returnsapp.ReturnListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	responses, total, err := h.returnService.List(c.Request.Context(), filter)
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

// GetByID retrieves a return
func (h *ReturnHandler) GetByID(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.returnService.GetByID(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// GetByNumber retrieves a return by its RMA number
func (h *ReturnHandler) GetByNumber(c *gin.Context) {
	resp, err := h.returnService.GetByNumber(c.Request.Context(), c.Param("number"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// AddItem adds a unit to an open return
func (h *ReturnHandler) AddItem(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	var req returnsapp.AddReturnItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resp, err := h.returnService.AddItem(c.Request.Context(), returnID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ReceiveItem records physical receipt of a returned unit
func (h *ReturnHandler) ReceiveItem(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}
	itemID, err := parseUUIDParam(c, "itemId")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.returnService.ReceiveItem(c.Request.Context(), returnID, itemID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// Cancel cancels a return before any item is received
func (h *ReturnHandler) Cancel(c *gin.Context) {
	returnID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	resp, err := h.returnService.Cancel(c.Request.Context(), returnID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}
