package handler

import (
	"github.com/gin-gonic/gin"

	eventapp "github.com/oms/backend/internal/application/event"
)

// OutboxHandler exposes outbox inspection and dead letter recovery endpoints
type OutboxHandler struct {
	BaseHandler
	outboxService *eventapp.OutboxService
}

// NewOutboxHandler creates a new OutboxHandler
func NewOutboxHandler(outboxService *eventapp.OutboxService) *OutboxHandler {
	return &OutboxHandler{outboxService: outboxService}
}

// RegisterRoutes registers outbox management routes
func (h *OutboxHandler) RegisterRoutes(rg *gin.RouterGroup) {
	outbox := rg.Group("/system/outbox")
	{
		outbox.GET("/stats", h.Stats)
		outbox.GET("/dead", h.ListDead)
		outbox.GET("/:id", h.GetEntry)
		outbox.POST("/:id/retry", h.RetryDead)
	}
}

// Stats reports entry counts per delivery status
func (h *OutboxHandler) Stats(c *gin.Context) {
	stats, err := h.outboxService.Stats(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, stats)
}

// ListDead lists dead letter entries
func (h *OutboxHandler) ListDead(c *gin.Context) {
	var filter eventapp.OutboxListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	responses, total, err := h.outboxService.ListDead(c.Request.Context(), filter)
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

// GetEntry retrieves a single outbox entry
func (h *OutboxHandler) GetEntry(c *gin.Context) {
	entryID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	response, err := h.outboxService.GetEntry(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}

// RetryDead resets a dead letter entry for redelivery
func (h *OutboxHandler) RetryDead(c *gin.Context) {
	entryID, err := parseUUIDParam(c, "id")
	if err != nil {
		h.HandleError(c, err)
		return
	}

	response, err := h.outboxService.RetryDead(c.Request.Context(), entryID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, response)
}
