package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
	"github.com/cheapcruises/service-deals/pkg/response"
)

// DealHandler serves the read-side deal API.
type DealHandler struct {
	service *application.DealService
	logger  *zap.Logger
}

// NewDealHandler creates a new DealHandler.
func NewDealHandler(service *application.DealService, logger *zap.Logger) *DealHandler {
	return &DealHandler{service: service, logger: logger}
}

// RegisterRoutes registers deal endpoints on the router group.
func (h *DealHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/deals", h.SearchDeals)
	rg.GET("/deals/best", h.BestDeals)
	rg.GET("/deals/:id", h.GetDeal)
	rg.GET("/stats", h.GetStats)
}

// SearchDeals handles GET /api/v1/deals.
func (h *DealHandler) SearchDeals(c *gin.Context) {
	var req application.SearchDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters: "+err.Error())
		return
	}

	deals, err := h.service.SearchDeals(c.Request.Context(), req)
	if err != nil {
		h.logger.Error("search deals failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"deals": deals, "count": len(deals)})
}

// BestDeals handles GET /api/v1/deals/best.
func (h *DealHandler) BestDeals(c *gin.Context) {
	buckets, err := h.service.BestDeals(c.Request.Context(), c.Query("currency"))
	if err != nil {
		h.logger.Error("best deals failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, buckets)
}

// GetDeal handles GET /api/v1/deals/:id.
func (h *DealHandler) GetDeal(c *gin.Context) {
	dto, err := h.service.GetDeal(c.Request.Context(), c.Param("id"), c.Query("currency"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Success(c, dto)
}

// GetStats handles GET /api/v1/stats.
func (h *DealHandler) GetStats(c *gin.Context) {
	stats, err := h.service.GetStats(c.Request.Context())
	if err != nil {
		h.logger.Error("stats failed", zap.Error(err))
		response.Error(c, err)
		return
	}
	response.Success(c, stats)
}
