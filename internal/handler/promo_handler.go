package handler

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
	"github.com/cheapcruises/service-deals/pkg/response"
)

// PromoHandler serves the promo-code API.
type PromoHandler struct {
	service *application.PromoService
	logger  *zap.Logger
}

// NewPromoHandler creates a new PromoHandler.
func NewPromoHandler(service *application.PromoService, logger *zap.Logger) *PromoHandler {
	return &PromoHandler{service: service, logger: logger}
}

// RegisterRoutes registers promo endpoints on the router group.
func (h *PromoHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/promo-codes", h.ListPromoCodes)
}

// ListPromoCodes handles GET /api/v1/promo-codes.
func (h *PromoHandler) ListPromoCodes(c *gin.Context) {
	cruiseLine := c.Query("cruise_line")
	validOnly := c.Query("valid_only") == "true"

	codes, err := h.service.ListPromoCodes(c.Request.Context(), cruiseLine, validOnly)
	if err != nil {
		h.logger.Error("list promo codes failed", zap.Error(err))
		response.Error(c, err)
		return
	}

	response.Success(c, gin.H{"promo_codes": codes, "count": len(codes)})
}
