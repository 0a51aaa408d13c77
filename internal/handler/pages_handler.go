package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/application"
	"github.com/cheapcruises/service-deals/internal/currency"
)

// PagesHandler renders the server-side HTML pages.
type PagesHandler struct {
	deals  *application.DealService
	promos *application.PromoService
	logger *zap.Logger
}

// NewPagesHandler creates a new PagesHandler.
func NewPagesHandler(deals *application.DealService, promos *application.PromoService, logger *zap.Logger) *PagesHandler {
	return &PagesHandler{deals: deals, promos: promos, logger: logger}
}

// RegisterRoutes registers the page routes on the engine.
func (h *PagesHandler) RegisterRoutes(r *gin.Engine) {
	r.GET("/", h.Home)
	r.GET("/deals", h.Deals)
	r.GET("/promo-codes", h.PromoCodes)
	r.GET("/cruise/:id", h.CruiseDetail)
}

// Home renders the landing page with headline stats and best deals.
func (h *PagesHandler) Home(c *gin.Context) {
	ctx := c.Request.Context()

	stats, err := h.deals.GetStats(ctx)
	if err != nil {
		h.renderError(c, err)
		return
	}
	buckets, err := h.deals.BestDeals(ctx, "")
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "home.html", gin.H{
		"Title":   "Cheap Cruises",
		"Stats":   stats,
		"Buckets": buckets,
	})
}

// Deals renders the filterable deal listing page.
func (h *PagesHandler) Deals(c *gin.Context) {
	var req application.SearchDealsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.renderError(c, err)
		return
	}

	deals, err := h.deals.SearchDeals(c.Request.Context(), req)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "deals.html", gin.H{
		"Title":      "All Deals",
		"Deals":      deals,
		"Query":      req,
		"Currencies": currency.Supported(),
	})
}

// PromoCodes renders the promo code reference page.
func (h *PagesHandler) PromoCodes(c *gin.Context) {
	codes, err := h.promos.ListPromoCodes(c.Request.Context(), c.Query("cruise_line"), false)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "promo_codes.html", gin.H{
		"Title": "Promo Codes",
		"Codes": codes,
	})
}

// CruiseDetail renders a single deal page with matching promo codes.
func (h *PagesHandler) CruiseDetail(c *gin.Context) {
	ctx := c.Request.Context()

	dto, err := h.deals.GetDeal(ctx, c.Param("id"), c.Query("currency"))
	if err != nil {
		h.renderError(c, err)
		return
	}

	codes, err := h.promos.ListPromoCodes(ctx, dto.CruiseLine, true)
	if err != nil {
		h.renderError(c, err)
		return
	}

	c.HTML(http.StatusOK, "cruise_detail.html", gin.H{
		"Title": dto.ShipName,
		"Deal":  dto,
		"Codes": codes,
	})
}

func (h *PagesHandler) renderError(c *gin.Context, err error) {
	h.logger.Warn("page render failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.HTML(http.StatusInternalServerError, "error.html", gin.H{
		"Title":   "Something went wrong",
		"Message": err.Error(),
	})
}
