package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cheapcruises/service-deals/internal/scheduler"
	"github.com/cheapcruises/service-deals/pkg/response"
)

// AdminHandler exposes ingestion controls.
type AdminHandler struct {
	scheduler *scheduler.Scheduler
	logger    *zap.Logger
}

// NewAdminHandler creates a new AdminHandler.
func NewAdminHandler(sched *scheduler.Scheduler, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{scheduler: sched, logger: logger}
}

// RegisterRoutes registers admin endpoints on the router group.
func (h *AdminHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/admin/scrape", h.TriggerScrape)
	rg.GET("/admin/scrape/status", h.ScrapeStatus)
}

// TriggerScrape handles POST /api/v1/admin/scrape. A run already in
// flight yields 409 instead of a second run.
func (h *AdminHandler) TriggerScrape(c *gin.Context) {
	runID, started := h.scheduler.TriggerNow()
	if !started {
		c.JSON(http.StatusConflict, response.Envelope{
			Success: false,
			Error:   "a scrape run is already in progress",
		})
		return
	}

	h.logger.Info("scrape run triggered via api", zap.String("run_id", runID.String()))
	response.Accepted(c, gin.H{"run_id": runID.String(), "status": "running"})
}

// ScrapeStatus handles GET /api/v1/admin/scrape/status.
func (h *AdminHandler) ScrapeStatus(c *gin.Context) {
	snapshot := h.scheduler.Status()
	response.Success(c, gin.H{
		"running":  snapshot.Running,
		"last_run": snapshot.LastRun,
	})
}
