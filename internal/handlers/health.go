package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/monitoring"
)

type HealthHandler struct {
	manager *monitoring.HealthManager
}

func NewHealthHandler(manager *monitoring.HealthManager) *HealthHandler {
	return &HealthHandler{manager: manager}
}

// GET /health
func (h *HealthHandler) Overall(c *gin.Context) {
	ctx := requestContext(c)
	report := monitoring.MergeReports(h.manager.EvaluateLiveness(ctx), h.manager.EvaluateReadiness(ctx))
	writeHealthReport(c, report)
}

// GET /health/live
func (h *HealthHandler) Live(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateLiveness(requestContext(c)))
}

// GET /health/ready
func (h *HealthHandler) Ready(c *gin.Context) {
	writeHealthReport(c, h.manager.EvaluateReadiness(requestContext(c)))
}

func writeHealthReport(c *gin.Context, report monitoring.HealthReport) {
	status := http.StatusOK
	if report.Status == monitoring.StatusDown {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, report)
}
