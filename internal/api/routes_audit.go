package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/services"
)

// Audit entries reveal actors and addresses, so they sit behind the write guard.
func registerAuditRoutes(project *gin.RouterGroup, audit *services.AuditService, guard gin.HandlerFunc) {
	project.GET("/audit", guard, handlers.NewAuditHandler(audit).List)
}
