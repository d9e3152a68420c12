package api

import (
	"github.com/gin-gonic/gin"

	"github.com/charlesng35/qualitree/internal/handlers"
)

func registerHealthRoutes(r *gin.Engine, handler *handlers.HealthHandler) {
	for _, group := range []gin.IRouter{r, r.Group("/api")} {
		group.GET("/health", handler.Overall)
		group.GET("/health/live", handler.Live)
		group.GET("/health/ready", handler.Ready)
	}
}
