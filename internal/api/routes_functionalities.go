package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/services"
)

func registerFunctionalityRoutes(project *gin.RouterGroup, db *gorm.DB, audit *services.AuditService, store cache.Store, treeTTL time.Duration, write gin.HandlerFunc) error {
	svc, err := services.NewFunctionalityService(db, audit, store, treeTTL)
	if err != nil {
		return err
	}
	handler := handlers.NewFunctionalityHandler(svc)

	group := project.Group("/functionalities")
	{
		group.GET("", handler.Tree)
		group.GET("/:id", handler.Get)
		group.POST("", write, handler.Create)
		group.PUT("/:id", write, handler.Update)
		group.DELETE("/:id", write, handler.Delete)
		group.POST("/move", write, handler.Move)
		group.POST("/move/list", write, handler.MoveList)
	}
	return nil
}
