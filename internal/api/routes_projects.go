package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/services"
)

func registerProjectRoutes(api *gin.RouterGroup, db *gorm.DB, audit *services.AuditService, write gin.HandlerFunc) error {
	svc, err := services.NewProjectService(db, audit)
	if err != nil {
		return err
	}
	handler := handlers.NewProjectHandler(svc)

	api.GET("/projects", handler.List)
	api.POST("/projects", write, handler.Create)
	api.GET("/projects/:projectCode", handler.Get)
	return nil
}
