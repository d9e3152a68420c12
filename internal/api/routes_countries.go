package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/services"
)

func registerCountryRoutes(project *gin.RouterGroup, db *gorm.DB, audit *services.AuditService, write gin.HandlerFunc) error {
	svc, err := services.NewCountryService(db, audit)
	if err != nil {
		return err
	}
	handler := handlers.NewCountryHandler(svc)

	project.GET("/countries", handler.List)
	project.POST("/countries", write, handler.Create)
	return nil
}
