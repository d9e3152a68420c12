package api

import (
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/handlers"
	"github.com/charlesng35/qualitree/internal/services"
)

func registerTeamRoutes(project *gin.RouterGroup, db *gorm.DB, audit *services.AuditService, write gin.HandlerFunc) error {
	svc, err := services.NewTeamService(db, audit)
	if err != nil {
		return err
	}
	handler := handlers.NewTeamHandler(svc)

	project.GET("/teams", handler.List)
	project.POST("/teams", write, handler.Create)
	return nil
}
