package database

import (
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.Project{},
		&models.Team{},
		&models.Country{},
		&models.Functionality{},
		&models.AuditLog{},
		&models.CacheEntry{},
	)
}
