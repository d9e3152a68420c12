package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// AuditLog records a mutation performed through the API.
type AuditLog struct {
	ID          string         `gorm:"primaryKey;size:36" json:"id"`
	ProjectCode string         `gorm:"size:32;index" json:"projectCode"`
	Action      string         `gorm:"not null;index" json:"action"`
	Resource    string         `gorm:"index" json:"resource"`
	Result      string         `gorm:"not null" json:"result"`
	Actor       string         `json:"actor"`
	IPAddress   string         `json:"ipAddress"`
	Metadata    datatypes.JSON `json:"metadata"`
	CreatedAt   time.Time      `gorm:"index" json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	return nil
}
