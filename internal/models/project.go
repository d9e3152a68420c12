package models

// Project scopes every team, country and functionality row.
type Project struct {
	BaseModel

	Code             string `gorm:"size:32;not null;uniqueIndex" json:"code"`
	Name             string `gorm:"size:64;not null" json:"name"`
	DefaultAtStartup bool   `gorm:"not null;default:false" json:"defaultAtStartup"`
}
