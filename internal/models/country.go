package models

// Country is a deployment market of a project, referenced by functionality country codes.
type Country struct {
	BaseModel

	ProjectID int64  `gorm:"not null;uniqueIndex:idx_countries_project_code" json:"projectId"`
	Code      string `gorm:"size:2;not null;uniqueIndex:idx_countries_project_code" json:"code"`
	Name      string `gorm:"size:40;not null" json:"name"`
}
