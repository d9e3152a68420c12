package models

// Team owns functionalities when AssignFunctionalities is set.
type Team struct {
	BaseModel

	ProjectID             int64  `gorm:"not null;uniqueIndex:idx_teams_project_name" json:"projectId"`
	Name                  string `gorm:"size:128;not null;uniqueIndex:idx_teams_project_name" json:"name"`
	AssignFunctionalities bool   `gorm:"not null;default:true" json:"assignFunctionalities"`
}
