package models

// FunctionalityType distinguishes grouping folders from leaf functionalities.
type FunctionalityType string

const (
	FunctionalityTypeFolder        FunctionalityType = "FOLDER"
	FunctionalityTypeFunctionality FunctionalityType = "FUNCTIONALITY"
)

// Valid reports whether t is a known node type.
func (t FunctionalityType) Valid() bool {
	return t == FunctionalityTypeFolder || t == FunctionalityTypeFunctionality
}

// FunctionalitySeverity ranks the business impact of a functionality.
type FunctionalitySeverity string

const (
	SeverityHigh   FunctionalitySeverity = "HIGH"
	SeverityMedium FunctionalitySeverity = "MEDIUM"
	SeverityLow    FunctionalitySeverity = "LOW"
)

// Valid reports whether s is a known severity.
func (s FunctionalitySeverity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	default:
		return false
	}
}

// Functionality is one node of a project's functionality tree, stored flat with a parent link.
// Leaf-only columns stay NULL for folders.
type Functionality struct {
	BaseModel

	ProjectID int64             `gorm:"not null;index:idx_functionalities_project_parent"`
	ParentID  *int64            `gorm:"index:idx_functionalities_project_parent"`
	Order     int               `gorm:"column:sort_order;not null"`
	Type      FunctionalityType `gorm:"size:16;not null"`
	Name      string            `gorm:"size:512;not null"`

	CountryCodes            *string                `gorm:"size:128"`
	TeamID                  *int64                 `gorm:"index"`
	Severity                *FunctionalitySeverity `gorm:"size:16"`
	Created                 *string                `gorm:"size:10"`
	Started                 *bool
	NotAutomatable          *bool
	CoveredScenarios        *int
	CoveredCountryScenarios *string `gorm:"size:512"`
	IgnoredScenarios        *int
	IgnoredCountryScenarios *string `gorm:"size:512"`
	Comment                 *string `gorm:"type:text"`
}

// IsFolder reports whether the node is a folder.
func (f *Functionality) IsFolder() bool {
	return f != nil && f.Type == FunctionalityTypeFolder
}

// ClearLeafAttributes nulls every leaf-only column; folders must never carry them.
func (f *Functionality) ClearLeafAttributes() {
	f.CountryCodes = nil
	f.TeamID = nil
	f.Severity = nil
	f.Created = nil
	f.Started = nil
	f.NotAutomatable = nil
	f.CoveredScenarios = nil
	f.CoveredCountryScenarios = nil
	f.IgnoredScenarios = nil
	f.IgnoredCountryScenarios = nil
	f.Comment = nil
}
