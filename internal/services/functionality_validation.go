package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
	apperrors "github.com/charlesng35/qualitree/pkg/errors"
)

const (
	maxFunctionalityNameLength = 512
	maxCreatedLength           = 10
)

// FunctionalityInput carries the writable attributes of a node.
// Coverage counters are computed elsewhere and never accepted from clients.
type FunctionalityInput struct {
	Type           models.FunctionalityType
	Name           string
	CountryCodes   *string
	TeamID         *int64
	Severity       *models.FunctionalitySeverity
	Created        *string
	Started        *bool
	NotAutomatable *bool
	Comment        *string
}

// prepareFunctionality validates input for a node of nodeType and returns an unsaved row.
func prepareFunctionality(ctx context.Context, tx *gorm.DB, projectID int64, nodeType models.FunctionalityType, input FunctionalityInput) (models.Functionality, error) {
	if !nodeType.Valid() {
		return models.Functionality{}, apperrors.InvalidField("type", "type must be FOLDER or FUNCTIONALITY")
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return models.Functionality{}, apperrors.InvalidField("name", "name is required")
	}
	if utf8.RuneCountInString(name) > maxFunctionalityNameLength {
		return models.Functionality{}, apperrors.InvalidField("name", "name must be at most %d characters", maxFunctionalityNameLength)
	}

	row := models.Functionality{
		ProjectID: projectID,
		Type:      nodeType,
		Name:      name,
	}
	if row.IsFolder() {
		return row, nil
	}

	if err := checkAssignableTeam(ctx, tx, projectID, input.TeamID); err != nil {
		return models.Functionality{}, err
	}
	row.TeamID = input.TeamID

	if input.Severity == nil {
		return models.Functionality{}, apperrors.InvalidField("severity", "severity is required for a functionality")
	}
	if !input.Severity.Valid() {
		return models.Functionality{}, apperrors.InvalidField("severity", "severity must be HIGH, MEDIUM or LOW")
	}
	severity := *input.Severity
	row.Severity = &severity

	codes, err := resolveCountryCodes(ctx, tx, projectID, input.CountryCodes)
	if err != nil {
		return models.Functionality{}, err
	}
	row.CountryCodes = &codes

	row.Created = trimmedOrNil(input.Created)
	if row.Created != nil && utf8.RuneCountInString(*row.Created) > maxCreatedLength {
		return models.Functionality{}, apperrors.InvalidField("created", "created must be at most %d characters", maxCreatedLength)
	}
	row.Started = input.Started
	row.NotAutomatable = input.NotAutomatable
	row.Comment = trimmedOrNil(input.Comment)

	return row, nil
}

func checkAssignableTeam(ctx context.Context, tx *gorm.DB, projectID int64, teamID *int64) error {
	if teamID == nil {
		return apperrors.InvalidField("teamId", "teamId is required for a functionality")
	}

	var team models.Team
	err := tx.WithContext(ctx).Take(&team, "id = ? AND project_id = ?", *teamID, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrFunctionalityTeamNotFound
	}
	if err != nil {
		return fmt.Errorf("load team: %w", err)
	}
	if !team.AssignFunctionalities {
		return ErrFunctionalityTeamNotAssignable
	}
	return nil
}

// resolveCountryCodes checks every code against the project countries and
// returns them joined in the project's country order.
func resolveCountryCodes(ctx context.Context, tx *gorm.DB, projectID int64, raw *string) (string, error) {
	if raw == nil {
		return "", apperrors.InvalidField("countryCodes", "countryCodes is required for a functionality")
	}
	codes := normaliseCodes(*raw)
	if len(codes) == 0 {
		return "", apperrors.InvalidField("countryCodes", "countryCodes is required for a functionality")
	}

	countries, err := listCountries(ctx, tx, projectID)
	if err != nil {
		return "", err
	}
	known := make(map[string]struct{}, len(countries))
	for _, country := range countries {
		known[country.Code] = struct{}{}
	}

	wanted := make(map[string]struct{}, len(codes))
	for _, code := range codes {
		if _, ok := known[code]; !ok {
			return "", ErrFunctionalityCountryNotFound.WithMessage("Country %q does not exist in this project", code)
		}
		wanted[code] = struct{}{}
	}

	ordered := make([]string, 0, len(codes))
	for _, country := range countries {
		if _, ok := wanted[country.Code]; ok {
			ordered = append(ordered, country.Code)
		}
	}
	return strings.Join(ordered, ","), nil
}

// ensureUniqueName rejects a name already used by a sibling of the same type.
func ensureUniqueName(ctx context.Context, tx *gorm.DB, projectID int64, parentID *int64, nodeType models.FunctionalityType, name string, excludeID int64) error {
	query := tx.WithContext(ctx).
		Model(&models.Functionality{}).
		Where("project_id = ? AND type = ? AND name = ?", projectID, nodeType, name)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var count int64
	if err := query.Count(&count).Error; err != nil {
		return fmt.Errorf("check sibling names: %w", err)
	}
	if count > 0 {
		return ErrFunctionalityNameAlreadyExists
	}
	return nil
}
