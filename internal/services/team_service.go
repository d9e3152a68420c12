package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
	apperrors "github.com/charlesng35/qualitree/pkg/errors"
)

// ErrTeamNameAlreadyExists signals a duplicate team name within a project.
var ErrTeamNameAlreadyExists = apperrors.New("TEAM_NAME_ALREADY_EXISTS", "A team with this name already exists", http.StatusConflict)

// CreateTeamInput captures new team metadata.
type CreateTeamInput struct {
	Name                  string
	AssignFunctionalities *bool
}

// TeamService manages the teams functionalities are assigned to.
type TeamService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewTeamService constructs a TeamService instance.
func NewTeamService(db *gorm.DB, auditService *AuditService) (*TeamService, error) {
	if db == nil {
		return nil, errors.New("team service: db is required")
	}
	return &TeamService{db: db, auditService: auditService}, nil
}

// List returns the teams of a project ordered by name.
func (s *TeamService) List(ctx context.Context, projectCode string) ([]models.Team, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	var teams []models.Team
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", project.ID).
		Order("name ASC, id ASC").
		Find(&teams).Error; err != nil {
		return nil, fmt.Errorf("team service: list teams: %w", err)
	}
	return teams, nil
}

// Create registers a new team. Teams assign functionalities unless told otherwise.
func (s *TeamService) Create(ctx context.Context, projectCode string, input CreateTeamInput) (*models.Team, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperrors.InvalidField("name", "team name is required")
	}

	assign := true
	if input.AssignFunctionalities != nil {
		assign = *input.AssignFunctionalities
	}

	team := &models.Team{
		ProjectID:             project.ID,
		Name:                  name,
		AssignFunctionalities: assign,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(team).Error; err != nil {
			return err
		}
		// the column default swallows a false zero value on insert
		if !assign {
			return tx.Model(team).Update("assign_functionalities", false).Error
		}
		return nil
	})
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrTeamNameAlreadyExists
		}
		return nil, fmt.Errorf("team service: create team: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "team.create",
		Resource:    strconv.FormatInt(team.ID, 10),
		Result:      AuditResultSuccess,
		Metadata: map[string]any{
			"name":                  team.Name,
			"assignFunctionalities": team.AssignFunctionalities,
		},
	})

	return team, nil
}
