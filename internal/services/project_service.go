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
	"github.com/charlesng35/qualitree/pkg/validator"
)

var (
	// ErrProjectNotFound indicates no project carries the requested code.
	ErrProjectNotFound = apperrors.New("PROJECT_NOT_FOUND", "Project not found", http.StatusNotFound)
	// ErrProjectCodeAlreadyExists signals a duplicate project code.
	ErrProjectCodeAlreadyExists = apperrors.New("PROJECT_CODE_ALREADY_EXISTS", "A project with this code already exists", http.StatusConflict)
)

// CreateProjectInput captures new project metadata.
type CreateProjectInput struct {
	Code             string
	Name             string
	DefaultAtStartup bool
}

// ProjectService manages the tenants every other resource is scoped by.
type ProjectService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewProjectService constructs a ProjectService instance.
func NewProjectService(db *gorm.DB, auditService *AuditService) (*ProjectService, error) {
	if db == nil {
		return nil, errors.New("project service: db is required")
	}
	return &ProjectService{db: db, auditService: auditService}, nil
}

// List returns every project ordered by name.
func (s *ProjectService) List(ctx context.Context) ([]models.Project, error) {
	ctx = ensureContext(ctx)

	var projects []models.Project
	if err := s.db.WithContext(ctx).Order("name ASC, id ASC").Find(&projects).Error; err != nil {
		return nil, fmt.Errorf("project service: list projects: %w", err)
	}
	return projects, nil
}

// GetByCode loads a project by its code.
func (s *ProjectService) GetByCode(ctx context.Context, code string) (*models.Project, error) {
	return findProject(ensureContext(ctx), s.db, code)
}

// Create registers a new project. Only one project may be the default at startup.
func (s *ProjectService) Create(ctx context.Context, input CreateProjectInput) (*models.Project, error) {
	ctx = ensureContext(ctx)

	code := strings.ToLower(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if code == "" || !validator.IsSlug(code) {
		return nil, apperrors.InvalidField("code", "project code must contain lowercase letters, digits and dashes")
	}
	if len(code) > 32 {
		return nil, apperrors.InvalidField("code", "project code must be at most 32 characters")
	}
	if name == "" {
		return nil, apperrors.InvalidField("name", "project name is required")
	}

	project := &models.Project{
		Code:             code,
		Name:             name,
		DefaultAtStartup: input.DefaultAtStartup,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if project.DefaultAtStartup {
			if err := tx.Model(&models.Project{}).
				Where("default_at_startup = ?", true).
				Update("default_at_startup", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(project).Error
	})
	if err != nil {
		if uniqueViolation(err) {
			return nil, ErrProjectCodeAlreadyExists
		}
		return nil, fmt.Errorf("project service: create project: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "project.create",
		Resource:    strconv.FormatInt(project.ID, 10),
		Result:      AuditResultSuccess,
		Metadata:    map[string]any{"name": project.Name},
	})

	return project, nil
}

// findProject resolves a project code, returning ErrProjectNotFound when absent.
func findProject(ctx context.Context, db *gorm.DB, code string) (*models.Project, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, ErrProjectNotFound
	}

	var project models.Project
	err := db.WithContext(ctx).Take(&project, "code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProjectNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load project %q: %w", code, err)
	}
	return &project, nil
}
