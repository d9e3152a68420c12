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

// ErrCountryCodeAlreadyExists signals a duplicate country code within a project.
var ErrCountryCodeAlreadyExists = apperrors.New("COUNTRY_CODE_ALREADY_EXISTS", "A country with this code already exists", http.StatusConflict)

// CreateCountryInput captures a new project country.
type CreateCountryInput struct {
	Code string
	Name string
}

// CountryService manages the countries functionality country codes refer to.
type CountryService struct {
	db           *gorm.DB
	auditService *AuditService
}

// NewCountryService constructs a CountryService instance.
func NewCountryService(db *gorm.DB, auditService *AuditService) (*CountryService, error) {
	if db == nil {
		return nil, errors.New("country service: db is required")
	}
	return &CountryService{db: db, auditService: auditService}, nil
}

// List returns the countries of a project ordered by code.
func (s *CountryService) List(ctx context.Context, projectCode string) ([]models.Country, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}
	countries, err := listCountries(ctx, s.db, project.ID)
	if err != nil {
		return nil, fmt.Errorf("country service: %w", err)
	}
	return countries, nil
}

// Create registers a country. Codes are stored lowercase.
func (s *CountryService) Create(ctx context.Context, projectCode string, input CreateCountryInput) (*models.Country, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	code := strings.ToLower(strings.TrimSpace(input.Code))
	name := strings.TrimSpace(input.Name)
	if len(code) != 2 || strings.Trim(code, "abcdefghijklmnopqrstuvwxyz") != "" {
		return nil, apperrors.InvalidField("code", "country code must be two letters")
	}
	if name == "" {
		return nil, apperrors.InvalidField("name", "country name is required")
	}

	country := &models.Country{ProjectID: project.ID, Code: code, Name: name}
	if err := s.db.WithContext(ctx).Create(country).Error; err != nil {
		if uniqueViolation(err) {
			return nil, ErrCountryCodeAlreadyExists
		}
		return nil, fmt.Errorf("country service: create country: %w", err)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "country.create",
		Resource:    strconv.FormatInt(country.ID, 10),
		Result:      AuditResultSuccess,
		Metadata:    map[string]any{"code": country.Code, "name": country.Name},
	})

	return country, nil
}

func listCountries(ctx context.Context, db *gorm.DB, projectID int64) ([]models.Country, error) {
	var countries []models.Country
	if err := db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("code ASC").
		Find(&countries).Error; err != nil {
		return nil, fmt.Errorf("list countries: %w", err)
	}
	return countries, nil
}
