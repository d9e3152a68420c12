package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"strings"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/auditctx"
	"github.com/charlesng35/qualitree/internal/models"
)

// AuditResultSuccess marks a mutation that was committed.
const AuditResultSuccess = "success"

const (
	defaultAuditPageSize = 50
	maxAuditPageSize     = 200
)

// AuditEntry captures a single audit event to persist. Actor and IPAddress
// default to the request actor carried by the context.
type AuditEntry struct {
	ProjectCode string
	Action      string
	Resource    string
	Result      string
	Actor       string
	IPAddress   string
	Metadata    map[string]any
}

func (e AuditEntry) record(actor auditctx.Actor, at time.Time) (models.AuditLog, error) {
	log := models.AuditLog{
		ProjectCode: strings.TrimSpace(e.ProjectCode),
		Action:      strings.TrimSpace(e.Action),
		Resource:    strings.TrimSpace(e.Resource),
		Result:      strings.TrimSpace(e.Result),
		Actor:       strings.TrimSpace(firstNonEmpty(e.Actor, actor.Subject)),
		IPAddress:   strings.TrimSpace(firstNonEmpty(e.IPAddress, actor.IPAddress)),
		CreatedAt:   at,
	}
	switch {
	case log.Action == "":
		return log, errors.New("audit service: action is required")
	case log.Result == "":
		return log, errors.New("audit service: result is required")
	}

	if len(e.Metadata) > 0 {
		metadata := maps.Clone(e.Metadata)
		if _, set := metadata["requestId"]; !set && actor.RequestID != "" {
			metadata["requestId"] = actor.RequestID
		}
		encoded, err := json.Marshal(metadata)
		if err != nil {
			return log, fmt.Errorf("audit service: marshal metadata: %w", err)
		}
		log.Metadata = datatypes.JSON(encoded)
	}
	return log, nil
}

// AuditFilters narrows audit queries. Zero fields do not filter.
type AuditFilters struct {
	ProjectCode string
	Action      string
	Result      string
	Since       *time.Time
	Until       *time.Time
}

func (f AuditFilters) scope(db *gorm.DB) *gorm.DB {
	for column, value := range map[string]string{
		"project_code": f.ProjectCode,
		"action":       f.Action,
		"result":       f.Result,
	} {
		if value != "" {
			db = db.Where(column+" = ?", value)
		}
	}
	if f.Since != nil {
		db = db.Where("created_at >= ?", *f.Since)
	}
	if f.Until != nil {
		db = db.Where("created_at <= ?", *f.Until)
	}
	return db
}

// AuditListOptions controls pagination and filtering for audit queries.
type AuditListOptions struct {
	Page     int
	PageSize int
	Filters  AuditFilters
}

// Normalize clamps paging to the supported range.
func (o AuditListOptions) Normalize() AuditListOptions {
	if o.Page <= 0 {
		o.Page = 1
	}
	switch {
	case o.PageSize <= 0:
		o.PageSize = defaultAuditPageSize
	case o.PageSize > maxAuditPageSize:
		o.PageSize = maxAuditPageSize
	}
	return o
}

// AuditService persists and retrieves audit log entries.
type AuditService struct {
	db  *gorm.DB
	now func() time.Time
}

// NewAuditService constructs an AuditService using the provided database handle.
func NewAuditService(db *gorm.DB) (*AuditService, error) {
	if db == nil {
		return nil, errors.New("audit service: db is required")
	}
	return &AuditService{db: db, now: time.Now}, nil
}

// Log stores an audit entry. When metadata is present the request id is added to it.
func (s *AuditService) Log(ctx context.Context, entry AuditEntry) error {
	ctx = ensureContext(ctx)

	actor, _ := auditctx.FromContext(ctx)
	log, err := entry.record(actor, s.now())
	if err != nil {
		return err
	}
	return s.db.WithContext(ctx).Create(&log).Error
}

// List returns one page of audit logs, newest first, and the total match count.
func (s *AuditService) List(ctx context.Context, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)
	opts = opts.Normalize()

	query := s.db.WithContext(ctx).Model(&models.AuditLog{}).Scopes(opts.Filters.scope)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: count logs: %w", err)
	}
	if total == 0 {
		return []models.AuditLog{}, 0, nil
	}

	logs := make([]models.AuditLog, 0, opts.PageSize)
	if err := query.
		Order("created_at DESC").
		Order("id").
		Offset((opts.Page - 1) * opts.PageSize).
		Limit(opts.PageSize).
		Find(&logs).Error; err != nil {
		return nil, 0, fmt.Errorf("audit service: list logs: %w", err)
	}
	return logs, total, nil
}

// ListForProject lists the audit trail of one project. Unknown codes yield
// ErrProjectNotFound.
func (s *AuditService) ListForProject(ctx context.Context, projectCode string, opts AuditListOptions) ([]models.AuditLog, int64, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, 0, err
	}
	opts.Filters.ProjectCode = project.Code
	return s.List(ctx, opts)
}

// CleanupOlderThan deletes entries created more than retentionDays ago.
func (s *AuditService) CleanupOlderThan(ctx context.Context, retentionDays int) (int64, error) {
	if retentionDays <= 0 {
		return 0, errors.New("audit service: retentionDays must be positive")
	}

	cutoff := s.now().AddDate(0, 0, -retentionDays)
	result := s.db.WithContext(ensureContext(ctx)).
		Where("created_at < ?", cutoff).
		Delete(&models.AuditLog{})
	if result.Error != nil {
		return 0, fmt.Errorf("audit service: cleanup logs: %w", result.Error)
	}
	return result.RowsAffected, nil
}

func firstNonEmpty(values ...string) string {
	for _, value := range values {
		if strings.TrimSpace(value) != "" {
			return value
		}
	}
	return ""
}
