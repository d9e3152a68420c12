package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/charlesng35/qualitree/internal/cache"
	"github.com/charlesng35/qualitree/internal/models"
	apperrors "github.com/charlesng35/qualitree/pkg/errors"
	"github.com/charlesng35/qualitree/pkg/logger"
	"github.com/charlesng35/qualitree/pkg/metrics"
)

var (
	// ErrFunctionalityNotFound indicates the node does not exist in the project.
	ErrFunctionalityNotFound = apperrors.New("FUNCTIONALITY_NOT_FOUND", "Functionality not found", http.StatusNotFound)
	// ErrFunctionalityNameAlreadyExists signals a sibling of the same type already uses the name.
	ErrFunctionalityNameAlreadyExists = apperrors.New("FUNCTIONALITY_NAME_ALREADY_EXISTS", "Another folder or functionality with the same name already exists at this level", http.StatusBadRequest)
	// ErrFunctionalityMoveIntoItself rejects moving a node below itself or one of its descendants.
	ErrFunctionalityMoveIntoItself = apperrors.New("FUNCTIONALITY_MOVE_INTO_ITSELF", "A folder cannot be moved into itself or one of its descendants", http.StatusBadRequest)
	// ErrFunctionalityReferenceNotFolder rejects LAST_CHILD placement under a leaf.
	ErrFunctionalityReferenceNotFolder = apperrors.New("FUNCTIONALITY_REFERENCE_NOT_FOLDER", "Only folders can contain children", http.StatusBadRequest)
	// ErrFunctionalityTeamNotFound indicates teamId does not belong to the project.
	ErrFunctionalityTeamNotFound = apperrors.New("FUNCTIONALITY_TEAM_NOT_FOUND", "Team not found in this project", http.StatusBadRequest)
	// ErrFunctionalityTeamNotAssignable indicates the team cannot own functionalities.
	ErrFunctionalityTeamNotAssignable = apperrors.New("FUNCTIONALITY_TEAM_NOT_ASSIGNABLE", "This team cannot be assigned functionalities", http.StatusBadRequest)
	// ErrFunctionalityCountryNotFound indicates an unknown country code.
	ErrFunctionalityCountryNotFound = apperrors.New("FUNCTIONALITY_COUNTRY_NOT_FOUND", "Country not found in this project", http.StatusBadRequest)
)

const treeCacheKeyPrefix = "functionalities:tree:"

// CreateFunctionalityInput describes a new node and where to put it.
type CreateFunctionalityInput struct {
	Functionality    FunctionalityInput
	ReferenceID      *int64
	RelativePosition RelativePosition
}

// MoveFunctionalityInput repositions one node.
type MoveFunctionalityInput struct {
	SourceID         int64
	ReferenceID      *int64
	RelativePosition RelativePosition
}

// MoveFunctionalitiesInput repositions several nodes, keeping their relative order.
type MoveFunctionalitiesInput struct {
	SourceIDs        []int64
	ReferenceID      *int64
	RelativePosition RelativePosition
}

// FunctionalityService reads and edits the functionality tree of a project.
type FunctionalityService struct {
	db           *gorm.DB
	auditService *AuditService
	trees        *cache.Snapshot[[]FunctionalityNode]
}

// NewFunctionalityService constructs a FunctionalityService. A nil store disables tree caching.
func NewFunctionalityService(db *gorm.DB, auditService *AuditService, store cache.Store, treeTTL time.Duration) (*FunctionalityService, error) {
	if db == nil {
		return nil, errors.New("functionality service: db is required")
	}
	if treeTTL <= 0 {
		treeTTL = 5 * time.Minute
	}
	return &FunctionalityService{
		db:           db,
		auditService: auditService,
		trees:        cache.NewSnapshot[[]FunctionalityNode](store, treeCacheKeyPrefix, treeTTL),
	}, nil
}

// Tree returns the ordered forest of a project. An unknown project yields an empty forest.
func (s *FunctionalityService) Tree(ctx context.Context, projectCode string) ([]FunctionalityNode, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if errors.Is(err, ErrProjectNotFound) {
		return []FunctionalityNode{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("functionality service: %w", err)
	}

	// the generation is read before the rows so a write committing after the
	// query moves readers past whatever this call saves
	generation, cacheable := s.treeGeneration(ctx, project.Code)
	if cacheable {
		if forest, ok := s.cachedTree(ctx, project.Code, generation); ok {
			return forest, nil
		}
	}

	var rows []models.Functionality
	if err := s.db.WithContext(ctx).
		Where("project_id = ?", project.ID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("functionality service: load tree: %w", err)
	}

	forest := buildForest(rows)
	metrics.TreeNodes.WithLabelValues(project.Code).Set(float64(len(rows)))
	if cacheable {
		s.storeTree(ctx, project.Code, generation, forest)
	}

	return forest, nil
}

// Get returns a single node without its children.
func (s *FunctionalityService) Get(ctx context.Context, projectCode string, id int64) (*FunctionalityNode, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	row, err := loadFunctionality(ctx, s.db, project.ID, id)
	if err != nil {
		return nil, err
	}
	node := newFunctionalityNode(*row)
	return &node, nil
}

// Create inserts a node at the requested position.
func (s *FunctionalityService) Create(ctx context.Context, projectCode string, input CreateFunctionalityInput) (*FunctionalityNode, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}
	position, err := checkPosition(input.ReferenceID, input.RelativePosition)
	if err != nil {
		return nil, err
	}

	var created models.Functionality
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, project.ID); err != nil {
			return err
		}
		row, err := prepareFunctionality(ctx, tx, project.ID, input.Functionality.Type, input.Functionality)
		if err != nil {
			return err
		}
		place, err := resolvePlacement(ctx, tx, project.ID, input.ReferenceID, position, 0)
		if err != nil {
			return err
		}
		if err := ensureUniqueName(ctx, tx, project.ID, place.parentID, row.Type, row.Name, 0); err != nil {
			return err
		}

		row.ParentID = place.parentID
		row.Order = place.order
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		created = row
		return nil
	})
	if err = s.finishWrite(ctx, project, "create", err); err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "functionality.create",
		Resource:    strconv.FormatInt(created.ID, 10),
		Result:      AuditResultSuccess,
		Metadata: map[string]any{
			"name":     created.Name,
			"type":     created.Type,
			"parentId": created.ParentID,
			"order":    created.Order,
		},
	})

	node := newFunctionalityNode(created)
	return &node, nil
}

// Update replaces the editable attributes of a node. Type, parent and order are kept.
func (s *FunctionalityService) Update(ctx context.Context, projectCode string, id int64, input FunctionalityInput) (*FunctionalityNode, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	var updated *models.Functionality
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, project.ID); err != nil {
			return err
		}
		existing, err := loadFunctionality(ctx, tx, project.ID, id)
		if err != nil {
			return err
		}
		row, err := prepareFunctionality(ctx, tx, project.ID, existing.Type, input)
		if err != nil {
			return err
		}
		if err := ensureUniqueName(ctx, tx, project.ID, existing.ParentID, existing.Type, row.Name, existing.ID); err != nil {
			return err
		}

		updates := map[string]any{
			"name":            row.Name,
			"country_codes":   nullable(row.CountryCodes),
			"team_id":         nullable(row.TeamID),
			"severity":        nullable(row.Severity),
			"created":         nullable(row.Created),
			"started":         nullable(row.Started),
			"not_automatable": nullable(row.NotAutomatable),
			"comment":         nullable(row.Comment),
		}
		if err := tx.Model(&models.Functionality{}).Where("id = ?", existing.ID).Updates(updates).Error; err != nil {
			return err
		}

		updated, err = loadFunctionality(ctx, tx, project.ID, existing.ID)
		return err
	})
	if err = s.finishWrite(ctx, project, "update", err); err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "functionality.update",
		Resource:    strconv.FormatInt(updated.ID, 10),
		Result:      AuditResultSuccess,
		Metadata:    map[string]any{"name": updated.Name},
	})

	node := newFunctionalityNode(*updated)
	return &node, nil
}

// Delete removes a node with its whole subtree and returns the removed ids.
func (s *FunctionalityService) Delete(ctx context.Context, projectCode string, id int64) ([]int64, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}

	var removed []int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, project.ID); err != nil {
			return err
		}
		if _, err := loadFunctionality(ctx, tx, project.ID, id); err != nil {
			return err
		}
		parents, err := loadParents(ctx, tx, project.ID)
		if err != nil {
			return err
		}
		removed = collectSubtree(parents, id)
		return tx.Where("project_id = ? AND id IN ?", project.ID, removed).
			Delete(&models.Functionality{}).Error
	})
	if err = s.finishWrite(ctx, project, "delete", err); err != nil {
		return nil, err
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "functionality.delete",
		Resource:    strconv.FormatInt(id, 10),
		Result:      AuditResultSuccess,
		Metadata:    map[string]any{"removedIds": removed},
	})

	return removed, nil
}

// Move repositions a node together with its subtree.
func (s *FunctionalityService) Move(ctx context.Context, projectCode string, input MoveFunctionalityInput) (*FunctionalityNode, error) {
	moved, err := s.MoveList(ctx, projectCode, MoveFunctionalitiesInput{
		SourceIDs:        []int64{input.SourceID},
		ReferenceID:      input.ReferenceID,
		RelativePosition: input.RelativePosition,
	})
	if err != nil {
		return nil, err
	}
	return &moved[0], nil
}

// MoveList moves several nodes as one transaction. A source nested below another
// listed source travels with its ancestor and is not moved on its own.
func (s *FunctionalityService) MoveList(ctx context.Context, projectCode string, input MoveFunctionalitiesInput) ([]FunctionalityNode, error) {
	ctx = ensureContext(ctx)

	project, err := findProject(ctx, s.db, projectCode)
	if err != nil {
		return nil, err
	}
	position, err := checkPosition(input.ReferenceID, input.RelativePosition)
	if err != nil {
		return nil, err
	}
	sourceIDs := uniqueIDs(input.SourceIDs)
	if len(sourceIDs) == 0 {
		return nil, apperrors.InvalidField("sourceIds", "at least one source id is required")
	}

	var moved []models.Functionality
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockProject(ctx, tx, project.ID); err != nil {
			return err
		}
		parents, err := loadParents(ctx, tx, project.ID)
		if err != nil {
			return err
		}

		listed := make(map[int64]struct{}, len(sourceIDs))
		for _, id := range sourceIDs {
			if _, ok := parents[id]; !ok {
				return ErrFunctionalityNotFound.WithMessage("Functionality %d not found", id)
			}
			listed[id] = struct{}{}
		}

		if input.ReferenceID != nil {
			for id := range listed {
				if *input.ReferenceID == id || isDescendant(parents, *input.ReferenceID, id) {
					return ErrFunctionalityMoveIntoItself
				}
			}
		}

		referenceID, pos := input.ReferenceID, position
		for _, id := range sourceIDs {
			if hasListedAncestor(parents, id, listed) {
				continue
			}
			row, err := moveFunctionality(ctx, tx, project.ID, id, referenceID, pos)
			if err != nil {
				return err
			}
			moved = append(moved, *row)

			// following sources land right after the previous one
			if referenceID != nil && pos != PositionLastChild {
				previous := row.ID
				referenceID, pos = &previous, PositionBelow
			}
		}
		// only a parent cycle hides every source behind another listed one
		if len(moved) == 0 {
			return ErrFunctionalityMoveIntoItself
		}
		return nil
	})
	if err = s.finishWrite(ctx, project, "move", err); err != nil {
		return nil, err
	}

	nodes := make([]FunctionalityNode, 0, len(moved))
	ids := make([]int64, 0, len(moved))
	for _, row := range moved {
		nodes = append(nodes, newFunctionalityNode(row))
		ids = append(ids, row.ID)
	}

	recordAudit(s.auditService, ctx, AuditEntry{
		ProjectCode: project.Code,
		Action:      "functionality.move",
		Resource:    strconv.FormatInt(ids[0], 10),
		Result:      AuditResultSuccess,
		Metadata: map[string]any{
			"movedIds":         ids,
			"referenceId":      input.ReferenceID,
			"relativePosition": position,
		},
	})

	return nodes, nil
}

func moveFunctionality(ctx context.Context, tx *gorm.DB, projectID, sourceID int64, referenceID *int64, position RelativePosition) (*models.Functionality, error) {
	source, err := loadFunctionality(ctx, tx, projectID, sourceID)
	if err != nil {
		return nil, err
	}

	place, err := resolvePlacement(ctx, tx, projectID, referenceID, position, source.ID)
	if err != nil {
		return nil, err
	}
	if err := ensureUniqueName(ctx, tx, projectID, place.parentID, source.Type, source.Name, source.ID); err != nil {
		return nil, err
	}

	if err := tx.WithContext(ctx).
		Model(&models.Functionality{}).
		Where("id = ?", source.ID).
		Updates(map[string]any{
			"parent_id":  nullable(place.parentID),
			"sort_order": place.order,
		}).Error; err != nil {
		return nil, fmt.Errorf("move functionality %d: %w", source.ID, err)
	}

	source.ParentID = place.parentID
	source.Order = place.order
	return source, nil
}

// finishWrite records the outcome of a mutation and drops the cached tree on success.
func (s *FunctionalityService) finishWrite(ctx context.Context, project *models.Project, operation string, err error) error {
	if err != nil {
		metrics.FunctionalityWrites.WithLabelValues(operation, "failure").Inc()
		var appErr *apperrors.AppError
		if errors.As(err, &appErr) {
			return err
		}
		if uniqueViolation(err) {
			return ErrFunctionalityNameAlreadyExists
		}
		return fmt.Errorf("functionality service: %s: %w", operation, err)
	}

	metrics.FunctionalityWrites.WithLabelValues(operation, "success").Inc()
	s.invalidateTree(ctx, project.Code)
	return nil
}

func (s *FunctionalityService) treeGeneration(ctx context.Context, projectCode string) (string, bool) {
	generation, err := s.trees.Generation(ctx, projectCode)
	if err != nil {
		metrics.TreeCache.WithLabelValues("error").Inc()
		logger.WithProject("functionalities", projectCode).Warn("tree cache generation lookup failed", zap.Error(err))
		return "", false
	}
	return generation, true
}

func (s *FunctionalityService) cachedTree(ctx context.Context, projectCode, generation string) ([]FunctionalityNode, bool) {
	forest, ok, err := s.trees.Load(ctx, projectCode, generation)
	switch {
	case err != nil:
		metrics.TreeCache.WithLabelValues("error").Inc()
		logger.WithProject("functionalities", projectCode).Warn("tree cache lookup failed", zap.Error(err))
		return nil, false
	case !ok:
		metrics.TreeCache.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.TreeCache.WithLabelValues("hit").Inc()
	return forest, true
}

func (s *FunctionalityService) storeTree(ctx context.Context, projectCode, generation string, forest []FunctionalityNode) {
	if err := s.trees.Save(ctx, projectCode, generation, forest); err != nil {
		logger.WithProject("functionalities", projectCode).Warn("tree cache store failed", zap.Error(err))
	}
}

func (s *FunctionalityService) invalidateTree(ctx context.Context, projectCode string) {
	if err := s.trees.Invalidate(ctx, projectCode); err != nil {
		logger.WithProject("functionalities", projectCode).Warn("tree cache invalidation failed", zap.Error(err))
	}
}

func checkPosition(referenceID *int64, position RelativePosition) (RelativePosition, error) {
	if referenceID == nil {
		return PositionLastChild, nil
	}
	parsed, ok := ParseRelativePosition(string(position))
	if !ok {
		return "", apperrors.InvalidField("relativePosition", "relativePosition must be ABOVE, BELOW or LAST_CHILD")
	}
	return parsed, nil
}

// lockProject row-locks the project so its tree writes run one at a time and
// sibling checks and order allocation see each other's results. sqlite drops
// the clause and serialises writers on its own.
func lockProject(ctx context.Context, tx *gorm.DB, projectID int64) error {
	var project models.Project
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		Take(&project, projectID).Error; err != nil {
		return fmt.Errorf("lock project %d: %w", projectID, err)
	}
	return nil
}

func loadFunctionality(ctx context.Context, db *gorm.DB, projectID, id int64) (*models.Functionality, error) {
	var row models.Functionality
	err := db.WithContext(ctx).Take(&row, "id = ? AND project_id = ?", id, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFunctionalityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load functionality %d: %w", id, err)
	}
	return &row, nil
}

// loadParents maps every node id of the project to its parent id.
func loadParents(ctx context.Context, db *gorm.DB, projectID int64) (map[int64]*int64, error) {
	var rows []models.Functionality
	if err := db.WithContext(ctx).
		Select("id", "parent_id").
		Where("project_id = ?", projectID).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("load hierarchy: %w", err)
	}

	parents := make(map[int64]*int64, len(rows))
	for _, row := range rows {
		parents[row.ID] = row.ParentID
	}
	return parents, nil
}

// isDescendant reports whether node sits somewhere below ancestor.
func isDescendant(parents map[int64]*int64, node, ancestor int64) bool {
	current := parents[node]
	for steps := 0; current != nil && steps <= len(parents); steps++ {
		if *current == ancestor {
			return true
		}
		current = parents[*current]
	}
	return false
}

func hasListedAncestor(parents map[int64]*int64, id int64, listed map[int64]struct{}) bool {
	for ancestor := range listed {
		if ancestor != id && isDescendant(parents, id, ancestor) {
			return true
		}
	}
	return false
}

// collectSubtree returns root followed by all of its descendants.
func collectSubtree(parents map[int64]*int64, root int64) []int64 {
	children := make(map[int64][]int64, len(parents))
	for id, parent := range parents {
		if parent != nil {
			children[*parent] = append(children[*parent], id)
		}
	}

	seen := map[int64]struct{}{root: {}}
	ids := []int64{root}
	for i := 0; i < len(ids); i++ {
		for _, child := range children[ids[i]] {
			if _, ok := seen[child]; ok {
				continue
			}
			seen[child] = struct{}{}
			ids = append(ids, child)
		}
	}
	return ids
}

func uniqueIDs(ids []int64) []int64 {
	seen := make(map[int64]struct{}, len(ids))
	out := make([]int64, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok || id == 0 {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

// nullable unwraps p so that a nil pointer is written as SQL NULL.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
