package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
)

// RelativePosition places a node relative to a reference node.
type RelativePosition string

const (
	PositionAbove     RelativePosition = "ABOVE"
	PositionBelow     RelativePosition = "BELOW"
	PositionLastChild RelativePosition = "LAST_CHILD"
)

// Valid reports whether p is a known position.
func (p RelativePosition) Valid() bool {
	switch p {
	case PositionAbove, PositionBelow, PositionLastChild:
		return true
	default:
		return false
	}
}

// ParseRelativePosition accepts positions case-insensitively; blank means LAST_CHILD.
func ParseRelativePosition(raw string) (RelativePosition, bool) {
	raw = strings.ToUpper(strings.TrimSpace(raw))
	if raw == "" {
		return PositionLastChild, true
	}
	position := RelativePosition(raw)
	return position, position.Valid()
}

// OrderGap is the distance between consecutive siblings after renumbering.
const OrderGap = 1000

type placement struct {
	parentID *int64
	order    int
}

// resolvePlacement computes where a node lands. A nil reference appends a root.
// movingID is excluded from the sibling set so a node can be repositioned among its own siblings.
func resolvePlacement(ctx context.Context, tx *gorm.DB, projectID int64, referenceID *int64, position RelativePosition, movingID int64) (placement, error) {
	if referenceID == nil {
		siblings, err := loadSiblings(ctx, tx, projectID, nil, movingID)
		if err != nil {
			return placement{}, err
		}
		return placement{order: appendOrder(siblings)}, nil
	}

	var reference models.Functionality
	err := tx.WithContext(ctx).Take(&reference, "id = ? AND project_id = ?", *referenceID, projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return placement{}, ErrFunctionalityNotFound.WithMessage("Reference functionality %d not found", *referenceID)
	}
	if err != nil {
		return placement{}, fmt.Errorf("load reference: %w", err)
	}

	if position == PositionLastChild {
		if !reference.IsFolder() {
			return placement{}, ErrFunctionalityReferenceNotFolder
		}
		siblings, err := loadSiblings(ctx, tx, projectID, &reference.ID, movingID)
		if err != nil {
			return placement{}, err
		}
		return placement{parentID: &reference.ID, order: appendOrder(siblings)}, nil
	}

	if reference.ID == movingID {
		return placement{}, ErrFunctionalityMoveIntoItself
	}

	siblings, err := loadSiblings(ctx, tx, projectID, reference.ParentID, movingID)
	if err != nil {
		return placement{}, err
	}

	index := -1
	for i, sibling := range siblings {
		if sibling.ID == reference.ID {
			index = i
			break
		}
	}
	if index < 0 {
		return placement{}, fmt.Errorf("reference %d missing from its sibling list", reference.ID)
	}
	if position == PositionBelow {
		index++
	}

	order, err := insertOrder(ctx, tx, siblings, index)
	if err != nil {
		return placement{}, err
	}
	return placement{parentID: reference.ParentID, order: order}, nil
}

func loadSiblings(ctx context.Context, tx *gorm.DB, projectID int64, parentID *int64, excludeID int64) ([]models.Functionality, error) {
	query := tx.WithContext(ctx).
		Select("id", "sort_order").
		Where("project_id = ?", projectID)
	if parentID == nil {
		query = query.Where("parent_id IS NULL")
	} else {
		query = query.Where("parent_id = ?", *parentID)
	}
	if excludeID != 0 {
		query = query.Where("id <> ?", excludeID)
	}

	var siblings []models.Functionality
	if err := query.Order("sort_order ASC, id ASC").Find(&siblings).Error; err != nil {
		return nil, fmt.Errorf("load siblings: %w", err)
	}
	return siblings, nil
}

func appendOrder(siblings []models.Functionality) int {
	if len(siblings) == 0 {
		return OrderGap
	}
	return siblings[len(siblings)-1].Order + OrderGap
}

// insertOrder returns an order that sorts the new node at index among siblings,
// renumbering the siblings when no integer is free between the neighbours.
func insertOrder(ctx context.Context, tx *gorm.DB, siblings []models.Functionality, index int) (int, error) {
	if index >= len(siblings) {
		return appendOrder(siblings), nil
	}

	previous := 0
	if index > 0 {
		previous = siblings[index-1].Order
	}
	next := siblings[index].Order
	if next-previous >= 2 {
		return previous + (next-previous)/2, nil
	}

	for i := range siblings {
		position := i + 1
		if i >= index {
			position++
		}
		order := position * OrderGap
		if siblings[i].Order == order {
			continue
		}
		if err := tx.WithContext(ctx).
			Model(&models.Functionality{}).
			Where("id = ?", siblings[i].ID).
			Update("sort_order", order).Error; err != nil {
			return 0, fmt.Errorf("renumber siblings: %w", err)
		}
		siblings[i].Order = order
	}
	return (index + 1) * OrderGap, nil
}
