package services

import (
	"sort"

	"github.com/charlesng35/qualitree/internal/models"
)

// FunctionalityNode is the API view of a tree node. Null attributes are serialised explicitly.
type FunctionalityNode struct {
	ID                      int64                         `json:"id"`
	ParentID                *int64                        `json:"parentId"`
	Order                   int                           `json:"order"`
	Type                    models.FunctionalityType      `json:"type"`
	Name                    string                        `json:"name"`
	CountryCodes            *string                       `json:"countryCodes"`
	TeamID                  *int64                        `json:"teamId"`
	Severity                *models.FunctionalitySeverity `json:"severity"`
	Created                 *string                       `json:"created"`
	Started                 *bool                         `json:"started"`
	NotAutomatable          *bool                         `json:"notAutomatable"`
	CoveredScenarios        *int                          `json:"coveredScenarios"`
	CoveredCountryScenarios *string                       `json:"coveredCountryScenarios"`
	IgnoredScenarios        *int                          `json:"ignoredScenarios"`
	IgnoredCountryScenarios *string                       `json:"ignoredCountryScenarios"`
	Comment                 *string                       `json:"comment"`
	Children                []FunctionalityNode           `json:"children"`
}

// newFunctionalityNode maps a row without its children.
func newFunctionalityNode(row models.Functionality) FunctionalityNode {
	node := FunctionalityNode{
		ID:       row.ID,
		ParentID: row.ParentID,
		Order:    row.Order,
		Type:     row.Type,
		Name:     row.Name,
		Children: []FunctionalityNode{},
	}
	if row.IsFolder() {
		return node
	}
	node.CountryCodes = row.CountryCodes
	node.TeamID = row.TeamID
	node.Severity = row.Severity
	node.Created = row.Created
	node.Started = row.Started
	node.NotAutomatable = row.NotAutomatable
	node.CoveredScenarios = row.CoveredScenarios
	node.CoveredCountryScenarios = row.CoveredCountryScenarios
	node.IgnoredScenarios = row.IgnoredScenarios
	node.IgnoredCountryScenarios = row.IgnoredCountryScenarios
	node.Comment = row.Comment
	return node
}

// buildForest assembles flat rows into sorted trees in linear time after sorting.
// Rows whose parent is absent from the set become roots.
func buildForest(rows []models.Functionality) []FunctionalityNode {
	present := make(map[int64]struct{}, len(rows))
	for _, row := range rows {
		present[row.ID] = struct{}{}
	}

	childrenOf := make(map[int64][]models.Functionality, len(rows))
	roots := make([]models.Functionality, 0)
	for _, row := range rows {
		if row.ParentID != nil && *row.ParentID != row.ID {
			if _, ok := present[*row.ParentID]; ok {
				childrenOf[*row.ParentID] = append(childrenOf[*row.ParentID], row)
				continue
			}
		}
		roots = append(roots, row)
	}

	visited := make(map[int64]struct{}, len(rows))
	var build func(rows []models.Functionality) []FunctionalityNode
	build = func(level []models.Functionality) []FunctionalityNode {
		sortSiblings(level)
		nodes := make([]FunctionalityNode, 0, len(level))
		for _, row := range level {
			if _, seen := visited[row.ID]; seen {
				continue
			}
			visited[row.ID] = struct{}{}
			node := newFunctionalityNode(row)
			node.Children = build(childrenOf[row.ID])
			nodes = append(nodes, node)
		}
		return nodes
	}

	forest := build(roots)

	// rows caught in a parent cycle are unreachable from any root
	if len(visited) < len(rows) {
		var stranded []models.Functionality
		for _, row := range rows {
			if _, seen := visited[row.ID]; !seen {
				stranded = append(stranded, row)
			}
		}
		sortSiblings(stranded)
		for _, row := range stranded {
			if _, seen := visited[row.ID]; seen {
				continue
			}
			forest = append(forest, build([]models.Functionality{row})...)
		}
		sort.SliceStable(forest, func(i, j int) bool {
			return lessNode(forest[i].Order, forest[i].ID, forest[j].Order, forest[j].ID)
		})
	}

	return forest
}

func sortSiblings(rows []models.Functionality) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessNode(rows[i].Order, rows[i].ID, rows[j].Order, rows[j].ID)
	})
}

func lessNode(orderA int, idA int64, orderB int, idB int64) bool {
	if orderA != orderB {
		return orderA < orderB
	}
	return idA < idB
}

func countNodes(nodes []FunctionalityNode) int {
	total := len(nodes)
	for _, node := range nodes {
		total += countNodes(node.Children)
	}
	return total
}
