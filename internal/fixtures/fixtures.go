// Package fixtures loads static YAML datasets into the database.
package fixtures

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
)

//go:embed data/default.yaml
var defaultDataset []byte

// Set is a decoded fixture dataset.
type Set struct {
	Projects        []Project       `yaml:"projects"`
	Teams           []Team          `yaml:"teams"`
	Countries       []Country       `yaml:"countries"`
	Functionalities []Functionality `yaml:"functionalities"`
}

type Project struct {
	ID               int64  `yaml:"id"`
	Code             string `yaml:"code"`
	Name             string `yaml:"name"`
	DefaultAtStartup bool   `yaml:"defaultAtStartup"`
}

type Team struct {
	ID                    int64  `yaml:"id"`
	ProjectID             int64  `yaml:"projectId"`
	Name                  string `yaml:"name"`
	AssignFunctionalities bool   `yaml:"assignFunctionalities"`
}

type Country struct {
	ID        int64  `yaml:"id"`
	ProjectID int64  `yaml:"projectId"`
	Code      string `yaml:"code"`
	Name      string `yaml:"name"`
}

// Functionality mirrors models.Functionality; absent keys stay nil.
type Functionality struct {
	ID                      int64   `yaml:"id"`
	ProjectID               int64   `yaml:"projectId"`
	ParentID                *int64  `yaml:"parentId"`
	Order                   int     `yaml:"order"`
	Type                    string  `yaml:"type"`
	Name                    string  `yaml:"name"`
	CountryCodes            *string `yaml:"countryCodes"`
	TeamID                  *int64  `yaml:"teamId"`
	Severity                *string `yaml:"severity"`
	Created                 *string `yaml:"created"`
	Started                 *bool   `yaml:"started"`
	NotAutomatable          *bool   `yaml:"notAutomatable"`
	CoveredScenarios        *int    `yaml:"coveredScenarios"`
	CoveredCountryScenarios *string `yaml:"coveredCountryScenarios"`
	IgnoredScenarios        *int    `yaml:"ignoredScenarios"`
	IgnoredCountryScenarios *string `yaml:"ignoredCountryScenarios"`
	Comment                 *string `yaml:"comment"`
}

// Default returns the embedded dataset.
func Default() (*Set, error) {
	return Decode(bytes.NewReader(defaultDataset))
}

// LoadFile decodes a dataset from a YAML file.
func LoadFile(path string) (*Set, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("fixtures: open %s: %w", path, err)
	}
	defer f.Close()
	return Decode(f)
}

// Decode parses and validates a YAML dataset.
func Decode(r io.Reader) (*Set, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var set Set
	if err := dec.Decode(&set); err != nil {
		if errors.Is(err, io.EOF) {
			return &set, nil
		}
		return nil, fmt.Errorf("fixtures: decode: %w", err)
	}
	if err := set.validate(); err != nil {
		return nil, err
	}
	return &set, nil
}

func (s *Set) validate() error {
	projects := make(map[int64]struct{}, len(s.Projects))
	for _, p := range s.Projects {
		projects[p.ID] = struct{}{}
	}

	nodes := make(map[int64]Functionality, len(s.Functionalities))
	for _, f := range s.Functionalities {
		if f.ID == 0 {
			return fmt.Errorf("fixtures: functionality %q has no id", f.Name)
		}
		if _, dup := nodes[f.ID]; dup {
			return fmt.Errorf("fixtures: duplicate functionality id %d", f.ID)
		}
		if _, ok := projects[f.ProjectID]; !ok {
			return fmt.Errorf("fixtures: functionality %d references unknown project %d", f.ID, f.ProjectID)
		}
		if !models.FunctionalityType(f.Type).Valid() {
			return fmt.Errorf("fixtures: functionality %d has invalid type %q", f.ID, f.Type)
		}
		if f.Severity != nil && !models.FunctionalitySeverity(*f.Severity).Valid() {
			return fmt.Errorf("fixtures: functionality %d has invalid severity %q", f.ID, *f.Severity)
		}
		nodes[f.ID] = f
	}

	for _, f := range s.Functionalities {
		if f.ParentID == nil {
			continue
		}
		parent, ok := nodes[*f.ParentID]
		if !ok {
			return fmt.Errorf("fixtures: functionality %d references unknown parent %d", f.ID, *f.ParentID)
		}
		if parent.ProjectID != f.ProjectID {
			return fmt.Errorf("fixtures: functionality %d and its parent belong to different projects", f.ID)
		}
		if parent.Type != string(models.FunctionalityTypeFolder) {
			return fmt.Errorf("fixtures: functionality %d has a non-folder parent %d", f.ID, parent.ID)
		}
	}
	return nil
}

// Apply inserts the dataset in a single transaction.
func (s *Set) Apply(ctx context.Context, db *gorm.DB) error {
	if db == nil {
		return errors.New("fixtures: db is required")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, p := range s.Projects {
			row := models.Project{
				BaseModel:        models.BaseModel{ID: p.ID},
				Code:             p.Code,
				Name:             p.Name,
				DefaultAtStartup: p.DefaultAtStartup,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("fixtures: project %s: %w", p.Code, err)
			}
		}
		for _, t := range s.Teams {
			row := models.Team{
				BaseModel:             models.BaseModel{ID: t.ID},
				ProjectID:             t.ProjectID,
				Name:                  t.Name,
				AssignFunctionalities: t.AssignFunctionalities,
			}
			// gorm skips zero-value bools that have a column default
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("fixtures: team %s: %w", t.Name, err)
			}
			if !t.AssignFunctionalities {
				if err := tx.Model(&row).Update("assign_functionalities", false).Error; err != nil {
					return fmt.Errorf("fixtures: team %s: %w", t.Name, err)
				}
			}
		}
		for _, c := range s.Countries {
			row := models.Country{
				BaseModel: models.BaseModel{ID: c.ID},
				ProjectID: c.ProjectID,
				Code:      c.Code,
				Name:      c.Name,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("fixtures: country %s: %w", c.Code, err)
			}
		}
		for _, f := range s.Functionalities {
			row := f.model()
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("fixtures: functionality %d: %w", f.ID, err)
			}
		}
		return resetSequences(tx)
	})
}

// resetSequences moves postgres id sequences past the explicit fixture ids.
func resetSequences(tx *gorm.DB) error {
	if tx.Dialector.Name() != "postgres" {
		return nil
	}
	for _, table := range []string{"projects", "teams", "countries", "functionalities"} {
		stmt := fmt.Sprintf("SELECT setval(pg_get_serial_sequence('%[1]s', 'id'), COALESCE((SELECT MAX(id) FROM %[1]s), 0) + 1, false)", table)
		if err := tx.Exec(stmt).Error; err != nil {
			return fmt.Errorf("fixtures: reset %s sequence: %w", table, err)
		}
	}
	return nil
}

func (f Functionality) model() models.Functionality {
	row := models.Functionality{
		BaseModel:               models.BaseModel{ID: f.ID},
		ProjectID:               f.ProjectID,
		ParentID:                f.ParentID,
		Order:                   f.Order,
		Type:                    models.FunctionalityType(f.Type),
		Name:                    f.Name,
		CountryCodes:            f.CountryCodes,
		TeamID:                  f.TeamID,
		Created:                 f.Created,
		Started:                 f.Started,
		NotAutomatable:          f.NotAutomatable,
		CoveredScenarios:        f.CoveredScenarios,
		CoveredCountryScenarios: f.CoveredCountryScenarios,
		IgnoredScenarios:        f.IgnoredScenarios,
		IgnoredCountryScenarios: f.IgnoredCountryScenarios,
		Comment:                 f.Comment,
	}
	if f.Severity != nil {
		severity := models.FunctionalitySeverity(*f.Severity)
		row.Severity = &severity
	}
	if row.IsFolder() {
		row.ClearLeafAttributes()
	}
	return row
}
