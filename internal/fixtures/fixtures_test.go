package fixtures_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/charlesng35/qualitree/internal/database/testutil"
	"github.com/charlesng35/qualitree/internal/fixtures"
	"github.com/charlesng35/qualitree/internal/models"
)

func TestDefaultDatasetApplies(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithFixtures())

	var count int64
	require.NoError(t, db.Model(&models.Functionality{}).Where("project_id = ?", 1).Count(&count).Error)
	require.EqualValues(t, 9, count)

	var node models.Functionality
	require.NoError(t, db.First(&node, 111).Error)
	require.Equal(t, "be,nl", *node.CountryCodes)
	require.Equal(t, models.SeverityLow, *node.Severity)
	require.False(t, *node.Started)
	require.Equal(t, 5, *node.CoveredScenarios)

	var team models.Team
	require.NoError(t, db.First(&team, 3).Error)
	require.False(t, team.AssignFunctionalities)
}

func TestDecodeEmptyDocument(t *testing.T) {
	set, err := fixtures.Decode(strings.NewReader(""))
	require.NoError(t, err)
	require.Empty(t, set.Functionalities)
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	_, err := fixtures.Decode(strings.NewReader("widgets: []\n"))
	require.Error(t, err)
}

func TestDecodeValidatesReferences(t *testing.T) {
	cases := map[string]string{
		"unknown project": `
functionalities:
  - {id: 1, projectId: 9, order: 1000, type: FOLDER, name: A}
`,
		"bad type": `
projects: [{id: 1, code: p, name: P}]
functionalities:
  - {id: 1, projectId: 1, order: 1000, type: WIDGET, name: A}
`,
		"leaf parent": `
projects: [{id: 1, code: p, name: P}]
functionalities:
  - {id: 1, projectId: 1, order: 1000, type: FUNCTIONALITY, name: A}
  - {id: 2, projectId: 1, parentId: 1, order: 1000, type: FUNCTIONALITY, name: B}
`,
		"duplicate id": `
projects: [{id: 1, code: p, name: P}]
functionalities:
  - {id: 1, projectId: 1, order: 1000, type: FOLDER, name: A}
  - {id: 1, projectId: 1, order: 2000, type: FOLDER, name: B}
`,
	}

	for name, doc := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := fixtures.Decode(strings.NewReader(doc))
			require.Error(t, err)
		})
	}
}

func TestApplyClearsFolderLeafAttributes(t *testing.T) {
	db := testutil.MustOpenTestDB(t, testutil.WithAutoMigrate())

	set, err := fixtures.Decode(strings.NewReader(`
projects: [{id: 1, code: p, name: P}]
functionalities:
  - {id: 1, projectId: 1, order: 1000, type: FOLDER, name: A, comment: dropped, teamId: 4}
`))
	require.NoError(t, err)
	require.NoError(t, set.Apply(context.Background(), db))

	var node models.Functionality
	require.NoError(t, db.First(&node, 1).Error)
	require.Nil(t, node.Comment)
	require.Nil(t, node.TeamID)
}
