package database

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/charlesng35/qualitree/internal/models"
)

func TestTeamNamesUniquePerProject(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	require.NoError(t, db.Create(&models.Team{ProjectID: 1, Name: "Core"}).Error)
	require.NoError(t, db.Create(&models.Team{ProjectID: 2, Name: "Core"}).Error)

	err := db.Create(&models.Team{ProjectID: 1, Name: "Core"}).Error
	require.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestFunctionalityLeafColumnsNullable(t *testing.T) {
	db := openTestDB(t)
	require.NoError(t, AutoMigrate(db))

	folder := models.Functionality{ProjectID: 1, Order: 1000, Type: models.FunctionalityTypeFolder, Name: "Folder"}
	require.NoError(t, db.Create(&folder).Error)

	var loaded models.Functionality
	require.NoError(t, db.First(&loaded, folder.ID).Error)
	require.Nil(t, loaded.ParentID)
	require.Nil(t, loaded.Severity)
	require.Nil(t, loaded.Started)
	require.Equal(t, 1000, loaded.Order)
}
