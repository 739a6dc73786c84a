// Package testutil opens throwaway sqlite databases and seeds them for package tests.
package testutil

import (
	"path/filepath"
	"testing"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"complaint-service/internal/db"
	"complaint-service/internal/model"
)

func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "complaints.sqlite")
	database, err := gorm.Open(sqlite.Open(db.SQLiteDSN(dsn)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(database))
	return database
}

func CreateZone(t *testing.T, database *gorm.DB, name, code string) *model.Zone {
	t.Helper()
	zone := &model.Zone{Name: name, Code: code}
	require.NoError(t, database.Create(zone).Error)
	return zone
}

// CreateUser stores an active user with unique contact details. zone may be nil.
func CreateUser(t *testing.T, database *gorm.DB, role model.UserRole, zone *model.Zone) *model.User {
	t.Helper()
	id := uuid.New()
	user := &model.User{
		ID:           id,
		Role:         role,
		FullName:     "User " + id.String()[:8],
		MobileNumber: id.String()[:15],
		Email:        id.String() + "@example.org",
		IsActive:     true,
	}
	if zone != nil {
		zoneID := zone.ID
		user.ZoneID = &zoneID
	}
	require.NoError(t, database.Omit("Zone").Create(user).Error)
	return user
}

// PrincipalFor builds the token principal matching user.
func PrincipalFor(user *model.User) model.Principal {
	return model.Principal{
		UserID: user.ID,
		Role:   user.Role,
		ZoneID: user.ZoneID,
	}
}
