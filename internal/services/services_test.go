package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/database"
	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/security"
)

// testDB opens a fresh in-memory database with the full schema. A
// single connection keeps sqlite's per-connection memory stores from
// splitting the data.
func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, database.Migrate(db))
	return db
}

func testConfig() *config.Config {
	return &config.Config{
		BcryptCost:         bcrypt.MinCost,
		MinPasswordLength:  8,
		APITokenLifetime:   24 * time.Hour,
		RememberCookieDays: 30,
		JWTSecret:          "test-secret",
	}
}

// testNow is a fixed reference instant for services that take a clock.
func testNow() time.Time {
	return time.Date(2026, time.March, 2, 12, 0, 0, 0, time.UTC)
}

func seedRoles(t *testing.T, db *gorm.DB) {
	t.Helper()
	for _, name := range []string{models.RoleAdmin, models.RoleAgent, models.RoleClient} {
		require.NoError(t, db.Create(&models.Role{Name: name}).Error)
	}
}

// seedUser inserts an active agent account and returns it.
func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	var role models.Role
	require.NoError(t, db.Where("name = ?", models.RoleAgent).First(&role).Error)
	hash, err := security.HashPassword("password123", bcrypt.MinCost)
	require.NoError(t, err)
	user := models.User{
		RoleID:    role.ID,
		FirstName: "Test",
		LastName:  "Agent",
		Email:     email,
		Password:  hash,
		Status:    models.UserStatusActive,
	}
	require.NoError(t, db.Create(&user).Error)
	return &user
}
