package database

import (
	"errors"
	"log/slog"

	"gorm.io/gorm"

	"github.com/flopysoft/flopy-crm/internal/models"
	"github.com/flopysoft/flopy-crm/internal/security"
)

var defaultSettings = map[string]string{
	"company_name":   "Flopy CRM",
	"currency":       "USD",
	"date_format":    "2006-01-02",
	"items_per_page": "10",
}

// Seed creates the baseline roles, settings and the initial admin account.
// It is idempotent: existing rows are left untouched.
func Seed(db *gorm.DB, bcryptCost int) error {
	for _, name := range []string{models.RoleAdmin, models.RoleAgent, models.RoleClient} {
		role := models.Role{Name: name}
		if err := db.Where("name = ?", name).FirstOrCreate(&role).Error; err != nil {
			return err
		}
	}

	for key, value := range defaultSettings {
		setting := models.Setting{Key: key, Value: value}
		if err := db.Where("key = ?", key).FirstOrCreate(&setting).Error; err != nil {
			return err
		}
	}

	var admin models.User
	err := db.Where("email = ?", "admin@flopy.local").First(&admin).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	var adminRole models.Role
	if err := db.Where("name = ?", models.RoleAdmin).First(&adminRole).Error; err != nil {
		return err
	}

	hash, err := security.HashPassword("admin123", bcryptCost)
	if err != nil {
		return err
	}
	admin = models.User{
		RoleID:    adminRole.ID,
		FirstName: "Admin",
		LastName:  "User",
		Email:     "admin@flopy.local",
		Password:  hash,
		Status:    models.UserStatusActive,
	}
	if err := db.Create(&admin).Error; err != nil {
		return err
	}
	slog.Info("seeded initial admin account", "email", admin.Email)
	return nil
}
