package seeders

import (
	"strings"

	"gorm.io/gorm"

	"github.com/shashiranjanraj/wellness360/app/models"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/pkg/auth"
)

func init() {
	Register("admin", SeedAdmin)
}

// SeedAdmin creates the back-office account from ADMIN_EMAIL and
// ADMIN_PASSWORD when it does not exist yet.
func SeedAdmin(db *gorm.DB) error {
	email := strings.ToLower(config.Get("ADMIN_EMAIL", "admin@wellness360.local"))
	var n int64
	if err := db.Model(&models.Customer{}).Where("email = ?", email).Count(&n).Error; err != nil {
		return err
	}
	if n > 0 {
		return nil
	}
	hash, err := auth.HashPassword(config.Get("ADMIN_PASSWORD", "change-me-now"))
	if err != nil {
		return err
	}
	return db.Create(&models.Customer{
		Name:     "Administrator",
		Email:    email,
		Password: hash,
		Role:     auth.RoleAdmin,
	}).Error
}
