package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/contactdesk/contacts-api/internal/model"
)

// AutoMigrate runs schema migrations for all application models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(
		&model.User{},
		&model.Contact{},
	); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}
