package database

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/noah-isme/retention-api/internal/models"
)

// Models lists every persisted entity, in dependency order.
func Models() []interface{} {
	return []interface{}{
		&models.Student{},
		&models.Document{},
		&models.RetentionAlert{},
		&models.RetentionActivity{},
		&models.BusinessHours{},
		&models.Commitment{},
		&models.AuditEntry{},
		&models.Notification{},
	}
}

// Migrate creates or updates the schema for all persisted entities.
func Migrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models()...); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}
	return nil
}
