package models

import "gorm.io/gorm"

// AllModels returns all models for migration.
// Quote must be migrated before Tag because of the foreign key.
func AllModels() []interface{} {
	return []interface{}{
		&Quote{},
		&Tag{},
	}
}

// AutoMigrate runs GORM auto-migration for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(AllModels()...)
}
