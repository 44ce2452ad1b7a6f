package database

import (
	"gorm.io/gorm"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/models"
)

// AutoMigrate creates or updates the database schema for all models.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&models.User{},
		&models.Post{},
		&models.CacheEntry{},
	)
}
