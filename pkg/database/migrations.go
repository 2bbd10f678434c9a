package database

import (
	"github.com/waassist/connector/pkg/entities"
	"gorm.io/gorm"
)

// AutoMigrate runs database migrations
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&entities.Organization{},
		&entities.User{},
		&entities.ConnectionRecord{},
		&entities.Lead{},
	)
}
