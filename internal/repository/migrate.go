package repository

import "gorm.io/gorm"

// AutoMigrate creates or updates the tables the repositories use.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(&userModel{}, &bookingModel{})
}
