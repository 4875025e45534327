package models

import "gorm.io/gorm"

// EyesWanted flags an update as waiting on a user's attention. One row per
// (user, update) pair; dismissed by deleting the row.
type EyesWanted struct {
	gorm.Model

	UserID   uint `gorm:"not null;uniqueIndex:idx_eyes_user_update"`
	UpdateID uint `gorm:"not null;uniqueIndex:idx_eyes_user_update;index"`

	// Relationships
	User   User   `gorm:"foreignKey:UserID"`
	Update Update `gorm:"foreignKey:UpdateID"`
}
