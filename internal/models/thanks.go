package models

import "gorm.io/gorm"

// Thanks is an acknowledgment reaction on an update. The compound unique
// index enforces at most one per (user, update) pair; handlers additionally
// find-before-insert so a duplicate reads as a conflict, not a driver error.
type Thanks struct {
	gorm.Model

	PostUserID uint `gorm:"not null;uniqueIndex:idx_thanks_user_update"`
	UpdateID   uint `gorm:"not null;uniqueIndex:idx_thanks_user_update;index"`

	// Relationships
	PostUser User   `gorm:"foreignKey:PostUserID"`
	Update   Update `gorm:"foreignKey:UpdateID"`
}
