package models

import "gorm.io/gorm"

type Update struct {
	gorm.Model

	ProjectID uint   `gorm:"not null;index"`
	AuthorID  uint   `gorm:"not null;index"`
	Status    string `gorm:"not null"` // "on track", "at risk", "blocked", etc.
	Summary   string `gorm:"not null"` // length-capped at the HTTP boundary
	Details   string
	Todos     string
	Blockers  string

	// Relationships
	Project Project `gorm:"foreignKey:ProjectID"`
	Author  User    `gorm:"foreignKey:AuthorID"`
}
