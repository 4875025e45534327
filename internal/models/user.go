package models

import "gorm.io/gorm"

type User struct {
	gorm.Model

	FirstName    string `gorm:"not null"`
	LastName     string `gorm:"not null"`
	Email        string `gorm:"uniqueIndex;not null"` // stored lowercase
	PasswordHash string `gorm:"not null"`

	// Relationships. Removal of dependents is sequenced by the cascade
	// engine rather than by database-level ON DELETE constraints, so a
	// partially applied cascade is observable and retryable.
	CreatedProjects    []Project           `gorm:"foreignKey:CreatorID"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:UserID"`
	Updates            []Update            `gorm:"foreignKey:AuthorID"`
}
