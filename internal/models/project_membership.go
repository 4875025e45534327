package models

import "gorm.io/gorm"

const (
	RoleParticipant = "participant"
	RoleInvited     = "invited"
)

// ProjectMembership ties a user to a project either as an accepted
// participant or as a pending invitee. The compound unique index keeps a
// user in at most one of the two roles per project.
type ProjectMembership struct {
	gorm.Model

	UserID    uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	ProjectID uint   `gorm:"not null;uniqueIndex:idx_user_project"`
	Role      string `gorm:"not null"`

	// Relationships
	User    User    `gorm:"foreignKey:UserID"`
	Project Project `gorm:"foreignKey:ProjectID"`
}
