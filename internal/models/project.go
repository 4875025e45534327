package models

import (
	"time"

	"github.com/lib/pq"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Project struct {
	gorm.Model

	Name      string `gorm:"not null"`
	CreatorID uint   `gorm:"not null;index"` // immutable owner
	Active    bool   `gorm:"default:true"`

	// Tags are normalized before storage: lowercase, trimmed, deduplicated.
	Tags pq.StringArray `gorm:"type:text[]"`

	// Ordered dates on which updates are expected from participants.
	ScheduledUpdates datatypes.JSONSlice[time.Time]

	// Relationships
	Creator            User                `gorm:"foreignKey:CreatorID"`
	ProjectMemberships []ProjectMembership `gorm:"foreignKey:ProjectID"`
	Updates            []Update            `gorm:"foreignKey:ProjectID"`
}
