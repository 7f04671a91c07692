package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Lifecycle is the audit envelope every entity embeds. Rows are never removed by
// the application; DeletedAt marks them inactive and gorm's soft-delete scope
// hides them from ordinary queries.
type Lifecycle struct {
	ID             string         `gorm:"type:uuid;primaryKey"  json:"id"`
	CreatedAt      time.Time      `gorm:"not null"              json:"created_at"`
	UpdatedAt      time.Time      `gorm:"not null"              json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index"                 json:"deleted_at,omitempty"`
	DeletedBy      *string        `gorm:"type:uuid"             json:"deleted_by,omitempty"`
	DeletionReason *string        `gorm:"type:varchar(255)"     json:"deletion_reason,omitempty"`
}

// BeforeCreate assigns the id client-side so callers have it before commit.
func (l *Lifecycle) BeforeCreate(_ *gorm.DB) error {
	if l.ID == "" {
		l.ID = uuid.NewString()
	}
	return nil
}

// IsDeleted reports whether the row was soft-deleted.
func (l *Lifecycle) IsDeleted() bool { return l.DeletedAt.Valid }
