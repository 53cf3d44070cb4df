package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Thread is a post when ParentThreadID is nil and a comment otherwise.
// Comment trees live in this one table; children are found with a
// parent_thread_id filter.
type Thread struct {
	ID             uuid.UUID  `gorm:"primaryKey;type:uuid;column:id"`
	Text           string     `gorm:"type:text;not null;column:text"`
	AuthorID       string     `gorm:"type:text;not null;index;column:author_id"`
	CommunityID    *string    `gorm:"type:text;index;column:community_id"`
	ParentThreadID *uuid.UUID `gorm:"type:uuid;index;column:parent_thread_id"`
	CreatedAt      time.Time  `gorm:"not null;column:created_at"`
	UpdatedAt      time.Time  `gorm:"not null;column:updated_at"`

	// Relationships
	Author    *User      `gorm:"foreignKey:AuthorID;references:ID;constraint:OnDelete:RESTRICT"`
	Community *Community `gorm:"foreignKey:CommunityID;references:ID;constraint:OnDelete:RESTRICT"`
	Parent    *Thread    `gorm:"foreignKey:ParentThreadID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Thread
func (Thread) TableName() string {
	return "threads"
}

// BeforeCreate generates the thread identifier.
func (t *Thread) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}

// IsComment reports whether the thread replies to another thread.
func (t *Thread) IsComment() bool {
	return t.ParentThreadID != nil
}

// All returns every model managed by the schema migration.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Community{},
		&CommunityMember{},
		&Thread{},
	}
}
