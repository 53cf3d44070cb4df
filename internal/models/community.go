package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Community represents a community
type Community struct {
	ID          string    `gorm:"primaryKey;type:text;column:id"`
	Username    string    `gorm:"type:text;not null;uniqueIndex:communities_username_ux;column:username"`
	Name        string    `gorm:"type:text;not null;column:name"`
	Bio         string    `gorm:"type:text;not null;default:'';column:bio"`
	Image       string    `gorm:"type:text;not null;default:'';column:image"`
	CreatedByID string    `gorm:"type:text;not null;index;column:created_by_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at"`

	// Relationships
	CreatedBy *User `gorm:"foreignKey:CreatedByID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for Community
func (Community) TableName() string {
	return "communities"
}

// CommunityMember links a user to a community. A (community, member) pair
// appears at most once.
type CommunityMember struct {
	ID          string    `gorm:"primaryKey;type:text;column:id"`
	CommunityID string    `gorm:"type:text;not null;uniqueIndex:community_members_ux1,priority:1;column:community_id"`
	MemberID    string    `gorm:"type:text;not null;uniqueIndex:community_members_ux1,priority:2;index:community_members_member_idx;column:member_id"`
	CreatedAt   time.Time `gorm:"not null;column:created_at"`
	UpdatedAt   time.Time `gorm:"not null;column:updated_at"`

	// Relationships
	Community *Community `gorm:"foreignKey:CommunityID;references:ID;constraint:OnDelete:CASCADE"`
	Member    *User      `gorm:"foreignKey:MemberID;references:ID;constraint:OnDelete:CASCADE"`
}

// TableName specifies the table name for CommunityMember
func (CommunityMember) TableName() string {
	return "community_members"
}

// BeforeCreate assigns an identifier to new membership rows.
func (m *CommunityMember) BeforeCreate(tx *gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}
