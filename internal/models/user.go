package models

import (
	"time"
)

// User is keyed by the identifier issued by the external identity provider.
// Username is unique once set; users created before onboarding may hold an
// empty handle, so the unique index skips empty values.
type User struct {
	ID           string    `gorm:"primaryKey;type:text;column:id"`
	Name         string    `gorm:"type:text;not null;default:'';column:name"`
	Username     string    `gorm:"type:text;not null;default:'';uniqueIndex:users_username_ux,where:username <> '';column:username"`
	Bio          string    `gorm:"type:text;not null;default:'';column:bio"`
	ProfilePhoto string    `gorm:"type:text;not null;default:'';column:profile_photo"`
	Onboarded    bool      `gorm:"not null;default:false;column:onboarded"`
	CreatedAt    time.Time `gorm:"not null;column:created_at"`
	UpdatedAt    time.Time `gorm:"not null;column:updated_at"`
}

// TableName specifies the table name for User
func (User) TableName() string {
	return "users"
}
