// Package objects holds the JSON shapes returned to clients and the
// conversions from stored entities.
package objects

import (
	"time"

	"github.com/steemit/threads/internal/models"
)

// UserDTO is the public view of a user.
type UserDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	ProfilePhoto string    `json:"profilePhoto"`
	Onboarded    bool      `json:"onboarded"`
	CreatedAt    time.Time `json:"createdAt"`
}

// AuthorDTO is the user summary embedded in threads.
type AuthorDTO struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfilePhoto string `json:"profilePhoto"`
}

// FromUser converts a stored user.
func FromUser(u *models.User) *UserDTO {
	if u == nil {
		return nil
	}
	return &UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Bio:          u.Bio,
		ProfilePhoto: u.ProfilePhoto,
		Onboarded:    u.Onboarded,
		CreatedAt:    u.CreatedAt,
	}
}

// FromUsers converts a list, never returning nil.
func FromUsers(users []models.User) []UserDTO {
	result := make([]UserDTO, 0, len(users))
	for i := range users {
		result = append(result, *FromUser(&users[i]))
	}
	return result
}
