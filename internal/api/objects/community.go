package objects

import (
	"time"

	"github.com/steemit/threads/internal/models"
)

// CommunityDTO is the public view of a community.
type CommunityDTO struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	Image        string    `json:"image"`
	CreatedByID  string    `json:"createdById"`
	CreatedAt    time.Time `json:"createdAt"`
	MembersCount int64     `json:"membersCount"`
}

// CommunitySummaryDTO is the community summary embedded in threads.
type CommunitySummaryDTO struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Username  string    `json:"username"`
	Image     string    `json:"image"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromCommunity converts a stored community with its member count.
func FromCommunity(c *models.Community, membersCount int64) *CommunityDTO {
	if c == nil {
		return nil
	}
	return &CommunityDTO{
		ID:           c.ID,
		Name:         c.Name,
		Username:     c.Username,
		Bio:          c.Bio,
		Image:        c.Image,
		CreatedByID:  c.CreatedByID,
		CreatedAt:    c.CreatedAt,
		MembersCount: membersCount,
	}
}

// FromCommunities converts a list. counts is keyed by community ID; missing
// entries mean no members.
func FromCommunities(communities []models.Community, counts map[string]int64) []CommunityDTO {
	result := make([]CommunityDTO, 0, len(communities))
	for i := range communities {
		result = append(result, *FromCommunity(&communities[i], counts[communities[i].ID]))
	}
	return result
}
