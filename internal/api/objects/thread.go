package objects

import (
	"time"

	"github.com/google/uuid"

	"github.com/steemit/threads/internal/models"
)

// ThreadDTO is the public view of a post or comment.
type ThreadDTO struct {
	ID             uuid.UUID            `json:"id"`
	Text           string               `json:"text"`
	AuthorID       string               `json:"authorId"`
	Author         AuthorDTO            `json:"author"`
	ParentThreadID *uuid.UUID           `json:"parentThreadId"`
	CommunityID    *string              `json:"communityId"`
	Community      *CommunitySummaryDTO `json:"community"`
	CommentsCount  int64                `json:"commentsCount"`
	Comments       []ThreadDTO          `json:"comments,omitempty"`
	CreatedAt      time.Time            `json:"createdAt"`
}

// FromThreadRow converts a thread projection.
func FromThreadRow(row *models.ThreadRow) *ThreadDTO {
	if row == nil {
		return nil
	}

	dto := &ThreadDTO{
		ID:       row.ID,
		Text:     row.Text,
		AuthorID: row.AuthorID,
		Author: AuthorDTO{
			ID:           row.AuthorID,
			Name:         row.AuthorName,
			Username:     row.AuthorUsername,
			ProfilePhoto: row.AuthorProfilePhoto,
		},
		ParentThreadID: row.ParentThreadID,
		CommunityID:    row.CommunityID,
		CommentsCount:  row.CommentsCount,
		CreatedAt:      row.CreatedAt,
	}

	// The join may find no community row even when an id is set.
	if row.CommunityID != nil && row.CommunityName != nil {
		dto.Community = &CommunitySummaryDTO{
			ID:       *row.CommunityID,
			Name:     *row.CommunityName,
			Username: deref(row.CommunityUsername),
			Image:    deref(row.CommunityImage),
		}
		if row.CommunityCreatedAt != nil {
			dto.Community.CreatedAt = *row.CommunityCreatedAt
		}
	}
	return dto
}

// FromThreadRows converts a list, never returning nil.
func FromThreadRows(rows []models.ThreadRow) []ThreadDTO {
	result := make([]ThreadDTO, 0, len(rows))
	for i := range rows {
		result = append(result, *FromThreadRow(&rows[i]))
	}
	return result
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
