package models

import (
	"time"

	"github.com/google/uuid"
)

// ThreadRow is a flat read of a thread joined with its author summary, its
// community summary and its direct comment count.
type ThreadRow struct {
	ID                 uuid.UUID
	Text               string
	AuthorID           string
	AuthorName         string
	AuthorUsername     string
	AuthorProfilePhoto string
	ParentThreadID     *uuid.UUID
	CommunityID        *string
	CommunityName      *string
	CommunityUsername  *string
	CommunityImage     *string
	CommunityCreatedAt *time.Time
	CommentsCount      int64
	CreatedAt          time.Time
}
