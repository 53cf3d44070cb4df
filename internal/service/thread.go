package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/api/objects"
	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/db"
	"github.com/steemit/threads/internal/models"
	"github.com/steemit/threads/pkg/telemetry"
)

// ThreadService handles posts and comments.
type ThreadService struct {
	*base
	created metric.Int64Counter
	logger  *zap.Logger
}

// CreateThreadData describes a new top-level post.
type CreateThreadData struct {
	Text        string  `json:"text"`
	AuthorID    string  `json:"authorId"`
	CommunityID *string `json:"communityId"`
}

// AddCommentData describes a comment on an existing thread.
type AddCommentData struct {
	ThreadID uuid.UUID `json:"threadId"`
	Text     string    `json:"text"`
	AuthorID string    `json:"authorId"`
}

// ListThreadsQuery pages ListThreads. Skip is a page index.
type ListThreadsQuery struct {
	Skip int `form:"skip" json:"skip"`
	Take int `form:"take" json:"take"`
}

// CreateThread stores a post, optionally inside a community.
func (s *ThreadService) CreateThread(ctx context.Context, data CreateThreadData) (*objects.ThreadDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.CreateThread")
	defer span.End()

	if strings.TrimSpace(data.Text) == "" {
		return nil, apperrors.BadRequest("text is required")
	}
	if data.AuthorID == "" {
		return nil, apperrors.BadRequest("authorId is required")
	}
	if data.CommunityID != nil && *data.CommunityID == "" {
		data.CommunityID = nil
	}

	repo := s.repo()
	if err := s.checkAuthor(ctx, repo, data.AuthorID); err != nil {
		return nil, err
	}
	if data.CommunityID != nil {
		exists, err := db.NewCommunityRepository(repo).Exists(ctx, *data.CommunityID)
		if err != nil {
			return nil, fmt.Errorf("failed to get community: %w", err)
		}
		if !exists {
			return nil, apperrors.NotFound("community not found")
		}
	}

	thread := &models.Thread{
		Text:        data.Text,
		AuthorID:    data.AuthorID,
		CommunityID: data.CommunityID,
	}
	return s.create(ctx, repo, thread, "post")
}

// ListThreads returns top-level posts, newest first.
func (s *ThreadService) ListThreads(ctx context.Context, q ListThreadsQuery) ([]objects.ThreadDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.ListThreads")
	defer span.End()

	rows, err := db.NewThreadRepository(s.repo()).ListRows(ctx, db.ThreadFilter{
		TopLevel: true,
		Page:     page(q.Skip, q.Take),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list threads: %w", err)
	}
	return objects.FromThreadRows(rows), nil
}

// GetThread returns a thread with its direct comments, oldest first.
func (s *ThreadService) GetThread(ctx context.Context, id uuid.UUID) (*objects.ThreadDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.GetThread")
	defer span.End()

	threads := db.NewThreadRepository(s.repo())
	row, err := threads.GetRow(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if row == nil {
		return nil, apperrors.NotFound("thread not found")
	}

	comments, err := threads.ListRows(ctx, db.ThreadFilter{ParentID: &id, OldestFirst: true})
	if err != nil {
		return nil, fmt.Errorf("failed to load comments: %w", err)
	}

	dto := objects.FromThreadRow(row)
	dto.Comments = objects.FromThreadRows(comments)
	return dto, nil
}

// AddCommentToThread stores a comment. It belongs to the parent's community.
func (s *ThreadService) AddCommentToThread(ctx context.Context, data AddCommentData) (*objects.ThreadDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.AddCommentToThread")
	defer span.End()

	if strings.TrimSpace(data.Text) == "" {
		return nil, apperrors.BadRequest("text is required")
	}
	if data.AuthorID == "" {
		return nil, apperrors.BadRequest("authorId is required")
	}

	repo := s.repo()
	parent, err := db.NewThreadRepository(repo).GetByID(ctx, data.ThreadID)
	if err != nil {
		return nil, fmt.Errorf("failed to get thread: %w", err)
	}
	if parent == nil {
		return nil, apperrors.NotFound("thread not found")
	}
	if err := s.checkAuthor(ctx, repo, data.AuthorID); err != nil {
		return nil, err
	}

	comment := &models.Thread{
		Text:           data.Text,
		AuthorID:       data.AuthorID,
		CommunityID:    parent.CommunityID,
		ParentThreadID: &parent.ID,
	}
	return s.create(ctx, repo, comment, "comment")
}

// GetUserThreads returns a user with their posts.
func (s *ThreadService) GetUserThreads(ctx context.Context, userID string) (*objects.GetUserThreadsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.GetUserThreads")
	defer span.End()

	repo := s.repo()
	user, err := db.NewUserRepository(repo).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	rows, err := db.NewThreadRepository(repo).ListRows(ctx, db.ThreadFilter{AuthorID: userID, TopLevel: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list user threads: %w", err)
	}
	return &objects.GetUserThreadsResponse{
		User:    objects.FromUser(user),
		Threads: objects.FromThreadRows(rows),
	}, nil
}

// GetCommunityThreads returns a community with its posts.
func (s *ThreadService) GetCommunityThreads(ctx context.Context, communityID string) (*objects.GetCommunityThreadsResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "ThreadService.GetCommunityThreads")
	defer span.End()

	repo := s.repo()
	community, err := db.NewCommunityRepository(repo).GetByID(ctx, communityID)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if community == nil {
		return nil, apperrors.NotFound("community not found")
	}

	members := db.NewMemberRepository(repo)
	counts, err := members.CountByCommunityIDs(ctx, []string{communityID})
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}

	rows, err := db.NewThreadRepository(repo).ListRows(ctx, db.ThreadFilter{CommunityID: communityID, TopLevel: true})
	if err != nil {
		return nil, fmt.Errorf("failed to list community threads: %w", err)
	}
	return &objects.GetCommunityThreadsResponse{
		Community: objects.FromCommunity(community, counts[communityID]),
		Threads:   objects.FromThreadRows(rows),
	}, nil
}

func (s *ThreadService) checkAuthor(ctx context.Context, repo *db.Repository, authorID string) error {
	exists, err := db.NewUserRepository(repo).Exists(ctx, authorID)
	if err != nil {
		return fmt.Errorf("failed to get author: %w", err)
	}
	if !exists {
		return apperrors.NotFound("author not found")
	}
	return nil
}

func (s *ThreadService) create(ctx context.Context, repo *db.Repository, thread *models.Thread, kind string) (*objects.ThreadDTO, error) {
	threads := db.NewThreadRepository(repo)
	if err := threads.Create(ctx, thread); err != nil {
		if db.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("referenced record not found")
		}
		return nil, fmt.Errorf("failed to create thread: %w", err)
	}

	s.created.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
	s.logger.Debug("Thread created",
		zap.String("thread_id", thread.ID.String()),
		zap.String("kind", kind),
		zap.String("author_id", thread.AuthorID))

	row, err := threads.GetRow(ctx, thread.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load thread: %w", err)
	}
	if row == nil {
		return nil, apperrors.NotFound("thread not found")
	}
	return objects.FromThreadRow(row), nil
}
