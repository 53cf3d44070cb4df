package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/steemit/threads/internal/models"
)

// ThreadRepository provides thread-related database operations
type ThreadRepository struct {
	*Repository
}

// NewThreadRepository creates a new thread repository
func NewThreadRepository(repo *Repository) *ThreadRepository {
	return &ThreadRepository{Repository: repo}
}

// ThreadFilter selects thread rows. Zero-valued fields do not filter.
type ThreadFilter struct {
	AuthorID    string
	CommunityID string
	ParentID    *uuid.UUID
	TopLevel    bool // only threads without a parent
	Comments    bool // only threads with a parent
	OldestFirst bool
	Page
}

const threadRowColumns = `t.id, t.text, t.author_id, t.parent_thread_id, t.community_id, t.created_at,
	u.name AS author_name, u.username AS author_username, u.profile_photo AS author_profile_photo,
	c.name AS community_name, c.username AS community_username, c.image AS community_image,
	c.created_at AS community_created_at,
	(SELECT COUNT(*) FROM threads AS cc WHERE cc.parent_thread_id = t.id) AS comments_count`

// rows starts a projection query over threads aliased as t.
func (r *ThreadRepository) rows(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("threads AS t").
		Select(threadRowColumns).
		Joins("JOIN users AS u ON u.id = t.author_id").
		Joins("LEFT JOIN communities AS c ON c.id = t.community_id")
}

func order(q *gorm.DB, oldestFirst bool) *gorm.DB {
	if oldestFirst {
		return q.Order("t.created_at ASC").Order("t.id ASC")
	}
	return q.Order("t.created_at DESC").Order("t.id DESC")
}

// Create creates a new thread
func (r *ThreadRepository) Create(ctx context.Context, thread *models.Thread) error {
	return r.db.WithContext(ctx).Create(thread).Error
}

// GetByID retrieves a thread by ID. A missing thread yields (nil, nil).
func (r *ThreadRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Thread, error) {
	return firstOrNil[models.Thread](ctx, r.db.Where("id = ?", id))
}

// GetRow retrieves the projection of one thread. A missing thread yields
// (nil, nil).
func (r *ThreadRepository) GetRow(ctx context.Context, id uuid.UUID) (*models.ThreadRow, error) {
	var row models.ThreadRow
	err := r.rows(ctx).Where("t.id = ?", id).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &row, nil
}

// ListRows returns thread projections matching filter, newest first unless
// OldestFirst is set.
func (r *ThreadRepository) ListRows(ctx context.Context, filter ThreadFilter) ([]models.ThreadRow, error) {
	q := r.rows(ctx)
	if filter.AuthorID != "" {
		q = q.Where("t.author_id = ?", filter.AuthorID)
	}
	if filter.CommunityID != "" {
		q = q.Where("t.community_id = ?", filter.CommunityID)
	}
	if filter.ParentID != nil {
		q = q.Where("t.parent_thread_id = ?", *filter.ParentID)
	}
	if filter.TopLevel {
		q = q.Where("t.parent_thread_id IS NULL")
	}
	if filter.Comments {
		q = q.Where("t.parent_thread_id IS NOT NULL")
	}
	q = filter.Page.apply(order(q, filter.OldestFirst))

	var rows []models.ThreadRow
	if err := q.Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// ListRepliesFromOthers returns comments left by other users on threads
// authored by ownerID. The owner's own replies are excluded.
func (r *ThreadRepository) ListRepliesFromOthers(ctx context.Context, ownerID string) ([]models.ThreadRow, error) {
	q := r.rows(ctx).
		Joins("JOIN threads AS p ON p.id = t.parent_thread_id").
		Where("p.author_id = ?", ownerID).
		Where("t.author_id <> ?", ownerID)

	var rows []models.ThreadRow
	if err := order(q, false).Scan(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}
