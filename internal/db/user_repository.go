package db

import (
	"context"

	"github.com/steemit/threads/internal/models"
)

// UserRepository provides user-related database operations
type UserRepository struct {
	*Repository
}

// NewUserRepository creates a new user repository
func NewUserRepository(repo *Repository) *UserRepository {
	return &UserRepository{Repository: repo}
}

// UserFilter selects users for listing.
type UserFilter struct {
	ExcludeID  string
	SearchTerm string
	Page
}

// GetByID retrieves a user by ID. A missing user yields (nil, nil).
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return firstOrNil[models.User](ctx, r.db.Where("id = ?", id))
}

// Exists reports whether a user with id exists.
func (r *UserRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// Update updates a user
func (r *UserRepository) Update(ctx context.Context, user *models.User) error {
	return r.db.WithContext(ctx).Save(user).Error
}

// List returns users ordered by name matching filter.
func (r *UserRepository) List(ctx context.Context, filter UserFilter) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if filter.ExcludeID != "" {
		q = q.Where("id <> ?", filter.ExcludeID)
	}
	if filter.SearchTerm != "" {
		pattern := containsPattern(filter.SearchTerm)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	q = filter.Page.apply(q.Order("name ASC").Order("id ASC"))

	var users []models.User
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// Sample returns up to n users drawn uniformly at random by the store.
func (r *UserRepository) Sample(ctx context.Context, excludeID string, n int) ([]models.User, error) {
	q := r.db.WithContext(ctx).Model(&models.User{})
	if excludeID != "" {
		q = q.Where("id <> ?", excludeID)
	}

	var users []models.User
	if err := q.Order("RANDOM()").Limit(n).Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
