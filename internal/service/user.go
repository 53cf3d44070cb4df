package service

import (
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/steemit/threads/internal/api/objects"
	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/db"
	"github.com/steemit/threads/internal/lock"
	"github.com/steemit/threads/internal/models"
	"github.com/steemit/threads/pkg/telemetry"
)

// UserService handles user profiles.
type UserService struct {
	*base
	locker *lock.Locker
	logger *zap.Logger
}

// ListUsersQuery filters ListUsers. Skip is a page index.
type ListUsersQuery struct {
	UserID     string `form:"userId" json:"userId"`
	SearchTerm string `form:"searchTerm" json:"searchTerm"`
	Skip       int    `form:"skip" json:"skip"`
	Take       int    `form:"take" json:"take"`
}

// SuggestQuery asks for a random sample. A nil Count uses the default.
type SuggestQuery struct {
	UserID string `form:"userId" json:"userId"`
	Count  *int   `form:"count" json:"count"`
}

// UpdateUserData holds the fields of a profile write. Nil fields are left
// unchanged on existing users and default to empty on new ones.
type UpdateUserData struct {
	Name         *string
	Username     *string
	Bio          *string
	ProfilePhoto *multipart.FileHeader
}

// GetUser returns one user.
func (s *UserService) GetUser(ctx context.Context, id string) (*objects.UserDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.GetUser")
	defer span.End()

	user, err := db.NewUserRepository(s.repo()).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}
	return objects.FromUser(user), nil
}

// ListUsers searches users by name or handle, leaving out the requester.
func (s *UserService) ListUsers(ctx context.Context, q ListUsersQuery) ([]objects.UserDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.ListUsers")
	defer span.End()

	users, err := db.NewUserRepository(s.repo()).List(ctx, db.UserFilter{
		ExcludeID:  q.UserID,
		SearchTerm: strings.TrimSpace(q.SearchTerm),
		Page:       page(q.Skip, q.Take),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return objects.FromUsers(users), nil
}

// UpdateUser creates or updates the profile keyed by userID and marks it
// onboarded. A new photo is uploaded before the transaction; if the write
// then fails the upload is deleted again. The replaced photo is deleted only
// after commit.
func (s *UserService) UpdateUser(ctx context.Context, userID string, data UpdateUserData) (*objects.UserDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.UpdateUser")
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, apperrors.BadRequest("user id is required")
	}

	release, err := s.locker.Acquire(ctx, "user", lock.HashKey(userID))
	if err != nil {
		if errors.Is(err, lock.ErrTimeout) {
			return nil, apperrors.Conflict("profile update already in progress")
		}
		return nil, err
	}
	defer release()

	var uploaded string
	if data.ProfilePhoto != nil {
		uploaded, err = s.images.UploadFile(ctx, data.ProfilePhoto)
		if err != nil {
			return nil, fmt.Errorf("failed to upload profile photo: %w", err)
		}
	}

	var (
		saved    *models.User
		replaced string
	)
	err = s.db.WithTx(ctx, func(tx *gorm.DB) error {
		users := db.NewUserRepository(s.repo().WithTx(tx))

		user, err := users.GetByID(ctx, userID)
		if err != nil {
			return err
		}

		if user == nil {
			user = &models.User{
				ID:        userID,
				Name:      deref(data.Name),
				Username:  deref(data.Username),
				Bio:       deref(data.Bio),
				Onboarded: true,
			}
			if uploaded != "" {
				user.ProfilePhoto = s.imageURL(uploaded)
			}
			if err := users.Create(ctx, user); err != nil {
				return err
			}
			saved = user
			return nil
		}

		if data.Name != nil {
			user.Name = *data.Name
		}
		if data.Username != nil {
			user.Username = *data.Username
		}
		if data.Bio != nil {
			user.Bio = *data.Bio
		}
		if uploaded != "" {
			replaced = user.ProfilePhoto
			user.ProfilePhoto = s.imageURL(uploaded)
		}
		user.Onboarded = true
		if err := users.Update(ctx, user); err != nil {
			return err
		}
		saved = user
		return nil
	})
	if err != nil {
		if uploaded != "" {
			s.compensate(ctx, s.logger, uploaded)
		}
		if db.IsDuplicateKey(err) {
			return nil, apperrors.Conflict("username is already taken")
		}
		s.logger.Error("Failed to save user", zap.String("user_id", userID), zap.Error(err))
		return nil, fmt.Errorf("failed to save user: %w", err)
	}

	if replaced != "" && replaced != saved.ProfilePhoto {
		s.deleteReplaced(ctx, s.logger, replaced)
	}

	return objects.FromUser(saved), nil
}

// GetUserProfile returns a user with their posts and the comments they wrote.
// The two thread reads run concurrently.
func (s *UserService) GetUserProfile(ctx context.Context, userID string) (*objects.GetUserProfileResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.GetUserProfile")
	defer span.End()

	repo := s.repo()
	user, err := db.NewUserRepository(repo).GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, apperrors.NotFound("user not found")
	}

	threads := db.NewThreadRepository(repo)
	var posts, replies []models.ThreadRow

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		posts, err = threads.ListRows(gctx, db.ThreadFilter{AuthorID: userID, TopLevel: true})
		return err
	})
	g.Go(func() error {
		var err error
		replies, err = threads.ListRows(gctx, db.ThreadFilter{AuthorID: userID, Comments: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load user threads: %w", err)
	}

	return &objects.GetUserProfileResponse{
		Profile: objects.FromUser(user),
		Threads: objects.FromThreadRows(posts),
		Replies: objects.FromThreadRows(replies),
	}, nil
}

// GetUserActivity returns comments other users left on userID's threads,
// newest first.
func (s *UserService) GetUserActivity(ctx context.Context, userID string) ([]objects.ThreadDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.GetUserActivity")
	defer span.End()

	repo := s.repo()
	exists, err := db.NewUserRepository(repo).Exists(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !exists {
		return nil, apperrors.NotFound("user not found")
	}

	rows, err := db.NewThreadRepository(repo).ListRepliesFromOthers(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load activity: %w", err)
	}
	return objects.FromThreadRows(rows), nil
}

// GetSuggestUsers returns a random sample of users other than the requester.
func (s *UserService) GetSuggestUsers(ctx context.Context, q SuggestQuery) ([]objects.UserDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "UserService.GetSuggestUsers")
	defer span.End()

	n, err := s.suggestCount(q.Count)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []objects.UserDTO{}, nil
	}

	users, err := db.NewUserRepository(s.repo()).Sample(ctx, q.UserID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to sample users: %w", err)
	}
	return objects.FromUsers(users), nil
}
