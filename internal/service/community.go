package service

import (
	"context"
	"fmt"
	"mime/multipart"
	"strings"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/steemit/threads/internal/api/objects"
	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/db"
	"github.com/steemit/threads/internal/models"
	"github.com/steemit/threads/pkg/telemetry"
)

// CommunityService handles communities and their members.
type CommunityService struct {
	*base
	memberships metric.Int64Counter
	logger      *zap.Logger
}

// CreateCommunityData describes a new community. An empty ID is generated.
type CreateCommunityData struct {
	ID          string
	Name        string
	Username    string
	Bio         string
	CreatedByID string
	Image       *multipart.FileHeader
}

// ListCommunitiesQuery filters ListCommunities. Skip is a page index.
type ListCommunitiesQuery struct {
	SearchTerm string `form:"searchTerm" json:"searchTerm"`
	Skip       int    `form:"skip" json:"skip"`
	Take       int    `form:"take" json:"take"`
}

// CreateCommunity stores a community and makes its creator the first member.
func (s *CommunityService) CreateCommunity(ctx context.Context, data CreateCommunityData) (*objects.CommunityDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.CreateCommunity")
	defer span.End()

	data.Name = strings.TrimSpace(data.Name)
	data.Username = strings.TrimSpace(data.Username)
	switch {
	case data.Name == "":
		return nil, apperrors.BadRequest("name is required")
	case data.Username == "":
		return nil, apperrors.BadRequest("username is required")
	case data.CreatedByID == "":
		return nil, apperrors.BadRequest("createdById is required")
	}
	if data.ID == "" {
		data.ID = uuid.NewString()
	}

	var uploaded string
	if data.Image != nil {
		var err error
		uploaded, err = s.images.UploadFile(ctx, data.Image)
		if err != nil {
			return nil, fmt.Errorf("failed to upload community image: %w", err)
		}
	}

	community := &models.Community{
		ID:          data.ID,
		Username:    data.Username,
		Name:        data.Name,
		Bio:         data.Bio,
		CreatedByID: data.CreatedByID,
	}
	if uploaded != "" {
		community.Image = s.imageURL(uploaded)
	}

	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo().WithTx(tx)

		exists, err := db.NewUserRepository(repo).Exists(ctx, data.CreatedByID)
		if err != nil {
			return err
		}
		if !exists {
			return apperrors.NotFound("creator not found")
		}

		if err := db.NewCommunityRepository(repo).Create(ctx, community); err != nil {
			return err
		}
		_, err = db.NewMemberRepository(repo).Add(ctx, community.ID, data.CreatedByID)
		return err
	})
	if err != nil {
		if uploaded != "" {
			s.compensate(ctx, s.logger, uploaded)
		}
		if db.IsDuplicateKey(err) {
			return nil, apperrors.Conflict("community already exists")
		}
		if db.IsForeignKeyViolation(err) {
			return nil, apperrors.NotFound("creator not found")
		}
		return nil, err
	}

	s.memberships.Add(ctx, 1, actionAttr("add"))
	s.logger.Info("Community created",
		zap.String("community_id", community.ID),
		zap.String("created_by", community.CreatedByID))

	return objects.FromCommunity(community, 1), nil
}

// GetCommunity returns one community with its member count.
func (s *CommunityService) GetCommunity(ctx context.Context, id string) (*objects.CommunityDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.GetCommunity")
	defer span.End()

	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withCount(ctx, community)
}

// ListCommunities searches communities by name or handle.
func (s *CommunityService) ListCommunities(ctx context.Context, q ListCommunitiesQuery) ([]objects.CommunityDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.ListCommunities")
	defer span.End()

	communities, err := db.NewCommunityRepository(s.repo()).List(ctx, db.CommunityFilter{
		SearchTerm: strings.TrimSpace(q.SearchTerm),
		Page:       page(q.Skip, q.Take),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list communities: %w", err)
	}
	return s.withCounts(ctx, communities)
}

// AddMemberToCommunity links userID to communityID. Adding an existing
// member succeeds without a second link.
func (s *CommunityService) AddMemberToCommunity(ctx context.Context, communityID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.AddMemberToCommunity")
	defer span.End()

	if err := s.checkMembership(ctx, communityID, userID); err != nil {
		return err
	}

	added, err := db.NewMemberRepository(s.repo()).Add(ctx, communityID, userID)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return apperrors.NotFound("community or user not found")
		}
		return fmt.Errorf("failed to add member: %w", err)
	}
	if added {
		s.memberships.Add(ctx, 1, actionAttr("add"))
		s.logger.Debug("Member added", zap.String("community_id", communityID), zap.String("user_id", userID))
	}
	return nil
}

// RemoveMemberFromCommunity unlinks userID from communityID. Removing a
// non-member succeeds.
func (s *CommunityService) RemoveMemberFromCommunity(ctx context.Context, communityID, userID string) error {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.RemoveMemberFromCommunity")
	defer span.End()

	if err := s.checkMembership(ctx, communityID, userID); err != nil {
		return err
	}

	removed, err := db.NewMemberRepository(s.repo()).Remove(ctx, communityID, userID)
	if err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}
	if removed {
		s.memberships.Add(ctx, 1, actionAttr("remove"))
		s.logger.Debug("Member removed", zap.String("community_id", communityID), zap.String("user_id", userID))
	}
	return nil
}

// GetCommunityProfile returns a community with its members and posts.
func (s *CommunityService) GetCommunityProfile(ctx context.Context, id string) (*objects.GetCommunityProfileResponse, error) {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.GetCommunityProfile")
	defer span.End()

	community, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	repo := s.repo()
	var (
		members []models.User
		rows    []models.ThreadRow
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		members, err = db.NewMemberRepository(repo).ListMembers(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		rows, err = db.NewThreadRepository(repo).ListRows(gctx, db.ThreadFilter{CommunityID: id, TopLevel: true})
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load community profile: %w", err)
	}

	return &objects.GetCommunityProfileResponse{
		Community: objects.FromCommunity(community, int64(len(members))),
		Members:   objects.FromUsers(members),
		Threads:   objects.FromThreadRows(rows),
	}, nil
}

// GetSuggestCommunities returns a random sample of communities. When UserID
// is set, communities the user already joined are left out.
func (s *CommunityService) GetSuggestCommunities(ctx context.Context, q SuggestQuery) ([]objects.CommunityDTO, error) {
	ctx, span := telemetry.StartSpan(ctx, "CommunityService.GetSuggestCommunities")
	defer span.End()

	n, err := s.suggestCount(q.Count)
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return []objects.CommunityDTO{}, nil
	}

	communities, err := db.NewCommunityRepository(s.repo()).Sample(ctx, q.UserID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to sample communities: %w", err)
	}
	return s.withCounts(ctx, communities)
}

func (s *CommunityService) load(ctx context.Context, id string) (*models.Community, error) {
	community, err := db.NewCommunityRepository(s.repo()).GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get community: %w", err)
	}
	if community == nil {
		return nil, apperrors.NotFound("community not found")
	}
	return community, nil
}

func (s *CommunityService) checkMembership(ctx context.Context, communityID, userID string) error {
	repo := s.repo()
	exists, err := db.NewCommunityRepository(repo).Exists(ctx, communityID)
	if err != nil {
		return fmt.Errorf("failed to get community: %w", err)
	}
	if !exists {
		return apperrors.NotFound("community not found")
	}

	exists, err = db.NewUserRepository(repo).Exists(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user: %w", err)
	}
	if !exists {
		return apperrors.NotFound("user not found")
	}
	return nil
}

func (s *CommunityService) withCount(ctx context.Context, community *models.Community) (*objects.CommunityDTO, error) {
	counts, err := db.NewMemberRepository(s.repo()).CountByCommunityIDs(ctx, []string{community.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	return objects.FromCommunity(community, counts[community.ID]), nil
}

func (s *CommunityService) withCounts(ctx context.Context, communities []models.Community) ([]objects.CommunityDTO, error) {
	ids := make([]string, 0, len(communities))
	for _, c := range communities {
		ids = append(ids, c.ID)
	}
	counts, err := db.NewMemberRepository(s.repo()).CountByCommunityIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to count members: %w", err)
	}
	return objects.FromCommunities(communities, counts), nil
}
