package db

import (
	"context"

	"gorm.io/gorm/clause"

	"github.com/steemit/threads/internal/models"
)

// CommunityRepository provides community-related database operations
type CommunityRepository struct {
	*Repository
}

// NewCommunityRepository creates a new community repository
func NewCommunityRepository(repo *Repository) *CommunityRepository {
	return &CommunityRepository{Repository: repo}
}

// CommunityFilter selects communities for listing.
type CommunityFilter struct {
	SearchTerm string
	Page
}

// GetByID retrieves a community by ID. A missing community yields (nil, nil).
func (r *CommunityRepository) GetByID(ctx context.Context, id string) (*models.Community, error) {
	return firstOrNil[models.Community](ctx, r.db.Where("id = ?", id))
}

// Exists reports whether a community with id exists.
func (r *CommunityRepository) Exists(ctx context.Context, id string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Community{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Create creates a new community
func (r *CommunityRepository) Create(ctx context.Context, community *models.Community) error {
	return r.db.WithContext(ctx).Create(community).Error
}

// List returns communities ordered by name matching filter.
func (r *CommunityRepository) List(ctx context.Context, filter CommunityFilter) ([]models.Community, error) {
	q := r.db.WithContext(ctx).Model(&models.Community{})
	if filter.SearchTerm != "" {
		pattern := containsPattern(filter.SearchTerm)
		q = q.Where(`(LOWER(name) LIKE ? ESCAPE '\' OR LOWER(username) LIKE ? ESCAPE '\')`, pattern, pattern)
	}
	q = filter.Page.apply(q.Order("name ASC").Order("id ASC"))

	var communities []models.Community
	if err := q.Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

// Sample returns up to n random communities. When excludeMemberID is set,
// communities that user already belongs to are left out.
func (r *CommunityRepository) Sample(ctx context.Context, excludeMemberID string, n int) ([]models.Community, error) {
	q := r.db.WithContext(ctx).Model(&models.Community{})
	if excludeMemberID != "" {
		joined := r.db.Model(&models.CommunityMember{}).
			Select("community_id").
			Where("member_id = ?", excludeMemberID)
		q = q.Where("id NOT IN (?)", joined)
	}

	var communities []models.Community
	if err := q.Order("RANDOM()").Limit(n).Find(&communities).Error; err != nil {
		return nil, err
	}
	return communities, nil
}

// MemberRepository provides community membership operations
type MemberRepository struct {
	*Repository
}

// NewMemberRepository creates a new membership repository
func NewMemberRepository(repo *Repository) *MemberRepository {
	return &MemberRepository{Repository: repo}
}

// Add links memberID to communityID. It reports false when the link already
// existed.
func (r *MemberRepository) Add(ctx context.Context, communityID, memberID string) (bool, error) {
	member := &models.CommunityMember{CommunityID: communityID, MemberID: memberID}
	res := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}, {Name: "member_id"}},
			DoNothing: true,
		}).
		Create(member)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// Remove deletes the link between memberID and communityID. It reports false
// when there was no link.
func (r *MemberRepository) Remove(ctx context.Context, communityID, memberID string) (bool, error) {
	res := r.db.WithContext(ctx).
		Where("community_id = ? AND member_id = ?", communityID, memberID).
		Delete(&models.CommunityMember{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// IsMember reports whether memberID belongs to communityID.
func (r *MemberRepository) IsMember(ctx context.Context, communityID, memberID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.CommunityMember{}).
		Where("community_id = ? AND member_id = ?", communityID, memberID).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// ListMembers returns the users of a community in join order.
func (r *MemberRepository) ListMembers(ctx context.Context, communityID string) ([]models.User, error) {
	var users []models.User
	err := r.db.WithContext(ctx).
		Model(&models.User{}).
		Select("users.*").
		Joins("JOIN community_members ON community_members.member_id = users.id").
		Where("community_members.community_id = ?", communityID).
		Order("community_members.created_at ASC").
		Order("users.id ASC").
		Find(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CountByCommunityIDs returns member counts keyed by community ID.
// Communities without members are absent from the map.
func (r *MemberRepository) CountByCommunityIDs(ctx context.Context, communityIDs []string) (map[string]int64, error) {
	counts := make(map[string]int64, len(communityIDs))
	if len(communityIDs) == 0 {
		return counts, nil
	}

	var rows []struct {
		CommunityID string
		Count       int64
	}
	err := r.db.WithContext(ctx).
		Model(&models.CommunityMember{}).
		Select("community_id, COUNT(*) AS count").
		Where("community_id IN ?", communityIDs).
		Group("community_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, row := range rows {
		counts[row.CommunityID] = row.Count
	}
	return counts, nil
}
