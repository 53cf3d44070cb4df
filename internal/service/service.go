// Package service implements the user, community and thread operations on
// top of the repositories.
package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/db"
	"github.com/steemit/threads/internal/images"
	"github.com/steemit/threads/internal/lock"
	"github.com/steemit/threads/pkg/logging"
	"github.com/steemit/threads/pkg/telemetry"
)

const (
	defaultTake    = 20
	maxTake        = 100
	defaultSuggest = 4
	maxSuggest     = 50
)

// Options carries settings shared by the services.
type Options struct {
	// ImageBaseURL is prepended to stored image names.
	ImageBaseURL string
	// DefaultSuggestCount applies when a suggestion query has no count.
	DefaultSuggestCount int
}

// Services bundles the domain services.
type Services struct {
	Users       *UserService
	Communities *CommunityService
	Threads     *ThreadService
}

// New wires the services. locker may be nil.
func New(database *db.DB, store images.Store, locker *lock.Locker, opts Options) *Services {
	if opts.DefaultSuggestCount <= 0 {
		opts.DefaultSuggestCount = defaultSuggest
	}
	b := &base{
		db:            database,
		images:        store,
		opts:          opts,
		compensations: telemetry.Counter("image_compensations_total", "Uploaded images deleted after a failed write"),
	}
	return &Services{
		Users: &UserService{
			base:   b,
			locker: locker,
			logger: logging.WithComponent("user-service"),
		},
		Communities: &CommunityService{
			base:        b,
			memberships: telemetry.Counter("memberships_changed_total", "Community membership links added or removed"),
			logger:      logging.WithComponent("community-service"),
		},
		Threads: &ThreadService{
			base:    b,
			created: telemetry.Counter("threads_created_total", "Threads created, by kind"),
			logger:  logging.WithComponent("thread-service"),
		},
	}
}

type base struct {
	db            *db.DB
	images        images.Store
	opts          Options
	compensations metric.Int64Counter
}

func (b *base) repo() *db.Repository {
	return db.NewRepository(b.db.DB)
}

// imageURL turns a stored image name into the value kept on the entity.
func (b *base) imageURL(name string) string {
	return b.opts.ImageBaseURL + name
}

// ownsImage reports whether url points at an image this service stored.
// Images hosted elsewhere are never deleted.
func (b *base) ownsImage(url string) bool {
	return url != "" && strings.HasPrefix(url, b.opts.ImageBaseURL)
}

// compensate deletes an image uploaded for a write that did not commit.
func (b *base) compensate(ctx context.Context, logger *zap.Logger, name string) {
	ctx = context.WithoutCancel(ctx)
	b.compensations.Add(ctx, 1)
	if err := b.images.DeleteImage(ctx, name); err != nil {
		logger.Error("Failed to delete orphaned image", zap.String("image", name), zap.Error(err))
		return
	}
	logger.Info("Deleted orphaned image", zap.String("image", name))
}

// deleteReplaced removes an image that a committed write replaced.
func (b *base) deleteReplaced(ctx context.Context, logger *zap.Logger, url string) {
	if !b.ownsImage(url) {
		return
	}
	if err := b.images.DeleteImage(context.WithoutCancel(ctx), url); err != nil {
		logger.Warn("Failed to delete replaced image", zap.String("image", url), zap.Error(err))
	}
}

func (b *base) suggestCount(count *int) (int, error) {
	if count == nil {
		return b.opts.DefaultSuggestCount, nil
	}
	switch n := *count; {
	case n < 0:
		return 0, apperrors.BadRequest("count must not be negative")
	case n > maxSuggest:
		return maxSuggest, nil
	default:
		return n, nil
	}
}

// page converts a skip index and page size into an offset window. The offset
// is skip*take.
func page(skip, take int) db.Page {
	if take <= 0 {
		take = defaultTake
	}
	if take > maxTake {
		take = maxTake
	}
	if skip < 0 {
		skip = 0
	}
	return db.Page{Offset: skip * take, Limit: take}
}

func actionAttr(action string) metric.AddOption {
	return metric.WithAttributes(attribute.String("action", action))
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
