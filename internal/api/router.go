package api

import (
	"context"
	"errors"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"path"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/images"
	"github.com/steemit/threads/internal/service"
	"github.com/steemit/threads/pkg/logging"
)

// HealthChecker reports whether a dependency is reachable.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Router sets up API routes
type Router struct {
	handler     *JSONRPCHandler
	users       *UserHandler
	communities *CommunityHandler
	threads     *ThreadHandler
	images      images.Store
	checks      map[string]HealthChecker
	logger      *zap.Logger
}

// NewRouter creates a new API router. checks are probed by /health.
func NewRouter(services *service.Services, store images.Store, checks map[string]HealthChecker) *Router {
	logger := logging.WithComponent("api-router")
	router := &Router{
		handler:     NewJSONRPCHandler(),
		users:       &UserHandler{users: services.Users, logger: logger},
		communities: &CommunityHandler{communities: services.Communities, logger: logger},
		threads:     &ThreadHandler{threads: services.Threads, logger: logger},
		images:      store,
		checks:      checks,
		logger:      logger,
	}

	// Register all API methods
	router.registerMethods()

	return router
}

// SetupRoutes sets up all API routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	engine.Use(r.requestLogger())

	// Health check endpoints
	engine.GET("/health", r.healthHandler)
	engine.GET("/.well-known/healthcheck.json", r.healthHandler)

	// JSON-RPC endpoint
	engine.POST("/rpc", r.handler.Handle)

	api := engine.Group("/api")

	users := api.Group("/users")
	users.GET("", r.users.List)
	users.GET("/suggest", r.users.Suggest)
	users.GET("/:id", r.users.Get)
	users.POST("/:id", r.users.Update)
	users.GET("/:id/profile", r.users.Profile)
	users.GET("/:id/activity", r.users.Activity)

	communities := api.Group("/communities")
	communities.POST("", r.communities.Create)
	communities.GET("", r.communities.List)
	communities.GET("/suggest", r.communities.Suggest)
	communities.GET("/:id", r.communities.Get)
	communities.GET("/:id/profile", r.communities.Profile)
	communities.POST("/:id/members/:userId", r.communities.AddMember)
	communities.DELETE("/:id/members/:userId", r.communities.RemoveMember)

	threads := api.Group("/threads")
	threads.POST("", r.threads.Create)
	threads.GET("", r.threads.List)
	threads.POST("/add/comment", r.threads.AddComment)
	threads.GET("/user/:id", r.threads.ByUser)
	threads.GET("/community/:id", r.threads.ByCommunity)
	threads.GET("/:id", r.threads.Get)

	api.GET("/images/:name", r.imageHandler)
}

// registerMethods registers all API methods
func (r *Router) registerMethods() {
	r.handler.RegisterMethod("threads_api.get_user", r.users.rpcGetUser)
	r.handler.RegisterMethod("threads_api.list_users", r.users.rpcListUsers)
	r.handler.RegisterMethod("threads_api.get_user_profile", r.users.rpcGetUserProfile)
	r.handler.RegisterMethod("threads_api.get_user_activity", r.users.rpcGetUserActivity)
	r.handler.RegisterMethod("threads_api.get_suggest_users", r.users.rpcGetSuggestUsers)

	r.handler.RegisterMethod("threads_api.get_community", r.communities.rpcGetCommunity)
	r.handler.RegisterMethod("threads_api.list_communities", r.communities.rpcListCommunities)
	r.handler.RegisterMethod("threads_api.get_community_profile", r.communities.rpcGetCommunityProfile)
	r.handler.RegisterMethod("threads_api.get_suggest_communities", r.communities.rpcGetSuggestCommunities)

	r.handler.RegisterMethod("threads_api.get_thread", r.threads.rpcGetThread)
	r.handler.RegisterMethod("threads_api.list_threads", r.threads.rpcListThreads)
	r.handler.RegisterMethod("threads_api.get_user_threads", r.threads.rpcGetUserThreads)
	r.handler.RegisterMethod("threads_api.get_community_threads", r.threads.rpcGetCommunityThreads)
}

// healthHandler handles health check requests
func (r *Router) healthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	checks := gin.H{}
	for name, check := range r.checks {
		if err := check.Health(ctx); err != nil {
			r.logger.Warn("Health check failed", zap.String("check", name), zap.Error(err))
			checks[name] = "unavailable"
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	text := "OK"
	if status != http.StatusOK {
		text = "DEGRADED"
	}
	c.JSON(status, gin.H{
		"status":  text,
		"service": "threads-api",
		"checks":  checks,
	})
}

// imageHandler streams a stored image.
func (r *Router) imageHandler(c *gin.Context) {
	name := c.Param("name")
	rc, err := r.images.Open(c.Request.Context(), name)
	if err != nil {
		respondError(c, r.logger, err)
		return
	}
	defer rc.Close()

	contentType := mime.TypeByExtension(path.Ext(name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	c.Header("Content-Type", contentType)
	c.Header("Cache-Control", "public, max-age=86400")
	c.Status(http.StatusOK)
	if _, err := io.Copy(c.Writer, rc); err != nil {
		r.logger.Warn("Failed to stream image", zap.String("image", name), zap.Error(err))
	}
}

// requestLogger logs each request at debug level and failures at warn.
func (r *Router) requestLogger() gin.HandlerFunc {
	logger := logging.WithComponent("http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		if c.Writer.Status() >= http.StatusInternalServerError {
			logger.Warn("Request completed", fields...)
			return
		}
		logger.Debug("Request completed", fields...)
	}
}

// formFile returns the named upload, or nil when the request carries none.
func formFile(c *gin.Context, name string) (*multipart.FileHeader, error) {
	file, err := c.FormFile(name)
	switch {
	case err == nil:
		return file, nil
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		return nil, nil
	default:
		return nil, apperrors.BadRequest("invalid " + name + " upload")
	}
}
