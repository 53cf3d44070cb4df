package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/service"
)

// ThreadHandler serves /api/threads.
type ThreadHandler struct {
	threads *service.ThreadService
	logger  *zap.Logger
}

// Create handles POST /api/threads
func (h *ThreadHandler) Create(c *gin.Context) {
	var data service.CreateThreadData
	if err := c.ShouldBindJSON(&data); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid request body"))
		return
	}
	thread, err := h.threads.CreateThread(c.Request.Context(), data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, thread)
}

// List handles GET /api/threads
func (h *ThreadHandler) List(c *gin.Context) {
	var q service.ListThreadsQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid query parameters"))
		return
	}
	threads, err := h.threads.ListThreads(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, threads)
}

// Get handles GET /api/threads/:id
func (h *ThreadHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid thread id"))
		return
	}
	thread, err := h.threads.GetThread(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, thread)
}

// AddComment handles POST /api/threads/add/comment
func (h *ThreadHandler) AddComment(c *gin.Context) {
	var data service.AddCommentData
	if err := c.ShouldBindJSON(&data); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid request body"))
		return
	}
	comment, err := h.threads.AddCommentToThread(c.Request.Context(), data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, comment)
}

// ByUser handles GET /api/threads/user/:id
func (h *ThreadHandler) ByUser(c *gin.Context) {
	result, err := h.threads.GetUserThreads(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ByCommunity handles GET /api/threads/community/:id
func (h *ThreadHandler) ByCommunity(c *gin.Context) {
	result, err := h.threads.GetCommunityThreads(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// RPC methods

type threadIDParams struct {
	ID string `json:"id"`
}

func (h *ThreadHandler) rpcGetThread(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p threadIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(p.ID)
	if err != nil {
		return nil, apperrors.BadRequest("invalid thread id")
	}
	return h.threads.GetThread(c.Request.Context(), id)
}

func (h *ThreadHandler) rpcListThreads(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var q service.ListThreadsQuery
	if err := bindParams(params, &q); err != nil {
		return nil, err
	}
	return h.threads.ListThreads(c.Request.Context(), q)
}

func (h *ThreadHandler) rpcGetUserThreads(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.threads.GetUserThreads(c.Request.Context(), p.ID)
}

func (h *ThreadHandler) rpcGetCommunityThreads(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p communityIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.threads.GetCommunityThreads(c.Request.Context(), p.ID)
}
