package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/service"
)

// UserHandler serves /api/users.
type UserHandler struct {
	users  *service.UserService
	logger *zap.Logger
}

// List handles GET /api/users
func (h *UserHandler) List(c *gin.Context) {
	var q service.ListUsersQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid query parameters"))
		return
	}
	users, err := h.users.ListUsers(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.users.GetUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Update handles POST /api/users/:id. Form fields that are absent keep
// their stored value.
func (h *UserHandler) Update(c *gin.Context) {
	var data service.UpdateUserData
	if v, ok := c.GetPostForm("name"); ok {
		data.Name = &v
	}
	if v, ok := c.GetPostForm("username"); ok {
		data.Username = &v
	}
	if v, ok := c.GetPostForm("bio"); ok {
		data.Bio = &v
	}

	file, err := formFile(c, "profilePhoto")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	data.ProfilePhoto = file

	user, err := h.users.UpdateUser(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// Profile handles GET /api/users/:id/profile
func (h *UserHandler) Profile(c *gin.Context) {
	profile, err := h.users.GetUserProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Activity handles GET /api/users/:id/activity
func (h *UserHandler) Activity(c *gin.Context) {
	activity, err := h.users.GetUserActivity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, activity)
}

// Suggest handles GET /api/users/suggest
func (h *UserHandler) Suggest(c *gin.Context) {
	var q service.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid query parameters"))
		return
	}
	users, err := h.users.GetSuggestUsers(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// RPC methods

type userIDParams struct {
	ID string `json:"id"`
}

func (h *UserHandler) rpcGetUser(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.users.GetUser(c.Request.Context(), p.ID)
}

func (h *UserHandler) rpcListUsers(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var q service.ListUsersQuery
	if err := bindParams(params, &q); err != nil {
		return nil, err
	}
	return h.users.ListUsers(c.Request.Context(), q)
}

func (h *UserHandler) rpcGetUserProfile(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.users.GetUserProfile(c.Request.Context(), p.ID)
}

func (h *UserHandler) rpcGetUserActivity(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p userIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.users.GetUserActivity(c.Request.Context(), p.ID)
}

func (h *UserHandler) rpcGetSuggestUsers(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var q service.SuggestQuery
	if err := bindParams(params, &q); err != nil {
		return nil, err
	}
	return h.users.GetSuggestUsers(c.Request.Context(), q)
}
