package api

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
	"github.com/steemit/threads/internal/service"
)

// CommunityHandler serves /api/communities.
type CommunityHandler struct {
	communities *service.CommunityService
	logger      *zap.Logger
}

// Create handles POST /api/communities
func (h *CommunityHandler) Create(c *gin.Context) {
	data := service.CreateCommunityData{
		ID:          c.PostForm("id"),
		Name:        c.PostForm("name"),
		Username:    c.PostForm("username"),
		Bio:         c.PostForm("bio"),
		CreatedByID: c.PostForm("createdById"),
	}

	file, err := formFile(c, "image")
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	data.Image = file

	community, err := h.communities.CreateCommunity(c.Request.Context(), data)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, community)
}

// List handles GET /api/communities
func (h *CommunityHandler) List(c *gin.Context) {
	var q service.ListCommunitiesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid query parameters"))
		return
	}
	communities, err := h.communities.ListCommunities(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// Get handles GET /api/communities/:id
func (h *CommunityHandler) Get(c *gin.Context) {
	community, err := h.communities.GetCommunity(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, community)
}

// Profile handles GET /api/communities/:id/profile
func (h *CommunityHandler) Profile(c *gin.Context) {
	profile, err := h.communities.GetCommunityProfile(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// Suggest handles GET /api/communities/suggest
func (h *CommunityHandler) Suggest(c *gin.Context) {
	var q service.SuggestQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		respondError(c, h.logger, apperrors.BadRequest("invalid query parameters"))
		return
	}
	communities, err := h.communities.GetSuggestCommunities(c.Request.Context(), q)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, communities)
}

// AddMember handles POST /api/communities/:id/members/:userId
func (h *CommunityHandler) AddMember(c *gin.Context) {
	if err := h.communities.AddMemberToCommunity(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RemoveMember handles DELETE /api/communities/:id/members/:userId
func (h *CommunityHandler) RemoveMember(c *gin.Context) {
	if err := h.communities.RemoveMemberFromCommunity(c.Request.Context(), c.Param("id"), c.Param("userId")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// RPC methods

type communityIDParams struct {
	ID string `json:"id"`
}

func (h *CommunityHandler) rpcGetCommunity(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p communityIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.communities.GetCommunity(c.Request.Context(), p.ID)
}

func (h *CommunityHandler) rpcListCommunities(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var q service.ListCommunitiesQuery
	if err := bindParams(params, &q); err != nil {
		return nil, err
	}
	return h.communities.ListCommunities(c.Request.Context(), q)
}

func (h *CommunityHandler) rpcGetCommunityProfile(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var p communityIDParams
	if err := bindParams(params, &p); err != nil {
		return nil, err
	}
	return h.communities.GetCommunityProfile(c.Request.Context(), p.ID)
}

func (h *CommunityHandler) rpcGetSuggestCommunities(c *gin.Context, params json.RawMessage) (interface{}, error) {
	var q service.SuggestQuery
	if err := bindParams(params, &q); err != nil {
		return nil, err
	}
	return h.communities.GetSuggestCommunities(c.Request.Context(), q)
}
