package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/steemit/threads/internal/apperrors"
)

// ErrorResponse is the body of every failed REST call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError writes err with the status of its kind. Server errors are
// logged and hidden from the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err))
	}
	c.AbortWithStatusJSON(status, ErrorResponse{Error: apperrors.PublicMessage(err)})
}

// Application error codes returned in JSON-RPC error objects.
const (
	ErrServerError = -32000
	ErrNotFound    = -32001
	ErrConflict    = -32002
)

// rpcError maps err to a JSON-RPC code and message.
func rpcError(err error) (int, string) {
	switch {
	case errors.Is(err, apperrors.ErrNotFound):
		return ErrNotFound, apperrors.PublicMessage(err)
	case errors.Is(err, apperrors.ErrBadRequest):
		return ErrInvalidParams, apperrors.PublicMessage(err)
	case errors.Is(err, apperrors.ErrConflict):
		return ErrConflict, apperrors.PublicMessage(err)
	default:
		return ErrServerError, "Server error"
	}
}
