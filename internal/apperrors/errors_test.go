package apperrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestHTTPStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{"not found", NotFound("User not found"), http.StatusNotFound},
		{"wrapped not found", fmt.Errorf("get profile: %w", NotFound("User not found")), http.StatusNotFound},
		{"bad request", BadRequest("text is required"), http.StatusBadRequest},
		{"conflict", Conflict("username taken"), http.StatusConflict},
		{"other", errors.New("connection reset"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HTTPStatus(tt.err); got != tt.expected {
				t.Errorf("HTTPStatus() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestPublicMessage(t *testing.T) {
	if got := PublicMessage(NotFound("Community not found")); got != "Community not found" {
		t.Errorf("PublicMessage() = %q", got)
	}
	if got := PublicMessage(errors.New("pq: password authentication failed")); got != "internal server error" {
		t.Errorf("PublicMessage() leaked internal error: %q", got)
	}
}

func TestIsNotFound(t *testing.T) {
	if !IsNotFound(NotFound("x")) {
		t.Error("expected NotFound to match")
	}
	if IsNotFound(BadRequest("x")) {
		t.Error("BadRequest should not match NotFound")
	}
}
