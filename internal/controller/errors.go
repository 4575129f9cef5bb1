package controller

import (
	"errors"

	"github.com/klass-lk/miniblog/internal/server"
	"github.com/klass-lk/miniblog/internal/service"
)

const postNotFoundMessage = "Post not found or access denied"

// toApiError maps service failures onto the response envelope. Unknown
// errors pass through and end up as INTERNAL_ERROR.
func toApiError(err error) error {
	switch {
	case errors.Is(err, service.ErrPostNotFound):
		return server.ErrNotFound.New(postNotFoundMessage)
	case errors.Is(err, service.ErrUserNotFound):
		return server.ErrNotFound.New("User not found")
	case errors.Is(err, service.ErrSlugConflict):
		return server.ErrSlugConflict
	case errors.Is(err, service.ErrUserExists):
		return server.ErrUserExists
	case errors.Is(err, service.ErrInvalidCredentials):
		return server.ErrUnauthorized.New("Invalid credentials")
	case errors.Is(err, service.ErrInvalidToken):
		return server.ErrUnauthorized.New("Invalid or expired token")
	default:
		return err
	}
}
