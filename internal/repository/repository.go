package repository

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/klass-lk/miniblog/internal/model"
)

var (
	ErrNotFound   = errors.New("record not found")
	ErrSlugTaken  = errors.New("slug already taken")
	ErrUserExists = errors.New("username or email already taken")
	ErrNoAuthor   = errors.New("author does not exist")
)

// PostFilter selects posts for a listing. Both the page query and its count
// query are built from the same value.
type PostFilter struct {
	Status   model.Status
	AuthorID string
	Search   string
}

type PostRepository interface {
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	// Create inserts post and returns it with author attributes joined.
	// Returns ErrSlugTaken when another post already holds the slug and
	// ErrNoAuthor when post.AuthorID names no user.
	Create(ctx context.Context, post model.Post) (model.Post, error)
	FindPublishedBySlug(ctx context.Context, slug string) (model.Post, error)
	FindByIDAndAuthor(ctx context.Context, id, authorID string) (model.Post, error)
	// FindByPaginated orders by created_at then id, newest first.
	FindByPaginated(ctx context.Context, req model.PageRequest, filter PostFilter) (model.Page[model.Post], error)
	Update(ctx context.Context, id, authorID string, patch model.PostPatch, updatedAt time.Time) (model.Post, error)
	Delete(ctx context.Context, id, authorID string) error
}

type UserRepository interface {
	// Create returns ErrUserExists when username or email is taken.
	Create(ctx context.Context, user model.User) (model.User, error)
	FindByID(ctx context.Context, id string) (model.User, error)
	// FindByLogin matches the email when login contains "@", the username
	// otherwise.
	FindByLogin(ctx context.Context, login string) (model.User, error)
}

// IsEmailLogin reports whether a login identifier names an email address.
// Usernames cannot contain "@".
func IsEmailLogin(login string) bool {
	return strings.Contains(login, "@")
}
