package postgres

import (
	"errors"

	"github.com/lib/pq"

	"github.com/klass-lk/miniblog/internal/repository"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
	invalidTextFormat   = "22P02"
)

func translate(err error) error {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case uniqueViolation:
		switch pqErr.Constraint {
		case "posts_slug_key":
			return repository.ErrSlugTaken
		case "users_username_key", "users_email_key":
			return repository.ErrUserExists
		}
	case foreignKeyViolation:
		if pqErr.Constraint == "posts_author_id_fkey" {
			return repository.ErrNoAuthor
		}
	case invalidTextFormat:
		// A malformed uuid cannot match any row.
		return repository.ErrNotFound
	}
	return err
}
