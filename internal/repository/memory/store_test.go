package memory

import (
	"testing"

	"github.com/klass-lk/miniblog/internal/repository"
	"github.com/klass-lk/miniblog/internal/repository/repositorytest"
)

func TestStore(t *testing.T) {
	repositorytest.Run(t, func(t *testing.T) (repository.PostRepository, repository.UserRepository) {
		store := NewStore()
		return store.Posts(), store.Users()
	})
}
