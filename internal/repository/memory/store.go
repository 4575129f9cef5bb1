package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
)

// Store keeps users and posts in process memory. It enforces the same unique
// constraints as the database stores.
type Store struct {
	mu    sync.RWMutex
	posts map[string]model.Post
	slugs map[string]string
	users map[string]model.User
}

func NewStore() *Store {
	return &Store{
		posts: make(map[string]model.Post),
		slugs: make(map[string]string),
		users: make(map[string]model.User),
	}
}

func (s *Store) Posts() *PostRepository {
	return &PostRepository{store: s}
}

func (s *Store) Users() *UserRepository {
	return &UserRepository{store: s}
}

type PostRepository struct {
	store *Store
}

func (r *PostRepository) ExistsBySlug(_ context.Context, slug string) (bool, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	_, ok := r.store.slugs[slug]
	return ok, nil
}

func (r *PostRepository) Create(_ context.Context, post model.Post) (model.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	if _, ok := r.store.slugs[post.Slug]; ok {
		return model.Post{}, repository.ErrSlugTaken
	}
	if _, ok := r.store.users[post.AuthorID]; !ok {
		return model.Post{}, repository.ErrNoAuthor
	}
	r.store.posts[post.ID] = post
	r.store.slugs[post.Slug] = post.ID
	return r.store.withAuthor(post), nil
}

func (r *PostRepository) FindPublishedBySlug(_ context.Context, slug string) (model.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	id, ok := r.store.slugs[slug]
	if !ok {
		return model.Post{}, repository.ErrNotFound
	}
	post := r.store.posts[id]
	if post.Status != model.StatusPublished {
		return model.Post{}, repository.ErrNotFound
	}
	return r.store.withAuthor(post), nil
}

func (r *PostRepository) FindByIDAndAuthor(_ context.Context, id, authorID string) (model.Post, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	post, ok := r.store.posts[id]
	if !ok || post.AuthorID != authorID {
		return model.Post{}, repository.ErrNotFound
	}
	return r.store.withAuthor(post), nil
}

func (r *PostRepository) FindByPaginated(_ context.Context, req model.PageRequest, filter repository.PostFilter) (model.Page[model.Post], error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	var matched []model.Post
	for _, post := range r.store.posts {
		if matches(post, filter) {
			matched = append(matched, post)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)
	start := req.Offset()
	if start < 0 {
		start = 0
	}
	if start > total {
		start = total
	}
	end := start + req.Size
	if end > total || end < start {
		end = total
	}

	items := make([]model.Post, 0, end-start)
	for _, post := range matched[start:end] {
		items = append(items, r.store.withAuthor(post))
	}
	return model.NewPage(items, req, total), nil
}

func (r *PostRepository) Update(_ context.Context, id, authorID string, patch model.PostPatch, updatedAt time.Time) (model.Post, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, ok := r.store.posts[id]
	if !ok || post.AuthorID != authorID {
		return model.Post{}, repository.ErrNotFound
	}
	patch.Apply(&post)
	post.UpdatedAt = updatedAt
	r.store.posts[id] = post
	return r.store.withAuthor(post), nil
}

func (r *PostRepository) Delete(_ context.Context, id, authorID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	post, ok := r.store.posts[id]
	if !ok || post.AuthorID != authorID {
		return repository.ErrNotFound
	}
	delete(r.store.posts, id)
	delete(r.store.slugs, post.Slug)
	return nil
}

func matches(post model.Post, filter repository.PostFilter) bool {
	if filter.Status != "" && post.Status != filter.Status {
		return false
	}
	if filter.AuthorID != "" && post.AuthorID != filter.AuthorID {
		return false
	}
	if filter.Search != "" {
		needle := strings.ToLower(filter.Search)
		if !strings.Contains(strings.ToLower(post.Title), needle) &&
			!strings.Contains(strings.ToLower(post.Content), needle) {
			return false
		}
	}
	return true
}

// withAuthor must be called with the lock held.
func (s *Store) withAuthor(post model.Post) model.Post {
	if user, ok := s.users[post.AuthorID]; ok {
		post.Username = user.Username
		post.AuthorName = user.FullName
	}
	return post
}

type UserRepository struct {
	store *Store
}

func (r *UserRepository) Create(_ context.Context, user model.User) (model.User, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, existing := range r.store.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return model.User{}, repository.ErrUserExists
		}
	}
	r.store.users[user.ID] = user
	return user, nil
}

func (r *UserRepository) FindByID(_ context.Context, id string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return model.User{}, repository.ErrNotFound
	}
	return user, nil
}

func (r *UserRepository) FindByLogin(_ context.Context, login string) (model.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	byEmail := repository.IsEmailLogin(login)
	for _, user := range r.store.users {
		if (byEmail && user.Email == login) || (!byEmail && user.Username == login) {
			return user, nil
		}
	}
	return model.User{}, repository.ErrNotFound
}
