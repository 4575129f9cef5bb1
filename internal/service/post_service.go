package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/render"
	"github.com/klass-lk/miniblog/internal/repository"
	"github.com/klass-lk/miniblog/internal/slug"
)

const maxCreateAttempts = 5

type CreatePostInput struct {
	Title   string
	Content string
	Excerpt string
	Status  model.Status
	Slug    string
}

type PostService struct {
	posts    repository.PostRepository
	slugs    *slug.Allocator
	markdown *render.Markdown
	log      *logger.Logger
	now      func() time.Time
	newID    func() string
}

func NewPostService(posts repository.PostRepository, markdown *render.Markdown, log *logger.Logger) *PostService {
	return &PostService{
		posts:    posts,
		slugs:    slug.NewAllocator(posts),
		markdown: markdown,
		log:      log.With("component", "post_service"),
		now:      now,
		newID:    newID,
	}
}

// CreatePost allocates a slug and inserts the post. When a concurrent insert
// claims the slug first, allocation is rerun, up to maxCreateAttempts times.
func (s *PostService) CreatePost(ctx context.Context, authorID string, input CreatePostInput) (model.Post, error) {
	status := input.Status
	if status == "" {
		status = model.StatusDraft
	}

	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		allocated, err := s.slugs.Allocate(ctx, input.Title, input.Slug)
		if err != nil {
			return model.Post{}, err
		}

		createdAt := s.now()
		post, err := s.posts.Create(ctx, model.Post{
			ID:        s.newID(),
			Title:     input.Title,
			Content:   input.Content,
			Excerpt:   input.Excerpt,
			Slug:      allocated,
			Status:    status,
			AuthorID:  authorID,
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
		if errors.Is(err, repository.ErrSlugTaken) {
			s.log.Warn("slug taken between check and insert", "slug", allocated, "attempt", attempt)
			continue
		}
		if errors.Is(err, repository.ErrNoAuthor) {
			// The token outlived its account.
			return model.Post{}, ErrUserNotFound
		}
		if err != nil {
			return model.Post{}, err
		}

		s.log.Info("post created", "post_id", post.ID, "slug", post.Slug, "author_id", authorID)
		return post, nil
	}
	return model.Post{}, ErrSlugConflict
}

func (s *PostService) ListPublished(ctx context.Context, req model.PageRequest, search string) (model.Page[model.Post], error) {
	return s.posts.FindByPaginated(ctx, req, repository.PostFilter{
		Status: model.StatusPublished,
		Search: strings.TrimSpace(search),
	})
}

// ListMine lists the author's posts. An empty status lists every status.
func (s *PostService) ListMine(ctx context.Context, authorID string, req model.PageRequest, status model.Status) (model.Page[model.Post], error) {
	return s.posts.FindByPaginated(ctx, req, repository.PostFilter{
		AuthorID: authorID,
		Status:   status,
	})
}

func (s *PostService) GetPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	post, err := s.posts.FindPublishedBySlug(ctx, slug)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Post{}, ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	post.ContentHTML = string(s.markdown.ToHTML(post.Content))
	return post, nil
}

func (s *PostService) GetOwnedPost(ctx context.Context, authorID, id string) (model.Post, error) {
	if !validID(id) {
		return model.Post{}, ErrPostNotFound
	}
	post, err := s.posts.FindByIDAndAuthor(ctx, id, authorID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Post{}, ErrPostNotFound
	}
	return post, err
}

func (s *PostService) UpdatePost(ctx context.Context, authorID, id string, patch model.PostPatch) (model.Post, error) {
	if !validID(id) {
		return model.Post{}, ErrPostNotFound
	}
	post, err := s.posts.Update(ctx, id, authorID, patch, s.now())
	if errors.Is(err, repository.ErrNotFound) {
		return model.Post{}, ErrPostNotFound
	}
	if err != nil {
		return model.Post{}, err
	}
	s.log.Info("post updated", "post_id", id, "author_id", authorID)
	return post, nil
}

func (s *PostService) DeletePost(ctx context.Context, authorID, id string) error {
	if !validID(id) {
		return ErrPostNotFound
	}
	err := s.posts.Delete(ctx, id, authorID)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrPostNotFound
	}
	if err != nil {
		return err
	}
	s.log.Info("post deleted", "post_id", id, "author_id", authorID)
	return nil
}

// LatestPublished returns up to n of the newest published posts with their
// rendered HTML.
func (s *PostService) LatestPublished(ctx context.Context, n int) ([]model.Post, error) {
	page, err := s.posts.FindByPaginated(ctx, model.NewPageRequest(1, n), repository.PostFilter{Status: model.StatusPublished})
	if err != nil {
		return nil, err
	}
	for i := range page.Items {
		page.Items[i].ContentHTML = string(s.markdown.ToHTML(page.Items[i].Content))
	}
	return page.Items, nil
}

// AllPublished walks every page of published posts.
func (s *PostService) AllPublished(ctx context.Context) ([]model.Post, error) {
	var all []model.Post
	req := model.NewPageRequest(1, model.MaxPageSize)
	for {
		page, err := s.posts.FindByPaginated(ctx, req, repository.PostFilter{Status: model.StatusPublished})
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)
		if !page.Pagination.HasNext {
			return all, nil
		}
		req.Page++
	}
}
