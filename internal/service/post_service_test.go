package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/render"
	"github.com/klass-lk/miniblog/internal/repository"
	"github.com/klass-lk/miniblog/internal/repository/memory"
)

type fixture struct {
	store *memory.Store
	posts *PostService
	clock time.Time
	alice model.User
	bob   model.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store: memory.NewStore(),
		clock: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC),
	}
	f.posts = NewPostService(f.store.Posts(), render.NewMarkdown(), logger.NewNop())
	f.posts.now = func() time.Time { return f.clock }
	f.alice = f.user(t, "alice")
	f.bob = f.user(t, "bob")
	return f
}

func (f *fixture) user(t *testing.T, name string) model.User {
	user, err := f.store.Users().Create(context.Background(), model.User{
		ID: uuid.NewString(), Username: name, Email: name + "@example.com", FullName: "Name " + name,
	})
	require.NoError(t, err)
	return user
}

func (f *fixture) create(t *testing.T, author model.User, input CreatePostInput) model.Post {
	t.Helper()
	post, err := f.posts.CreatePost(context.Background(), author.ID, input)
	require.NoError(t, err)
	return post
}

func TestCreatePost(t *testing.T) {
	f := newFixture(t)

	post := f.create(t, f.alice, CreatePostInput{Title: "Hello, World!", Content: "# Hi"})
	assert.Equal(t, "hello-world", post.Slug)
	assert.Equal(t, model.StatusDraft, post.Status)
	assert.Equal(t, f.alice.ID, post.AuthorID)
	assert.Equal(t, "alice", post.Username)
	assert.Equal(t, "Name alice", post.AuthorName)
	assert.Equal(t, f.clock, post.CreatedAt)
	assert.Equal(t, f.clock, post.UpdatedAt)
	assert.True(t, validID(post.ID))

	second := f.create(t, f.bob, CreatePostInput{Title: "Hello, World!", Content: "again", Status: model.StatusPublished})
	assert.Equal(t, "hello-world-1", second.Slug)
	assert.Equal(t, model.StatusPublished, second.Status)

	explicit := f.create(t, f.bob, CreatePostInput{Title: "Anything", Content: "x", Slug: "hello-world"})
	assert.Equal(t, "hello-world-2", explicit.Slug)

	empty := f.create(t, f.alice, CreatePostInput{Title: "!!!", Content: "x"})
	assert.Equal(t, "post", empty.Slug)
}

// racingRepository reports the slug as taken for the first failures inserts,
// as if another request won the race each time.
type racingRepository struct {
	repository.PostRepository
	mu       sync.Mutex
	failures int
	attempts int
}

func (r *racingRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	r.mu.Lock()
	r.attempts++
	lose := r.attempts <= r.failures
	r.mu.Unlock()
	if lose {
		return model.Post{}, repository.ErrSlugTaken
	}
	return r.PostRepository.Create(ctx, post)
}

func TestCreatePost_RetriesWhenSlugTaken(t *testing.T) {
	f := newFixture(t)
	repo := &racingRepository{PostRepository: f.store.Posts(), failures: maxCreateAttempts - 1}
	svc := NewPostService(repo, render.NewMarkdown(), logger.NewNop())

	post, err := svc.CreatePost(context.Background(), f.alice.ID, CreatePostInput{Title: "Race", Content: "x"})
	require.NoError(t, err)
	assert.Equal(t, "race", post.Slug)
	assert.Equal(t, maxCreateAttempts, repo.attempts)
}

func TestCreatePost_ConflictAfterMaxAttempts(t *testing.T) {
	f := newFixture(t)
	repo := &racingRepository{PostRepository: f.store.Posts(), failures: maxCreateAttempts}
	svc := NewPostService(repo, render.NewMarkdown(), logger.NewNop())

	_, err := svc.CreatePost(context.Background(), f.alice.ID, CreatePostInput{Title: "Race", Content: "x"})
	assert.ErrorIs(t, err, ErrSlugConflict)
	assert.Equal(t, maxCreateAttempts, repo.attempts)
}

func TestCreatePost_UnknownAuthor(t *testing.T) {
	f := newFixture(t)

	_, err := f.posts.CreatePost(context.Background(), uuid.NewString(), CreatePostInput{Title: "Orphan", Content: "x"})
	assert.ErrorIs(t, err, ErrUserNotFound)

	exists, err := f.store.Posts().ExistsBySlug(context.Background(), "orphan")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCreatePost_ConcurrentIdenticalTitles(t *testing.T) {
	f := newFixture(t)

	const workers = 10
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		slugs = make(map[string]int)
		errs  []error
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			post, err := f.posts.CreatePost(context.Background(), f.alice.ID, CreatePostInput{Title: "Same Title", Content: "x"})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			slugs[post.Slug]++
		}()
	}
	wg.Wait()

	for _, err := range errs {
		assert.ErrorIs(t, err, ErrSlugConflict)
	}
	assert.NotEmpty(t, slugs)
	assert.Equal(t, workers, len(slugs)+len(errs))
	for s, n := range slugs {
		assert.Equal(t, 1, n, "slug %s shared", s)
	}
}

func TestListPublished(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < 13; i++ {
		f.clock = f.clock.Add(time.Minute)
		f.create(t, f.alice, CreatePostInput{Title: fmt.Sprintf("Published %d", i), Content: "body", Status: model.StatusPublished})
	}
	f.create(t, f.alice, CreatePostInput{Title: "Secret draft", Content: "body"})

	page, err := f.posts.ListPublished(context.Background(), model.NewPageRequest(1, 6), "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 6)
	assert.Equal(t, model.Pagination{CurrentPage: 1, TotalPages: 3, Total: 13, HasNext: true, HasPrev: false}, page.Pagination)
	assert.Equal(t, "published-12", page.Items[0].Slug)

	page, err = f.posts.ListPublished(context.Background(), model.NewPageRequest(3, 6), "")
	require.NoError(t, err)
	assert.Len(t, page.Items, 1)
	assert.False(t, page.Pagination.HasNext)

	page, err = f.posts.ListPublished(context.Background(), model.NewPageRequest(1, 50), "  PUBLISHED 1  ")
	require.NoError(t, err)
	assert.Equal(t, 4, page.Pagination.Total) // 1, 10, 11, 12

	page, err = f.posts.ListPublished(context.Background(), model.NewPageRequest(1, 50), "secret")
	require.NoError(t, err)
	assert.Empty(t, page.Items)
}

func TestListMine(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.alice, CreatePostInput{Title: "A draft", Content: "x"})
	f.create(t, f.alice, CreatePostInput{Title: "A live", Content: "x", Status: model.StatusPublished})
	f.create(t, f.bob, CreatePostInput{Title: "B draft", Content: "x"})

	all, err := f.posts.ListMine(context.Background(), f.alice.ID, model.NewPageRequest(1, 10), "")
	require.NoError(t, err)
	assert.Equal(t, 2, all.Pagination.Total)
	assert.Equal(t, 1, all.Pagination.TotalPages)

	drafts, err := f.posts.ListMine(context.Background(), f.alice.ID, model.NewPageRequest(1, 10), model.StatusDraft)
	require.NoError(t, err)
	require.Len(t, drafts.Items, 1)
	assert.Equal(t, "a-draft", drafts.Items[0].Slug)
}

func TestGetPublishedBySlug(t *testing.T) {
	f := newFixture(t)
	f.create(t, f.alice, CreatePostInput{Title: "Draft", Content: "x"})
	f.create(t, f.alice, CreatePostInput{Title: "Live", Content: "**bold**", Status: model.StatusPublished})

	post, err := f.posts.GetPublishedBySlug(context.Background(), "live")
	require.NoError(t, err)
	assert.Contains(t, post.ContentHTML, "<strong>bold</strong>")

	_, err = f.posts.GetPublishedBySlug(context.Background(), "draft")
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.GetPublishedBySlug(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestGetOwnedPost(t *testing.T) {
	f := newFixture(t)
	post := f.create(t, f.alice, CreatePostInput{Title: "Mine", Content: "x"})

	found, err := f.posts.GetOwnedPost(context.Background(), f.alice.ID, post.ID)
	require.NoError(t, err)
	assert.Equal(t, post.ID, found.ID)

	_, err = f.posts.GetOwnedPost(context.Background(), f.bob.ID, post.ID)
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.GetOwnedPost(context.Background(), f.alice.ID, "42")
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestUpdatePost(t *testing.T) {
	f := newFixture(t)
	post := f.create(t, f.alice, CreatePostInput{Title: "Draft", Content: "Body", Excerpt: "Short"})

	f.clock = f.clock.Add(time.Hour)
	published := model.StatusPublished
	updated, err := f.posts.UpdatePost(context.Background(), f.alice.ID, post.ID, model.PostPatch{Status: &published})
	require.NoError(t, err)
	assert.Equal(t, "Draft", updated.Title)
	assert.Equal(t, "Body", updated.Content)
	assert.Equal(t, "Short", updated.Excerpt)
	assert.Equal(t, "draft", updated.Slug)
	assert.Equal(t, model.StatusPublished, updated.Status)
	assert.Equal(t, post.CreatedAt, updated.CreatedAt)
	assert.Equal(t, f.clock, updated.UpdatedAt)

	title := "Renamed"
	updated, err = f.posts.UpdatePost(context.Background(), f.alice.ID, post.ID, model.PostPatch{Title: &title})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Title)
	assert.Equal(t, "draft", updated.Slug, "slug never changes")

	_, err = f.posts.UpdatePost(context.Background(), f.bob.ID, post.ID, model.PostPatch{Title: &title})
	assert.ErrorIs(t, err, ErrPostNotFound)
	_, err = f.posts.UpdatePost(context.Background(), f.alice.ID, "bad-id", model.PostPatch{Title: &title})
	assert.ErrorIs(t, err, ErrPostNotFound)
}

func TestDeletePost(t *testing.T) {
	f := newFixture(t)
	post := f.create(t, f.alice, CreatePostInput{Title: "Doomed", Content: "x"})

	assert.ErrorIs(t, f.posts.DeletePost(context.Background(), f.bob.ID, post.ID), ErrPostNotFound)
	require.NoError(t, f.posts.DeletePost(context.Background(), f.alice.ID, post.ID))
	assert.ErrorIs(t, f.posts.DeletePost(context.Background(), f.alice.ID, post.ID), ErrPostNotFound)
	assert.ErrorIs(t, f.posts.DeletePost(context.Background(), f.alice.ID, "nope"), ErrPostNotFound)
}

func TestLatestAndAllPublished(t *testing.T) {
	f := newFixture(t)
	for i := 0; i < model.MaxPageSize+5; i++ {
		f.clock = f.clock.Add(time.Second)
		f.create(t, f.alice, CreatePostInput{Title: fmt.Sprintf("Post %d", i), Content: "*hi*", Status: model.StatusPublished})
	}
	f.create(t, f.alice, CreatePostInput{Title: "Hidden", Content: "x"})

	latest, err := f.posts.LatestPublished(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, fmt.Sprintf("post-%d", model.MaxPageSize+4), latest[0].Slug)
	assert.Contains(t, latest[0].ContentHTML, "<em>hi</em>")

	all, err := f.posts.AllPublished(context.Background())
	require.NoError(t, err)
	assert.Len(t, all, model.MaxPageSize+5)
}
