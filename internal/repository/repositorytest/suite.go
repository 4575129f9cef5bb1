// Package repositorytest holds the behaviour every post and user store must share.
package repositorytest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
)

// Factory returns empty repositories for a single test.
type Factory func(t *testing.T) (repository.PostRepository, repository.UserRepository)

var baseTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func Run(t *testing.T, newRepos Factory) {
	tests := []struct {
		name string
		fn   func(t *testing.T, posts repository.PostRepository, users repository.UserRepository)
	}{
		{"users are unique by username and email", testUserUniqueness},
		{"users are found by username or email", testUserLookup},
		{"create joins author and rejects taken slugs", testCreate},
		{"exists by slug", testExistsBySlug},
		{"public slug lookup hides drafts", testFindPublishedBySlug},
		{"id lookup is scoped to the author", testFindByIDAndAuthor},
		{"published listing pages and counts", testPublishedPagination},
		{"listing orders by created_at then id", testOrdering},
		{"search is a case-insensitive substring", testSearch},
		{"scoped listing filters by author and status", testScopedListing},
		{"update merges supplied fields", testUpdate},
		{"delete is scoped and permanent", testDelete},
		{"concurrent creates never share a slug", testConcurrentCreate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			posts, users := newRepos(t)
			tt.fn(t, posts, users)
		})
	}
}

func NewUser(t *testing.T, users repository.UserRepository, username string) model.User {
	t.Helper()
	user, err := users.Create(context.Background(), model.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		FullName:     "User " + username,
		CreatedAt:    baseTime,
		UpdatedAt:    baseTime,
	})
	require.NoError(t, err)
	return user
}

func NewPost(author model.User, slug string, status model.Status, createdAt time.Time) model.Post {
	return model.Post{
		ID:        uuid.NewString(),
		Title:     "Title " + slug,
		Content:   "Content of " + slug,
		Excerpt:   "Excerpt " + slug,
		Slug:      slug,
		Status:    status,
		AuthorID:  author.ID,
		CreatedAt: createdAt,
		UpdatedAt: createdAt,
	}
}

func mustCreate(t *testing.T, posts repository.PostRepository, post model.Post) model.Post {
	t.Helper()
	created, err := posts.Create(context.Background(), post)
	require.NoError(t, err)
	return created
}

func testUserUniqueness(t *testing.T, _ repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	_, err := users.Create(ctx, model.User{ID: uuid.NewString(), Username: "alice", Email: "other@example.com", PasswordHash: "x", CreatedAt: baseTime, UpdatedAt: baseTime})
	assert.ErrorIs(t, err, repository.ErrUserExists)

	_, err = users.Create(ctx, model.User{ID: uuid.NewString(), Username: "other", Email: alice.Email, PasswordHash: "x", CreatedAt: baseTime, UpdatedAt: baseTime})
	assert.ErrorIs(t, err, repository.ErrUserExists)
}

func testUserLookup(t *testing.T, _ repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	byName, err := users.FindByLogin(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Equal(t, "hash", byName.PasswordHash)

	byEmail, err := users.FindByLogin(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	// A legacy account named like alice's email must not shadow her login.
	_, err = users.Create(ctx, model.User{ID: uuid.NewString(), Username: alice.Email, Email: "legacy@example.com", PasswordHash: "x", CreatedAt: baseTime, UpdatedAt: baseTime})
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		byEmail, err := users.FindByLogin(ctx, alice.Email)
		require.NoError(t, err)
		assert.Equal(t, alice.ID, byEmail.ID)
	}

	byID, err := users.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "User alice", byID.FullName)

	_, err = users.FindByLogin(ctx, "nobody")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.FindByID(ctx, uuid.NewString())
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testCreate(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	post := NewPost(alice, "hello-world", model.StatusDraft, baseTime)
	created := mustCreate(t, posts, post)

	assert.Equal(t, post.ID, created.ID)
	assert.Equal(t, "hello-world", created.Slug)
	assert.Equal(t, "alice", created.Username)
	assert.Equal(t, "User alice", created.AuthorName)
	assert.True(t, created.CreatedAt.Equal(baseTime))

	_, err := posts.Create(ctx, NewPost(alice, "hello-world", model.StatusPublished, baseTime))
	assert.ErrorIs(t, err, repository.ErrSlugTaken)

	ghost := model.User{ID: uuid.NewString()}
	_, err = posts.Create(ctx, NewPost(ghost, "orphan", model.StatusDraft, baseTime))
	assert.ErrorIs(t, err, repository.ErrNoAuthor)
	exists, err := posts.ExistsBySlug(ctx, "orphan")
	require.NoError(t, err)
	assert.False(t, exists)
}

func testExistsBySlug(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	exists, err := posts.ExistsBySlug(ctx, "draft-post")
	require.NoError(t, err)
	assert.False(t, exists)

	mustCreate(t, posts, NewPost(alice, "draft-post", model.StatusDraft, baseTime))

	exists, err = posts.ExistsBySlug(ctx, "draft-post")
	require.NoError(t, err)
	assert.True(t, exists, "drafts hold their slug too")
}

func testFindPublishedBySlug(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	mustCreate(t, posts, NewPost(alice, "draft", model.StatusDraft, baseTime))
	mustCreate(t, posts, NewPost(alice, "live", model.StatusPublished, baseTime))

	_, err := posts.FindPublishedBySlug(ctx, "draft")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = posts.FindPublishedBySlug(ctx, "absent")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	live, err := posts.FindPublishedBySlug(ctx, "live")
	require.NoError(t, err)
	assert.Equal(t, "Title live", live.Title)
	assert.Equal(t, "alice", live.Username)
}

func testFindByIDAndAuthor(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	bob := NewUser(t, users, "bob")
	post := mustCreate(t, posts, NewPost(alice, "owned", model.StatusDraft, baseTime))

	found, err := posts.FindByIDAndAuthor(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "owned", found.Slug)
	assert.Equal(t, "Excerpt owned", found.Excerpt)

	_, err = posts.FindByIDAndAuthor(ctx, post.ID, bob.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = posts.FindByIDAndAuthor(ctx, uuid.NewString(), alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func testPublishedPagination(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	for i := 0; i < 13; i++ {
		mustCreate(t, posts, NewPost(alice, fmt.Sprintf("published-%d", i), model.StatusPublished, baseTime.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 4; i++ {
		mustCreate(t, posts, NewPost(alice, fmt.Sprintf("draft-%d", i), model.StatusDraft, baseTime.Add(time.Hour)))
	}

	filter := repository.PostFilter{Status: model.StatusPublished}

	first, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 6}, filter)
	require.NoError(t, err)
	assert.Len(t, first.Items, 6)
	assert.Equal(t, model.Pagination{CurrentPage: 1, TotalPages: 3, Total: 13, HasNext: true, HasPrev: false}, first.Pagination)
	assert.Equal(t, "published-12", first.Items[0].Slug)

	last, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 3, Size: 6}, filter)
	require.NoError(t, err)
	require.Len(t, last.Items, 1)
	assert.Equal(t, "published-0", last.Items[0].Slug)
	assert.Equal(t, model.Pagination{CurrentPage: 3, TotalPages: 3, Total: 13, HasNext: false, HasPrev: true}, last.Pagination)

	beyond, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 9, Size: 6}, filter)
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, 13, beyond.Pagination.Total)

	for _, page := range []model.Page[model.Post]{first, last} {
		for _, post := range page.Items {
			assert.Equal(t, model.StatusPublished, post.Status)
		}
	}
}

func testOrdering(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	ids := []string{
		"00000000-0000-4000-8000-000000000001",
		"00000000-0000-4000-8000-000000000003",
		"00000000-0000-4000-8000-000000000002",
	}
	for i, id := range ids {
		post := NewPost(alice, fmt.Sprintf("tie-%d", i), model.StatusPublished, baseTime)
		post.ID = id
		mustCreate(t, posts, post)
	}
	newest := NewPost(alice, "newest", model.StatusPublished, baseTime.Add(time.Second))
	mustCreate(t, posts, newest)

	page, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{Status: model.StatusPublished})
	require.NoError(t, err)
	require.Len(t, page.Items, 4)

	got := []string{page.Items[0].ID, page.Items[1].ID, page.Items[2].ID, page.Items[3].ID}
	assert.Equal(t, []string{newest.ID, ids[1], ids[2], ids[0]}, got)
}

func testSearch(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")

	inTitle := NewPost(alice, "go-tips", model.StatusPublished, baseTime)
	inTitle.Title = "Golang Tips"
	inContent := NewPost(alice, "misc", model.StatusPublished, baseTime.Add(time.Minute))
	inContent.Content = "Some notes about GOLANG modules"
	draft := NewPost(alice, "draft-go", model.StatusDraft, baseTime)
	draft.Title = "Golang draft"
	percent := NewPost(alice, "discount", model.StatusPublished, baseTime)
	percent.Title = "100% off"
	other := NewPost(alice, "rust", model.StatusPublished, baseTime)
	other.Title = "Rust"

	for _, p := range []model.Post{inTitle, inContent, draft, percent, other} {
		mustCreate(t, posts, p)
	}

	page, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{Status: model.StatusPublished, Search: "golang"})
	require.NoError(t, err)
	assert.Equal(t, 2, page.Pagination.Total)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "misc", page.Items[0].Slug)
	assert.Equal(t, "go-tips", page.Items[1].Slug)

	page, err = posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{Status: model.StatusPublished, Search: "0%"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	assert.Equal(t, "discount", page.Items[0].Slug)

	page, err = posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{Status: model.StatusPublished, Search: "_"})
	require.NoError(t, err)
	assert.Empty(t, page.Items)
	assert.Equal(t, 0, page.Pagination.Total)
}

func testScopedListing(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	bob := NewUser(t, users, "bob")

	for i := 0; i < 3; i++ {
		mustCreate(t, posts, NewPost(alice, fmt.Sprintf("alice-draft-%d", i), model.StatusDraft, baseTime.Add(time.Duration(i)*time.Minute)))
	}
	for i := 0; i < 2; i++ {
		mustCreate(t, posts, NewPost(alice, fmt.Sprintf("alice-live-%d", i), model.StatusPublished, baseTime.Add(time.Duration(i)*time.Minute)))
	}
	mustCreate(t, posts, NewPost(bob, "bob-live", model.StatusPublished, baseTime))

	all, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 2}, repository.PostFilter{AuthorID: alice.ID})
	require.NoError(t, err)
	assert.Len(t, all.Items, 2)
	assert.Equal(t, model.Pagination{CurrentPage: 1, TotalPages: 3, Total: 5, HasNext: true, HasPrev: false}, all.Pagination)

	drafts, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{AuthorID: alice.ID, Status: model.StatusDraft})
	require.NoError(t, err)
	assert.Equal(t, 3, drafts.Pagination.Total)
	for _, p := range drafts.Items {
		assert.Equal(t, model.StatusDraft, p.Status)
		assert.Equal(t, alice.ID, p.AuthorID)
	}

	bobs, err := posts.FindByPaginated(ctx, model.PageRequest{Page: 1, Size: 10}, repository.PostFilter{AuthorID: bob.ID, Status: model.StatusDraft})
	require.NoError(t, err)
	assert.Empty(t, bobs.Items)
}

func testUpdate(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	bob := NewUser(t, users, "bob")
	post := mustCreate(t, posts, NewPost(alice, "editable", model.StatusDraft, baseTime))

	published := model.StatusPublished
	later := baseTime.Add(time.Hour)
	updated, err := posts.Update(ctx, post.ID, alice.ID, model.PostPatch{Status: &published}, later)
	require.NoError(t, err)
	assert.Equal(t, model.StatusPublished, updated.Status)
	assert.Equal(t, post.Title, updated.Title)
	assert.Equal(t, post.Content, updated.Content)
	assert.Equal(t, post.Excerpt, updated.Excerpt)
	assert.Equal(t, "editable", updated.Slug)
	assert.Equal(t, alice.ID, updated.AuthorID)
	assert.Equal(t, "alice", updated.Username)
	assert.True(t, updated.CreatedAt.Equal(baseTime))
	assert.True(t, updated.UpdatedAt.Equal(later))

	title := "New title"
	_, err = posts.Update(ctx, post.ID, bob.ID, model.PostPatch{Title: &title}, later)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = posts.Update(ctx, uuid.NewString(), alice.ID, model.PostPatch{Title: &title}, later)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	reloaded, err := posts.FindByIDAndAuthor(ctx, post.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Title editable", reloaded.Title)
}

func testDelete(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	ctx := context.Background()
	alice := NewUser(t, users, "alice")
	bob := NewUser(t, users, "bob")
	post := mustCreate(t, posts, NewPost(alice, "doomed", model.StatusPublished, baseTime))

	assert.ErrorIs(t, posts.Delete(ctx, post.ID, bob.ID), repository.ErrNotFound)
	require.NoError(t, posts.Delete(ctx, post.ID, alice.ID))
	assert.ErrorIs(t, posts.Delete(ctx, post.ID, alice.ID), repository.ErrNotFound)

	_, err := posts.FindByIDAndAuthor(ctx, post.ID, alice.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	exists, err := posts.ExistsBySlug(ctx, "doomed")
	require.NoError(t, err)
	assert.False(t, exists, "slug is released after delete")
}

func testConcurrentCreate(t *testing.T, posts repository.PostRepository, users repository.UserRepository) {
	alice := NewUser(t, users, "alice")

	const workers = 8
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		created int
		taken   int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := posts.Create(context.Background(), NewPost(alice, "race", model.StatusDraft, baseTime))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				created++
			case assert.ErrorIs(t, err, repository.ErrSlugTaken):
				taken++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, created)
	assert.Equal(t, workers-1, taken)
}
