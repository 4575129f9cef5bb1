package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
)

const postColumns = `p.id, p.title, p.content, COALESCE(p.excerpt, ''), p.slug, p.status, p.author_id,
	p.created_at, p.updated_at, u.username, COALESCE(u.full_name, '')`

type PostRepository struct {
	db *sql.DB
}

func NewPostRepository(db *sql.DB) *PostRepository {
	return &PostRepository{db: db}
}

func (r *PostRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM posts WHERE slug = $1)`, slug).Scan(&exists)
	return exists, err
}

func (r *PostRepository) Create(ctx context.Context, post model.Post) (model.Post, error) {
	query := `WITH p AS (
		INSERT INTO posts (id, title, content, excerpt, slug, status, author_id, created_at, updated_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6, $7, $8, $9)
		RETURNING *
	)
	SELECT ` + postColumns + ` FROM p JOIN users u ON p.author_id = u.id`

	row := r.db.QueryRowContext(ctx, query,
		post.ID, post.Title, post.Content, post.Excerpt, post.Slug, post.Status,
		post.AuthorID, post.CreatedAt, post.UpdatedAt)
	created, err := scanPost(row)
	if err != nil {
		return model.Post{}, translate(err)
	}
	return created, nil
}

func (r *PostRepository) FindPublishedBySlug(ctx context.Context, slug string) (model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON p.author_id = u.id
		WHERE p.slug = $1 AND p.status = $2`
	return r.findOne(ctx, query, slug, model.StatusPublished)
}

func (r *PostRepository) FindByIDAndAuthor(ctx context.Context, id, authorID string) (model.Post, error) {
	query := `SELECT ` + postColumns + ` FROM posts p JOIN users u ON p.author_id = u.id
		WHERE p.id = $1 AND p.author_id = $2`
	return r.findOne(ctx, query, id, authorID)
}

func (r *PostRepository) FindByPaginated(ctx context.Context, req model.PageRequest, filter repository.PostFilter) (model.Page[model.Post], error) {
	conditions, values := buildWhereClause(filter)

	query := fmt.Sprintf(`SELECT %s FROM posts p JOIN users u ON p.author_id = u.id
		WHERE %s ORDER BY p.created_at DESC, p.id DESC LIMIT $%d OFFSET $%d`,
		postColumns, conditions, len(values)+1, len(values)+2)

	queryValues := append(append([]interface{}{}, values...), req.Size, req.Offset())
	rows, err := r.db.QueryContext(ctx, query, queryValues...)
	if err != nil {
		return model.Page[model.Post]{}, translate(err)
	}
	defer rows.Close()

	var results []model.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return model.Page[model.Post]{}, err
		}
		results = append(results, post)
	}
	if err := rows.Err(); err != nil {
		return model.Page[model.Post]{}, err
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM posts p WHERE %s", conditions)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, values...).Scan(&total); err != nil {
		return model.Page[model.Post]{}, translate(err)
	}

	return model.NewPage(results, req, total), nil
}

func (r *PostRepository) Update(ctx context.Context, id, authorID string, patch model.PostPatch, updatedAt time.Time) (model.Post, error) {
	query := `WITH p AS (
		UPDATE posts SET
			title = COALESCE($1, title),
			content = COALESCE($2, content),
			excerpt = COALESCE($3, excerpt),
			status = COALESCE($4, status),
			updated_at = $5
		WHERE id = $6 AND author_id = $7
		RETURNING *
	)
	SELECT ` + postColumns + ` FROM p JOIN users u ON p.author_id = u.id`

	var status *string
	if patch.Status != nil {
		s := string(*patch.Status)
		status = &s
	}
	row := r.db.QueryRowContext(ctx, query,
		patch.Title, patch.Content, patch.Excerpt, status, updatedAt, id, authorID)
	post, err := scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Post{}, translate(err)
	}
	return post, nil
}

func (r *PostRepository) Delete(ctx context.Context, id, authorID string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM posts WHERE id = $1 AND author_id = $2`, id, authorID)
	if err != nil {
		return translate(err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *PostRepository) findOne(ctx context.Context, query string, args ...interface{}) (model.Post, error) {
	post, err := scanPost(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Post{}, repository.ErrNotFound
	}
	if err != nil {
		return model.Post{}, translate(err)
	}
	return post, nil
}

// buildWhereClause renders filter as a condition on posts aliased p. List and
// count queries share its output.
func buildWhereClause(filter repository.PostFilter) (string, []interface{}) {
	conditions := []string{"TRUE"}
	var values []interface{}

	if filter.Status != "" {
		values = append(values, filter.Status)
		conditions = append(conditions, fmt.Sprintf("p.status = $%d", len(values)))
	}
	if filter.AuthorID != "" {
		values = append(values, filter.AuthorID)
		conditions = append(conditions, fmt.Sprintf("p.author_id = $%d", len(values)))
	}
	if filter.Search != "" {
		values = append(values, "%"+escapeLike(filter.Search)+"%")
		n := len(values)
		conditions = append(conditions, fmt.Sprintf("(p.title ILIKE $%d OR p.content ILIKE $%d)", n, n))
	}

	return strings.Join(conditions, " AND "), values
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanPost(row scanner) (model.Post, error) {
	var (
		post   model.Post
		status string
	)
	err := row.Scan(&post.ID, &post.Title, &post.Content, &post.Excerpt, &post.Slug, &status,
		&post.AuthorID, &post.CreatedAt, &post.UpdatedAt, &post.Username, &post.AuthorName)
	if err != nil {
		return model.Post{}, err
	}
	post.Status = model.Status(status)
	post.CreatedAt = post.CreatedAt.UTC()
	post.UpdatedAt = post.UpdatedAt.UTC()
	return post, nil
}
