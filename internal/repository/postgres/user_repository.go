package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
)

const userColumns = `id, username, email, password, COALESCE(full_name, ''), created_at, updated_at`

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user model.User) (model.User, error) {
	query := `INSERT INTO users (id, username, email, password, full_name, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7)
		RETURNING ` + userColumns
	row := r.db.QueryRowContext(ctx, query,
		user.ID, user.Username, user.Email, user.PasswordHash, user.FullName, user.CreatedAt, user.UpdatedAt)
	created, err := scanUser(row)
	if err != nil {
		return model.User{}, translate(err)
	}
	return created, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *UserRepository) FindByLogin(ctx context.Context, login string) (model.User, error) {
	if repository.IsEmailLogin(login) {
		return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, login)
	}
	return r.findOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, login)
}

func (r *UserRepository) findOne(ctx context.Context, query string, args ...interface{}) (model.User, error) {
	user, err := scanUser(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return model.User{}, repository.ErrNotFound
	}
	if err != nil {
		return model.User{}, translate(err)
	}
	return user, nil
}

func scanUser(row scanner) (model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.FullName,
		&user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return model.User{}, err
	}
	user.CreatedAt = user.CreatedAt.UTC()
	user.UpdatedAt = user.UpdatedAt.UTC()
	return user, nil
}
