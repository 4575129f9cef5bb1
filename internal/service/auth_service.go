package service

import (
	"context"
	"errors"
	"time"

	"github.com/klass-lk/miniblog/internal/auth"
	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/model"
	"github.com/klass-lk/miniblog/internal/repository"
	"github.com/klass-lk/miniblog/internal/security"
)

type RegisterInput struct {
	Username string
	Email    string
	Password string
	FullName string
}

type Tokens struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
}

type Session struct {
	User model.User
	Tokens
}

type AuthService struct {
	users   repository.UserRepository
	encoder security.PasswordEncoder
	tokens  *auth.TokenIssuer
	log     *logger.Logger
	now     func() time.Time
	newID   func() string
}

func NewAuthService(users repository.UserRepository, encoder security.PasswordEncoder, tokens *auth.TokenIssuer, log *logger.Logger) *AuthService {
	return &AuthService{
		users:   users,
		encoder: encoder,
		tokens:  tokens,
		log:     log.With("component", "auth_service"),
		now:     now,
		newID:   newID,
	}
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (Session, error) {
	user, err := s.createUser(ctx, input)
	if err != nil {
		return Session{}, err
	}
	s.log.Info("user registered", "user_id", user.ID, "username", user.Username)
	return s.session(user)
}

func (s *AuthService) Login(ctx context.Context, login, password string) (Session, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if errors.Is(err, repository.ErrNotFound) {
		return Session{}, ErrInvalidCredentials
	}
	if err != nil {
		return Session{}, err
	}
	if !s.encoder.IsMatching(user.PasswordHash, password) {
		return Session{}, ErrInvalidCredentials
	}
	return s.session(user)
}

func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (Tokens, error) {
	claims, err := s.tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		return Tokens{}, ErrInvalidToken
	}
	user, err := s.users.FindByID(ctx, claims.Subject)
	if errors.Is(err, repository.ErrNotFound) {
		return Tokens{}, ErrInvalidToken
	}
	if err != nil {
		return Tokens{}, err
	}
	session, err := s.session(user)
	return session.Tokens, err
}

func (s *AuthService) Me(ctx context.Context, userID string) (model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return model.User{}, ErrUserNotFound
	}
	return user, err
}

// SeedAdmin creates the default account unless it already exists.
func (s *AuthService) SeedAdmin(ctx context.Context, input RegisterInput) (bool, error) {
	user, err := s.createUser(ctx, input)
	if errors.Is(err, ErrUserExists) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	s.log.Info("default user created", "username", user.Username, "email", user.Email)
	return true, nil
}

func (s *AuthService) createUser(ctx context.Context, input RegisterInput) (model.User, error) {
	hash, err := s.encoder.GetPasswordHash(input.Password)
	if err != nil {
		return model.User{}, err
	}
	createdAt := s.now()
	user, err := s.users.Create(ctx, model.User{
		ID:           s.newID(),
		Username:     input.Username,
		Email:        input.Email,
		PasswordHash: hash,
		FullName:     input.FullName,
		CreatedAt:    createdAt,
		UpdatedAt:    createdAt,
	})
	if errors.Is(err, repository.ErrUserExists) {
		return model.User{}, ErrUserExists
	}
	return user, err
}

func (s *AuthService) session(user model.User) (Session, error) {
	token, refresh, err := s.tokens.GenerateTokens(user.ID, model.RoleAuthor)
	if err != nil {
		return Session{}, err
	}
	return Session{User: user, Tokens: Tokens{Token: token, RefreshToken: refresh}}, nil
}
