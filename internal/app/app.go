package app

import (
	"context"
	"fmt"

	"github.com/klass-lk/miniblog/internal/auth"
	"github.com/klass-lk/miniblog/internal/config"
	"github.com/klass-lk/miniblog/internal/controller"
	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/middleware"
	"github.com/klass-lk/miniblog/internal/render"
	"github.com/klass-lk/miniblog/internal/security"
	"github.com/klass-lk/miniblog/internal/server"
	"github.com/klass-lk/miniblog/internal/service"
)

type Services struct {
	Posts *service.PostService
	Auth  *service.AuthService
}

type App struct {
	Log      *logger.Logger
	Cfg      *config.Config
	Repos    Repos
	Services Services
	Server   *server.Server
}

func New(ctx context.Context, cfg *config.Config, log *logger.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	repos, err := wireRepos(ctx, cfg.Database, log)
	if err != nil {
		return nil, err
	}

	encoder, err := security.NewPasswordEncoder(
		cfg.Auth.PasswordEncoder,
		cfg.Auth.PBKDF2.Secret,
		cfg.Auth.PBKDF2.Iterations,
		cfg.Auth.PBKDF2.KeyLength,
	)
	if err != nil {
		_ = repos.close(ctx)
		return nil, err
	}
	tokens := auth.NewTokenIssuer(cfg.Auth.JWTSecret, cfg.Auth.JWTRefreshSecret, cfg.Auth.AccessTTL, cfg.Auth.RefreshTTL)

	services := Services{
		Posts: service.NewPostService(repos.Posts, render.NewMarkdown(), log),
		Auth:  service.NewAuthService(repos.Users, encoder, tokens, log),
	}

	return &App{
		Log:      log,
		Cfg:      cfg,
		Repos:    repos,
		Services: services,
		Server:   wireServer(cfg.Server, log, services, tokens),
	}, nil
}

func wireServer(cfg config.ServerConfig, log *logger.Logger, services Services, tokens *auth.TokenIssuer) *server.Server {
	srv := server.New(log)
	srv.SetRuntime(server.Runtime(cfg.Runtime))
	srv.SetBasePath(cfg.BasePath)
	srv.CORS(cfg.CORSOrigins)
	srv.Use(middleware.RequestLogger(log))

	requireAuth := middleware.NewAuthMiddleware(log, tokens).RequireAuth()

	srv.RegisterController("/auth", controller.NewAuthController(services.Auth, requireAuth))
	srv.RegisterController("/posts", controller.NewPostController(services.Posts, requireAuth))
	srv.RegisterController("/health", controller.NewHealthController())
	srv.RegisterController("", controller.NewFeedController(services.Posts, cfg.SiteURL, cfg.SiteName))
	return srv
}

// Run serves until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	a.Log.Info("starting server", "port", a.Cfg.Server.Port, "runtime", a.Cfg.Server.Runtime, "base_path", a.Cfg.Server.BasePath)
	return a.Server.Start(ctx, a.Cfg.Server.Port)
}

// InitDB creates the schema and seeds the default account.
func (a *App) InitDB(ctx context.Context) error {
	if err := a.Repos.initSchema(ctx); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	a.Log.Info("schema ready", "driver", a.Cfg.Database.Driver)

	admin := a.Cfg.Admin
	created, err := a.Services.Auth.SeedAdmin(ctx, service.RegisterInput{
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.Password,
		FullName: admin.FullName,
	})
	if err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if !created {
		a.Log.Info("default user already exists", "username", admin.Username)
	}
	return nil
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if err := a.Repos.close(ctx); err != nil {
		a.Log.Warn("closing store", "error", err)
	}
	a.Log.Sync()
}
