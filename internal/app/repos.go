package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"

	"github.com/klass-lk/miniblog/internal/config"
	"github.com/klass-lk/miniblog/internal/logger"
	"github.com/klass-lk/miniblog/internal/repository"
	"github.com/klass-lk/miniblog/internal/repository/memory"
	"github.com/klass-lk/miniblog/internal/repository/mongodb"
	"github.com/klass-lk/miniblog/internal/repository/postgres"
)

type Repos struct {
	Posts repository.PostRepository
	Users repository.UserRepository

	// Exactly one of these is set, depending on the configured driver.
	sqlDB   *sql.DB
	mongoDB *mongo.Database
}

func wireRepos(ctx context.Context, cfg config.DatabaseConfig, log *logger.Logger) (Repos, error) {
	switch cfg.Driver {
	case "postgres":
		db, err := cfg.SQL().Connect(ctx)
		if err != nil {
			return Repos{}, err
		}
		log.Info("connected to postgres", "host", cfg.Host, "database", cfg.Name)
		return Repos{
			Posts: postgres.NewPostRepository(db),
			Users: postgres.NewUserRepository(db),
			sqlDB: db,
		}, nil
	case "mongo":
		db, err := cfg.Mongo().Connect(ctx)
		if err != nil {
			return Repos{}, err
		}
		// Slug and account uniqueness rely on these indexes.
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = db.Client().Disconnect(ctx)
			return Repos{}, err
		}
		log.Info("connected to mongodb", "database", cfg.Name)
		return Repos{
			Posts:   mongodb.NewPostRepository(db),
			Users:   mongodb.NewUserRepository(db),
			mongoDB: db,
		}, nil
	case "memory":
		log.Warn("using the in-memory store, data is lost on exit")
		store := memory.NewStore()
		return Repos{Posts: store.Posts(), Users: store.Users()}, nil
	default:
		return Repos{}, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// initSchema creates tables or indexes for the active store. It is safe to
// run repeatedly. Mongo indexes are also ensured when the store is wired.
func (r Repos) initSchema(ctx context.Context) error {
	switch {
	case r.sqlDB != nil:
		return postgres.CreateSchema(ctx, r.sqlDB)
	case r.mongoDB != nil:
		return mongodb.EnsureIndexes(ctx, r.mongoDB)
	default:
		return nil
	}
}

func (r Repos) close(ctx context.Context) error {
	switch {
	case r.sqlDB != nil:
		return r.sqlDB.Close()
	case r.mongoDB != nil:
		return r.mongoDB.Client().Disconnect(ctx)
	default:
		return nil
	}
}
