// Package bootstrap wires the database, Redis and first-run data for the binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"blogrr/internal/config"
	"blogrr/internal/database"
	"blogrr/internal/middleware"
	"blogrr/internal/notifications"
	"blogrr/internal/repository"
	"blogrr/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedSamples bool
}

// InitRuntime connects to the database and Redis, ensures the posts schema
// exists and optionally inserts the sample posts into an empty table.
// Redis is optional: a connection failure is logged and a nil client returned.
func InitRuntime(ctx context.Context, cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	repo := repository.NewPostRepository(db, repository.WithSchemaMode(cfg.DBSchemaMode))
	if err := repo.Initialize(ctx); err != nil {
		_ = database.Close(db)
		return nil, nil, fmt.Errorf("failed to initialize posts table: %w", err)
	}

	if opts.SeedSamples {
		if _, err := seed.Samples(ctx, repo); err != nil {
			_ = database.Close(db)
			return nil, nil, fmt.Errorf("failed to seed sample posts: %w", err)
		}
	}

	rdb, err := notifications.Connect(ctx, cfg.RedisURL)
	if err != nil {
		middleware.Logger.WarnContext(ctx, "Redis unavailable, post events disabled", slog.String("error", err.Error()))
		rdb = nil
	} else if rdb != nil {
		middleware.Logger.InfoContext(ctx, "Redis connected successfully")
	}

	return db, rdb, nil
}
