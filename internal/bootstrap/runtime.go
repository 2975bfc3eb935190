// Package bootstrap prepares the runtime dependencies shared by the commands.
package bootstrap

import (
	"context"
	"fmt"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/observability"
	"yatube/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemo fills an empty database with demo data. Ignored in production.
	SeedDemo bool
}

// Runtime bundles the connections a command needs.
type Runtime struct {
	DB    *gorm.DB
	Redis *redis.Client
	// ShutdownTracing flushes pending spans. Always non-nil.
	ShutdownTracing func(context.Context) error
}

// InitRuntime connects to DB and Redis, starts tracing and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*Runtime, error) {
	shutdownTracing, err := observability.InitTracing(observability.TracingConfig{
		Enabled:      cfg.TracingEnabled,
		ServiceName:  "yatube",
		Environment:  cfg.Env,
		Exporter:     cfg.TracingExporter,
		OTLPEndpoint: cfg.OTLPEndpoint,
		SamplerRatio: cfg.TracingSamplerRatio,
	})
	if err != nil {
		return nil, fmt.Errorf("tracing init failed: %w", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		_ = shutdownTracing(context.Background())
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// A nil client is fine: pages render uncached.
	rdb := cache.InitRedis(cfg.RedisURL)

	if opts.SeedDemo && !cfg.IsProduction() {
		if err := seedIfEmpty(db); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return &Runtime{DB: db, Redis: rdb, ShutdownTracing: shutdownTracing}, nil
}

func seedIfEmpty(db *gorm.DB) error {
	var posts int64
	if err := db.Model(&models.Post{}).Count(&posts).Error; err != nil {
		return err
	}
	if posts > 0 {
		middleware.Logger.Info("demo seed skipped, database already has posts", "posts", posts)
		return nil
	}
	_, err := seed.Seed(db, seed.Options{NumUsers: 10, NumGroups: 4, NumPosts: 60, CommentsPerPost: 3})
	return err
}
