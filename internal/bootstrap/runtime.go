// Package bootstrap wires the process-wide runtime dependencies.
package bootstrap

import (
	"fmt"
	"log/slog"

	"circles/internal/cache"
	"circles/internal/config"
	"circles/internal/database"
	"circles/internal/middleware"
	"circles/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	SeedCatalog bool
}

// InitRuntime connects to DB and Redis and optionally ensures the built-in
// restaurant catalog exists.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// Nil client when unreachable.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedCatalog {
		restaurants, err := seed.Restaurants(db)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to seed built-in restaurants: %w", err)
		}
		middleware.Logger.Info("restaurant catalog ensured", slog.Int("count", len(restaurants)))
	}

	return db, r, nil
}
