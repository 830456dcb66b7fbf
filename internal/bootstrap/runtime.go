// Package bootstrap wires runtime dependencies (database, cache, seed data)
// before the HTTP layer starts.
package bootstrap

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bugbook/internal/cache"
	"bugbook/internal/config"
	"bugbook/internal/database"
	"bugbook/internal/middleware"
	"bugbook/internal/observability"
	"bugbook/internal/repository"
	"bugbook/internal/seed"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Options control runtime initialization behavior.
type Options struct {
	// SeedDemoData populates the database with fake users and posts.
	// Only honored outside production.
	SeedDemoData bool
	SeedUsers    int
	SeedPosts    int
}

// InitRuntime connects to DB and Redis and optionally seeds demo data.
func InitRuntime(cfg *config.Config, opts Options) (*gorm.DB, *redis.Client, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("database connection failed: %w", err)
	}

	// May result in a nil client if unreachable; the app degrades to
	// cache-less operation.
	cache.InitRedis(cfg.RedisURL)
	r := cache.GetClient()

	if opts.SeedDemoData && !cfg.IsProduction() && strings.EqualFold(cfg.Env, "development") {
		users, posts := opts.SeedUsers, opts.SeedPosts
		if users <= 0 {
			users = 10
		}
		if posts <= 0 {
			posts = 100
		}
		if err := seed.Seed(db, seed.Options{NumUsers: users, NumPosts: posts}); err != nil {
			return nil, nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
	}

	return db, r, nil
}

// sessionSweepInterval is how often expired session rows are purged. Expired
// sessions are also deleted on sight during validation; the sweeper only
// reclaims rows belonging to users who never came back.
const sessionSweepInterval = time.Hour

// StartSessionJanitor launches a background loop deleting expired sessions
// until ctx is canceled.
func StartSessionJanitor(ctx context.Context, db *gorm.DB) {
	sessions := repository.NewSessionRepository(db)

	go func() {
		ticker := time.NewTicker(sessionSweepInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				removed, err := sessions.DeleteExpired(ctx)
				if err != nil {
					middleware.Logger.WarnContext(ctx, "session sweep failed", "error", err.Error())
					continue
				}
				if removed > 0 {
					observability.SessionsInvalidated.WithLabelValues("swept").Add(float64(removed))
					middleware.Logger.InfoContext(ctx, "expired sessions swept", "removed", removed)
				}
			}
		}
	}()
}
