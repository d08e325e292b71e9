package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/socialgraph/backend/internal/auth"
	"github.com/socialgraph/backend/internal/config"
	"github.com/socialgraph/backend/internal/db"
	"github.com/socialgraph/backend/internal/friends"
	"github.com/socialgraph/backend/internal/handlers"
	"github.com/socialgraph/backend/internal/logging"
	"github.com/socialgraph/backend/internal/middleware"
	"github.com/socialgraph/backend/internal/ratelimit"
	"github.com/socialgraph/backend/internal/repositories"
)

// buildDependencies wires together concrete implementations used by the HTTP
// handlers. A nil pool selects in-memory repositories; an empty Redis URL
// selects in-memory rate-limit counters. The returned cleanup releases the
// counter store.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, func(context.Context) error, error) {
	logger := logging.FromContext(ctx)

	var (
		users    repositories.UserRepository
		requests repositories.FriendRepository
		sessions auth.SessionStore
		checks   = make(map[string]handlers.HealthCheck)
	)
	if pool != nil {
		users = repositories.NewPostgresUserRepository(pool)
		requests = repositories.NewPostgresFriendRepository(pool)
		sessions = repositories.NewPostgresSessionStore(pool)
		checks["database"] = pool.Ping
	} else {
		logger.Warn("no database configured, using in-memory repositories")
		memory := repositories.NewMemoryStore()
		users = memory.Users()
		requests = memory.Friends()
		sessions = auth.NewInMemorySessionStore()
	}

	var counters ratelimit.Store
	if cfg.RedisURL != "" {
		store, err := ratelimit.DialRedis(ctx, cfg.RedisURL)
		if err != nil {
			return handlers.Dependencies{}, nil, fmt.Errorf("rate limit store: %w", err)
		}
		counters = store
		checks["redis"] = func(ctx context.Context) error {
			_, err := store.Count(ctx, "healthz")
			return err
		}
	} else {
		logger.Warn("no redis configured, rate limits are per process")
		counters = ratelimit.NewMemoryStore()
	}

	if cfg.UsesDevSecret() {
		logger.Warn("signing tokens with the development secret", slog.String("env", "SOCIALGRAPH_JWT_SECRET"))
	}

	manager := auth.NewManager([]byte(cfg.JWTSecret), cfg.AccessTTL, cfg.RefreshTTL, sessions)

	service := &friends.Service{
		Requests: requests,
		Users:    users,
		Limiter:  ratelimit.NewLimiter(counters, cfg.FriendRequestLimit, cfg.FriendRequestWindow),
	}

	deps := handlers.Dependencies{
		Users:        users,
		Sessions:     manager,
		Tokens:       manager,
		Friends:      service,
		AuthLimiter:  middleware.NewClientRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst, 0),
		HealthChecks: checks,
	}

	cleanup := func(context.Context) error {
		return counters.Close()
	}

	return deps, cleanup, nil
}
