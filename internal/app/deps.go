package app

import (
	"context"
	"fmt"
	"time"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/config"
	"github.com/vidtube/backend/internal/db"
	"github.com/vidtube/backend/internal/handlers"
	"github.com/vidtube/backend/internal/middleware"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
	"github.com/vidtube/backend/internal/views"
)

// authRateLimit bounds login and registration attempts per client IP.
const (
	authRateRequests = 10
	authRateWindow   = time.Minute
	authRateBurst    = 5
	authRateTTL      = 10 * time.Minute
)

// buildDependencies wires together concrete implementations used by the HTTP handlers.
func buildDependencies(ctx context.Context, pool db.Pool, cfg config.Config) (handlers.Dependencies, error) {
	media, err := storage.NewS3MediaStore(ctx, cfg.ObjectStore)
	if err != nil {
		return handlers.Dependencies{}, fmt.Errorf("configure media store: %w", err)
	}

	users := repositories.NewPostgresUserRepository(pool)
	subscriptions := repositories.NewPostgresSubscriptionRepository(pool)
	videos := repositories.NewPostgresVideoRepository(pool)

	issuer := auth.NewTokenIssuer(
		cfg.Tokens.AccessSecret, cfg.Tokens.AccessTTL,
		cfg.Tokens.RefreshSecret, cfg.Tokens.RefreshTTL,
	)

	return handlers.Dependencies{
		Accounts:    accounts.NewService(users, media),
		Sessions:    auth.NewManager(users, issuer),
		Views:       views.NewBuilder(users, subscriptions, videos),
		Tokens:      issuer,
		AuthLimiter: middleware.NewIPRateLimiter(authRateRequests, authRateWindow, authRateBurst, authRateTTL),
		Secure:      cfg.Production(),
	}, nil
}
