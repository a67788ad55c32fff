package handlers

import (
	"context"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/models"
)

// SessionManager drives the credential and session lifecycle.
type SessionManager interface {
	Login(ctx context.Context, identifier, password string) (models.SessionTokens, models.PublicUser, error)
	Refresh(ctx context.Context, refreshToken string) (models.SessionTokens, error)
	Logout(ctx context.Context, userID string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AccountService covers registration and profile mutations.
type AccountService interface {
	Register(ctx context.Context, input accounts.RegistrationInput) (models.PublicUser, error)
	CurrentUser(ctx context.Context, userID string) (models.PublicUser, error)
	UpdateAccount(ctx context.Context, userID, fullName, email string) (models.PublicUser, error)
	UpdateAvatar(ctx context.Context, userID string, file *accounts.MediaFile) (models.PublicUser, error)
	UpdateCoverImage(ctx context.Context, userID string, file *accounts.MediaFile) (models.PublicUser, error)
}

// ViewBuilder produces derived read models and records watch events.
type ViewBuilder interface {
	ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error)
	WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error)
	RecordWatch(ctx context.Context, userID, videoID string) error
}

// TokenVerifier validates access tokens presented by clients.
type TokenVerifier interface {
	VerifyAccessToken(token string) (auth.AccessClaims, error)
}

// Dependencies aggregates collaborators required by HTTP handlers.
type Dependencies struct {
	Accounts    AccountService
	Sessions    SessionManager
	Views       ViewBuilder
	Tokens      TokenVerifier
	AuthLimiter RateLimiter
	Secure      bool
}
