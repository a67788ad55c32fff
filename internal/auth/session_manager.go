package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// UserStore captures the persistence operations required by the session
// lifecycle.
type UserStore interface {
	FindByIdentifier(ctx context.Context, usernameOrEmail string) (models.User, error)
	FindByID(ctx context.Context, id string) (models.User, error)
	SetRefreshToken(ctx context.Context, userID string, token *string) error
	SetPasswordHash(ctx context.Context, userID, hash string) error
}

// Manager drives the per-user session state machine: login issues a token
// pair, refresh rotates the stored refresh token, logout clears it.
type Manager struct {
	users  UserStore
	tokens *TokenIssuer
}

// NewManager constructs a session Manager over the provided stores.
func NewManager(users UserStore, tokens *TokenIssuer) *Manager {
	if users == nil || tokens == nil {
		panic("auth: user store and token issuer must not be nil")
	}
	return &Manager{users: users, tokens: tokens}
}

// Login authenticates the identifier/password pair and issues a fresh token
// pair. The new refresh token overwrites any previously stored one, so at
// most one refresh credential is valid per user at any time.
func (m *Manager) Login(ctx context.Context, identifier, password string) (models.SessionTokens, models.PublicUser, error) {
	identifier = strings.TrimSpace(strings.ToLower(identifier))
	if identifier == "" || password == "" {
		return models.SessionTokens{}, models.PublicUser{}, fmt.Errorf("%w: identifier and password are required", apperrors.ErrInvalidInput)
	}

	user, err := m.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, models.PublicUser{}, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return models.SessionTokens{}, models.PublicUser{}, fmt.Errorf("%w: lookup user: %v", apperrors.ErrInternal, err)
	}

	if !VerifyPassword(password, user.PasswordHash) {
		return models.SessionTokens{}, models.PublicUser{}, fmt.Errorf("%w: invalid credentials", apperrors.ErrUnauthorized)
	}

	tokens, err := m.issuePair(ctx, user)
	if err != nil {
		return models.SessionTokens{}, models.PublicUser{}, err
	}

	return tokens, user.Public(), nil
}

// Refresh exchanges a refresh token for a new pair. The incoming token must
// equal the stored slot verbatim; a token superseded by a later rotation is
// rejected even when its signature is still valid.
func (m *Manager) Refresh(ctx context.Context, incoming string) (models.SessionTokens, error) {
	userID, err := m.tokens.VerifyRefreshToken(incoming)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("%w: refresh token", apperrors.ErrUnauthorized)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.SessionTokens{}, fmt.Errorf("%w: refresh token", apperrors.ErrUnauthorized)
		}
		return models.SessionTokens{}, fmt.Errorf("%w: lookup user: %v", apperrors.ErrInternal, err)
	}

	if user.RefreshToken == nil || *user.RefreshToken != incoming {
		return models.SessionTokens{}, fmt.Errorf("%w: refresh token superseded", apperrors.ErrUnauthorized)
	}

	return m.issuePair(ctx, user)
}

// Logout clears the stored refresh token so every previously issued refresh
// credential fails the equality check on its next use.
func (m *Manager) Logout(ctx context.Context, userID string) error {
	if err := m.users.SetRefreshToken(ctx, userID, nil); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: clear refresh token: %v", apperrors.ErrInternal, err)
	}
	return nil
}

// ChangePassword verifies the old password and stores a fresh hash of the new
// one. The stored hash is untouched when the old password does not match.
func (m *Manager) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: new password is required", apperrors.ErrInvalidInput)
	}

	user, err := m.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: lookup user: %v", apperrors.ErrInternal, err)
	}

	if !VerifyPassword(oldPassword, user.PasswordHash) {
		return fmt.Errorf("%w: old password is incorrect", apperrors.ErrUnauthorized)
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("%w: hash password: %v", apperrors.ErrInternal, err)
	}

	if err := m.users.SetPasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("%w: persist password: %v", apperrors.ErrInternal, err)
	}
	return nil
}

// issuePair mints an access+refresh pair and persists the refresh token on
// the user record. Any failure here masks its cause behind ErrInternal.
func (m *Manager) issuePair(ctx context.Context, user models.User) (models.SessionTokens, error) {
	access, accessExp, err := m.tokens.IssueAccessToken(user)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("%w: issue access token: %v", apperrors.ErrInternal, err)
	}

	refresh, refreshExp, err := m.tokens.IssueRefreshToken(user)
	if err != nil {
		return models.SessionTokens{}, fmt.Errorf("%w: issue refresh token: %v", apperrors.ErrInternal, err)
	}

	if err := m.users.SetRefreshToken(ctx, user.ID, &refresh); err != nil {
		return models.SessionTokens{}, fmt.Errorf("%w: persist refresh token: %v", apperrors.ErrInternal, err)
	}

	return models.SessionTokens{
		AccessToken:      access,
		AccessExpiresAt:  accessExp.Truncate(time.Second),
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExp.Truncate(time.Second),
	}, nil
}
