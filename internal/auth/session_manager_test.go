package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type inMemoryUserStore struct {
	users map[string]models.User
}

func newInMemoryUserStore() *inMemoryUserStore {
	return &inMemoryUserStore{users: make(map[string]models.User)}
}

func (s *inMemoryUserStore) FindByIdentifier(_ context.Context, identifier string) (models.User, error) {
	identifier = strings.ToLower(identifier)
	for _, u := range s.users {
		if u.Username == identifier || u.Email == identifier {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (s *inMemoryUserStore) FindByID(_ context.Context, id string) (models.User, error) {
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repositories.ErrNotFound
	}
	return u, nil
}

func (s *inMemoryUserStore) SetRefreshToken(_ context.Context, userID string, token *string) error {
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.RefreshToken = token
	s.users[userID] = u
	return nil
}

func (s *inMemoryUserStore) SetPasswordHash(_ context.Context, userID, hash string) error {
	u, ok := s.users[userID]
	if !ok {
		return repositories.ErrNotFound
	}
	u.PasswordHash = hash
	s.users[userID] = u
	return nil
}

func newTestManager(t *testing.T) (*Manager, *inMemoryUserStore) {
	t.Helper()
	store := newInMemoryUserStore()

	hash, err := HashPassword("correct horse")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	store.users["user-1"] = models.User{
		ID:           "user-1",
		Username:     "alice",
		Email:        "alice@example.com",
		FullName:     "Alice Example",
		AvatarURL:    "https://media.example.com/avatar.png",
		PasswordHash: hash,
	}

	issuer := NewTokenIssuer("access-secret", time.Minute, "refresh-secret", time.Hour)
	return NewManager(store, issuer), store
}

func TestLoginIssuesPairAndPersistsRefreshToken(t *testing.T) {
	manager, store := newTestManager(t)

	tokens, user, err := manager.Login(context.Background(), "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens, got %+v", tokens)
	}

	stored := store.users["user-1"]
	if stored.RefreshToken == nil || *stored.RefreshToken != tokens.RefreshToken {
		t.Fatal("stored refresh token does not equal the issued one")
	}

	if user.Username != "alice" {
		t.Fatalf("unexpected sanitized user: %+v", user)
	}
}

func TestLoginMatchesUsernameToo(t *testing.T) {
	manager, _ := newTestManager(t)

	if _, _, err := manager.Login(context.Background(), "ALICE", "correct horse"); err != nil {
		t.Fatalf("login by username: %v", err)
	}
}

func TestLoginFailures(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	if _, _, err := manager.Login(ctx, "nobody@example.com", "whatever"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
	if _, _, err := manager.Login(ctx, "alice@example.com", "wrong"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if _, _, err := manager.Login(ctx, "", ""); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input got %v", err)
	}
}

func TestRefreshRotatesStoredToken(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	first, _, err := manager.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	second, err := manager.Refresh(ctx, first.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if second.RefreshToken == first.RefreshToken {
		t.Fatal("expected a rotated refresh token")
	}

	stored := store.users["user-1"]
	if stored.RefreshToken == nil || *stored.RefreshToken != second.RefreshToken {
		t.Fatal("rotation did not persist the new refresh token")
	}
}

func TestRefreshRejectsSupersededToken(t *testing.T) {
	manager, _ := newTestManager(t)
	ctx := context.Background()

	first, _, err := manager.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := manager.Refresh(ctx, first.RefreshToken); err != nil {
		t.Fatalf("refresh: %v", err)
	}

	// The first token still has a valid signature and has not expired, but
	// the slot now holds its successor.
	if _, err := manager.Refresh(ctx, first.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for replayed token got %v", err)
	}
}

func TestRefreshAfterLogoutFails(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	tokens, _, err := manager.Login(ctx, "alice@example.com", "correct horse")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	if err := manager.Logout(ctx, "user-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if store.users["user-1"].RefreshToken != nil {
		t.Fatal("logout did not clear the refresh token slot")
	}

	if _, err := manager.Refresh(ctx, tokens.RefreshToken); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized after logout got %v", err)
	}
}

func TestRefreshRejectsForgedToken(t *testing.T) {
	manager, _ := newTestManager(t)

	forged := NewTokenIssuer("access-secret", time.Minute, "wrong-secret", time.Hour)
	token, _, err := forged.IssueRefreshToken(models.User{ID: "user-1"})
	if err != nil {
		t.Fatalf("issue forged token: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), token); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized for forged token got %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	manager, store := newTestManager(t)
	ctx := context.Background()

	before := store.users["user-1"].PasswordHash
	if err := manager.ChangePassword(ctx, "user-1", "wrong", "new password"); !errors.Is(err, apperrors.ErrUnauthorized) {
		t.Fatalf("expected unauthorized got %v", err)
	}
	if store.users["user-1"].PasswordHash != before {
		t.Fatal("stored hash changed despite wrong old password")
	}

	if err := manager.ChangePassword(ctx, "user-1", "correct horse", "new password"); err != nil {
		t.Fatalf("change password: %v", err)
	}
	if store.users["user-1"].PasswordHash == before {
		t.Fatal("expected a re-hashed password")
	}
	if !VerifyPassword("new password", store.users["user-1"].PasswordHash) {
		t.Fatal("new password does not verify against stored hash")
	}
}
