package repositories

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/cockroachdb/cockroach-go/v2/testserver"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vidtube/backend/internal/models"
)

var testPool *pgxpool.Pool

func TestMain(m *testing.M) {
	server, err := testserver.NewTestServer()
	if err != nil {
		fmt.Fprintf(os.Stderr, "start cockroach test server: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, server.PGURL().String())
	if err != nil {
		fmt.Fprintf(os.Stderr, "connect to cockroach test server: %v\n", err)
		server.Stop()
		os.Exit(1)
	}

	if err := applyMigrations(ctx, pool); err != nil {
		fmt.Fprintf(os.Stderr, "apply migrations: %v\n", err)
		pool.Close()
		server.Stop()
		os.Exit(1)
	}

	testPool = pool

	code := m.Run()

	pool.Close()
	server.Stop()

	os.Exit(code)
}

func TestPostgresUserRepository_CreateFindAndConflict(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "alice")

	dup := user
	dup.ID = uuid.NewString()
	dup.Username = "someone-else"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate email, got %v", err)
	}

	dup.Username = user.Username
	dup.Email = "other@example.com"
	if err := repo.Create(ctx, dup); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate username, got %v", err)
	}

	byUsername, err := repo.FindByIdentifier(ctx, "ALICE")
	if err != nil {
		t.Fatalf("find by username identifier: %v", err)
	}
	byEmail, err := repo.FindByIdentifier(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("find by email identifier: %v", err)
	}
	if byUsername.ID != user.ID || byEmail.ID != user.ID {
		t.Fatalf("identifier lookups disagree: %s vs %s", byUsername.ID, byEmail.ID)
	}

	if _, err := repo.FindByIdentifier(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresUserRepository_RefreshTokenSlot(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "bob")

	token := "signed-refresh-token"
	if err := repo.SetRefreshToken(ctx, user.ID, &token); err != nil {
		t.Fatalf("set refresh token: %v", err)
	}

	fetched, err := repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user: %v", err)
	}
	if fetched.RefreshToken == nil || *fetched.RefreshToken != token {
		t.Fatalf("expected stored refresh token, got %+v", fetched.RefreshToken)
	}

	if err := repo.SetRefreshToken(ctx, user.ID, nil); err != nil {
		t.Fatalf("clear refresh token: %v", err)
	}

	fetched, err = repo.FindByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("find user after clear: %v", err)
	}
	if fetched.RefreshToken != nil {
		t.Fatalf("expected cleared slot, got %q", *fetched.RefreshToken)
	}

	if err := repo.SetRefreshToken(ctx, uuid.NewString(), &token); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for missing user, got %v", err)
	}
}

func TestPostgresUserRepository_UpdateProfileAndMedia(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "carol")

	updated, err := repo.UpdateProfile(ctx, user.ID, "Carol Updated", "Carol.New@Example.com")
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.FullName != "Carol Updated" || updated.Email != "carol.new@example.com" {
		t.Fatalf("unexpected profile after update: %+v", updated)
	}
	if updated.PasswordHash != user.PasswordHash {
		t.Fatal("profile update touched the password hash")
	}

	withAvatar, err := repo.SetAvatar(ctx, user.ID, "https://media.example.com/new.png", "media/new.png")
	if err != nil {
		t.Fatalf("set avatar: %v", err)
	}
	if withAvatar.AvatarURL != "https://media.example.com/new.png" || withAvatar.AvatarKey != "media/new.png" {
		t.Fatalf("unexpected avatar fields: %+v", withAvatar)
	}

	if _, err := repo.UpdateProfile(ctx, uuid.NewString(), "Nobody", "nobody@example.com"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresUserRepository_Delete(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	repo := NewPostgresUserRepository(testPool)
	user := createTestUser(t, repo, "dave")

	if err := repo.Delete(ctx, user.ID); err != nil {
		t.Fatalf("delete user: %v", err)
	}
	if _, err := repo.FindByID(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
	if err := repo.Delete(ctx, user.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting twice, got %v", err)
	}
}

func TestPostgresSubscriptionRepository_CountsAndMembership(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	channel := createTestUser(t, userRepo, "channel")
	fan1 := createTestUser(t, userRepo, "fan1")
	fan2 := createTestUser(t, userRepo, "fan2")
	fan3 := createTestUser(t, userRepo, "fan3")

	for _, fan := range []models.User{fan1, fan2, fan3} {
		subscribe(t, fan.ID, channel.ID)
	}

	repo := NewPostgresSubscriptionRepository(testPool)

	incoming, err := repo.CountForChannel(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count for channel: %v", err)
	}
	if incoming != 3 {
		t.Fatalf("expected 3 subscribers, got %d", incoming)
	}

	outgoing, err := repo.CountForSubscriber(ctx, channel.ID)
	if err != nil {
		t.Fatalf("count for subscriber: %v", err)
	}
	if outgoing != 0 {
		t.Fatalf("expected 0 subscribed channels, got %d", outgoing)
	}

	subscribed, err := repo.IsSubscribed(ctx, fan1.ID, channel.ID)
	if err != nil {
		t.Fatalf("is subscribed: %v", err)
	}
	if !subscribed {
		t.Fatal("expected fan1 to be subscribed")
	}

	subscribed, err = repo.IsSubscribed(ctx, channel.ID, fan1.ID)
	if err != nil {
		t.Fatalf("is subscribed reverse: %v", err)
	}
	if subscribed {
		t.Fatal("did not expect the channel to follow fan1")
	}
}

func TestPostgresWatchHistory_OrderAndBatchFetch(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	userRepo := NewPostgresUserRepository(testPool)
	viewer := createTestUser(t, userRepo, "viewer")
	owner := createTestUser(t, userRepo, "owner")

	first := createTestVideo(t, owner.ID, "First")
	second := createTestVideo(t, owner.ID, "Second")

	if err := userRepo.AppendWatchHistory(ctx, viewer.ID, first); err != nil {
		t.Fatalf("append first: %v", err)
	}
	if err := userRepo.AppendWatchHistory(ctx, viewer.ID, second); err != nil {
		t.Fatalf("append second: %v", err)
	}
	// Re-watching keeps the original position.
	if err := userRepo.AppendWatchHistory(ctx, viewer.ID, first); err != nil {
		t.Fatalf("re-append first: %v", err)
	}

	ids, err := userRepo.WatchHistoryIDs(ctx, viewer.ID)
	if err != nil {
		t.Fatalf("watch history ids: %v", err)
	}
	if len(ids) != 2 || ids[0] != first || ids[1] != second {
		t.Fatalf("unexpected history order: %v", ids)
	}

	videoRepo := NewPostgresVideoRepository(testPool)
	videos, err := videoRepo.FindByIDs(ctx, ids)
	if err != nil {
		t.Fatalf("videos by ids: %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("expected 2 videos, got %d", len(videos))
	}

	owners, err := userRepo.FindByIDs(ctx, []string{owner.ID})
	if err != nil {
		t.Fatalf("users by ids: %v", err)
	}
	if len(owners) != 1 || owners[0].ID != owner.ID {
		t.Fatalf("unexpected owners: %+v", owners)
	}
}

// The development seed must insert cleanly against the migrated schema,
// including the columns it leaves blank.
func TestDevSeedApplies(t *testing.T) {
	ctx := context.Background()
	resetDatabase(t)

	contents, err := os.ReadFile(filepath.Join("..", "..", "seeds", "dev_seed.sql"))
	if err != nil {
		t.Fatalf("read dev seed: %v", err)
	}

	if _, err := testPool.Exec(ctx, string(contents)); err != nil {
		t.Fatalf("apply dev seed: %v", err)
	}

	var users, subscriptions, history int
	if err := testPool.QueryRow(ctx, "SELECT count(*) FROM users").Scan(&users); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if err := testPool.QueryRow(ctx, "SELECT count(*) FROM subscriptions").Scan(&subscriptions); err != nil {
		t.Fatalf("count subscriptions: %v", err)
	}
	if err := testPool.QueryRow(ctx, "SELECT count(*) FROM watch_history").Scan(&history); err != nil {
		t.Fatalf("count watch history: %v", err)
	}
	if users != 3 || subscriptions != 3 || history != 3 {
		t.Fatalf("unexpected seed row counts: users=%d subscriptions=%d history=%d", users, subscriptions, history)
	}
}

func applyMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	migrationsDir := filepath.Join("..", "..", "migrations")
	entries, err := os.ReadDir(migrationsDir)
	if err != nil {
		return fmt.Errorf("read migrations dir: %w", err)
	}

	sort.Slice(entries, func(i, j int) bool { return entries[i].Name() < entries[j].Name() })

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		contents, err := os.ReadFile(filepath.Join(migrationsDir, entry.Name()))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", entry.Name(), err)
		}

		if _, err := pool.Exec(ctx, string(contents)); err != nil {
			return fmt.Errorf("apply migration %s: %w", entry.Name(), err)
		}
	}

	return nil
}

func resetDatabase(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	conn, err := testPool.Acquire(ctx)
	if err != nil {
		t.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "TRUNCATE TABLE watch_history, subscriptions, videos, users CASCADE"); err != nil {
		t.Fatalf("truncate tables: %v", err)
	}
}

func createTestUser(t *testing.T, repo *PostgresUserRepository, username string) models.User {
	t.Helper()
	now := time.Now().UTC()
	user := models.User{
		ID:           uuid.NewString(),
		Username:     username,
		Email:        username + "@example.com",
		FullName:     "Test " + username,
		AvatarURL:    "https://media.example.com/" + username + ".png",
		PasswordHash: "password-hash",
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := repo.Create(context.Background(), user); err != nil {
		t.Fatalf("create test user: %v", err)
	}
	return user
}

func createTestVideo(t *testing.T, ownerID, title string) string {
	t.Helper()
	id := uuid.NewString()
	_, err := testPool.Exec(context.Background(), `
        INSERT INTO videos (id, owner_id, title, video_url, created_at)
        VALUES ($1, $2, $3, $4, $5)
    `, id, ownerID, title, "https://videos.example.com/"+id, time.Now().UTC())
	if err != nil {
		t.Fatalf("create test video: %v", err)
	}
	return id
}

func subscribe(t *testing.T, subscriberID, channelID string) {
	t.Helper()
	_, err := testPool.Exec(context.Background(), `
        INSERT INTO subscriptions (subscriber_id, channel_id, created_at)
        VALUES ($1, $2, $3)
    `, subscriberID, channelID, time.Now().UTC())
	if err != nil {
		t.Fatalf("create subscription: %v", err)
	}
}
