package views

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

type fakeChannelReader struct {
	users   map[string]models.User
	history map[string][]string
}

func (f *fakeChannelReader) FindByUsername(_ context.Context, username string) (models.User, error) {
	for _, u := range f.users {
		if u.Username == strings.ToLower(username) {
			return u, nil
		}
	}
	return models.User{}, repositories.ErrNotFound
}

func (f *fakeChannelReader) FindByIDs(_ context.Context, ids []string) ([]models.User, error) {
	var out []models.User
	for _, id := range ids {
		if u, ok := f.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (f *fakeChannelReader) WatchHistoryIDs(_ context.Context, userID string) ([]string, error) {
	return f.history[userID], nil
}

func (f *fakeChannelReader) AppendWatchHistory(_ context.Context, userID, videoID string) error {
	if _, ok := f.users[userID]; !ok {
		return repositories.ErrNotFound
	}
	if f.history == nil {
		f.history = make(map[string][]string)
	}
	for _, id := range f.history[userID] {
		if id == videoID {
			return nil
		}
	}
	f.history[userID] = append(f.history[userID], videoID)
	return nil
}

type fakeSubscriptionReader struct {
	// edges maps subscriber -> set of channels.
	edges map[string]map[string]bool
}

func (f *fakeSubscriptionReader) CountForChannel(_ context.Context, channelID string) (int64, error) {
	var n int64
	for _, channels := range f.edges {
		if channels[channelID] {
			n++
		}
	}
	return n, nil
}

func (f *fakeSubscriptionReader) CountForSubscriber(_ context.Context, subscriberID string) (int64, error) {
	return int64(len(f.edges[subscriberID])), nil
}

func (f *fakeSubscriptionReader) IsSubscribed(_ context.Context, subscriberID, channelID string) (bool, error) {
	return f.edges[subscriberID][channelID], nil
}

type fakeVideoReader struct {
	videos map[string]models.Video
}

func (f *fakeVideoReader) FindByIDs(_ context.Context, ids []string) ([]models.Video, error) {
	var out []models.Video
	for _, id := range ids {
		if v, ok := f.videos[id]; ok {
			out = append(out, v)
		}
	}
	return out, nil
}

func fixtureBuilder() (*Builder, *fakeChannelReader, *fakeSubscriptionReader, *fakeVideoReader) {
	users := &fakeChannelReader{
		users: map[string]models.User{
			"channel-1": {
				ID:           "channel-1",
				Username:     "creator",
				Email:        "creator@example.com",
				FullName:     "Content Creator",
				AvatarURL:    "https://media.example.com/creator.png",
				CoverURL:     "https://media.example.com/creator-cover.png",
				PasswordHash: "must-never-leak",
			},
			"fan-1": {ID: "fan-1", Username: "fan1"},
			"fan-2": {ID: "fan-2", Username: "fan2"},
			"fan-3": {ID: "fan-3", Username: "fan3"},
			"owner-1": {
				ID:           "owner-1",
				Username:     "owner1",
				FullName:     "Owner One",
				AvatarURL:    "https://media.example.com/owner1.png",
				PasswordHash: "must-never-leak",
			},
			"owner-2": {
				ID:        "owner-2",
				Username:  "owner2",
				FullName:  "Owner Two",
				AvatarURL: "https://media.example.com/owner2.png",
			},
		},
		history: map[string][]string{},
	}
	subs := &fakeSubscriptionReader{edges: map[string]map[string]bool{
		"fan-1": {"channel-1": true},
		"fan-2": {"channel-1": true},
		"fan-3": {"channel-1": true},
	}}
	videos := &fakeVideoReader{videos: map[string]models.Video{
		"video-1": {ID: "video-1", OwnerID: "owner-1", Title: "First", VideoURL: "https://v.example.com/1"},
		"video-2": {ID: "video-2", OwnerID: "owner-2", Title: "Second", VideoURL: "https://v.example.com/2"},
		"video-3": {ID: "video-3", OwnerID: "gone", Title: "Orphan", VideoURL: "https://v.example.com/3"},
	}}
	return NewBuilder(users, subs, videos), users, subs, videos
}

func TestChannelProfileCounts(t *testing.T) {
	builder, _, _, _ := fixtureBuilder()

	profile, err := builder.ChannelProfile(context.Background(), "fan-1", "Creator")
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}

	if profile.SubscribersCount != 3 {
		t.Fatalf("expected 3 subscribers, got %d", profile.SubscribersCount)
	}
	if profile.ChannelsSubscribedCount != 0 {
		t.Fatalf("expected 0 subscribed channels, got %d", profile.ChannelsSubscribedCount)
	}
	if !profile.IsSubscribed {
		t.Fatal("fan-1 follows the channel, expected isSubscribed=true")
	}
	if profile.Username != "creator" || profile.FullName != "Content Creator" {
		t.Fatalf("unexpected projection: %+v", profile)
	}
}

func TestChannelProfileViewerNotSubscribed(t *testing.T) {
	builder, _, _, _ := fixtureBuilder()

	profile, err := builder.ChannelProfile(context.Background(), "owner-1", "creator")
	if err != nil {
		t.Fatalf("channel profile: %v", err)
	}
	if profile.IsSubscribed {
		t.Fatal("owner-1 does not follow the channel, expected isSubscribed=false")
	}
}

func TestChannelProfileNotFound(t *testing.T) {
	builder, _, _, _ := fixtureBuilder()

	if _, err := builder.ChannelProfile(context.Background(), "fan-1", "missing"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := builder.ChannelProfile(context.Background(), "fan-1", "  "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
}

func TestWatchHistoryEnrichesOwners(t *testing.T) {
	builder, users, _, _ := fixtureBuilder()
	users.history["fan-1"] = []string{"video-2", "video-1"}

	entries, err := builder.WatchHistory(context.Background(), "fan-1")
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}

	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// History order preserved.
	if entries[0].ID != "video-2" || entries[1].ID != "video-1" {
		t.Fatalf("unexpected order: %s, %s", entries[0].ID, entries[1].ID)
	}

	first := entries[0].Owner
	if first.FullName != "Owner Two" || first.Username != "owner2" || first.AvatarURL == "" {
		t.Fatalf("unexpected owner projection: %+v", first)
	}
}

func TestWatchHistoryAbsentOwnerStaysEmpty(t *testing.T) {
	builder, users, _, _ := fixtureBuilder()
	users.history["fan-1"] = []string{"video-3"}

	entries, err := builder.WatchHistory(context.Background(), "fan-1")
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	if entries[0].Owner != (models.VideoOwner{}) {
		t.Fatalf("expected empty owner, got %+v", entries[0].Owner)
	}
}

func TestRecordWatchAppendsToHistory(t *testing.T) {
	builder, users, _, _ := fixtureBuilder()

	if err := builder.RecordWatch(context.Background(), "fan-1", "video-1"); err != nil {
		t.Fatalf("record watch: %v", err)
	}
	if err := builder.RecordWatch(context.Background(), "fan-1", "video-2"); err != nil {
		t.Fatalf("record watch: %v", err)
	}
	// Re-watching must not duplicate the entry.
	if err := builder.RecordWatch(context.Background(), "fan-1", "video-1"); err != nil {
		t.Fatalf("record repeat watch: %v", err)
	}

	got := users.history["fan-1"]
	if len(got) != 2 || got[0] != "video-1" || got[1] != "video-2" {
		t.Fatalf("unexpected history: %v", got)
	}
}

func TestRecordWatchRejectsUnknownVideo(t *testing.T) {
	builder, users, _, _ := fixtureBuilder()

	if err := builder.RecordWatch(context.Background(), "fan-1", "missing-video"); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := builder.RecordWatch(context.Background(), "fan-1", "  "); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input, got %v", err)
	}
	if len(users.history["fan-1"]) != 0 {
		t.Fatalf("history must stay empty, got %v", users.history["fan-1"])
	}
}

func TestWatchHistoryEmpty(t *testing.T) {
	builder, _, _, _ := fixtureBuilder()

	entries, err := builder.WatchHistory(context.Background(), "fan-1")
	if err != nil {
		t.Fatalf("watch history: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected empty history, got %d entries", len(entries))
	}
}
