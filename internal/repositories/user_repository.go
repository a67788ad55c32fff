package repositories

import (
	"context"

	"github.com/vidtube/backend/internal/models"
)

// UserRepository defines the data access contract for user records.
//
// Password and refresh-token fields never travel through UpdateProfile; they
// have dedicated setters so the generic update path cannot touch credentials.
type UserRepository interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIdentifier(ctx context.Context, usernameOrEmail string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	SetAvatar(ctx context.Context, id, url, key string) (models.User, error)
	SetCover(ctx context.Context, id, url, key string) (models.User, error)
	SetRefreshToken(ctx context.Context, id string, token *string) error
	SetPasswordHash(ctx context.Context, id, hash string) error
	Delete(ctx context.Context, id string) error
	WatchHistoryIDs(ctx context.Context, userID string) ([]string, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// SubscriptionRepository reads follow edges. The identity core never writes
// subscriptions; it only derives counts and membership for channel profiles.
type SubscriptionRepository interface {
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// VideoRepository reads video records referenced by watch history.
type VideoRepository interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
}
