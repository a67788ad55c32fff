package views

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// ChannelReader resolves a user by normalized username and batches of users
// by id, and owns the per-user watch history list.
type ChannelReader interface {
	FindByUsername(ctx context.Context, username string) (models.User, error)
	FindByIDs(ctx context.Context, ids []string) ([]models.User, error)
	WatchHistoryIDs(ctx context.Context, userID string) ([]string, error)
	AppendWatchHistory(ctx context.Context, userID, videoID string) error
}

// SubscriptionReader derives edge counts and membership for a channel.
type SubscriptionReader interface {
	CountForChannel(ctx context.Context, channelID string) (int64, error)
	CountForSubscriber(ctx context.Context, subscriberID string) (int64, error)
	IsSubscribed(ctx context.Context, subscriberID, channelID string) (bool, error)
}

// VideoReader batches video lookups by id.
type VideoReader interface {
	FindByIDs(ctx context.Context, ids []string) ([]models.Video, error)
}

// Builder assembles read models by joining users, subscription edges, and
// videos through explicit batched lookups.
type Builder struct {
	users         ChannelReader
	subscriptions SubscriptionReader
	videos        VideoReader
}

// NewBuilder constructs a view Builder over the provided readers.
func NewBuilder(users ChannelReader, subscriptions SubscriptionReader, videos VideoReader) *Builder {
	if users == nil || subscriptions == nil || videos == nil {
		panic("views: all readers must not be nil")
	}
	return &Builder{users: users, subscriptions: subscriptions, videos: videos}
}

// ChannelProfile builds the public profile for the named channel from the
// viewer's perspective: follower counts plus whether the viewer follows it.
// Only the allow-listed projection leaves this function.
func (b *Builder) ChannelProfile(ctx context.Context, viewerID, username string) (models.ChannelProfile, error) {
	username = strings.ToLower(strings.TrimSpace(username))
	if username == "" {
		return models.ChannelProfile{}, fmt.Errorf("%w: username is required", apperrors.ErrInvalidInput)
	}

	channel, err := b.users.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.ChannelProfile{}, fmt.Errorf("%w: channel", apperrors.ErrNotFound)
		}
		return models.ChannelProfile{}, fmt.Errorf("%w: lookup channel: %v", apperrors.ErrInternal, err)
	}

	subscribers, err := b.subscriptions.CountForChannel(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("%w: count subscribers: %v", apperrors.ErrInternal, err)
	}

	subscribedTo, err := b.subscriptions.CountForSubscriber(ctx, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("%w: count subscriptions: %v", apperrors.ErrInternal, err)
	}

	isSubscribed, err := b.subscriptions.IsSubscribed(ctx, viewerID, channel.ID)
	if err != nil {
		return models.ChannelProfile{}, fmt.Errorf("%w: check membership: %v", apperrors.ErrInternal, err)
	}

	return models.ChannelProfile{
		ID:                      channel.ID,
		Username:                channel.Username,
		Email:                   channel.Email,
		FullName:                channel.FullName,
		AvatarURL:               channel.AvatarURL,
		CoverURL:                channel.CoverURL,
		SubscribersCount:        subscribers,
		ChannelsSubscribedCount: subscribedTo,
		IsSubscribed:            isSubscribed,
	}, nil
}

// WatchHistory resolves the user's watched video references into full videos,
// each enriched with a minimal owner projection. History order is preserved;
// a video whose owner no longer exists keeps an empty owner rather than
// failing the whole view.
func (b *Builder) WatchHistory(ctx context.Context, userID string) ([]models.WatchHistoryEntry, error) {
	ids, err := b.users.WatchHistoryIDs(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return nil, fmt.Errorf("%w: load watch history: %v", apperrors.ErrInternal, err)
	}
	if len(ids) == 0 {
		return []models.WatchHistoryEntry{}, nil
	}

	videos, err := b.videos.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("%w: load videos: %v", apperrors.ErrInternal, err)
	}

	videosByID := make(map[string]models.Video, len(videos))
	ownerIDs := make([]string, 0, len(videos))
	seenOwners := make(map[string]struct{}, len(videos))
	for _, video := range videos {
		videosByID[video.ID] = video
		if _, ok := seenOwners[video.OwnerID]; !ok {
			seenOwners[video.OwnerID] = struct{}{}
			ownerIDs = append(ownerIDs, video.OwnerID)
		}
	}

	owners, err := b.users.FindByIDs(ctx, ownerIDs)
	if err != nil {
		return nil, fmt.Errorf("%w: load video owners: %v", apperrors.ErrInternal, err)
	}

	ownersByID := make(map[string]models.VideoOwner, len(owners))
	for _, owner := range owners {
		if _, ok := ownersByID[owner.ID]; ok {
			continue
		}
		ownersByID[owner.ID] = models.VideoOwner{
			FullName:  owner.FullName,
			Username:  owner.Username,
			AvatarURL: owner.AvatarURL,
		}
	}

	entries := make([]models.WatchHistoryEntry, 0, len(ids))
	for _, id := range ids {
		video, ok := videosByID[id]
		if !ok {
			// Stale reference to a removed video; skip it.
			continue
		}
		entries = append(entries, models.WatchHistoryEntry{
			Video: video,
			Owner: ownersByID[video.OwnerID],
		})
	}

	return entries, nil
}

// RecordWatch appends the video to the user's watch history after confirming
// the video exists. Re-watching an already recorded video keeps its original
// history position.
func (b *Builder) RecordWatch(ctx context.Context, userID, videoID string) error {
	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return fmt.Errorf("%w: video id is required", apperrors.ErrInvalidInput)
	}

	videos, err := b.videos.FindByIDs(ctx, []string{videoID})
	if err != nil {
		return fmt.Errorf("%w: lookup video: %v", apperrors.ErrInternal, err)
	}
	if len(videos) == 0 {
		return fmt.Errorf("%w: video", apperrors.ErrNotFound)
	}

	if err := b.users.AppendWatchHistory(ctx, userID, videoID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return fmt.Errorf("%w: record watch: %v", apperrors.ErrInternal, err)
	}
	return nil
}
