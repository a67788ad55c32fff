package models

import "time"

// User represents an account within the VidTube platform. Username and email
// are stored lowercase and are unique at the store.
type User struct {
	ID           string
	Username     string
	Email        string
	FullName     string
	AvatarURL    string
	AvatarKey    string
	CoverURL     string
	CoverKey     string
	PasswordHash string
	// RefreshToken is the single active refresh credential for the user.
	// A nil value means no refresh token is outstanding (logged out).
	RefreshToken *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// PublicUser is the sanitized projection of a User returned to callers.
// It never carries the password hash or the refresh token.
type PublicUser struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	FullName  string    `json:"fullName"`
	AvatarURL string    `json:"avatar"`
	CoverURL  string    `json:"coverImage,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public returns the sanitized projection of the user.
func (u User) Public() PublicUser {
	return PublicUser{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		FullName:  u.FullName,
		AvatarURL: u.AvatarURL,
		CoverURL:  u.CoverURL,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

// Subscription is a follow edge: Subscriber follows Channel.
type Subscription struct {
	SubscriberID string
	ChannelID    string
	CreatedAt    time.Time
}

// Video is a published video owned by a user. Consumed read-only by the
// watch-history view; this service never mutates videos.
type Video struct {
	ID           string    `json:"id"`
	OwnerID      string    `json:"-"`
	Title        string    `json:"title"`
	VideoURL     string    `json:"videoUrl"`
	ThumbnailURL string    `json:"thumbnail,omitempty"`
	Duration     int64     `json:"duration,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VideoOwner is the minimal owner projection nested inside watch-history
// entries.
type VideoOwner struct {
	FullName  string `json:"fullName,omitempty"`
	Username  string `json:"username,omitempty"`
	AvatarURL string `json:"avatar,omitempty"`
}

// WatchHistoryEntry is a video enriched with its owner's public details.
// Owner stays empty when the owning account no longer exists.
type WatchHistoryEntry struct {
	Video
	Owner VideoOwner `json:"owner"`
}

// ChannelProfile is the read model produced for a channel page.
type ChannelProfile struct {
	ID                      string `json:"id"`
	Username                string `json:"username"`
	Email                   string `json:"email"`
	FullName                string `json:"fullName"`
	AvatarURL               string `json:"avatar"`
	CoverURL                string `json:"coverImage,omitempty"`
	SubscribersCount        int64  `json:"subscribersCount"`
	ChannelsSubscribedCount int64  `json:"channelsSubscribedToCount"`
	IsSubscribed            bool   `json:"isSubscribed"`
}

// SessionTokens groups the bearer credentials issued to authenticated users.
type SessionTokens struct {
	AccessToken      string    `json:"accessToken"`
	AccessExpiresAt  time.Time `json:"accessExpiresAt"`
	RefreshToken     string    `json:"refreshToken"`
	RefreshExpiresAt time.Time `json:"refreshExpiresAt"`
}
