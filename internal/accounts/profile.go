package accounts

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// CurrentUser returns the sanitized record for the authenticated user.
func (s *Service) CurrentUser(ctx context.Context, userID string) (models.PublicUser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return models.PublicUser{}, fmt.Errorf("%w: lookup user: %v", apperrors.ErrInternal, err)
	}
	return user.Public(), nil
}

// UpdateAccount changes the user's full name and email through the
// field-listed update path.
func (s *Service) UpdateAccount(ctx context.Context, userID, fullName, email string) (models.PublicUser, error) {
	fullName = strings.TrimSpace(fullName)
	email = strings.ToLower(strings.TrimSpace(email))
	if fullName == "" || email == "" {
		return models.PublicUser{}, fmt.Errorf("%w: full name and email are required", apperrors.ErrInvalidInput)
	}

	user, err := s.users.UpdateProfile(ctx, userID, fullName, email)
	if err != nil {
		switch {
		case errors.Is(err, repositories.ErrNotFound):
			return models.PublicUser{}, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		case errors.Is(err, repositories.ErrConflict):
			return models.PublicUser{}, fmt.Errorf("%w: email already in use", apperrors.ErrConflict)
		default:
			return models.PublicUser{}, fmt.Errorf("%w: update account: %v", apperrors.ErrInternal, err)
		}
	}

	return user.Public(), nil
}

// UpdateAvatar uploads the new avatar, persists its reference, and deletes
// the previous blob. The old blob is only removed after the swap succeeded;
// a failed delete is logged, not surfaced.
func (s *Service) UpdateAvatar(ctx context.Context, userID string, file *MediaFile) (models.PublicUser, error) {
	return s.swapMedia(ctx, userID, file, func(u models.User) string { return u.AvatarKey }, s.users.SetAvatar)
}

// UpdateCoverImage uploads the new cover image and swaps the stored reference
// the same way UpdateAvatar does.
func (s *Service) UpdateCoverImage(ctx context.Context, userID string, file *MediaFile) (models.PublicUser, error) {
	return s.swapMedia(ctx, userID, file, func(u models.User) string { return u.CoverKey }, s.users.SetCover)
}

func (s *Service) swapMedia(
	ctx context.Context,
	userID string,
	file *MediaFile,
	oldKey func(models.User) string,
	persist func(ctx context.Context, id, url, key string) (models.User, error),
) (models.PublicUser, error) {
	if file == nil {
		return models.PublicUser{}, fmt.Errorf("%w: file is required", apperrors.ErrInvalidInput)
	}

	current, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return models.PublicUser{}, fmt.Errorf("%w: lookup user: %v", apperrors.ErrInternal, err)
	}

	uploaded, err := s.media.Upload(ctx, file.Name, file.Reader)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("%w: %v", apperrors.ErrUploadFailed, err)
	}

	updated, err := persist(ctx, userID, uploaded.URL, uploaded.Key)
	if err != nil {
		// The record still references the old blob; remove the new one.
		if derr := s.media.Delete(ctx, uploaded.Key); derr != nil {
			logging.FromContext(ctx).Error("delete orphaned media blob", "key", uploaded.Key, "error", derr)
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return models.PublicUser{}, fmt.Errorf("%w: user", apperrors.ErrNotFound)
		}
		return models.PublicUser{}, fmt.Errorf("%w: persist media reference: %v", apperrors.ErrInternal, err)
	}

	if key := oldKey(current); key != "" {
		if err := s.media.Delete(ctx, key); err != nil {
			logging.FromContext(ctx).Error("delete replaced media blob", "key", key, "error", err)
		}
	}

	return updated.Public(), nil
}
