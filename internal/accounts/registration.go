package accounts

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/auth"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
	"github.com/vidtube/backend/internal/storage"
)

// UserStore captures the persistence operations required by account workflows.
type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByID(ctx context.Context, id string) (models.User, error)
	FindByIdentifier(ctx context.Context, usernameOrEmail string) (models.User, error)
	UpdateProfile(ctx context.Context, id, fullName, email string) (models.User, error)
	SetAvatar(ctx context.Context, id, url, key string) (models.User, error)
	SetCover(ctx context.Context, id, url, key string) (models.User, error)
	Delete(ctx context.Context, id string) error
}

// MediaStore is the external media storage capability: both operations are
// fallible I/O and fail independently.
type MediaStore interface {
	Upload(ctx context.Context, name string, r io.Reader) (storage.Object, error)
	Delete(ctx context.Context, key string) error
}

// MediaFile is an inbound media payload, validated at the boundary before a
// workflow starts.
type MediaFile struct {
	Name   string
	Reader io.Reader
}

// RegistrationInput is the typed registration request. Avatar is required,
// Cover is optional.
type RegistrationInput struct {
	Username string
	Email    string
	FullName string
	Password string
	Avatar   *MediaFile
	Cover    *MediaFile
}

// Service implements the media-consistent account workflows.
type Service struct {
	users UserStore
	media MediaStore
	now   func() time.Time
}

// NewService constructs an account Service over the provided collaborators.
func NewService(users UserStore, media MediaStore) *Service {
	if users == nil || media == nil {
		panic("accounts: user store and media store must not be nil")
	}
	return &Service{
		users: users,
		media: media,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// Register provisions a new user whose media blobs and database record end up
// both-present or both-absent. Uploads happen before the database write, and
// any failure after an upload succeeded deletes the uploaded blobs again.
func (s *Service) Register(ctx context.Context, input RegistrationInput) (models.PublicUser, error) {
	ctx, span := logging.StartSpan(ctx, "accounts.register")
	defer span.End()

	input.Username = strings.ToLower(strings.TrimSpace(input.Username))
	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	input.FullName = strings.TrimSpace(input.FullName)

	if input.Username == "" || input.Email == "" || input.FullName == "" || strings.TrimSpace(input.Password) == "" {
		return models.PublicUser{}, fmt.Errorf("%w: all fields are required", apperrors.ErrInvalidInput)
	}

	for _, identifier := range []string{input.Username, input.Email} {
		_, err := s.users.FindByIdentifier(ctx, identifier)
		switch {
		case err == nil:
			return models.PublicUser{}, fmt.Errorf("%w: user with email or username already exists", apperrors.ErrConflict)
		case errors.Is(err, repositories.ErrNotFound):
		default:
			return models.PublicUser{}, fmt.Errorf("%w: check existing user: %v", apperrors.ErrInternal, err)
		}
	}

	// Hard precondition, checked before any upload begins.
	if input.Avatar == nil {
		return models.PublicUser{}, fmt.Errorf("%w: avatar file is missing", apperrors.ErrInvalidInput)
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return models.PublicUser{}, fmt.Errorf("%w: hash password: %v", apperrors.ErrInternal, err)
	}

	var (
		avatar  storage.Object
		cover   storage.Object
		created models.User
		userID  = uuid.NewString()
	)

	steps := []sagaStep{
		{
			name: "upload avatar",
			run: func(ctx context.Context) error {
				obj, err := s.media.Upload(ctx, input.Avatar.Name, input.Avatar.Reader)
				if err != nil {
					return fmt.Errorf("%w: avatar: %v", apperrors.ErrUploadFailed, err)
				}
				avatar = obj
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.media.Delete(ctx, avatar.Key)
			},
		},
	}

	if input.Cover != nil {
		steps = append(steps, sagaStep{
			name: "upload cover image",
			run: func(ctx context.Context) error {
				obj, err := s.media.Upload(ctx, input.Cover.Name, input.Cover.Reader)
				if err != nil {
					return fmt.Errorf("%w: cover image: %v", apperrors.ErrUploadFailed, err)
				}
				cover = obj
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.media.Delete(ctx, cover.Key)
			},
		})
	}

	steps = append(steps,
		sagaStep{
			name: "create user record",
			run: func(ctx context.Context) error {
				now := s.now()
				user := models.User{
					ID:           userID,
					Username:     input.Username,
					Email:        input.Email,
					FullName:     input.FullName,
					AvatarURL:    avatar.URL,
					AvatarKey:    avatar.Key,
					CoverURL:     cover.URL,
					CoverKey:     cover.Key,
					PasswordHash: hash,
					CreatedAt:    now,
					UpdatedAt:    now,
				}
				if err := s.users.Create(ctx, user); err != nil {
					if errors.Is(err, repositories.ErrConflict) {
						return fmt.Errorf("%w: user with email or username already exists", apperrors.ErrConflict)
					}
					return fmt.Errorf("%w: create user: %v", apperrors.ErrInternal, err)
				}
				return nil
			},
			compensate: func(ctx context.Context) error {
				return s.users.Delete(ctx, userID)
			},
		},
		sagaStep{
			name: "read back created user",
			run: func(ctx context.Context) error {
				user, err := s.users.FindByID(ctx, userID)
				if err != nil {
					return fmt.Errorf("%w: read back created user: %v", apperrors.ErrInternal, err)
				}
				created = user
				return nil
			},
		},
	)

	if err := runSaga(ctx, steps); err != nil {
		return models.PublicUser{}, err
	}

	return created.Public(), nil
}
