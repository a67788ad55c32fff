package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// mediaUpdateFunc swaps a single stored media asset for the given user.
type mediaUpdateFunc func(ctx context.Context, userID string, file *accounts.MediaFile) (models.PublicUser, error)

// UserHandler serves profile reads, profile mutations, and derived views for
// the authenticated user.
type UserHandler struct {
	Accounts AccountService
	Views    ViewBuilder
}

// CurrentUser handles GET /api/v1/users/current-user requests.
func (h UserHandler) CurrentUser(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	user, err := h.Accounts.CurrentUser(ctx, claims.Subject)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, user, "current user details")
}

// UpdateAccount handles PATCH /api/v1/users/update-account requests.
func (h UserHandler) UpdateAccount(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req updateAccountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid update account payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.Accounts.UpdateAccount(ctx, claims.Subject, req.FullName, req.Email)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, user, "account details updated successfully")
}

// UpdateAvatar handles PATCH /api/v1/users/avatar requests.
func (h UserHandler) UpdateAvatar(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "avatar", h.Accounts.UpdateAvatar, "avatar image updated successfully")
}

// UpdateCoverImage handles PATCH /api/v1/users/cover-image requests.
func (h UserHandler) UpdateCoverImage(w http.ResponseWriter, r *http.Request) {
	h.updateMedia(w, r, "coverImage", h.Accounts.UpdateCoverImage, "cover image updated successfully")
}

func (h UserHandler) updateMedia(
	w http.ResponseWriter,
	r *http.Request,
	field string,
	apply mediaUpdateFunc,
	message string,
) {
	if r.Method != http.MethodPatch {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid media payload", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	file, err := formFile(r, field)
	if err != nil {
		logger.Warn("unreadable media upload", "field", field, "error", err)
		respondError(ctx, w, http.StatusBadRequest, "file is unreadable")
		return
	}
	if file == nil {
		respondError(ctx, w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.close()

	user, err := apply(ctx, claims.Subject, &file.MediaFile)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, user, message)
}

// ChannelProfile handles GET /api/v1/users/c/{username} requests.
func (h UserHandler) ChannelProfile(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	profile, err := h.Views.ChannelProfile(ctx, claims.Subject, r.PathValue("username"))
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile fetched successfully")
}

// WatchHistory handles GET /api/v1/users/history requests.
func (h UserHandler) WatchHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	history, err := h.Views.WatchHistory(ctx, claims.Subject)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, history, "watch history fetched successfully")
}

// RecordWatch handles POST /api/v1/users/history/{videoId} requests.
func (h UserHandler) RecordWatch(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	claims, ok := claimsFromContext(ctx)
	if !ok {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := h.Views.RecordWatch(ctx, claims.Subject, r.PathValue("videoId")); err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "video added to watch history")
}

type updateAccountRequest struct {
	FullName string `json:"fullName"`
	Email    string `json:"email"`
}
