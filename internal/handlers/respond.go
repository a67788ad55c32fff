package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/vidtube/backend/internal/apperrors"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// apiResponse is the uniform envelope returned by every endpoint. The HTTP
// status is mirrored in StatusCode.
type apiResponse struct {
	StatusCode int      `json:"statusCode"`
	Success    bool     `json:"success"`
	Data       any      `json:"data"`
	Message    string   `json:"message"`
	Errors     []string `json:"errors,omitempty"`
}

func respondData(ctx context.Context, w http.ResponseWriter, status int, data any, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Success:    true,
		Data:       data,
		Message:    message,
	})
}

func respondError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	writeJSON(ctx, w, status, apiResponse{
		StatusCode: status,
		Success:    false,
		Data:       nil,
		Message:    message,
		Errors:     []string{message},
	})
}

// respondAppError maps a workflow error onto the envelope. Internal causes
// are logged server-side and masked behind a generic message.
func respondAppError(ctx context.Context, w http.ResponseWriter, err error) {
	logger := logging.FromContext(ctx)

	switch {
	case errors.Is(err, apperrors.ErrInvalidInput):
		respondError(ctx, w, http.StatusBadRequest, trimKind(err, apperrors.ErrInvalidInput))
	case errors.Is(err, apperrors.ErrUnauthorized):
		respondError(ctx, w, http.StatusUnauthorized, trimKind(err, apperrors.ErrUnauthorized))
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(ctx, w, http.StatusNotFound, trimKind(err, apperrors.ErrNotFound))
	case errors.Is(err, apperrors.ErrConflict):
		respondError(ctx, w, http.StatusConflict, trimKind(err, apperrors.ErrConflict))
	case errors.Is(err, apperrors.ErrUploadFailed):
		logger.Error("media upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to upload media")
	default:
		logger.Error("request failed unexpectedly", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "something went wrong")
	}
}

// trimKind strips the sentinel prefix so the human-readable remainder becomes
// the envelope message.
func trimKind(err error, kind error) string {
	msg := err.Error()
	prefix := kind.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}

func writeJSON(ctx context.Context, w http.ResponseWriter, status int, payload apiResponse) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	logger := logging.FromContext(ctx)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("encode response body", "status", status, "error", err)
		return
	}

	switch {
	case status >= http.StatusInternalServerError:
		logger.Error("request failed", "status", status, "message", payload.Message)
	case status >= http.StatusBadRequest:
		logger.Warn("request returned client error", "status", status, "message", payload.Message)
	}
}

// Cookie names are identical across the login and refresh flows; a mismatch
// would strand clients with a stale access cookie after rotation.
const (
	accessTokenCookie  = "accessToken"
	refreshTokenCookie = "refreshToken"
)

func setSessionCookies(w http.ResponseWriter, tokens models.SessionTokens, secure bool) {
	http.SetCookie(w, &http.Cookie{
		Name:     accessTokenCookie,
		Value:    tokens.AccessToken,
		Path:     "/",
		Expires:  tokens.AccessExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     refreshTokenCookie,
		Value:    tokens.RefreshToken,
		Path:     "/",
		Expires:  tokens.RefreshExpiresAt,
		HttpOnly: true,
		Secure:   secure,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookies(w http.ResponseWriter, secure bool) {
	expired := time.Unix(0, 0)
	for _, name := range []string{accessTokenCookie, refreshTokenCookie} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			Expires:  expired,
			MaxAge:   -1,
			HttpOnly: true,
			Secure:   secure,
			SameSite: http.SameSiteLaxMode,
		})
	}
}
