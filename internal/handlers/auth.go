package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/accounts"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// maxMultipartMemory bounds the in-memory portion of multipart uploads.
const maxMultipartMemory = 16 << 20

// AuthHandler implements registration and session lifecycle endpoints.
type AuthHandler struct {
	Accounts AccountService
	Sessions SessionManager
	Limiter  RateLimiter
	Secure   bool
}

// Register handles POST /api/v1/users/register requests with multipart
// bodies carrying the profile fields plus avatar (required) and coverImage
// (optional) files.
func (h AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "register") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many registration attempts, slow down")
		return
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		logger.Warn("invalid registration payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid multipart request body")
		return
	}

	input := accounts.RegistrationInput{
		Username: r.FormValue("username"),
		Email:    r.FormValue("email"),
		FullName: r.FormValue("fullName"),
		Password: r.FormValue("password"),
	}

	avatar, err := formFile(r, "avatar")
	if err != nil {
		logger.Warn("unreadable avatar upload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "avatar file is unreadable")
		return
	}
	if avatar != nil {
		defer avatar.close()
		input.Avatar = &avatar.MediaFile
	}

	cover, err := formFile(r, "coverImage")
	if err != nil {
		logger.Warn("unreadable cover upload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "cover image file is unreadable")
		return
	}
	if cover != nil {
		defer cover.close()
		input.Cover = &cover.MediaFile
	}

	user, err := h.Accounts.Register(ctx, input)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusCreated, user, "user registered successfully")
}

// Login handles POST /api/v1/users/login requests.
func (h AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	logger := logging.FromContext(ctx)

	if !allowRequest(h.Limiter, r, "login") {
		respondError(ctx, w, http.StatusTooManyRequests, "too many login attempts, slow down")
		return
	}

	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid login payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	// Email is the required lookup hint; the store matches either field.
	identifier := strings.TrimSpace(req.Email)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Username)
	}
	if identifier == "" {
		respondError(ctx, w, http.StatusBadRequest, "email is required")
		return
	}

	tokens, user, err := h.Sessions.Login(ctx, identifier, req.Password)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.Secure)
	respondData(ctx, w, http.StatusOK, loginResponse{User: user, Tokens: tokens}, "user logged in successfully")
}

// Refresh handles POST /api/v1/users/refresh-token requests. The refresh
// token comes from the refreshToken cookie or the request body.
func (h AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()

	incoming := ""
	if cookie, err := r.Cookie(refreshTokenCookie); err == nil {
		incoming = cookie.Value
	}
	if incoming == "" {
		var req refreshRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
			incoming = strings.TrimSpace(req.RefreshToken)
		}
	}
	if incoming == "" {
		respondError(ctx, w, http.StatusUnauthorized, "refresh token is required")
		return
	}

	tokens, err := h.Sessions.Refresh(ctx, incoming)
	if err != nil {
		respondAppError(ctx, w, err)
		return
	}

	setSessionCookies(w, tokens, h.Secure)
	respondData(ctx, w, http.StatusOK, tokens, "access token refreshed successfully")
}

// Logout handles POST /api/v1/users/logout requests.
func (h AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Sessions.Logout(ctx, claims.Subject); err != nil {
		respondAppError(ctx, w, err)
		return
	}

	clearSessionCookies(w, h.Secure)
	respondData(ctx, w, http.StatusOK, struct{}{}, "user logged out successfully")
}

// ChangePassword handles POST /api/v1/users/change-password requests.
func (h AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
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

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid change password payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.Sessions.ChangePassword(ctx, claims.Subject, req.OldPassword, req.NewPassword); err != nil {
		respondAppError(ctx, w, err)
		return
	}

	respondData(ctx, w, http.StatusOK, struct{}{}, "password changed successfully")
}

type loginRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	User   models.PublicUser    `json:"user"`
	Tokens models.SessionTokens `json:"tokens"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// openedFile wires a multipart file into accounts.MediaFile and keeps the
// close handle alive until the workflow finished reading.
type openedFile struct {
	accounts.MediaFile
	close func() error
}

func formFile(r *http.Request, field string) (*openedFile, error) {
	if r.MultipartForm == nil || len(r.MultipartForm.File[field]) == 0 {
		return nil, nil
	}

	header := r.MultipartForm.File[field][0]
	file, err := header.Open()
	if err != nil {
		return nil, err
	}

	return &openedFile{
		MediaFile: accounts.MediaFile{Name: header.Filename, Reader: file},
		close:     file.Close,
	}, nil
}
