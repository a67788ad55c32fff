package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/vidtube/backend/internal/auth"
)

type ctxKey string

const claimsKey ctxKey = "accessClaims"

// requireAuth verifies the access token from the accessToken cookie or a
// bearer Authorization header and stores its claims on the request context.
func requireAuth(tokens TokenVerifier, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			respondError(r.Context(), w, http.StatusUnauthorized, "authentication required")
			return
		}

		claims, err := tokens.VerifyAccessToken(token)
		if err != nil {
			respondError(r.Context(), w, http.StatusUnauthorized, "invalid or expired access token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next(w, r.WithContext(ctx))
	}
}

func bearerToken(r *http.Request) string {
	if cookie, err := r.Cookie(accessTokenCookie); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return strings.TrimSpace(after)
	}
	return ""
}

// claimsFromContext returns the verified access claims stored by requireAuth.
func claimsFromContext(ctx context.Context) (auth.AccessClaims, bool) {
	claims, ok := ctx.Value(claimsKey).(auth.AccessClaims)
	return claims, ok
}
