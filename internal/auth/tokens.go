package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/models"
)

// ErrInvalidToken indicates a token failed signature or expiry validation.
var ErrInvalidToken = errors.New("invalid token")

// AccessClaims carries the profile fields embedded in short-lived access
// tokens. Refresh tokens deliberately carry only registered claims so a
// long-lived credential never leaks profile data.
type AccessClaims struct {
	jwt.RegisteredClaims
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"fullName"`
}

// TokenIssuer signs and validates session tokens. Access and refresh tokens
// use distinct secrets so compromise of one cannot mint the other.
type TokenIssuer struct {
	accessSecret  []byte
	accessTTL     time.Duration
	refreshSecret []byte
	refreshTTL    time.Duration

	now func() time.Time
}

// NewTokenIssuer constructs a TokenIssuer for the provided secrets and TTLs.
func NewTokenIssuer(accessSecret string, accessTTL time.Duration, refreshSecret string, refreshTTL time.Duration) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(accessSecret),
		accessTTL:     accessTTL,
		refreshSecret: []byte(refreshSecret),
		refreshTTL:    refreshTTL,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// IssueAccessToken signs a short-lived access token embedding the user's
// public identity fields.
func (t *TokenIssuer) IssueAccessToken(user models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.accessTTL)

	claims := AccessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email:    user.Email,
		Username: user.Username,
		FullName: user.FullName,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.accessSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// IssueRefreshToken signs a long-lived refresh token carrying only
// registered claims: the subject id plus a unique token id. The jti keeps
// two tokens minted within the same second from being byte-identical, which
// rotation depends on — a rotated-out token must never equal its successor.
func (t *TokenIssuer) IssueRefreshToken(user models.User) (string, time.Time, error) {
	now := t.now()
	expiresAt := now.Add(t.refreshTTL)

	claims := jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		Subject:   user.ID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

// VerifyAccessToken validates an access token and returns its claims.
func (t *TokenIssuer) VerifyAccessToken(token string) (AccessClaims, error) {
	claims := AccessClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.accessSecret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid {
		return AccessClaims{}, ErrInvalidToken
	}
	return claims, nil
}

// VerifyRefreshToken validates a refresh token's signature and expiry and
// returns the subject id. It does not confirm the token is still the current
// one for that user; the session manager compares it against the stored slot.
func (t *TokenIssuer) VerifyRefreshToken(token string) (string, error) {
	claims := jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(token, &claims, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return t.refreshSecret, nil
	}, jwt.WithTimeFunc(t.now))
	if err != nil || !parsed.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
