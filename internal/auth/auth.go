// Package auth reads the bearer token issued by the external auth provider.
//
// Tokens are forwarded to the trips API untouched. The claims are decoded
// without verifying the signature; they only drive presentation (which user
// is looking at the page). The backend enforces authorization.
package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// DefaultCookieName is where the auth provider stores the access token.
const DefaultCookieName = "access_token"

var ErrNoToken = errors.New("no bearer token")

// UserID accepts the claim as a JSON number or a numeric string.
type UserID int64

func (u *UserID) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("user_id %s: %w", data, err)
	}
	*u = UserID(n)
	return nil
}

// Claims are the access token fields the frontend cares about.
type Claims struct {
	UserID   UserID `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// ParseUnverified decodes the token claims without checking the signature.
func ParseUnverified(token string) (Claims, error) {
	var claims Claims
	if strings.TrimSpace(token) == "" {
		return claims, ErrNoToken
	}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return Claims{}, fmt.Errorf("parse token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token carries an exp claim in the past.
func (c Claims) Expired(now time.Time) bool {
	return c.ExpiresAt != nil && now.After(c.ExpiresAt.Time)
}

// CurrentUserID returns the user id carried by token, or 0.
func CurrentUserID(token string) int64 {
	claims, err := ParseUnverified(token)
	if err != nil {
		return 0
	}
	return int64(claims.UserID)
}

// TokenFromRequest returns the bearer token from the Authorization header,
// falling back to the named cookie.
func TokenFromRequest(r *http.Request, cookieName string) string {
	if h := r.Header.Get("Authorization"); h != "" {
		scheme, token, ok := strings.Cut(h, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			return strings.TrimSpace(token)
		}
	}
	if cookieName == "" {
		cookieName = DefaultCookieName
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return strings.TrimSpace(c.Value)
	}
	return ""
}

// Mint signs an HS256 access token. Used by the in-memory backend for local
// development and by tests; production tokens come from the auth provider.
func Mint(userID int64, username, email string, key []byte, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:   UserID(userID),
		Username: username,
		Email:    email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(now),
			Subject:  strconv.FormatInt(userID, 10),
		},
	}
	if ttl > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(ttl))
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(key)
}

// MarshalJSON keeps the claim numeric.
func (u UserID) MarshalJSON() ([]byte, error) {
	return json.Marshal(int64(u))
}
