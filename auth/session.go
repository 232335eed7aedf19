package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// sessionClaims is the signed token payload: the username in the
// standard subject claim plus the permission snapshot taken at login.
type sessionClaims struct {
	Perms PermissionSet `json:"perms"`
	jwt.RegisteredClaims
}

// TokenManager issues and verifies stateless HS256 session tokens.
// The signing secret is generated at construction and never persisted,
// so restarting the server invalidates every outstanding token — a
// deliberate tradeoff that removes any need for a revocation list.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenManager creates a token manager with a fresh random secret.
func NewTokenManager(ttl time.Duration) (*TokenManager, error) {
	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("failed to generate signing secret: %w", err)
	}
	return &TokenManager{secret: secret, ttl: ttl}, nil
}

// Issue signs a session token carrying the username and permission
// snapshot, expiring after the configured TTL.
func (m *TokenManager) Issue(username string, perms PermissionSet) (string, error) {
	now := time.Now()
	claims := sessionClaims{
		Perms: perms,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return token, nil
}

// Verify checks the signature and expiry of a session token and
// returns the identity it carries. Expired tokens fail with
// ErrTokenExpired, anything else with ErrTokenInvalid; callers treat
// both as "log in again", logs can tell them apart.
func (m *TokenManager) Verify(tokenString string) (Identity, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Identity{}, ErrTokenExpired
		}
		return Identity{}, ErrTokenInvalid
	}

	if claims.Subject == "" {
		return Identity{}, ErrTokenInvalid
	}

	return Identity{
		Username: claims.Subject,
		Perms:    claims.Perms,
	}, nil
}
