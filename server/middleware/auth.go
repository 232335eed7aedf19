// Package middleware provides HTTP middleware for the QuickServe API:
// session-token authentication, request IDs, login rate limiting, and
// security headers.
package middleware

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/metrics"
)

// contextKey is the private type for request-context keys.
type contextKey string

const (
	identityKey  contextKey = "identity"
	RequestIDKey contextKey = "request_id"
)

// SessionAuth verifies the bearer session token on every request and
// stores the resulting identity in the request context.
func SessionAuth(tokens *auth.TokenManager, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
			if token == "" {
				metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
				sendAuthError(w, logger, auth.ErrTokenInvalid)
				return
			}

			id, err := tokens.Verify(token)
			if err != nil {
				// Expired and invalid both mean "log in again", but
				// they are told apart here for the logs.
				if errors.Is(err, auth.ErrTokenExpired) {
					metrics.TokenVerificationsTotal.WithLabelValues("expired").Inc()
					logger.Debug("session token expired")
				} else {
					metrics.TokenVerificationsTotal.WithLabelValues("invalid").Inc()
					logger.Debug("session token rejected", zap.Error(err))
				}
				sendAuthError(w, logger, err)
				return
			}

			metrics.TokenVerificationsTotal.WithLabelValues("ok").Inc()
			ctx := context.WithValue(r.Context(), identityKey, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequestID adds a unique request ID to each request context and the
// response headers.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := generateRequestID()
			w.Header().Set("X-Request-ID", requestID)
			ctx := context.WithValue(r.Context(), RequestIDKey, requestID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func generateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// IdentityFrom extracts the verified identity from a request context.
func IdentityFrom(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}

func sendAuthError(w http.ResponseWriter, logger *zap.Logger, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)

	code := "TOKEN_INVALID"
	if errors.Is(err, auth.ErrTokenExpired) {
		code = "TOKEN_EXPIRED"
	}

	if _, werr := w.Write([]byte(`{"code":"` + code + `","message":"authentication required"}`)); werr != nil {
		logger.Error("failed to write auth error response", zap.Error(werr))
	}
}
