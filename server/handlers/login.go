package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/auth"
	qlog "github.com/quickserve/quickserve/core/log"
	"github.com/quickserve/quickserve/metrics"
)

// LoginRequest is the login exchange payload. The frontend sends the
// SHA-256 digest of the password, not the password itself.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse carries the session token and the permission snapshot
// embedded in it.
type LoginResponse struct {
	Token       string             `json:"token"`
	Permissions auth.PermissionSet `json:"permissions"`
}

// Login performs the credential exchange and issues a session token.
func Login(authenticator *auth.Authenticator, tokens *auth.TokenManager, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
			metrics.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
			SendErrorResponse(w, logger, auth.ErrInvalidCredentials, http.StatusUnauthorized)
			return
		}

		perms, err := authenticator.Authenticate(r.Context(), req.Username, req.Password)
		if err != nil {
			metrics.LoginAttemptsTotal.WithLabelValues(loginOutcome(err)).Inc()
			SendErrorResponse(w, logger, err, http.StatusUnauthorized)
			return
		}

		token, err := tokens.Issue(req.Username, perms)
		if err != nil {
			logger.Error("failed to issue session token",
				zap.String("user", qlog.User(req.Username)),
				zap.Error(err))
			SendErrorResponse(w, logger, err, http.StatusInternalServerError)
			return
		}

		metrics.LoginAttemptsTotal.WithLabelValues("success").Inc()
		SendJSONResponse(w, LoginResponse{
			Token:       token,
			Permissions: perms,
		})
	}
}

func loginOutcome(err error) string {
	switch {
	case errors.Is(err, auth.ErrAccountLocked):
		return "locked"
	case errors.Is(err, auth.ErrTooManyAttempts):
		return "throttled"
	default:
		return "invalid"
	}
}
