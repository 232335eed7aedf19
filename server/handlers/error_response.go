// Package handlers implements the HTTP handlers of the QuickServe API.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/core"
)

// ErrorResponse represents a standardized error response.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// SendErrorResponse maps an error onto the wire taxonomy and sends a
// JSON error response. Containment internals are never revealed: a
// rejected path is just "access denied".
func SendErrorResponse(w http.ResponseWriter, logger *zap.Logger, err error, defaultStatusCode int) {
	w.Header().Set("Content-Type", "application/json")

	statusCode := defaultStatusCode
	errorCode := "INTERNAL_ERROR"
	message := "internal error"

	switch {
	case errors.Is(err, auth.ErrInvalidCredentials):
		statusCode = http.StatusUnauthorized
		errorCode = "INVALID_CREDENTIALS"
		message = err.Error()
	case errors.Is(err, auth.ErrAccountLocked):
		statusCode = http.StatusLocked
		errorCode = "ACCOUNT_LOCKED"
		message = err.Error()
	case errors.Is(err, auth.ErrTooManyAttempts):
		statusCode = http.StatusTooManyRequests
		errorCode = "TOO_MANY_ATTEMPTS"
		message = err.Error()
	case errors.Is(err, auth.ErrTokenExpired):
		statusCode = http.StatusUnauthorized
		errorCode = "TOKEN_EXPIRED"
		message = "authentication required"
	case errors.Is(err, auth.ErrTokenInvalid):
		statusCode = http.StatusUnauthorized
		errorCode = "TOKEN_INVALID"
		message = "authentication required"
	case errors.Is(err, auth.ErrPermissionDenied):
		statusCode = http.StatusForbidden
		errorCode = "PERMISSION_DENIED"
		message = err.Error()
	case errors.Is(err, core.ErrAccessDenied):
		statusCode = http.StatusForbidden
		errorCode = "ACCESS_DENIED"
		message = "access denied"
	case errors.Is(err, backends.ErrNotFound):
		statusCode = http.StatusNotFound
		errorCode = "NOT_FOUND"
		message = err.Error()
	case errors.Is(err, backends.ErrAlreadyExists):
		statusCode = http.StatusConflict
		errorCode = "ALREADY_EXISTS"
		message = err.Error()
	}

	w.WriteHeader(statusCode)

	response := ErrorResponse{
		Code:    errorCode,
		Message: message,
	}
	if encErr := json.NewEncoder(w).Encode(response); encErr != nil {
		logger.Error("failed to encode error response", zap.Error(encErr))
		fmt.Fprint(w, "internal error")
	}

	logger.Info("error response sent",
		zap.String("error_code", errorCode),
		zap.Int("status_code", statusCode),
		zap.Error(err))
}

// SendJSONResponse sends a JSON response with any data structure.
func SendJSONResponse(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"code":"INTERNAL_ERROR","message":"failed to encode response"}`)
	}
}
