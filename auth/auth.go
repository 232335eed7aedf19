// Package auth implements credential verification, brute-force
// mitigation, and session-token issuance for QuickServe. All state it
// keeps is in-memory: restarting the process clears cooldowns and
// lockouts and invalidates every outstanding token.
package auth

import "errors"

// Authentication and authorization errors. Invalid username and wrong
// password deliberately share one error so callers cannot probe which
// usernames exist.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountLocked      = errors.New("account locked")
	ErrTooManyAttempts    = errors.New("too many failed attempts")
	ErrTokenExpired       = errors.New("session token expired")
	ErrTokenInvalid       = errors.New("session token invalid")
	ErrPermissionDenied   = errors.New("permission denied")
)

// PermissionSet holds the per-user operation flags.
type PermissionSet struct {
	CanUpload     bool `json:"can_upload"`
	CanDownload   bool `json:"can_download"`
	CanSeePreview bool `json:"can_see_preview"`
	CanDelete     bool `json:"can_delete"`
}

// AllPermissions returns a PermissionSet with every flag enabled.
// Users configured before the permission model existed widen to this.
func AllPermissions() PermissionSet {
	return PermissionSet{
		CanUpload:     true,
		CanDownload:   true,
		CanSeePreview: true,
		CanDelete:     true,
	}
}

// Identity is the verified result of a session token: who the caller
// is and the permission snapshot taken at login. The snapshot is
// deliberately stale — permission edits in configuration take effect
// at the next login, not on outstanding tokens.
type Identity struct {
	Username string
	Perms    PermissionSet
}
