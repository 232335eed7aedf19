package auth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	qlog "github.com/quickserve/quickserve/core/log"
)

// Authenticator verifies username/credential pairs against the
// credential store under the watch of the brute-force guard.
type Authenticator struct {
	store    *CredentialStore
	guard    *BruteForceGuard
	comparer Comparer
	logger   *zap.Logger
}

// NewAuthenticator creates an authenticator. A nil comparer defaults
// to bcrypt.
func NewAuthenticator(store *CredentialStore, guard *BruteForceGuard, comparer Comparer, logger *zap.Logger) *Authenticator {
	if comparer == nil {
		comparer = BcryptComparer{}
	}
	return &Authenticator{
		store:    store,
		guard:    guard,
		comparer: comparer,
		logger:   logger,
	}
}

// Authenticate verifies a login attempt and returns the user's
// permission set on success.
//
// Unknown usernames and wrong passwords take the same path: both burn
// a bcrypt comparison, both record a failure with the guard, and both
// surface as ErrInvalidCredentials, so callers cannot enumerate
// usernames by timing or by error kind.
func (a *Authenticator) Authenticate(ctx context.Context, username, credential string) (PermissionSet, error) {
	if locked, msg := a.guard.IsLocked(username); locked {
		a.logger.Warn("login rejected, account locked", zap.String("user", qlog.User(username)))
		return PermissionSet{}, fmt.Errorf("%w: %s", ErrAccountLocked, msg)
	}

	cred, found := a.store.Lookup(username)
	storedHash := cred.PasswordHash
	if !found {
		storedHash = dummyHash
	}

	if err := a.comparer.Compare(storedHash, credential); err != nil || !found {
		blocked, msg := a.guard.RecordFailure(username)
		a.logger.Info("login failed", zap.String("user", qlog.User(username)), zap.Bool("throttled", blocked))
		if blocked {
			return PermissionSet{}, fmt.Errorf("%w: %s", ErrTooManyAttempts, msg)
		}
		return PermissionSet{}, ErrInvalidCredentials
	}

	a.guard.RecordSuccess(username)
	a.logger.Info("login succeeded", zap.String("user", qlog.User(username)))
	return cred.Perms, nil
}
