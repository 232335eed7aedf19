package auth

import (
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	qlog "github.com/quickserve/quickserve/core/log"
	"github.com/quickserve/quickserve/metrics"
)

// BruteForcePolicy configures the failed-login guard. Durations are
// derived from the config file's second-valued fields.
type BruteForcePolicy struct {
	Enabled                   bool
	MaxAttemptsBeforeCooldown int
	InitialCooldown           time.Duration
	CooldownIncrement         time.Duration
	MaxAttemptsBeforeLockout  int
	LockoutDuration           time.Duration
}

// failureRecord tracks failed attempts for one username. Created on
// the first failure, deleted on the first success.
type failureRecord struct {
	attempts      int
	lastAttempt   time.Time
	cooldownUntil time.Time
}

// lockoutRecord marks a username as hard-locked. Purged once the
// lockout duration has elapsed.
type lockoutRecord struct {
	lockedAt time.Time
	attempts int
}

// BruteForceGuard throttles repeated failed logins per username with
// an escalating cooldown and a hard lockout backstop. All state is
// in-memory and owned exclusively by the guard; a restart resets
// every cooldown and lockout, which is documented behavior.
//
// Timestamps come from time.Now and all window arithmetic is done by
// subtracting time.Time values, so it rides Go's monotonic clock and
// stays correct across wall-clock adjustments. Wall time appears only
// in user-facing messages.
type BruteForceGuard struct {
	mu       sync.Mutex
	policy   BruteForcePolicy
	failures map[string]*failureRecord
	lockouts map[string]*lockoutRecord
	now      func() time.Time
	logger   *zap.Logger
}

// NewBruteForceGuard creates a guard with empty state.
func NewBruteForceGuard(policy BruteForcePolicy, logger *zap.Logger) *BruteForceGuard {
	return &BruteForceGuard{
		policy:   policy,
		failures: make(map[string]*failureRecord),
		lockouts: make(map[string]*lockoutRecord),
		now:      time.Now,
		logger:   logger,
	}
}

// IsLocked reports whether a username is under an active lockout.
// An expired lockout is purged on the spot, restoring the username
// to clean standing.
func (g *BruteForceGuard) IsLocked(username string) (bool, string) {
	if !g.policy.Enabled {
		return false, ""
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	lr, ok := g.lockouts[username]
	if !ok {
		return false, ""
	}

	elapsed := g.now().Sub(lr.lockedAt)
	if elapsed >= g.policy.LockoutDuration {
		delete(g.lockouts, username)
		delete(g.failures, username)
		metrics.LockoutsActive.Dec()
		g.logger.Info("lockout expired", zap.String("user", qlog.User(username)))
		return false, ""
	}

	remaining := g.policy.LockoutDuration - elapsed
	return true, fmt.Sprintf("account locked; try again in %s", remaining.Round(time.Second))
}

// RecordFailure registers a failed login attempt. Inside an active
// cooldown window the attempt is rejected without being counted
// again; otherwise the attempt counter advances and the cooldown and
// lockout thresholds are evaluated, in that order.
func (g *BruteForceGuard) RecordFailure(username string) (bool, string) {
	if !g.policy.Enabled {
		return false, ""
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()

	fr, ok := g.failures[username]
	if !ok {
		fr = &failureRecord{}
		g.failures[username] = fr
	}

	// An attempt inside the cooldown window is throttled, not counted.
	if now.Before(fr.cooldownUntil) {
		remaining := fr.cooldownUntil.Sub(now)
		return true, fmt.Sprintf("too many failed attempts; try again in %d seconds",
			int(remaining.Round(time.Second).Seconds()))
	}

	fr.attempts++
	fr.lastAttempt = now

	if fr.attempts >= g.policy.MaxAttemptsBeforeCooldown {
		escalation := time.Duration(fr.attempts-g.policy.MaxAttemptsBeforeCooldown) * g.policy.CooldownIncrement
		fr.cooldownUntil = now.Add(g.policy.InitialCooldown + escalation)
	}

	if fr.attempts >= g.policy.MaxAttemptsBeforeLockout {
		if _, already := g.lockouts[username]; !already {
			metrics.LockoutsActive.Inc()
		}
		g.lockouts[username] = &lockoutRecord{
			lockedAt: now,
			attempts: fr.attempts,
		}
		g.logger.Warn("account locked out",
			zap.String("user", qlog.User(username)),
			zap.Int("attempts", fr.attempts))
		return true, fmt.Sprintf("account locked; try again in %s",
			g.policy.LockoutDuration.Round(time.Second))
	}

	return false, ""
}

// RecordSuccess clears all failure and lockout state for a username.
// A successful login always fully restores standing.
func (g *BruteForceGuard) RecordSuccess(username string) {
	if !g.policy.Enabled {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	delete(g.failures, username)
	if _, ok := g.lockouts[username]; ok {
		delete(g.lockouts, username)
		metrics.LockoutsActive.Dec()
	}
}
