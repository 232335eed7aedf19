package auth

import (
	"golang.org/x/crypto/bcrypt"
)

// Comparer checks a presented credential against a stored hash. The
// browser frontend pre-hashes passwords with SHA-256 before sending
// them, so what arrives here is already a digest; keeping the
// comparison pluggable leaves that protocol detail out of the core.
type Comparer interface {
	Compare(storedHash, presented string) error
}

// BcryptComparer verifies bcrypt hashes. bcrypt's own comparison is
// constant-time over the derived key.
type BcryptComparer struct{}

// Compare returns nil when presented matches the stored bcrypt hash.
func (BcryptComparer) Compare(storedHash, presented string) error {
	return bcrypt.CompareHashAndPassword([]byte(storedHash), []byte(presented))
}

// dummyHash is a bcrypt hash of random bytes. Lookup misses are
// compared against it so unknown usernames cost the same time as
// wrong passwords.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"
