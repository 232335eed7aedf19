// Package log provides log-field sanitization so that filenames and
// usernames do not leak into production logs verbatim.
package log

import (
	"crypto/sha256"
	"fmt"
	"os"
	"strings"
)

// Mode controls how sensitive values appear in logs.
type Mode int

const (
	// ProductionMode hashes sensitive values.
	ProductionMode Mode = iota
	// DevelopmentMode truncates sensitive values.
	DevelopmentMode
	// DebugMode logs values verbatim.
	DebugMode
)

var currentMode = ProductionMode

func init() {
	switch strings.ToLower(os.Getenv("QUICKSERVE_LOG_MODE")) {
	case "development":
		currentMode = DevelopmentMode
	case "debug":
		currentMode = DebugMode
	}
}

// Path sanitizes a share-relative path for logging.
func Path(p string) string {
	if p == "" {
		return ""
	}
	switch currentMode {
	case DevelopmentMode:
		if len(p) <= 20 {
			return p
		}
		return p[:10] + "..." + p[len(p)-7:]
	case DebugMode:
		return p
	default:
		hash := sha256.Sum256([]byte(p))
		return fmt.Sprintf("hash:%x", hash[:8])
	}
}

// User sanitizes a username for logging.
func User(u string) string {
	if u == "" {
		return ""
	}
	switch currentMode {
	case DevelopmentMode:
		if len(u) <= 8 {
			return u
		}
		return u[:4] + "****"
	case DebugMode:
		return u
	default:
		hash := sha256.Sum256([]byte(u))
		return fmt.Sprintf("user_hash:%x", hash[:6])
	}
}
