package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigFromYAML(t *testing.T) {
	path := writeConfig(t, "config.yaml", `
server:
  listen_addr: ":9000"
auth:
  session_ttl: 1h
  brute_force_protection:
    enabled: true
    max_attempts_before_cooldown: 5
backend:
  type: localfs
  root_path: /srv/share
use_recycle_bin: false
users:
  alice: "$2a$10$legacyhash"
  bob:
    password_hash: "$2a$10$structuredhash"
    can_download: true
`)

	cfg, err := LoadConfigFromFile(path)
	if err != nil {
		t.Fatalf("LoadConfigFromFile: %v", err)
	}

	if cfg.Server.ListenAddr != ":9000" {
		t.Errorf("listen_addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Auth.SessionTTL != time.Hour {
		t.Errorf("session_ttl = %v", cfg.Auth.SessionTTL)
	}
	if cfg.Auth.BruteForce.MaxAttemptsBeforeCooldown != 5 {
		t.Errorf("max_attempts_before_cooldown = %d", cfg.Auth.BruteForce.MaxAttemptsBeforeCooldown)
	}
	// Unset policy fields keep their defaults.
	if cfg.Auth.BruteForce.LockoutDuration != 86400 {
		t.Errorf("lockout_duration = %d", cfg.Auth.BruteForce.LockoutDuration)
	}
	if cfg.UseRecycleBin {
		t.Error("use_recycle_bin should be false")
	}
	if len(cfg.Users) != 2 {
		t.Errorf("users = %v", cfg.Users)
	}
	if _, ok := cfg.Users["alice"].(string); !ok {
		t.Errorf("alice should stay a raw string entry, got %T", cfg.Users["alice"])
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name    string
		content string
	}{
		{
			name: "no users",
			content: `
backend:
  type: localfs
  root_path: /srv/share
`,
		},
		{
			name: "bad backend type",
			content: `
backend:
  type: tape
users:
  alice: "$2a$10$x"
`,
		},
		{
			name: "s3 without bucket",
			content: `
backend:
  type: s3
users:
  alice: "$2a$10$x"
`,
		},
		{
			name: "lockout threshold below cooldown threshold",
			content: `
backend:
  type: localfs
  root_path: /srv/share
users:
  alice: "$2a$10$x"
auth:
  brute_force_protection:
    enabled: true
    max_attempts_before_cooldown: 10
    max_attempts_before_lockout: 3
`,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			path := writeConfig(t, "config.yaml", tc.content)
			if _, err := LoadConfigFromFile(path); err == nil {
				t.Error("expected validation error, got none")
			}
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfigFromFile("/nonexistent/config.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
