// Package config provides configuration management for QuickServe.
// It handles loading and validating configuration from YAML/JSON files
// and environment variables.
package config

import "time"

// AppConfig represents the complete application configuration.
type AppConfig struct {
	Server        ServerConfig  `koanf:"server"`
	Auth          AuthConfig    `koanf:"auth"`
	Log           LogConfig     `koanf:"log"`
	Metrics       MetricsConfig `koanf:"metrics"`
	Backend       BackendConfig `koanf:"backend"`
	UseRecycleBin bool          `koanf:"use_recycle_bin"`

	// Users maps username to either a bare bcrypt hash string (legacy)
	// or a structured record with password_hash and permission flags.
	// auth.NewCredentialStore normalizes the two shapes at startup.
	Users map[string]interface{} `koanf:"users"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	ListenAddr     string        `koanf:"listen_addr"`
	ReadTimeout    time.Duration `koanf:"read_timeout"`
	WriteTimeout   time.Duration `koanf:"write_timeout"`
	RequestTimeout time.Duration `koanf:"request_timeout"`
}

// AuthConfig holds session and brute-force protection configuration.
type AuthConfig struct {
	SessionTTL    time.Duration    `koanf:"session_ttl"`
	LoginRate     float64          `koanf:"login_rate"`
	LoginBurst    int              `koanf:"login_burst"`
	BruteForce    BruteForceConfig `koanf:"brute_force_protection"`
}

// BruteForceConfig holds the failed-login guard policy. The *_cooldown
// and duration fields are in seconds, matching the config file format
// this server has always used.
type BruteForceConfig struct {
	Enabled                   bool `koanf:"enabled"`
	MaxAttemptsBeforeCooldown int  `koanf:"max_attempts_before_cooldown"`
	InitialCooldown           int  `koanf:"initial_cooldown"`
	CooldownIncrement         int  `koanf:"cooldown_increment"`
	MaxAttemptsBeforeLockout  int  `koanf:"max_attempts_before_lockout"`
	LockoutDuration           int  `koanf:"lockout_duration"`
}

// LogConfig holds logging configuration.
type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// MetricsConfig holds metrics server configuration.
type MetricsConfig struct {
	Enabled bool `koanf:"enabled"`
}

// BackendConfig holds storage backend configuration. The share root
// is served either from a local directory or from an S3 bucket.
type BackendConfig struct {
	Type         string `koanf:"type"` // "localfs" or "s3"
	RootPath     string `koanf:"root_path"`
	S3AccessKey  string `koanf:"s3_access_key"`
	S3SecretKey  string `koanf:"s3_secret_key"`
	S3Region     string `koanf:"s3_region"`
	S3BucketName string `koanf:"s3_bucket_name"`
	S3Endpoint   string `koanf:"s3_endpoint"` // custom endpoint (e.g. MinIO)
}
