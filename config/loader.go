package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// LoadConfig loads configuration from multiple sources with strict priority:
// 1. Environment variables (highest priority)
// 2. Config file (config.yaml or config.json)
// 3. Defaults (lowest priority)
func LoadConfig() (AppConfig, error) {
	return LoadConfigFromFile("")
}

// LoadConfigFromFile loads configuration like LoadConfig but from a
// specific config file when one is given.
func LoadConfigFromFile(configFilePath string) (AppConfig, error) {
	k := koanf.New(".")

	defaultCfg := DefaultAppConfig()
	if err := k.Load(structs.Provider(defaultCfg, "koanf"), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load default config: %w", err)
	}

	if configFilePath != "" {
		if _, err := os.Stat(configFilePath); err != nil {
			return AppConfig{}, fmt.Errorf("specified config file %s not found: %w", configFilePath, err)
		}
		if err := k.Load(file.Provider(configFilePath), parserFor(configFilePath)); err != nil {
			return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFilePath, err)
		}
	} else {
		// Load from default config files if they exist.
		for _, configFile := range []string{"config.yaml", "config.yml", "config.json"} {
			if _, err := os.Stat(configFile); err == nil {
				if err := k.Load(file.Provider(configFile), parserFor(configFile)); err != nil {
					return AppConfig{}, fmt.Errorf("failed to load config file %s: %w", configFile, err)
				}
				break
			}
		}
	}

	// Environment variables with QUICKSERVE_ prefix override the file.
	if err := k.Load(env.Provider("QUICKSERVE_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "QUICKSERVE_")), "_", ".", -1)
	}), nil); err != nil {
		return AppConfig{}, fmt.Errorf("failed to load environment variables: %w", err)
	}

	var cfg AppConfig
	if err := k.Unmarshal("", &cfg); err != nil {
		return AppConfig{}, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := validateConfig(&cfg); err != nil {
		return AppConfig{}, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func parserFor(path string) koanf.Parser {
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		return yaml.Parser()
	}
	return json.Parser()
}

// validateConfig validates that required configuration fields are set.
func validateConfig(cfg *AppConfig) error {
	if cfg.Server.ListenAddr == "" {
		return fmt.Errorf("server.listen_addr is required")
	}

	if len(cfg.Users) == 0 {
		return fmt.Errorf("at least one user must be configured")
	}

	switch cfg.Backend.Type {
	case "localfs":
		if cfg.Backend.RootPath == "" {
			return fmt.Errorf("backend.root_path is required for the localfs backend")
		}
	case "s3":
		if cfg.Backend.S3BucketName == "" {
			return fmt.Errorf("backend.s3_bucket_name is required for the s3 backend")
		}
	default:
		return fmt.Errorf("backend.type must be \"localfs\" or \"s3\", got %q", cfg.Backend.Type)
	}

	if cfg.Auth.SessionTTL <= 0 {
		return fmt.Errorf("auth.session_ttl must be positive")
	}

	bf := cfg.Auth.BruteForce
	if bf.Enabled {
		if bf.MaxAttemptsBeforeCooldown <= 0 || bf.MaxAttemptsBeforeLockout <= 0 {
			return fmt.Errorf("brute_force_protection thresholds must be positive when enabled")
		}
		if bf.MaxAttemptsBeforeLockout < bf.MaxAttemptsBeforeCooldown {
			return fmt.Errorf("brute_force_protection lockout threshold must not be below the cooldown threshold")
		}
		if bf.InitialCooldown < 0 || bf.CooldownIncrement < 0 || bf.LockoutDuration <= 0 {
			return fmt.Errorf("brute_force_protection durations must be positive when enabled")
		}
	}

	return nil
}
