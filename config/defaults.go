package config

import "time"

// DefaultAppConfig returns an AppConfig struct with sensible default values.
func DefaultAppConfig() AppConfig {
	return AppConfig{
		Server: ServerConfig{
			ListenAddr:     ":5000",
			ReadTimeout:    30 * time.Second,
			WriteTimeout:   30 * time.Second,
			RequestTimeout: 60 * time.Second,
		},
		Auth: AuthConfig{
			SessionTTL: 24 * time.Hour,
			LoginRate:  5,
			LoginBurst: 10,
			BruteForce: BruteForceConfig{
				Enabled:                   true,
				MaxAttemptsBeforeCooldown: 3,
				InitialCooldown:           10,
				CooldownIncrement:         10,
				MaxAttemptsBeforeLockout:  10,
				LockoutDuration:           86400,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
		},
		Backend: BackendConfig{
			Type:     "localfs",
			RootPath: "./share",
			S3Region: "us-east-1",
		},
		UseRecycleBin: true,
		Users:         map[string]interface{}{},
	}
}
