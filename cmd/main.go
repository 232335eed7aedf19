package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/backends"
	"github.com/quickserve/quickserve/backends/localfs"
	"github.com/quickserve/quickserve/backends/s3"
	"github.com/quickserve/quickserve/config"
	"github.com/quickserve/quickserve/core"
	"github.com/quickserve/quickserve/server"
)

var rootCmd = &cobra.Command{
	Use:   "quickserve",
	Short: "QuickServe - self-hosted file sharing server",
	Long: `QuickServe serves a directory (or an S3 bucket) over an authenticated
HTTP API with per-user permissions and brute-force protection.`,
}

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the QuickServe server",
	Long:  "Start the QuickServe server with the configured storage backend and API endpoints",
	RunE:  runServer,
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management commands",
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration",
	Long:  "Validate the QuickServe configuration and display the loaded settings",
	RunE:  validateConfig,
}

var hashCmd = &cobra.Command{
	Use:   "hash",
	Short: "Hash a password for the users section of the config file",
	Long: `Read a password from the terminal and print its bcrypt hash.
Paste the hash into the users section of the config file.`,
	RunE: hashPassword,
}

var configFilePath string

func main() {
	// Add flags to server command
	serverCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")
	validateCmd.Flags().StringVarP(&configFilePath, "config", "c", "", "Path to configuration file")

	// Add subcommands
	configCmd.AddCommand(validateCmd)
	rootCmd.AddCommand(serverCmd, configCmd, hashCmd)

	// If no command specified, default to server
	if len(os.Args) == 1 {
		os.Args = append(os.Args, "server")
	}

	if err := rootCmd.Execute(); err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// runServer starts the QuickServe server
func runServer(cmd *cobra.Command, args []string) error {
	// Load configuration
	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	// Initialize logger
	logger, err := initializeLogger(cfg.Log)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() {
		if err := logger.Sync(); err != nil {
			// Log to stderr since logger may not be working
			fmt.Fprintf(os.Stderr, "Failed to sync logger: %v\n", err)
		}
	}()

	logger.Info("Starting QuickServe server",
		zap.String("listen_addr", cfg.Server.ListenAddr),
		zap.String("backend", cfg.Backend.Type))

	// Initialize storage backend
	logger.Info("Initializing storage backend")
	var storage backends.Storage
	switch cfg.Backend.Type {
	case "localfs":
		storage, err = localfs.NewAdapter(cfg.Backend.RootPath)
		if err != nil {
			return fmt.Errorf("failed to initialize localfs backend: %w", err)
		}
	case "s3":
		storage, err = s3.NewAdapter(s3.Options{
			AccessKey: cfg.Backend.S3AccessKey,
			SecretKey: cfg.Backend.S3SecretKey,
			Region:    cfg.Backend.S3Region,
			Bucket:    cfg.Backend.S3BucketName,
			Endpoint:  cfg.Backend.S3Endpoint,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to initialize s3 backend: %w", err)
		}
	default:
		return fmt.Errorf("unknown backend type: %s", cfg.Backend.Type)
	}
	defer storage.Close()

	// Initialize authentication
	logger.Info("Initializing authentication",
		zap.Bool("brute_force_protection", cfg.Auth.BruteForce.Enabled))
	store, err := auth.NewCredentialStore(cfg.Users)
	if err != nil {
		return fmt.Errorf("failed to load user credentials: %w", err)
	}
	guard := auth.NewBruteForceGuard(bruteForcePolicy(cfg.Auth.BruteForce), logger)
	authenticator := auth.NewAuthenticator(store, guard, auth.BcryptComparer{}, logger)

	tokens, err := auth.NewTokenManager(cfg.Auth.SessionTTL)
	if err != nil {
		return fmt.Errorf("failed to initialize session tokens: %w", err)
	}

	// Initialize core engine
	logger.Info("Initializing file operation engine",
		zap.Bool("use_recycle_bin", cfg.UseRecycleBin))
	engine := core.NewEngine(storage, cfg.Backend.Type, cfg.UseRecycleBin, logger)

	// Initialize HTTP router
	logger.Info("Initializing HTTP router")
	router := server.NewRouter(engine, authenticator, tokens, &cfg, logger)

	// Create HTTP server
	srv := &http.Server{
		Addr:         cfg.Server.ListenAddr,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", cfg.Server.ListenAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Create a deadline for shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	// Attempt graceful shutdown
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
		return err
	}

	logger.Info("Server exited gracefully")
	return nil
}

// bruteForcePolicy converts the config file's second-based fields into
// the guard's duration-based policy.
func bruteForcePolicy(cfg config.BruteForceConfig) auth.BruteForcePolicy {
	return auth.BruteForcePolicy{
		Enabled:                   cfg.Enabled,
		MaxAttemptsBeforeCooldown: cfg.MaxAttemptsBeforeCooldown,
		InitialCooldown:           time.Duration(cfg.InitialCooldown) * time.Second,
		CooldownIncrement:         time.Duration(cfg.CooldownIncrement) * time.Second,
		MaxAttemptsBeforeLockout:  cfg.MaxAttemptsBeforeLockout,
		LockoutDuration:           time.Duration(cfg.LockoutDuration) * time.Second,
	}
}

// validateConfig validates the QuickServe configuration and displays settings
func validateConfig(cmd *cobra.Command, args []string) error {
	fmt.Println("Validating configuration...")

	cfg, err := config.LoadConfigFromFile(configFilePath)
	if err != nil {
		fmt.Printf("Configuration validation failed: %v\n", err)
		return err
	}

	fmt.Println("Configuration is valid")
	fmt.Printf("Listen Address: %s\n", cfg.Server.ListenAddr)
	fmt.Printf("Backend: %s\n", cfg.Backend.Type)
	if cfg.Backend.Type == "localfs" {
		fmt.Printf("Share Root: %s\n", cfg.Backend.RootPath)
	}
	if cfg.Backend.S3BucketName != "" {
		fmt.Printf("S3 Bucket: %s\n", cfg.Backend.S3BucketName)
		fmt.Printf("S3 Region: %s\n", cfg.Backend.S3Region)
	}
	fmt.Printf("Users: %d\n", len(cfg.Users))
	fmt.Printf("Session TTL: %s\n", cfg.Auth.SessionTTL)
	fmt.Printf("Brute-Force Protection: %t\n", cfg.Auth.BruteForce.Enabled)
	fmt.Printf("Recycle Bin: %t\n", cfg.UseRecycleBin)

	return nil
}

// hashPassword reads a password without echo and prints its bcrypt hash
func hashPassword(cmd *cobra.Command, args []string) error {
	fmt.Fprint(os.Stderr, "Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return fmt.Errorf("failed to read password: %w", err)
	}
	if len(password) == 0 {
		return fmt.Errorf("empty password")
	}

	hash, err := bcrypt.GenerateFromPassword(password, bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	fmt.Println(string(hash))
	return nil
}

// initializeLogger creates a zap logger based on configuration
func initializeLogger(logCfg config.LogConfig) (*zap.Logger, error) {
	var cfg zap.Config

	if logCfg.Format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}

	// Set log level
	switch logCfg.Level {
	case "debug":
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	case "info":
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	case "warn":
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	case "error":
		cfg.Level = zap.NewAtomicLevelAt(zap.ErrorLevel)
	default:
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}

	return cfg.Build()
}
