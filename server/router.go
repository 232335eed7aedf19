// Package server assembles the HTTP router of the QuickServe API.
package server

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/quickserve/quickserve/auth"
	"github.com/quickserve/quickserve/config"
	"github.com/quickserve/quickserve/core"
	"github.com/quickserve/quickserve/metrics"
	"github.com/quickserve/quickserve/server/handlers"
	authMiddleware "github.com/quickserve/quickserve/server/middleware"
)

// NewRouter creates and configures the HTTP router.
func NewRouter(
	engine *core.Engine,
	authenticator *auth.Authenticator,
	tokens *auth.TokenManager,
	cfg *config.AppConfig,
	logger *zap.Logger,
) chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(authMiddleware.RequestID())
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(cfg.Server.RequestTimeout))
	r.Use(authMiddleware.SecurityHeaders())

	// Custom logging and metrics middleware
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			duration := time.Since(start)

			metrics.HTTPRequestsTotal.WithLabelValues(
				r.Method,
				r.URL.Path,
				http.StatusText(ww.Status()),
			).Inc()

			metrics.HTTPRequestDuration.WithLabelValues(
				r.Method,
				r.URL.Path,
			).Observe(duration.Seconds())

			logger.Info("HTTP request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", ww.Status()),
				zap.Duration("duration", duration),
				zap.String("user_agent", r.UserAgent()),
				zap.String("remote_addr", r.RemoteAddr))
		})
	})

	// Health check endpoint (no auth required)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte(`{"status":"ok"}`)); err != nil {
			logger.Error("failed to write health check response", zap.Error(err))
		}
	})

	// Metrics endpoint (no auth required)
	if cfg.Metrics.Enabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Credential exchange, rate limited per process
		loginLimiter := rate.NewLimiter(rate.Limit(cfg.Auth.LoginRate), cfg.Auth.LoginBurst)
		r.With(authMiddleware.LoginRateLimit(loginLimiter, logger)).
			Post("/login", handlers.Login(authenticator, tokens, logger))

		// Everything else requires a verified session token
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.SessionAuth(tokens, logger))

			r.Get("/files", handlers.ListDirectory(engine, logger))
			r.Delete("/files", handlers.DeleteFile(engine, logger))
			r.Get("/download", handlers.DownloadFile(engine, logger))
			r.Post("/upload", handlers.UploadFile(engine, logger))
			r.Get("/preview", handlers.PreviewFile(engine, logger))
			r.Get("/search", handlers.SearchFiles(engine, logger))
			r.Get("/archive", handlers.ArchiveDirectory(engine, logger))
		})
	})

	return r
}
