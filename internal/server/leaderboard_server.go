package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/anhbaysgalan1/leaderboardd/internal/auth"
	"github.com/anhbaysgalan1/leaderboardd/internal/cache"
	"github.com/anhbaysgalan1/leaderboardd/internal/config"
	"github.com/anhbaysgalan1/leaderboardd/internal/database"
	"github.com/anhbaysgalan1/leaderboardd/internal/handlers"
	custommiddleware "github.com/anhbaysgalan1/leaderboardd/internal/middleware"
	"github.com/anhbaysgalan1/leaderboardd/internal/scheduler"
	"github.com/anhbaysgalan1/leaderboardd/internal/services"
	"github.com/anhbaysgalan1/leaderboardd/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-redis/redis/v8"
)

// LeaderboardServer owns the process-wide singletons: one store connection,
// one optional redis client, one scheduler, one HTTP server.
type LeaderboardServer struct {
	config           *config.Config
	db               *database.DB
	redisClient      *redis.Client
	service          *services.LeaderboardService
	resetScheduler   *scheduler.Scheduler
	apiKeyMiddleware *auth.APIKeyMiddleware
	apiRateLimiter   *custommiddleware.RateLimiter
	resetRateLimiter *custommiddleware.RateLimiter
	server           *http.Server
}

func NewLeaderboardServer() (*LeaderboardServer, error) {
	// Load configuration
	cfg := config.Load()

	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API_KEY must be set")
	}

	// Setup database
	db, err := database.NewConnection(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Run migrations
	if err := db.AutoMigrate(); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	// Setup optional redis-backed top-N cache
	var redisClient *redis.Client
	var topCache *cache.TopCache
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		redisClient = redis.NewClient(opts)
		if err := redisClient.Ping(context.Background()).Err(); err != nil {
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		topCache = cache.NewTopCache(redisClient)
		slog.Info("Top-N cache enabled")
	}

	// Setup service over the postgres record store
	service := services.NewLeaderboardService(store.NewPostgresStore(db), topCache)

	// Setup calendar reset triggers
	resetScheduler := scheduler.New(service, cfg.Location())

	// Setup auth and rate limiting
	apiKeyMiddleware := auth.NewAPIKeyMiddleware(cfg.APIKey)
	apiRateLimiter := custommiddleware.NewAPIRateLimiter()
	resetRateLimiter := custommiddleware.NewResetRateLimiter()

	return &LeaderboardServer{
		config:           cfg,
		db:               db,
		redisClient:      redisClient,
		service:          service,
		resetScheduler:   resetScheduler,
		apiKeyMiddleware: apiKeyMiddleware,
		apiRateLimiter:   apiRateLimiter,
		resetRateLimiter: resetRateLimiter,
	}, nil
}

func (s *LeaderboardServer) Start() error {
	// Setup router
	router := s.setupRouter()

	// Create HTTP server
	s.server = &http.Server{
		Addr:    ":" + s.config.Port,
		Handler: router,
	}

	// Start calendar reset triggers
	s.resetScheduler.Start()

	// Start server in goroutine
	go func() {
		slog.Info("Starting leaderboard server", "port", s.config.Port)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Server failed to start", "error", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down server...")
	return s.Shutdown()
}

func (s *LeaderboardServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// Shutdown HTTP server
	if err := s.server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	// Stop reset triggers before closing their store connection
	s.resetScheduler.Stop()

	// Close database connection
	if err := s.db.Close(); err != nil {
		slog.Error("Failed to close database connection", "error", err)
	}

	// Close redis connection
	if s.redisClient != nil {
		if err := s.redisClient.Close(); err != nil {
			slog.Error("Failed to close redis connection", "error", err)
		}
	}

	// Close rate limiters
	s.apiRateLimiter.Close()
	s.resetRateLimiter.Close()

	slog.Info("Server shutdown complete")
	return nil
}

func (s *LeaderboardServer) setupRouter() chi.Router {
	r := chi.NewRouter()

	// Basic middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(auth.SecurityHeaders)
	r.Use(s.apiRateLimiter.RateLimit)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", auth.APIKeyHeader},
		MaxAge:         300,
	}))

	// Liveness endpoints, the only routes without an API key
	r.Get("/ping", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message": "pong"}`))
	})
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Everything else requires the pre-shared game server secret
	r.Group(func(r chi.Router) {
		r.Use(s.apiKeyMiddleware.RequireAPIKey)

		leaderboardHandler := handlers.NewLeaderboardHandler(s.service, s.config.Location())
		r.Mount("/leaderboard", leaderboardHandler.Routes())

		// Administrative resets with stricter rate limiting
		r.Group(func(r chi.Router) {
			r.Use(s.resetRateLimiter.RateLimit)

			resetHandler := handlers.NewResetHandler(s.service)
			r.Mount("/reset", resetHandler.Routes())
		})
	})

	return r
}
