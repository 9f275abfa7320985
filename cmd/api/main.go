package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/brightraise/couponbook-platform/internal/config"
	"github.com/brightraise/couponbook-platform/internal/handler"
	"github.com/brightraise/couponbook-platform/internal/ratelimit"
	"github.com/brightraise/couponbook-platform/internal/repository"
	"github.com/brightraise/couponbook-platform/internal/service"
	"github.com/brightraise/couponbook-platform/internal/validator"
	"github.com/brightraise/couponbook-platform/pkg/database"
)

func main() {
	// Load configuration first
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	// Initialize zerolog based on configuration
	initLogger(cfg)

	// Create context for startup
	ctx := context.Background()

	// Initialize database pool with retry
	pool, err := database.NewPool(ctx, cfg.DB.DSN(), database.PoolOptions{
		MaxConns:   int32(cfg.DB.MaxConns),
		MinConns:   int32(cfg.DB.MinConns),
		MaxRetries: 5,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}

	// Rate limiter: shared Redis store when configured, in-process otherwise.
	// stopJanitor is non-nil only when the memory store runs its sweeper.
	var stopJanitor chan struct{}
	var limitStore ratelimit.Store
	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limitStore = ratelimit.NewRedisStore(redisClient, "couponbook")
		log.Info().Str("addr", cfg.Redis.Addr).Msg("using redis rate limit store")
	} else {
		stopJanitor = make(chan struct{})
		limitStore = ratelimit.NewMemoryStore(time.Minute, stopJanitor)
		log.Info().Msg("using in-memory rate limit store")
	}
	limitWindow := time.Duration(cfg.RateLimit.WindowS) * time.Second

	// Initialize Fiber with production-ready configuration
	app := fiber.New(fiber.Config{
		AppName:      "Coupon Book Platform",
		ReadTimeout:  30 * time.Second,  // Max time to read request
		WriteTimeout: 30 * time.Second,  // Max time to write response
		IdleTimeout:  120 * time.Second, // Max time for keep-alive connections
		BodyLimit:    1 * 1024 * 1024,   // 1MB body limit (explicit, prevents large payloads)
	})

	// Middleware
	app.Use(recover.New())
	app.Use(requestid.New()) // Adds X-Request-ID header to all requests
	app.Use(logger.New())

	// Initialize validator
	validate := validator.New()

	// Initialize components (layered architecture)
	ruleRepo := repository.NewRuleRepository(pool)
	profileRepo := repository.NewProfileRepository(pool)
	grantRepo := repository.NewGrantRepository(pool)
	journalRepo := repository.NewJournalRepository(pool)

	ruleService := service.NewRuleService(pool, ruleRepo, profileRepo, grantRepo)
	grantService := service.NewGrantService(pool, grantRepo)
	ledgerService := service.NewLedgerService(pool, journalRepo)

	ruleHandler := handler.NewRuleHandler(ruleService, validate)
	grantHandler := handler.NewGrantHandler(grantService, validate)
	ledgerHandler := handler.NewLedgerHandler(ledgerService, validate)

	var cachePinger handler.Pinger
	if redisClient != nil {
		cachePinger = redisPinger{client: redisClient}
	}
	healthHandler := handler.NewHealthHandler(pool, cachePinger)
	app.Get("/health", healthHandler.Check)

	// Mutation endpoints sit behind the rate limiter
	limited := ratelimit.Middleware(limitStore, cfg.RateLimit.Requests, limitWindow)

	// Targeting rule routes
	app.Post("/api/rules", limited, ruleHandler.CreateRule)
	app.Get("/api/rules", ruleHandler.ListRules)
	app.Get("/api/rules/:id", ruleHandler.GetRule)
	app.Put("/api/rules/:id", limited, ruleHandler.UpdateRule)
	app.Delete("/api/rules/:id", limited, ruleHandler.DeactivateRule)
	app.Post("/api/rules/:id/preview", ruleHandler.PreviewRule)
	app.Post("/api/rules/:id/apply", limited, ruleHandler.ApplyRule)

	// Grant routes
	app.Get("/api/users/:user_id/grants", grantHandler.ListUserGrants)
	app.Post("/api/grants/redeem", limited, grantHandler.RedeemGrant)

	// Ledger routes
	app.Post("/api/ledger/events", limited, ledgerHandler.RecordEvent)
	app.Get("/api/ledger/entries/:id", ledgerHandler.GetEntry)
	app.Get("/api/ledger/trial-balance", ledgerHandler.TrialBalance)

	// Start server with graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("starting server")
		if err := app.Listen(":" + cfg.Server.Port); err != nil {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	log.Info().Str("signal", sig.String()).Msg("received shutdown signal")
	log.Info().Int("timeout_seconds", cfg.Server.ShutdownTimeout).Msg("shutting down server...")

	// Create shutdown context with timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(
		context.Background(),
		time.Duration(cfg.Server.ShutdownTimeout)*time.Second,
	)
	defer shutdownCancel()

	// Shutdown server (waits for in-flight requests)
	log.Info().Msg("waiting for in-flight requests to complete...")
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}

	// Close backends AFTER server shutdown (even if shutdown timed out)
	if stopJanitor != nil {
		close(stopJanitor)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error().Err(err).Msg("error closing redis client")
		}
	}
	log.Info().Msg("closing database connections...")
	pool.Close()
	log.Info().Msg("database connections closed")
	log.Info().Msg("server stopped")
}

// redisPinger adapts go-redis's status-returning Ping to handler.Pinger.
type redisPinger struct {
	client *redis.Client
}

func (p redisPinger) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// initLogger configures zerolog based on the application configuration.
func initLogger(cfg *config.Config) {
	// Set log level
	level, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	// Configure output format
	if cfg.Log.Pretty {
		// Human-readable output for development
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).
			With().Timestamp().Logger()
	} else {
		// JSON output for production
		zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
		log.Logger = zerolog.New(os.Stdout).With().Timestamp().Logger()
	}
}
