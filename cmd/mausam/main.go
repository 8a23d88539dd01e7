package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"go.uber.org/zap"

	httpapi "github.com/mausam360/backend/internal/api/http"
	"github.com/mausam360/backend/internal/cache"
	"github.com/mausam360/backend/internal/config"
	"github.com/mausam360/backend/internal/logging"
	"github.com/mausam360/backend/internal/preferences"
	"github.com/mausam360/backend/internal/scheduler"
	"github.com/mausam360/backend/internal/store"
	"github.com/mausam360/backend/internal/weather"
	"github.com/mausam360/backend/internal/weather/providers"
)

// backend is a cache or preference store that can report its health.
type backend interface {
	Health(ctx context.Context) error
}

// locationCache is what the service and the sweep job need from a cache.
type locationCache interface {
	weather.Cache
	scheduler.Sweeper
	backend
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Fatalf("mausam: %v", err)
	}
}

// run starts the server and blocks until ctx is done. Startup failures are
// returned after every resource opened so far has been released.
func run(ctx context.Context) error {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	zlog, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer zlog.Sync() //nolint:errcheck

	// Shared HTTP client for outbound provider calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}
	provider := providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey, cfg.OpenWeatherBaseURL)
	if cfg.OpenWeatherAPIKey == "" {
		zlog.Warn("OPENWEATHER_API_KEY is not set; upstream calls will fail")
	}

	// Storage: postgres when configured, in-memory otherwise.
	var (
		locCache locationCache
		prefRepo preferences.Repository
		prefDB   backend
	)
	if cfg.DatabaseURL != "" {
		dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		db, err := store.Open(dbCtx, cfg.DatabaseURL)
		if err != nil {
			cancel()
			return fmt.Errorf("open database: %w", err)
		}
		defer db.Close()
		err = db.Migrate(dbCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}

		locCache = cache.NewPostgres(db.Pool())
		prefRepo = store.NewPreferenceRepository(db)
		prefDB = db
		zlog.Info("using postgres storage")
	} else {
		mem := store.NewMemoryStore()
		locCache = cache.NewMemory()
		prefRepo = mem
		prefDB = mem
		zlog.Info("DATABASE_URL not set; using in-memory storage")
	}

	// Core services.
	weatherSvc := weather.NewService(provider, locCache, zlog.Named("weather"))
	prefSvc := preferences.NewService(prefRepo, zlog.Named("preferences"))

	// Periodic cache maintenance.
	sched := scheduler.New(scheduler.Config{
		SweepInterval: cfg.CacheSweepInterval,
		WarmInterval:  cfg.WarmInterval,
		Locations:     cfg.WarmLocations,
	}, locCache, weatherSvc, zlog.Named("scheduler"))
	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}
	defer sched.Stop()

	app := newApp(cfg, zlog)

	app.Get("/health", func(c *fiber.Ctx) error {
		status := fiber.StatusOK
		checks := fiber.Map{"cache": "ok", "preferences": "ok"}
		if err := locCache.Health(c.UserContext()); err != nil {
			status = fiber.StatusServiceUnavailable
			checks["cache"] = err.Error()
		}
		if err := prefDB.Health(c.UserContext()); err != nil {
			status = fiber.StatusServiceUnavailable
			checks["preferences"] = err.Error()
		}
		return c.Status(status).JSON(fiber.Map{
			"success":   status == fiber.StatusOK,
			"service":   "mausam360",
			"checks":    checks,
			"timestamp": time.Now().UTC(),
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, weatherSvc, prefSvc, zlog.Named("http"))

	go func() {
		zlog.Info("server starting", zap.String("port", cfg.Port))
		if err := app.Listen(":" + cfg.Port); err != nil {
			zlog.Error("fiber server stopped", zap.Error(err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		zlog.Error("error during shutdown", zap.Error(err))
	}
	zlog.Info("server exited")
	return nil
}

func newApp(cfg *config.AppConfig, zlog *zap.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "mausam360",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          20 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler(zlog.Named("http")),
	})

	// Global middleware
	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${locals:requestid} ${status} - ${method} ${path} (${latency})\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.FrontendURL,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept",
		AllowCredentials: cfg.FrontendURL != "*",
	}))

	return app
}
