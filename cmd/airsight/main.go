package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/cleanairsight/airsight/internal/airquality"
	httpapi "github.com/cleanairsight/airsight/internal/api/http"
	"github.com/cleanairsight/airsight/internal/config"
	"github.com/cleanairsight/airsight/internal/forecast"
	"github.com/cleanairsight/airsight/internal/ingest"
	"github.com/cleanairsight/airsight/internal/scheduler"
	"github.com/cleanairsight/airsight/internal/store"
)

func main() {
	// Load configuration (reads .env when present).
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	// Shared HTTP client for outbound source calls.
	httpClient := &http.Client{
		Timeout: cfg.HTTPTimeout,
	}

	// In-memory store with configured retention, plus the raw inbox the
	// fetch jobs feed and the pipeline drains.
	memStore := store.NewMemoryStore(cfg.StoreMaxHistory, cfg.StoreMaxAge)
	inbox := store.NewRawInbox(0)

	// SQLite-backed model artifacts so trained models survive restarts.
	modelStore, err := forecast.NewSQLiteModelStore(cfg.ModelDBPath)
	if err != nil {
		log.Fatalf("failed to open model store: %v", err)
	}
	defer modelStore.Close()

	engine := forecast.NewEngine(modelStore, cfg.ModelType)

	// Ingestion sources with resilience (backoff + circuit breaker).
	satellite := ingest.NewTempoSource(httpClient, cfg.TempoGatewayURL, cfg.TempoToken)
	ground := ingest.NewOpenAQSource(httpClient, cfg.OpenAQAPIKey)
	weather := ingest.NewOpenWeatherSource(httpClient, cfg.OpenWeatherAPIKey, cfg.GoogleAPIKey)

	harmonizer := airquality.NewHarmonizer()
	validator := airquality.NewValidator(cfg.DiscrepancyThreshold)

	// Scheduler that periodically fetches, harmonizes, validates, forecasts
	// and retrains.
	sched := scheduler.New(cfg, scheduler.Deps{
		Satellite:  satellite,
		Ground:     ground,
		Weather:    weather,
		Inbox:      inbox,
		Store:      memStore,
		Harmonizer: harmonizer,
		Validator:  validator,
		Engine:     engine,
	})
	if err := sched.Start(); err != nil {
		log.Fatalf("failed to start scheduler: %v", err)
	}
	defer sched.Stop()

	// Basic app configuration
	app := fiber.New(fiber.Config{
		AppName:               "airsight",
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			// Centralized error response
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	// Basic health endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": "airsight",
		})
	})

	// API routes.
	httpapi.RegisterRoutes(app, httpapi.Deps{
		Store:        memStore,
		Validator:    validator,
		HorizonHours: cfg.ForecastHorizonHours,
		TriggerRun:   sched.HarmonizeAndValidate,
	})

	go func() {
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("fiber server stopped: %v", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("error during shutdown: %v", err)
	}
}
