package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	sentryfiber "github.com/getsentry/sentry-go/fiber"
	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/scdri/backend/internal/config"
	"github.com/scdri/backend/internal/database"
	"github.com/scdri/backend/internal/documents"
	"github.com/scdri/backend/internal/geocode"
	"github.com/scdri/backend/internal/handlers"
	"github.com/scdri/backend/internal/logging"
	"github.com/scdri/backend/internal/metrics"
	"github.com/scdri/backend/internal/middleware"
	"github.com/scdri/backend/internal/routes"
	"github.com/scdri/backend/internal/services"
	"github.com/scdri/backend/internal/storage"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBDriver != "sqlite" && cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	db, err := database.Connect(cfg)
	if err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(db); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}

	// PostgreSQL log handler (ERROR+ async batch)
	pgLogHandler := logging.NewPGHandler(db, 5*time.Second)
	logging.WithDatabaseSink(pgLogHandler)

	cleanup, err := logging.StartCleanup(db, cfg.LogCleanupSpec, cfg.LogRetentionDays)
	if err != nil {
		slog.Error("invalid log cleanup schedule", "spec", cfg.LogCleanupSpec, "error", err)
		os.Exit(1)
	}

	store, err := storage.New(context.Background(), cfg)
	if err != nil {
		slog.Error("storage init failed", "driver", cfg.StorageDriver, "error", err)
		os.Exit(1)
	}
	docs, err := documents.NewTemplateGenerator()
	if err != nil {
		slog.Error("document templates failed to parse", "error", err)
		os.Exit(1)
	}
	geocoder := geocode.NewNominatim(cfg.GeocoderURL, cfg.GeocoderUserAgent, cfg.GeocoderTimeout)

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.NewHTTP(registry, cfg.MetricsNamespace)
	recorder := metrics.NewRecorder(registry, cfg.MetricsNamespace)

	// Services
	ledger := services.NewHistoryLedger(db)
	dispatcher := services.NewNotificationDispatcher(db, store, docs)
	escalation := services.NewEscalationEngine(dispatcher)
	lifecycle := services.NewReportLifecycle(db, ledger, escalation, store, recorder)
	reportService := services.NewReportService(db, ledger, store, geocoder, docs, recorder, cfg.GeoBackfillLimit)
	authService := services.NewAuthService(db, cfg)
	userService := services.NewUserService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(authService)
	healthHandler := handlers.NewHealthHandler(db)
	userHandler := handlers.NewUserHandler(userService)
	reportHandler := handlers.NewReportHandler(reportService)
	adminReportHandler := handlers.NewAdminReportHandler(reportService, lifecycle)
	notificationHandler := handlers.NewNotificationHandler(dispatcher)

	// Sentry error tracking
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app; multipart report uploads carry up to 5 MB of image
	app := fiber.New(fiber.Config{
		BodyLimit:    6 * 1024 * 1024,
		ErrorHandler: customErrorHandler,
	})

	app.Use(sentryfiber.New(sentryfiber.Options{
		Repanic:         true,
		WaitForDelivery: false,
	}))

	// Global middleware
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} | ${status} | ${latency} | ${ip} | ${method} | ${path}\n",
	}))
	app.Use(httpMetrics.Middleware)
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders)

	// Routes
	routes.Setup(app, cfg, db, registry, authHandler, healthHandler, userHandler, reportHandler, adminReportHandler, notificationHandler)

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port, "env", cfg.AppEnv)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	<-cleanup.Stop().Done()
	pgLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := database.Close(db); err != nil {
		slog.Error("database close error", "error", err)
	}

	slog.Info("server stopped")
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal server error"
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
		message = e.Message
	}

	// Only expose error details for client errors (4xx), not server errors (5xx)
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		if hub := sentryfiber.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
