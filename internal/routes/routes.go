package routes

import (
	"time"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/scdri/backend/internal/config"
	"github.com/scdri/backend/internal/handlers"
	"github.com/scdri/backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	gatherer prometheus.Gatherer,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	userHandler *handlers.UserHandler,
	reportHandler *handlers.ReportHandler,
	adminReportHandler *handlers.AdminReportHandler,
	notificationHandler *handlers.NotificationHandler,
) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	// Report images and summons documents written by the local storage driver
	if cfg.StorageDriver == "local" {
		app.Static(cfg.UploadsPublicPath, cfg.UploadsDir, fiber.Static{
			Browse: false,
			MaxAge: 3600,
		})
	}

	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Auth-specific rate limit: 10 req/min per IP (stricter)
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	protected := middleware.JWTProtected(cfg)
	api.Post("/auth/logout", protected, authHandler.Logout)

	users := api.Group("/users", protected)
	users.Get("/me", userHandler.Me)
	users.Patch("/me", userHandler.UpdateProfile)
	users.Put("/me/password", userHandler.ChangePassword)

	reports := api.Group("/reports", protected)
	reports.Post("/", reportHandler.Create)
	reports.Get("/", reportHandler.ListMine)
	reports.Get("/map", reportHandler.Map)
	reports.Get("/history", reportHandler.MyHistory)
	reports.Get("/:id", reportHandler.Get)
	reports.Get("/:id/history", reportHandler.History)

	notifications := api.Group("/notifications", protected)
	notifications.Get("/", notificationHandler.List)
	notifications.Get("/unread", notificationHandler.Unread)
	notifications.Get("/unread/count", notificationHandler.UnreadCount)
	notifications.Post("/read-all", notificationHandler.MarkAllRead)

	admin := api.Group("/admin", protected, middleware.AdminRequired(db))
	admin.Get("/reports", adminReportHandler.List)
	admin.Get("/reports/stats", adminReportHandler.Stats)
	admin.Get("/reports/export", adminReportHandler.Export)
	admin.Post("/reports/:id/verify", adminReportHandler.Verify)
	admin.Post("/reports/:id/finish-verification", adminReportHandler.FinishVerification)
	admin.Post("/reports/:id/complete-cleanup", adminReportHandler.CompleteCleanup)
	admin.Post("/reports/:id/resolve", adminReportHandler.ResolveDirect)
	admin.Post("/reports/:id/reject", adminReportHandler.Reject)
	admin.Post("/reports/:id/mark-false", adminReportHandler.MarkFalse)
	admin.Put("/reports/:id/urgency", adminReportHandler.SetUrgency)
	admin.Delete("/reports/:id", adminReportHandler.Delete)

	admin.Get("/users", userHandler.List)
	admin.Post("/users/:id/ban", userHandler.Ban)
	admin.Post("/users/:id/unban", userHandler.Unban)
}
