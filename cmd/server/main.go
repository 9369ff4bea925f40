package main

import (
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

	"github.com/flopysoft/flopy-crm/internal/config"
	"github.com/flopysoft/flopy-crm/internal/database"
	"github.com/flopysoft/flopy-crm/internal/handlers"
	"github.com/flopysoft/flopy-crm/internal/logging"
	"github.com/flopysoft/flopy-crm/internal/middleware"
	"github.com/flopysoft/flopy-crm/internal/router"
	"github.com/flopysoft/flopy-crm/internal/routes"
	"github.com/flopysoft/flopy-crm/internal/security"
	"github.com/flopysoft/flopy-crm/internal/services"
	"github.com/flopysoft/flopy-crm/internal/session"
)

func main() {
	// Structured logging (JSON to stdout)
	logging.Setup()

	cfg := config.Load()

	if cfg.JWTSecret == "" {
		slog.Error("JWT_SECRET environment variable is required")
		os.Exit(1)
	}
	if cfg.DBPassword == "" {
		slog.Error("DB_PASSWORD environment variable is required")
		os.Exit(1)
	}

	// Database
	if err := database.Connect(cfg); err != nil {
		slog.Error("database connection failed", "error", err)
		os.Exit(1)
	}
	if err := database.Migrate(database.DB); err != nil {
		slog.Error("migration failed", "error", err)
		os.Exit(1)
	}
	if err := database.Seed(database.DB, cfg.BcryptCost); err != nil {
		slog.Error("seeding failed", "error", err)
		os.Exit(1)
	}

	if err := os.MkdirAll(cfg.UploadDir, 0o755); err != nil {
		slog.Error("failed to create upload directory", "error", err)
		os.Exit(1)
	}

	// Database log handler (ERROR+ async batch)
	dbLogHandler := logging.NewDBHandler(database.DB)
	slog.SetDefault(slog.New(logging.NewMultiHandler(
		slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		dbLogHandler,
	)))

	// Log cleanup (30-day retention)
	cleanupDone := make(chan struct{})
	logging.StartCleanup(database.DB, cleanupDone)

	// Services
	userService := services.NewUserService(database.DB, cfg)
	contactService := services.NewContactService(database.DB)
	tagService := services.NewTagService(database.DB)
	interactionService := services.NewInteractionService(database.DB)
	dealService := services.NewDealService(database.DB)
	eventService := services.NewEventService(database.DB)
	reminderService := services.NewReminderService(database.DB)
	activityService := services.NewActivityService(database.DB)
	settingService := services.NewSettingService(database.DB)
	fileService := services.NewFileService(database.DB)

	limiter := security.NewFixedWindow()
	sessionManager := session.NewManager(cfg)

	// Handlers
	healthHandler := handlers.NewHealthHandler()
	controllers := []router.Controller{
		handlers.NewDashboardHandler(contactService, interactionService, dealService,
			eventService, reminderService, activityService, userService, settingService),
		handlers.NewUsersHandler(userService, activityService, fileService, limiter, cfg),
		handlers.NewContactsHandler(contactService, tagService, interactionService,
			dealService, activityService, fileService, cfg),
		handlers.NewDealsHandler(dealService, activityService, cfg),
		handlers.NewInteractionsHandler(interactionService, activityService, cfg),
		handlers.NewEventsHandler(eventService, activityService),
		handlers.NewRemindersHandler(reminderService, eventService, activityService, cfg),
	}

	// Sentry error tracking
	if dsn := os.Getenv("SENTRY_DSN"); dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              dsn,
			EnableTracing:    true,
			TracesSampleRate: 0.2,
			Environment:      cfg.AppEnv,
		}); err != nil {
			slog.Error("sentry init failed", "error", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Fiber app
	app := fiber.New(fiber.Config{
		BodyLimit:    int(cfg.MaxUploadSize) + 1024*1024,
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
	app.Use(middleware.CORS(cfg))
	app.Use(middleware.SecurityHeaders())

	// Routes: failure here means the default controller is missing, a
	// deployment error that must kill the process.
	if err := routes.Setup(app, cfg, sessionManager, userService, healthHandler, controllers...); err != nil {
		slog.Error("route setup failed", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("server starting", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-quit
	slog.Info("shutting down server...")

	close(cleanupDone)
	dbLogHandler.Stop()
	sentry.Flush(2 * time.Second)

	if err := app.Shutdown(); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("database close error", "error", err)
		}
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

	// Only expose error details for client errors (4xx), not server
	// errors (5xx).
	if code >= 500 {
		slog.Error("unhandled server error", "method", c.Method(), "path", c.Path(), "error", err.Error())
		message = "Internal server error"
	}

	return c.Status(code).JSON(fiber.Map{"error": message})
}
