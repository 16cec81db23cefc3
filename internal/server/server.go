// Package server contains the HTTP handlers for the posts API.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	_ "blogrr/docs" // swagger docs
	"blogrr/internal/config"
	"blogrr/internal/database"
	"blogrr/internal/middleware"
	"blogrr/internal/models"
	"blogrr/internal/notifications"
	"blogrr/internal/repository"
	"blogrr/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

const defaultAllowedOrigins = "http://localhost:3000,http://localhost:5173,http://127.0.0.1:5173"

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	notifier       *notifications.Notifier
	postService    *service.PostService
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// The posts table must already exist (see bootstrap.InitRuntime). redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if db == nil {
		return nil, errors.New("database is required")
	}

	postRepo := repository.NewPostRepository(db, repository.WithSchemaMode(cfg.DBSchemaMode))
	notifier := notifications.NewNotifier(redisClient)

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		promMiddleware: middleware.InitMetrics("blogrr-api"),
		notifier:       notifier,
	}
	server.postService = service.NewPostService(postRepo, notifier)

	return server, nil
}

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "Blogrr API",
		BodyLimit:    1 * 1024 * 1024,
		ErrorHandler: errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// errorHandler renders errors that escape handlers, such as unknown routes,
// in the same body shape as handler errors.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(models.ErrorResponse{Message: fe.Message})
	}

	middleware.Logger.ErrorContext(c.UserContext(), "Unhandled error", slog.String("error", err.Error()))
	return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	// Tracing runs before ContextMiddleware so the trace ID reaches the logger
	app.Use(middleware.TracingMiddleware())
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	app.Use(middleware.StructuredLogger())

	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = defaultAllowedOrigins
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: origins,
		AllowMethods: "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
		MaxAge:       86400, // 24 hours
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Blogrr Metrics Dashboard",
	}))

	// Swagger documentation
	api.Get("/swagger/*", swagger.HandlerDefault)

	// The unprefixed routes are what the browser client calls.
	for _, prefix := range []string{"/api/posts", "/posts"} {
		posts := app.Group(prefix)
		posts.Get("/", s.GetPosts)
		posts.Post("/", s.CreatePost)
		posts.Get("/:id", s.GetPost)
		posts.Patch("/:id", s.UpdatePost)
		posts.Put("/:id", s.UpdatePost)
		posts.Delete("/:id", s.DeletePost)
	}
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: when it
// is not configured the check reports "disabled" and does not fail.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	if err := database.Ping(ctx, s.db); err != nil {
		dbStatus = "unhealthy"
		middleware.Logger.WarnContext(ctx, "Database readiness check failed", slog.String("error", err.Error()))
	}

	redisStatus := "disabled"
	if s.notifier.Enabled() {
		redisStatus = "healthy"
		if err := s.notifier.Ping(ctx); err != nil {
			redisStatus = "unhealthy"
			middleware.Logger.WarnContext(ctx, "Redis readiness check failed", slog.String("error", err.Error()))
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus != "healthy" || redisStatus == "unhealthy" {
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	}

	return c.Status(status).JSON(fiber.Map{
		"status": overallStatus,
		"checks": fiber.Map{
			"database": dbStatus,
			"redis":    redisStatus,
		},
		"time": time.Now(),
	})
}

// Start builds the app and listens on the configured port until Shutdown.
func (s *Server) Start() error {
	app := s.app
	if app == nil {
		app = s.NewApp()
	}

	middleware.Logger.Info("Server starting", slog.String("port", s.config.Port), slog.String("env", s.config.Env))
	if err := app.Listen(":" + s.config.Port); err != nil {
		return fmt.Errorf("listen on port %s: %w", s.config.Port, err)
	}
	return nil
}

// Shutdown stops accepting requests, waits for in-flight ones and closes the
// database and Redis connections.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
	}

	if s.db != nil {
		if err := database.Close(s.db); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}

	middleware.Logger.InfoContext(ctx, "Server shutdown complete")
	return errors.Join(errs...)
}
