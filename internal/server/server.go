// Package server contains the HTTP handlers and page rendering of the web application.
package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/database"
	"yatube/internal/middleware"
	"yatube/internal/models"
	"yatube/internal/repository"
	"yatube/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/template/html/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Per-visitor budgets for the write endpoints.
var (
	signupLimit     = middleware.Limit{Name: "signup", Max: 5, Window: 10 * time.Minute}
	loginLimit      = middleware.Limit{Name: "login", Max: 10, Window: 5 * time.Minute}
	createPostLimit = middleware.Limit{Name: "create_post", Max: 10, Window: time.Minute}
	commentLimit    = middleware.Limit{Name: "create_comment", Max: 20, Window: time.Minute}
)

// Server holds all dependencies and provides handlers
type Server struct {
	config         *config.Config
	db             *gorm.DB
	redis          *redis.Client
	app            *fiber.App
	views          *html.Engine
	pageCache      cache.PageCache
	promMiddleware *fiberprometheus.FiberPrometheus
	userRepo       repository.UserRepository
	groupRepo      repository.GroupRepository
	postRepo       repository.PostRepository
	commentRepo    repository.CommentRepository
	userService    *service.UserService
	postService    *service.PostService
	commentService *service.CommentService
	listingService *service.ListingService
	imageService   *service.ImageService
}

// NewServer connects to the database and Redis and builds a server on top of them.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	return NewServerWithDeps(cfg, db, cache.InitRedis(cfg.RedisURL))
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// A nil Redis client disables page caching and Redis-backed rate limits.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	views, err := newViews()
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}

	server := &Server{
		config:         cfg,
		db:             db,
		redis:          redisClient,
		views:          views,
		pageCache:      cache.NewRedisPageCache(redisClient, "index"),
		promMiddleware: middleware.InitMetrics("yatube"),
		userRepo:       repository.NewUserRepository(db),
		groupRepo:      repository.NewGroupRepository(db, redisClient),
		postRepo:       repository.NewPostRepository(db),
		commentRepo:    repository.NewCommentRepository(db),
	}

	server.userService = service.NewUserService(server.userRepo)
	server.imageService = service.NewImageService(cfg)
	server.postService = service.NewPostService(
		server.postRepo, server.groupRepo, server.commentRepo, server.imageService, server.userService.IsAdmin)
	server.commentService = service.NewCommentService(server.commentRepo, server.postRepo)
	server.listingService = service.NewListingService(server.postRepo, server.groupRepo, server.userRepo)

	return server, nil
}

// SetPageCache replaces the render cache used for the home listing.
func (s *Server) SetPageCache(pc cache.PageCache) {
	s.pageCache = pc
}

// SetupMiddleware configures middleware for the Fiber app
func (s *Server) SetupMiddleware(app *fiber.App) {
	// Panic recovery
	app.Use(recover.New())

	// Request ID for tracing
	app.Use(requestid.New())

	if s.config.TracingEnabled {
		app.Use(middleware.TracingMiddleware())
	}

	// Context Middleware to propagate Request ID and trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return c.Path() == "/metrics" || c.Path() == "/health/live" || c.Path() == "/health/ready"
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).SendString("Too many requests, please try again later.")
		},
	}))

	// Resolve the session cookie for every page so templates know who is logged in
	app.Use(s.Session())
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}

	app.Static("/media", s.imageService.MediaRoot(), fiber.Static{
		Browse: false,
		MaxAge: 3600,
	})

	// Listings
	app.Get("/", s.Index)
	app.Get("/group/:slug", s.GroupPosts)
	app.Get("/profile/:username", s.Profile)

	// Auth pages
	auth := app.Group("/auth")
	auth.Get("/signup", s.SignupPage)
	auth.Post("/signup", middleware.RateLimit(s.redis, signupLimit), s.Signup)
	auth.Get("/login", s.LoginPage)
	auth.Post("/login", middleware.RateLimit(s.redis, loginLimit), s.Login)
	auth.Post("/logout", s.Logout)
	auth.Get("/logout", s.Logout)

	// Posts. Specific /:id/:action routes before the generic detail route.
	app.Get("/create", s.LoginRequired(), s.CreatePostPage)
	app.Post("/create", s.LoginRequired(),
		middleware.RateLimit(s.redis, createPostLimit), s.CreatePost)

	posts := app.Group("/posts")
	posts.Get("/:id/edit", s.LoginRequired(), s.EditPostPage)
	posts.Post("/:id/edit", s.LoginRequired(), s.EditPost)
	posts.Post("/:id/delete", s.LoginRequired(), s.DeletePost)
	posts.Post("/:id/comment", s.LoginRequired(),
		middleware.RateLimit(s.redis, commentLimit), s.AddComment)
	posts.Get("/:id", s.PostDetail)

	// Admin routes
	admin := app.Group("/admin", s.AdminRequired())
	admin.Post("/cache/clear", s.ClearCache)
	admin.Get("/dashboard", monitor.New(monitor.Config{
		Title: "Yatube Metrics Dashboard",
	}))

	// Anything left unmatched
	app.Use(s.NotFound)
}

// App builds the Fiber application once and returns it.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	bodyLimitMB := s.config.ImageMaxUploadSizeMB
	if bodyLimitMB <= 0 {
		bodyLimitMB = service.DefaultImageMaxUploadSizeMB
	}

	app := fiber.New(fiber.Config{
		AppName:      "Yatube",
		BodyLimit:    (bodyLimitMB + 1) * 1024 * 1024,
		ErrorHandler: s.errorHandler,
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	app := s.App()
	middleware.Logger.Info("server starting", "port", s.config.Port, "env", s.config.Env)
	return app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error

	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			errs = append(errs, fmt.Errorf("shutting down HTTP server: %w", err))
		}
	}

	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			errs = append(errs, fmt.Errorf("closing sql DB: %w", cerr))
		}
	}

	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			errs = append(errs, fmt.Errorf("closing redis: %w", rerr))
		}
	}

	middleware.Logger.Info("server shutdown complete")
	return errors.Join(errs...)
}

// LivenessCheck reports that the process is up
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck reports whether the database and Redis are reachable
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	// Pages still render without Redis, only uncached.
	redisStatus := "healthy"
	if s.redis != nil {
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	} else {
		redisStatus = "unavailable"
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	switch {
	case dbStatus == "unhealthy":
		status = fiber.StatusServiceUnavailable
		overallStatus = "unhealthy"
	case redisStatus != "healthy":
		overallStatus = "degraded"
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

// ClearCache drops every cached page and lookup.
func (s *Server) ClearCache(c *fiber.Ctx) error {
	if err := s.pageCache.ClearAll(c.UserContext()); err != nil {
		return models.RespondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
	}
	middleware.Logger.InfoContext(c.UserContext(), "cache cleared")
	return c.JSON(fiber.Map{"cleared": true})
}
