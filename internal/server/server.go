// Package server contains the HTTP handlers for the social graph API.
package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"murmur/internal/cache"
	"murmur/internal/config"
	"murmur/internal/database"
	"murmur/internal/middleware"
	"murmur/internal/models"
	"murmur/internal/notifications"
	"murmur/internal/repository"
	"murmur/internal/service"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

var (
	promOnce sync.Once
	prom     *fiberprometheus.FiberPrometheus
)

// sharedMetrics registers the HTTP collectors once per process; the default
// registry rejects duplicates.
func sharedMetrics() *fiberprometheus.FiberPrometheus {
	promOnce.Do(func() {
		prom = middleware.InitMetrics("murmur-api")
	})
	return prom
}

// Server holds all dependencies and provides handlers
type Server struct {
	config          *config.Config
	db              *gorm.DB
	redis           *redis.Client
	app             *fiber.App
	promMiddleware  *fiberprometheus.FiberPrometheus
	auth            *middleware.Auth
	rateLimiter     *middleware.RateLimiter
	notifier        *notifications.Notifier
	userService     *service.UserService
	postService     *service.PostService
	commentService  *service.CommentService
	replyService    *service.ReplyService
	reactionService *service.ReactionService
	followService   *service.FollowService
}

// NewServer creates a new server instance with all dependencies
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	// nil when Redis is unreachable; cache, events and limits degrade
	redisClient := cache.InitRedis(cfg.RedisURL)

	return NewServerWithDeps(cfg, db, redisClient)
}

// NewServerWithDeps creates a Server using already-initialized dependencies.
// Use this in tests or when a bootstrap layer establishes DB/Redis.
// redisClient may be nil.
func NewServerWithDeps(cfg *config.Config, db *gorm.DB, redisClient *redis.Client) (*Server, error) {
	if cfg == nil || db == nil {
		return nil, fmt.Errorf("server requires config and database")
	}

	c := cache.New(redisClient)
	userRepo := repository.NewUserRepository(db, c)
	postRepo := repository.NewPostRepository(db, c)
	commentRepo := repository.NewCommentRepository(db)
	replyRepo := repository.NewReplyRepository(db)
	reactionRepo := repository.NewReactionRepository(db)
	followRepo := repository.NewFollowRepository(db)

	var notifier *notifications.Notifier
	if redisClient != nil {
		notifier = notifications.NewNotifier(redisClient)
	}

	return &Server{
		config:          cfg,
		db:              db,
		redis:           redisClient,
		promMiddleware:  sharedMetrics(),
		auth:            middleware.NewAuth(middleware.NewJWTResolver(cfg)),
		rateLimiter:     middleware.NewRateLimiter(redisClient, cfg.Env),
		notifier:        notifier,
		userService:     service.NewUserService(userRepo),
		postService:     service.NewPostService(postRepo, userRepo, notifier),
		commentService:  service.NewCommentService(commentRepo, postRepo, notifier),
		replyService:    service.NewReplyService(replyRepo, commentRepo, notifier),
		reactionService: service.NewReactionService(reactionRepo, notifier),
		followService:   service.NewFollowService(followRepo, userRepo, notifier),
	}, nil
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

	// Context Middleware to propagate Request ID and Trace ID
	app.Use(middleware.ContextMiddleware())

	// Prometheus Metrics
	if s.promMiddleware != nil {
		app.Use(middleware.MetricsMiddleware(s.promMiddleware))
	}

	// Security headers
	app.Use(helmet.New())

	// Structured Logging middleware (after requestid and context middleware)
	app.Use(middleware.StructuredLogger())

	// CORS runs before the limiter so short-circuited responses keep CORS headers.
	origins := s.config.AllowedOrigins
	if origins == "" {
		origins = "http://localhost:5173,http://localhost:3000"
	}

	app.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
		MaxAge:           86400, // 24 hours
	}))

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		// Never rate-limit preflight requests; they should be handled by CORS.
		Next: func(c *fiber.Ctx) bool {
			return c.Method() == fiber.MethodOptions
		},
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(models.ErrorResponse{
				Error: "Too many requests, please try again later.",
			})
		},
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")
	auth := s.auth.Required

	// Health checks
	app.Get("/health/live", s.LivenessCheck)
	app.Get("/health/ready", s.ReadinessCheck)
	app.Get("/health", s.ReadinessCheck)

	// Metrics endpoint for Prometheus
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	api.Get("/metrics/dashboard", monitor.New(monitor.Config{
		Title: "Murmur Metrics Dashboard",
	}))

	// Users. /me routes BEFORE generic /:id routes
	users := api.Group("/users")
	users.Get("/me", auth, s.GetMyProfile)
	users.Put("/me", auth, s.UpdateMyProfile)
	users.Put("/me/email", auth, s.UpdateMyEmail)
	users.Put("/me/password", auth, s.ChangeMyPassword)
	users.Delete("/me", auth, s.DeleteMyAccount)
	users.Get("/", s.GetUsers)
	users.Get("/:id/posts", s.GetUserPosts)
	users.Get("/:id/followers", s.GetFollowers)
	users.Get("/:id/following", s.GetFollowing)
	users.Post("/:id/follow", auth,
		s.rateLimiter.Limit("follow", 30, time.Minute, middleware.FailOpen), s.FollowUser)
	users.Delete("/:id/follow", auth, s.UnfollowUser)
	users.Delete("/:id", auth, s.DeleteUser)
	users.Get("/:id", s.GetUserProfile)

	// Posts, with comments and replies nested under them
	posts := api.Group("/posts")
	posts.Post("/", auth,
		s.rateLimiter.Limit("create_post", 10, time.Minute, middleware.FailOpen), s.CreatePost)
	posts.Get("/:id/reactions", s.GetPostReactions)
	posts.Post("/:id/reactions", auth, s.ReactToPost)
	posts.Put("/:id/tags", auth, s.AddTags)
	posts.Delete("/:id/tags", auth, s.RemoveTags)

	posts.Get("/:id/comments", s.GetComments)
	posts.Post("/:id/comments", auth,
		s.rateLimiter.Limit("create_comment", 20, time.Minute, middleware.FailOpen), s.CreateComment)
	posts.Get("/:id/comments/:commentId/reactions", s.GetCommentReactions)
	posts.Post("/:id/comments/:commentId/reactions", auth, s.ReactToComment)

	posts.Get("/:id/comments/:commentId/replies", s.GetReplies)
	posts.Post("/:id/comments/:commentId/replies", auth,
		s.rateLimiter.Limit("create_reply", 20, time.Minute, middleware.FailOpen), s.CreateReply)
	posts.Get("/:id/comments/:commentId/replies/:replyId/reactions", s.GetReplyReactions)
	posts.Post("/:id/comments/:commentId/replies/:replyId/reactions", auth, s.ReactToReply)
	posts.Get("/:id/comments/:commentId/replies/:replyId", s.GetReply)
	posts.Put("/:id/comments/:commentId/replies/:replyId", auth, s.UpdateReply)
	posts.Delete("/:id/comments/:commentId/replies/:replyId", auth, s.DeleteReply)

	posts.Get("/:id/comments/:commentId", s.GetComment)
	posts.Put("/:id/comments/:commentId", auth, s.UpdateComment)
	posts.Delete("/:id/comments/:commentId", auth, s.DeleteComment)

	// Generic /:id routes last
	posts.Get("/:id", s.GetPost)
	posts.Put("/:id", auth, s.UpdatePost)
	posts.Delete("/:id", auth, s.DeletePost)

	// Reactions addressed by their own id
	reactions := api.Group("/reactions", auth)
	reactions.Put("/:id", s.UpdateReaction)
	reactions.Delete("/:id", s.DeleteReaction)
}

// LivenessCheck handles liveness probe requests
func (s *Server) LivenessCheck(c *fiber.Ctx) error {
	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"status": "up",
		"time":   time.Now(),
	})
}

// ReadinessCheck handles readiness probe requests. Redis is optional: a
// missing client reports "unavailable" without failing readiness, a client
// that stops answering does.
func (s *Server) ReadinessCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 5*time.Second)
	defer cancel()

	dbStatus := "healthy"
	sqlDB, err := s.db.DB()
	if err != nil {
		dbStatus = "unhealthy"
	} else if err := sqlDB.PingContext(ctx); err != nil {
		dbStatus = "unhealthy"
	}

	redisStatus := "unavailable"
	if s.redis != nil {
		redisStatus = "healthy"
		if err := s.redis.Ping(ctx).Err(); err != nil {
			redisStatus = "unhealthy"
		}
	}

	status := fiber.StatusOK
	overallStatus := "healthy"
	if dbStatus == "unhealthy" || redisStatus == "unhealthy" {
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

// NewApp builds the Fiber app with middleware and routes installed.
func (s *Server) NewApp() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName: "Murmur API",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return c.Status(fe.Code).JSON(models.ErrorResponse{Error: fe.Message})
			}
			middleware.Logger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return models.RespondWithError(c, fiber.StatusInternalServerError,
				models.NewInternalError(err))
		},
	})
	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// Start starts the server
func (s *Server) Start() error {
	s.app = s.NewApp()

	log.Printf("Server starting on port %s...", s.config.Port)
	return s.app.Listen(":" + s.config.Port)
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.app != nil {
		if err := s.app.ShutdownWithContext(ctx); err != nil {
			log.Printf("error shutting down HTTP server: %v", err)
		}
	}

	// Close database connection
	if sqlDB, err := s.db.DB(); err == nil {
		if cerr := sqlDB.Close(); cerr != nil {
			log.Printf("error closing sql DB: %v", cerr)
		}
	}

	// Close Redis connection
	if s.redis != nil {
		if rerr := s.redis.Close(); rerr != nil {
			log.Printf("error closing redis: %v", rerr)
		}
	}

	log.Println("Server shutdown complete")
	return nil
}
