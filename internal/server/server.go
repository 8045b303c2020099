// Package server contains HTTP and WebSocket handlers for the application's API endpoints.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"ripple/internal/auth"
	"ripple/internal/cache"
	"ripple/internal/config"
	"ripple/internal/database"
	"ripple/internal/middleware"
	"ripple/internal/notifications"
	"ripple/internal/posts"
	"ripple/internal/store"
	"ripple/internal/store/gormstore"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Server holds all dependencies and provides handlers.
type Server struct {
	config  *config.Config
	db      *gorm.DB
	redis   *redis.Client
	docs    store.Store
	feed    *posts.Feed
	view    *posts.View
	gateway *posts.Gateway
	hub     *notifications.FeedHub

	unsubscribe store.Unsubscribe
}

// NewServer creates a new server instance with all dependencies.
func NewServer(cfg *config.Config) (*Server, error) {
	db, err := database.Connect(cfg)
	if err != nil {
		return nil, fmt.Errorf("database connection failed: %w", err)
	}

	redisClient := cache.NewClient(cfg.RedisURL)
	docs := gormstore.New(db, redisClient)

	return NewServerWith(cfg, db, redisClient, docs), nil
}

// NewServerWith wires a server over already-constructed collaborators. Tests
// use it to swap in an in-memory database.
func NewServerWith(cfg *config.Config, db *gorm.DB, redisClient *redis.Client, docs store.Store) *Server {
	return &Server{
		config:  cfg,
		db:      db,
		redis:   redisClient,
		docs:    docs,
		feed:    posts.NewFeed(docs, cfg.PostsCollection, cfg.FeedWindow),
		view:    posts.NewView(),
		gateway: posts.NewGateway(docs, auth.ContextIdentity{}, cfg.PostsCollection),
		hub:     notifications.NewFeedHub(),
	}
}

// Start establishes the live feed subscription that drives the view and the
// websocket fan-out. Call Stop on shutdown to release the watch.
func (s *Server) Start(ctx context.Context) error {
	unsubscribe, err := s.feed.Subscribe(ctx, func(snapshot []posts.Post) {
		s.view.Apply(snapshot)
		if payload, err := json.Marshal(toJSONList(snapshot)); err == nil {
			s.hub.Broadcast(payload)
		}
	})
	if err != nil {
		return fmt.Errorf("feed subscription failed: %w", err)
	}
	s.unsubscribe = unsubscribe
	return nil
}

// Stop releases the feed subscription. Safe to call more than once.
func (s *Server) Stop() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

// View exposes the server's snapshot state for tests and tooling.
func (s *Server) View() *posts.View { return s.view }

// SetupMiddleware configures middleware for the Fiber app.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(requestid.New())
	app.Use(helmet.New())
	app.Use(middleware.StructuredLogger())
	app.Use(middleware.TracingMiddleware())

	prometheus := fiberprometheus.New("ripple")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)

	// Global rate limiting (100 requests per minute per IP)
	app.Use(limiter.New(limiter.Config{
		Max:        100,
		Expiration: 1 * time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:     s.config.AllowedOrigins,
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Upgrade, Connection, Sec-WebSocket-Key, Sec-WebSocket-Version",
		AllowCredentials: true,
		MaxAge:           86400,
	}))
}

// SetupRoutes configures all routes for the application.
func (s *Server) SetupRoutes(app *fiber.App) {
	api := app.Group("/api")

	api.Get("/", s.HealthCheck)
	api.Get("/monitor", monitor.New(monitor.Config{Title: "ripple metrics"}))

	authGroup := api.Group("/auth")
	authGroup.Post("/signup", s.SignUp)
	authGroup.Post("/signin", s.SignIn)
	authGroup.Post("/anonymous", s.SignInAnonymous)

	api.Get("/posts", s.GetPosts)
	api.Post("/posts", middleware.OptionalAuth(s.config.JWTSecret), s.CreatePost)
	api.Put("/posts/:id", middleware.OptionalAuth(s.config.JWTSecret), s.UpdatePost)
	api.Delete("/posts/:id", middleware.OptionalAuth(s.config.JWTSecret), s.DeletePost)
	api.Delete("/posts", middleware.OptionalAuth(s.config.JWTSecret), s.PurgePosts)

	s.setupWebSocketRoutes(app)
}

// HealthCheck handles GET /api/.
func (s *Server) HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"service": "ripple",
	})
}
