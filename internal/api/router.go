package api

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/app"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/handlers"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/middleware"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/monitoring"
	"github.com/yinuo2001/CS6650-Final-Project-CQRS/internal/services"
)

// Dependencies carries everything the router mounts.
type Dependencies struct {
	Config *app.Config
	Posts  *services.PostService
	Users  *services.UserService
	// Health may be nil when health checks are disabled.
	Health *monitoring.HealthManager
	// RateStore may be nil, which disables rate limiting.
	RateStore middleware.RateStore
}

// NewRouter builds the Gin engine, wires middleware and registers the routes
// for the side of the API selected by server.mode.
func NewRouter(deps Dependencies) (*gin.Engine, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("config must be provided")
	}
	if deps.Posts == nil || deps.Users == nil {
		return nil, errors.New("post and user services must be provided")
	}

	postHandler, err := handlers.NewPostHandler(deps.Posts)
	if err != nil {
		return nil, err
	}
	userHandler, err := handlers.NewUserHandler(deps.Users)
	if err != nil {
		return nil, err
	}

	r := gin.New()

	// Global middleware
	r.Use(middleware.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Tracing())
	r.Use(middleware.Logger())
	r.Use(middleware.Metrics())
	r.Use(middleware.SecurityHeaders())

	registerHealthRoutes(r, cfg, deps.Health)

	if cfg.Monitoring.Prometheus.Enabled {
		endpoint := strings.TrimSpace(cfg.Monitoring.Prometheus.Endpoint)
		if endpoint == "" {
			endpoint = "/metrics"
		}
		r.GET(endpoint, gin.WrapH(promhttp.Handler()))
	}

	limited := r.Group("")
	limited.Use(middleware.RateLimit(deps.RateStore, cfg.Server.RateLimit.Requests, cfg.Server.RateLimit.Window))

	if cfg.Server.ServesQueries() {
		registerQueryRoutes(limited, postHandler, userHandler)
	}
	if cfg.Server.ServesCommands() {
		registerCommandRoutes(limited, postHandler, userHandler)
	}

	r.NoRoute(middleware.NotFoundHandler)
	r.NoMethod(middleware.NotFoundHandler)

	return r, nil
}

func registerQueryRoutes(r gin.IRouter, posts *handlers.PostHandler, users *handlers.UserHandler) {
	r.GET("/posts/:id", posts.Get)
	r.GET("/posts/:id/likes", posts.Likes)
	r.GET("/users/:id", users.Get)
	r.GET("/users/:id/posts", posts.ListByUser)
}

func registerCommandRoutes(r gin.IRouter, posts *handlers.PostHandler, users *handlers.UserHandler) {
	r.POST("/posts", posts.Create)
	r.POST("/posts/:id/like", posts.Like)
	r.POST("/posts/:id/dislike", posts.Dislike)
	r.POST("/users", users.Create)
}

func registerHealthRoutes(r gin.IRouter, cfg *app.Config, manager *monitoring.HealthManager) {
	if !cfg.Monitoring.Health.Enabled {
		manager = nil
	}
	health := handlers.NewHealthHandler(manager)
	r.GET("/health", health.Summary)
	r.GET("/health/live", health.Live)
	r.GET("/health/ready", health.Ready)
}
