// Package http wires the gin engine, middleware, and routes for the service.
package http

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/turtacn/sfauth/internal/config"
	"github.com/turtacn/sfauth/internal/interfaces/http/handlers"
	"github.com/turtacn/sfauth/internal/interfaces/http/middleware"
	"github.com/turtacn/sfauth/pkg/logger"
)

// Router owns the HTTP server and its route table.
type Router struct {
	engine        *gin.Engine
	config        *config.Config
	log           logger.Logger
	healthHandler *handlers.HealthHandler
	authHandler   *handlers.AuthHandler
	tokenHandler  *handlers.TokenHandler
	server        *http.Server
}

// NewRouter creates the router over its handlers.
func NewRouter(
	cfg *config.Config,
	log logger.Logger,
	healthHandler *handlers.HealthHandler,
	authHandler *handlers.AuthHandler,
	tokenHandler *handlers.TokenHandler,
) *Router {
	gin.SetMode(gin.ReleaseMode)
	return &Router{
		engine:        gin.New(),
		config:        cfg,
		log:           log.WithComponent("http_router"),
		healthHandler: healthHandler,
		authHandler:   authHandler,
		tokenHandler:  tokenHandler,
	}
}

// SetupRoutes installs middleware and the route table.
func (r *Router) SetupRoutes() {
	r.engine.Use(middleware.Recovery(r.log))
	r.engine.Use(middleware.Tracing())
	r.engine.Use(middleware.CorrelationID())
	r.engine.Use(middleware.Logging(r.log))

	corsConfig := cors.DefaultConfig()
	corsConfig.AllowAllOrigins = true
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", middleware.HeaderCorrelationID, "X-Operator"}
	corsConfig.ExposeHeaders = []string{middleware.HeaderCorrelationID}
	corsConfig.MaxAge = 12 * time.Hour
	r.engine.Use(cors.New(corsConfig))

	r.engine.GET("/health", r.healthHandler.HealthCheck)
	r.engine.GET("/ready", r.healthHandler.ReadinessCheck)
	r.engine.GET("/live", r.healthHandler.LivenessCheck)
	r.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	pprof.Register(r.engine)

	v1 := r.engine.Group("/api/v1")
	{
		auth := v1.Group("/auth")
		{
			auth.POST("/login", r.authHandler.Login)
			auth.POST("/logout", r.authHandler.Logout)
			auth.POST("/auto-login", r.authHandler.AutoLogin)
			auth.POST("/authorize-url", r.authHandler.AuthorizeURL)
			auth.GET("/current", r.authHandler.CurrentLoginResult)
			auth.GET("/current/session", r.authHandler.CurrentLoginInfo)
		}

		tokens := v1.Group("/tokens")
		{
			tokens.POST("/validate", r.tokenHandler.Validate)
			tokens.POST("/revoke", r.tokenHandler.Revoke)
			tokens.POST("/bind", r.tokenHandler.Bind)
			tokens.POST("/check-binding", r.tokenHandler.CheckBinding)
		}
	}

	r.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{
			"error":             "not_found",
			"error_description": "The requested resource was not found",
		})
	})
}

// Start runs the HTTP server until the listener fails or Stop is called.
func (r *Router) Start() error {
	r.SetupRoutes()

	addr := fmt.Sprintf("%s:%d", r.config.Server.Host, r.config.Server.Port)
	r.server = &http.Server{
		Addr:           addr,
		Handler:        r.engine,
		ReadTimeout:    time.Duration(r.config.Server.ReadTimeout) * time.Second,
		WriteTimeout:   time.Duration(r.config.Server.WriteTimeout) * time.Second,
		MaxHeaderBytes: 1 << 20,
	}

	r.log.Info(context.Background(), "Starting HTTP server", logger.String("address", addr))

	if err := r.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts the server down gracefully.
func (r *Router) Stop(ctx context.Context) error {
	if r.server == nil {
		return nil
	}
	r.log.Info(ctx, "Stopping HTTP server")
	return r.server.Shutdown(ctx)
}
