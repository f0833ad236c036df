// Package routes defines the HTTP routes for the Haven agent service.
package routes

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/havenmind/agent-service/internal/api/handlers"
	"github.com/havenmind/agent-service/internal/api/middleware"
)

// Config holds the dependencies for setting up routes.
type Config struct {
	HealthHandler   *handlers.HealthHandler
	MessagesHandler *handlers.MessagesHandler
}

// Setup configures all routes on the Gin engine.
func Setup(r *gin.Engine, cfg *Config) {
	// API v1 routes - all routes under /api/v1/agent
	v1 := r.Group("/api/v1/agent")
	{
		// Health check routes
		v1.GET("/health", cfg.HealthHandler.Health)
		v1.GET("/ready", cfg.HealthHandler.Ready)
		v1.GET("/live", cfg.HealthHandler.Live)

		// User-scoped routes
		users := v1.Group("/users/:userId")
		{
			users.POST("/messages", cfg.MessagesHandler.SendMessage)
			users.GET("/messages", cfg.MessagesHandler.GetHistory)
			users.GET("/conversations", cfg.MessagesHandler.ListConversations)
		}
	}

	// Swagger documentation
	r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}

// SetupWithMiddleware sets up routes with common middleware.
func SetupWithMiddleware(r *gin.Engine, cfg *Config, loggingMw *middleware.LoggingMiddleware, errorMw *middleware.ErrorMiddleware) {
	// Apply global middleware
	r.Use(loggingMw.Logger())
	r.Use(errorMw.Recovery())
	r.Use(gin.Recovery())
	r.Use(middleware.NewCORSMiddleware(middleware.DefaultCORSConfig()))

	r.NoRoute(middleware.NotFound())
	r.HandleMethodNotAllowed = true
	r.NoMethod(middleware.MethodNotAllowed())

	// Setup routes
	Setup(r, cfg)
}
