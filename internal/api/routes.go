// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"

	"github.com/journal-ai/uploader/internal/config"
	"github.com/journal-ai/uploader/internal/storage"
	"github.com/journal-ai/uploader/pkg/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Uploader Uploader
	Store    storage.Store
	Hub      *Hub
	Version  string
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Queue   QueueHandler
	Submit  SubmitHandler
	Results ResultsHandler
	Events  EventsHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	hub := deps.Hub
	if hub == nil {
		hub = NewHub()
	}
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Uploader),
		Queue:   NewQueueHandler(deps.Uploader, deps.Store),
		Submit:  NewSubmitHandler(deps.Uploader),
		Results: NewResultsHandler(deps.Uploader),
		Events:  NewWebSocketHandler(hub, deps.Uploader),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	apiGroup := e.Group("/api")

	// Health check
	apiGroup.GET("/health", handlers.Health.HandleHealth)

	// Upload queue
	apiGroup.GET("/queue", handlers.Queue.HandleListQueue)
	apiGroup.POST("/queue", handlers.Queue.HandleAddFiles)
	apiGroup.DELETE("/queue/:id", handlers.Queue.HandleRemoveFile)

	// Submission
	apiGroup.POST("/submit", handlers.Submit.HandleSubmit)

	// Results
	apiGroup.GET("/results", handlers.Results.HandleGetResults)
	apiGroup.POST("/results/tab", handlers.Results.HandleSelectTab)
	apiGroup.GET("/history", handlers.Results.HandleGetHistory)

	// Event stream
	apiGroup.GET("/ws", handlers.Events.HandleEvents)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg config.ServerConfig) {
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		RequestIDHandler: func(c echo.Context, id string) {
			req := c.Request()
			c.SetRequest(req.WithContext(logger.WithRequestID(req.Context(), id)))
		},
	}))

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			path := c.Request().URL.Path
			return path == "/api/health" || path == "/api/ws"
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.EnableCORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 1 && origins[0] == "" {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins: origins,
			AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
			AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		}))
	}
}
