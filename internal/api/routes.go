// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rotor-modal/client/internal/results"
	"github.com/rotor-modal/client/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store       storage.Store
	Sessions    SessionManager
	Results     ResultReader
	History     HistoryReader // nil when history is disabled
	Interpreter *results.Interpreter
	Version     string
	SessionAge  time.Duration
	WSMaxKB     int
}

// Handlers holds all handler instances
type Handlers struct {
	Health  HealthHandler
	Pages   PageHandler
	Intake  IntakeHandler
	Events  EventsHandler
	Results ResultsHandler
	History HistoryHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health:  NewHealthHandler(deps.Version, deps.Sessions),
		Pages:   NewPageHandler(deps.Results, deps.Interpreter, deps.Version),
		Intake:  NewIntakeHandler(deps.Store),
		Events:  NewWebSocketHandler(deps.WSMaxKB, deps.Sessions),
		Results: NewResultsHandler(deps.Results, deps.Interpreter),
		History: NewHistoryHandler(deps.History),
	}
}

// RegisterRoutes registers all page and API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers, deps *Dependencies) {
	// Health check, no session needed
	e.GET("/api/health", handlers.Health.HandleHealth)
	e.GET("/api/history", handlers.History.HandleGetHistory)
	e.GET("/api/config/classification-rules", handlers.Results.HandleGetRules)

	withSession := SessionMiddleware(deps.Sessions, deps.SessionAge)

	// Pages
	e.GET("/", handlers.Pages.HandleIntakePage, withSession)
	e.GET("/results", handlers.Pages.HandleResultsPage, withSession)
	e.GET("/results/:id", handlers.Pages.HandleResultsPage, withSession)

	// Intake workflow
	intakeGroup := e.Group("/api/intake", withSession)
	intakeGroup.GET("", handlers.Intake.HandleGetIntake)
	intakeGroup.POST("/slots/:role", handlers.Intake.HandleSelectSlot)
	intakeGroup.DELETE("/slots/:role", handlers.Intake.HandleClearSlot)
	intakeGroup.PUT("/slots/:role/drag", handlers.Intake.HandleSetDrag)
	intakeGroup.POST("/submit", handlers.Intake.HandleSubmit)
	intakeGroup.GET("/events", handlers.Events.HandleEvents)

	// Results
	resultsGroup := e.Group("/api/results", withSession)
	resultsGroup.GET("/:id", handlers.Results.HandleGetResult)
	resultsGroup.GET("/:id/msgpack", handlers.Results.HandleGetResultMsgpack)
}

// MiddlewareConfig selects the optional middleware
type MiddlewareConfig struct {
	RequestLogging   bool
	Compression      bool
	CompressionLevel int
	BodyLimit        string
	CORS             bool
	AllowOrigins     string
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo, cfg MiddlewareConfig) {
	// Use custom error handler
	e.HTTPErrorHandler = ErrorHandler

	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Skipper: func(c echo.Context) bool {
			if !cfg.RequestLogging {
				return true
			}
			path := c.Request().URL.Path
			return path == "/api/health" ||
				strings.HasSuffix(path, "/events") ||
				strings.HasPrefix(path, "/static/")
		},
	}))

	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		StackSize: 1024 * 4,
	}))

	if cfg.Compression {
		e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
			Level: cfg.CompressionLevel,
			Skipper: func(c echo.Context) bool {
				return strings.HasSuffix(c.Request().URL.Path, "/events")
			},
		}))
	}

	if cfg.BodyLimit != "" {
		e.Use(middleware.BodyLimit(cfg.BodyLimit))
	}

	if cfg.CORS {
		origins := strings.Split(cfg.AllowOrigins, ",")
		for i := range origins {
			origins[i] = strings.TrimSpace(origins[i])
		}
		if len(origins) == 0 || (len(origins) == 1 && origins[0] == "") {
			origins = []string{"*"}
		}
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     origins,
			AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowHeaders:     []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
			AllowCredentials: origins[0] != "*",
		}))
	}
}
