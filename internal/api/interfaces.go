// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/history"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/models"
)

// PageHandler serves the two HTML pages
type PageHandler interface {
	HandleIntakePage(c echo.Context) error
	HandleResultsPage(c echo.Context) error
}

// IntakeHandler handles the slot and submission operations of a session
type IntakeHandler interface {
	HandleGetIntake(c echo.Context) error
	HandleSelectSlot(c echo.Context) error
	HandleClearSlot(c echo.Context) error
	HandleSetDrag(c echo.Context) error
	HandleSubmit(c echo.Context) error
}

// EventsHandler streams intake snapshots
type EventsHandler interface {
	HandleEvents(c echo.Context) error
}

// ResultsHandler serves interpreted reports
type ResultsHandler interface {
	HandleGetResult(c echo.Context) error
	HandleGetResultMsgpack(c echo.Context) error
	HandleGetRules(c echo.Context) error
}

// HistoryHandler lists completed runs
type HistoryHandler interface {
	HandleGetHistory(c echo.Context) error
}

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// SessionManager defines the interface for browser session management
// This allows mocking in tests
type SessionManager interface {
	Acquire(id string) (*intake.Controller, string, bool)
	TouchSession(id string) bool
	Count() int
}

// ResultReader reads handed-off results
type ResultReader interface {
	Get(owner, id string) (*models.AnalysisResult, bool)
}

// HistoryReader lists recorded runs
type HistoryReader interface {
	Recent(ctx context.Context, limit int) ([]history.Run, error)
}
