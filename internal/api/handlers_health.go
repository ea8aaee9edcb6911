// handlers_health.go - Health check and history handlers
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
)

// HealthHandlerImpl implements the HealthHandler interface
type HealthHandlerImpl struct {
	version  string
	sessions SessionManager
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(version string, sessions SessionManager) HealthHandler {
	return &HealthHandlerImpl{
		version:  version,
		sessions: sessions,
	}
}

// HandleHealth returns server health status
func (h *HealthHandlerImpl) HandleHealth(c echo.Context) error {
	resp := map[string]interface{}{
		"status":  "ok",
		"version": h.version,
	}
	if h.sessions != nil {
		resp["sessions"] = h.sessions.Count()
	}
	return c.JSON(http.StatusOK, resp)
}

// HistoryHandlerImpl implements the HistoryHandler interface
type HistoryHandlerImpl struct {
	history HistoryReader
}

// NewHistoryHandler creates a new history handler. A nil reader means
// history is disabled.
func NewHistoryHandler(reader HistoryReader) HistoryHandler {
	return &HistoryHandlerImpl{history: reader}
}

// HandleGetHistory returns recent completed runs, newest first
func (h *HistoryHandlerImpl) HandleGetHistory(c echo.Context) error {
	if h.history == nil {
		return NewServiceUnavailableError("run history is disabled")
	}

	limit := 50
	if raw := c.QueryParam("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return NewValidationError("limit")
		}
		if n > 1000 {
			n = 1000
		}
		limit = n
	}

	runs, err := h.history.Recent(c.Request().Context(), limit)
	if err != nil {
		return NewInternalError("failed to read history", err)
	}
	return c.JSON(http.StatusOK, runs)
}
