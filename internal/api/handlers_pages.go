// handlers_pages.go - HTML page handlers
package api

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/results"
	"github.com/rotor-modal/client/internal/web"
)

const pageTitle = "Rotor Modal Identification"

// PageHandlerImpl implements the PageHandler interface
type PageHandlerImpl struct {
	results     ResultReader
	interpreter *results.Interpreter
	version     string
}

// NewPageHandler creates a new page handler instance
func NewPageHandler(reader ResultReader, interpreter *results.Interpreter, version string) PageHandler {
	return &PageHandlerImpl{results: reader, interpreter: interpreter, version: version}
}

// HandleIntakePage renders the intake page. Returning here from a finished
// workflow discards its result.
func (h *PageHandlerImpl) HandleIntakePage(c echo.Context) error {
	sessionID, ctrl, err := sessionFrom(c)
	if err != nil {
		return err
	}

	if discarded := ctrl.Reset(); discarded != "" {
		fmt.Printf("[Intake %s] Returned to intake, discarded result %s\n", shortID(sessionID), shortID(discarded))
	}

	return c.Render(http.StatusOK, web.IntakeTemplate, web.IntakePage{
		Title:    pageTitle,
		Snapshot: ctrl.Snapshot(),
		Version:  h.version,
	})
}

// HandleResultsPage renders a handed-off result. Without a result for this
// session it redirects to the intake page and renders nothing.
func (h *PageHandlerImpl) HandleResultsPage(c echo.Context) error {
	sessionID, _, err := sessionFrom(c)
	if err != nil {
		return err
	}

	id := c.Param("id")
	result, ok := h.results.Get(sessionID, id)
	if id == "" || !ok {
		return c.Redirect(http.StatusSeeOther, "/")
	}

	return c.Render(http.StatusOK, web.ResultsTemplate, web.ResultsPage{
		Title:   pageTitle + " - Results",
		Report:  results.BuildView(id, result, h.interpreter),
		Version: h.version,
	})
}

// shortID safely truncates an ID for logging
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
