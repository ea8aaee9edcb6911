// handlers_results.go - Results page data handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/results"
	"github.com/vmihailenco/msgpack/v5"
)

// ResultsHandlerImpl implements the ResultsHandler interface
type ResultsHandlerImpl struct {
	results     ResultReader
	interpreter *results.Interpreter
}

// NewResultsHandler creates a new results handler instance
func NewResultsHandler(reader ResultReader, interpreter *results.Interpreter) ResultsHandler {
	return &ResultsHandlerImpl{results: reader, interpreter: interpreter}
}

// HandleGetResult returns the interpreted report as JSON
func (h *ResultsHandlerImpl) HandleGetResult(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// HandleGetResultMsgpack returns the interpreted report as MessagePack
func (h *ResultsHandlerImpl) HandleGetResultMsgpack(c echo.Context) error {
	view, err := h.view(c)
	if err != nil {
		return err
	}

	data, err := msgpack.Marshal(view)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetRules returns the threshold and columns used to classify results
func (h *ResultsHandlerImpl) HandleGetRules(c echo.Context) error {
	return c.JSON(http.StatusOK, h.interpreter.Rules())
}

func (h *ResultsHandlerImpl) view(c echo.Context) (*results.ReportView, error) {
	sessionID, _, err := sessionFrom(c)
	if err != nil {
		return nil, err
	}

	id := c.Param("id")
	result, ok := h.results.Get(sessionID, id)
	if !ok {
		return nil, NewNotFoundError("result", id)
	}
	return results.BuildView(id, result, h.interpreter), nil
}
