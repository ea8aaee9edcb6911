// errors.go - Error responses and the mapping from intake and storage errors
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/intake"
	"github.com/rotor-modal/client/internal/storage"
)

// Error codes carried in APIError.Code
const (
	CodeBadRequest    = "BAD_REQUEST"
	CodeValidation    = "VALIDATION_ERROR"
	CodeNotFound      = "NOT_FOUND"
	CodeConflict      = "CONFLICT"
	CodeUnknownSlot   = "UNKNOWN_SLOT"
	CodeSessionClosed = "SESSION_CLOSED"
	CodeFileMissing   = "FILE_MISSING"
	CodeInternal      = "INTERNAL_ERROR"
	CodeUnavailable   = "SERVICE_UNAVAILABLE"
	CodeHTTP          = "HTTP_ERROR"
	CodeUnknown       = "UNKNOWN_ERROR"
)

// APIError is the JSON body of every failed API call
type APIError struct {
	Status  int    `json:"-"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func newAPIError(status int, code, message string, cause error) *APIError {
	err := &APIError{Status: status, Code: code, Message: message}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewBadRequestError creates a 400 for a malformed request
func NewBadRequestError(message string, cause error) *APIError {
	return newAPIError(http.StatusBadRequest, CodeBadRequest, message, cause)
}

// NewValidationError creates a 400 naming the offending field
func NewValidationError(field string) *APIError {
	return newAPIError(http.StatusBadRequest, CodeValidation, "validation failed for field: "+field, nil)
}

// NewNotFoundError creates a 404
func NewNotFoundError(resource string, id string) *APIError {
	return newAPIError(http.StatusNotFound, CodeNotFound, fmt.Sprintf("%s not found: %s", resource, id), nil)
}

// NewInternalError creates a 500
func NewInternalError(message string, cause error) *APIError {
	return newAPIError(http.StatusInternalServerError, CodeInternal, message, cause)
}

// NewServiceUnavailableError creates a 503
func NewServiceUnavailableError(message string) *APIError {
	return newAPIError(http.StatusServiceUnavailable, CodeUnavailable, message, nil)
}

// domainErrors maps sentinel errors that handlers return unwrapped.
// The first match wins.
var domainErrors = []struct {
	target  error
	status  int
	code    string
	message string
}{
	{intake.ErrValidation, http.StatusBadRequest, CodeValidation, intake.NoticeBothFilesRequired},
	{intake.ErrSubmissionInFlight, http.StatusConflict, CodeConflict, "a submission is already in progress"},
	{intake.ErrUnknownRole, http.StatusNotFound, CodeUnknownSlot, "unknown file slot"},
	{intake.ErrClosed, http.StatusServiceUnavailable, CodeSessionClosed, "session expired, reload the page"},
	{storage.ErrNotFound, http.StatusConflict, CodeFileMissing, "a selected file is no longer available, select it again"},
}

// toAPIError converts any handler error into the response body
func toAPIError(err error) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	var httpErr *echo.HTTPError
	if errors.As(err, &httpErr) {
		return newAPIError(httpErr.Code, CodeHTTP, fmt.Sprintf("%v", httpErr.Message), nil)
	}

	for _, m := range domainErrors {
		if errors.Is(err, m.target) {
			return newAPIError(m.status, m.code, m.message, nil)
		}
	}

	unknown := newAPIError(http.StatusInternalServerError, CodeUnknown, "An unexpected error occurred", nil)
	if isDevelopment() {
		unknown.Details = err.Error()
	}
	return unknown
}

// ErrorHandler renders handler errors as APIError JSON.
// Usage: e.HTTPErrorHandler = api.ErrorHandler
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	apiErr := toAPIError(err)
	if apiErr.Status >= http.StatusInternalServerError {
		fmt.Printf("[API] ERROR %s %s: %v\n", c.Request().Method, c.Request().URL.Path, err)
	}
	c.JSON(apiErr.Status, apiErr)
}

// isDevelopment returns true unless MODAL_ENV is "production"
func isDevelopment() bool {
	return os.Getenv("MODAL_ENV") != "production"
}
