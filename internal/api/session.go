// session.go - Browser session cookie middleware
package api

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rotor-modal/client/internal/intake"
)

// SessionCookie names the cookie that carries the browser session ID
const SessionCookie = "modal_session"

const (
	ctxSessionID  = "session.id"
	ctxController = "session.controller"
)

// SessionMiddleware attaches the caller's intake controller to the context,
// creating a session and setting the cookie when none is known.
func SessionMiddleware(mgr SessionManager, maxAge time.Duration) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			var id string
			if cookie, err := c.Cookie(SessionCookie); err == nil {
				id = cookie.Value
			}

			ctrl, sessionID, created := mgr.Acquire(id)
			if created {
				c.SetCookie(&http.Cookie{
					Name:     SessionCookie,
					Value:    sessionID,
					Path:     "/",
					MaxAge:   int(maxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
			}

			c.Set(ctxSessionID, sessionID)
			c.Set(ctxController, ctrl)
			return next(c)
		}
	}
}

// sessionFrom returns the session ID and controller attached by SessionMiddleware
func sessionFrom(c echo.Context) (string, *intake.Controller, error) {
	id, _ := c.Get(ctxSessionID).(string)
	ctrl, _ := c.Get(ctxController).(*intake.Controller)
	if id == "" || ctrl == nil {
		return "", nil, NewServiceUnavailableError("no browser session")
	}
	return id, ctrl, nil
}
