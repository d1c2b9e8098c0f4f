package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuslib/library-console/internal/core/domain"
)

// StateReader exposes the current auth state.
type StateReader interface {
	State() domain.AuthState
}

// RequireResolved rejects requests with 503 until the boot validation has
// resolved, so nothing can log in or out underneath it.
func RequireResolved(sessions StateReader) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if sessions.State().Loading {
				c.Response().Header().Set("Retry-After", "1")
				return echo.NewHTTPError(http.StatusServiceUnavailable, domain.ErrSessionBooting.Error())
			}
			return next(c)
		}
	}
}
