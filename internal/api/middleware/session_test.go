package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/campuslib/library-console/internal/core/domain"
)

type fixedState domain.AuthState

func (s fixedState) State() domain.AuthState { return domain.AuthState(s) }

func TestRequireResolved_Booting(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/session/login", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	called := false
	h := RequireResolved(fixedState{Loading: true})(func(c echo.Context) error {
		called = true
		return nil
	})

	err := h(c)
	if called {
		t.Fatalf("handler should not run while booting")
	}
	var he *echo.HTTPError
	if !errors.As(err, &he) || he.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %v", err)
	}
	if rec.Header().Get("Retry-After") != "1" {
		t.Fatalf("expected Retry-After header")
	}
}

func TestRequireResolved_Resolved(t *testing.T) {
	states := map[string]domain.AuthState{
		"signed out": {},
		"signed in":  {IsAuthenticated: true, User: &domain.Profile{ID: 1}},
	}
	for name, st := range states {
		t.Run(name, func(t *testing.T) {
			e := echo.New()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/session", nil), httptest.NewRecorder())

			called := false
			h := RequireResolved(fixedState(st))(func(c echo.Context) error {
				called = true
				return nil
			})
			if err := h(c); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !called {
				t.Fatalf("handler not called")
			}
		})
	}
}
