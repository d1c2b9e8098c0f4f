package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/gate"
	"github.com/campuslib/library-console/internal/pkg/metrics"
)

// StateReader is the part of the auth provider the gate needs.
type StateReader interface {
	State() domain.AuthState
}

// GateHandler answers every navigation with the view the console renders.
type GateHandler struct {
	sessions StateReader
}

func NewGateHandler(sessions StateReader) *GateHandler {
	return &GateHandler{sessions: sessions}
}

type viewResponse struct {
	View   gate.Kind       `json:"view"`
	Path   string          `json:"path,omitempty"`
	Screen string          `json:"screen,omitempty"`
	User   *domain.Profile `json:"user,omitempty"`
}

// Navigate resolves the requested path through the route gate.
//
// @Summary      Resolve a console view
// @Tags         views
// @Produce      json
// @Success      200  {object}  viewResponse
// @Success      302
// @Failure      404  {object}  viewResponse
// @Failure      503  {object}  viewResponse
// @Router       /{path} [get]
func (h *GateHandler) Navigate(c echo.Context) error {
	st := h.sessions.State()
	d := gate.Decide(st, c.Request().URL.Path)
	metrics.GateDecisionsTotal.WithLabelValues(string(d.Kind)).Inc()

	switch d.Kind {
	case gate.Loading:
		c.Response().Header().Set("Retry-After", "1")
		return c.JSON(http.StatusServiceUnavailable, viewResponse{View: d.Kind})
	case gate.RedirectTo:
		return c.Redirect(http.StatusFound, d.Path)
	case gate.RenderLogin:
		return c.JSON(http.StatusOK, viewResponse{View: d.Kind})
	case gate.RenderProtected:
		return c.JSON(http.StatusOK, viewResponse{
			View:   d.Kind,
			Path:   d.Path,
			Screen: gate.ViewName(d.Path),
			User:   st.User,
		})
	default:
		return c.JSON(http.StatusNotFound, viewResponse{View: gate.RenderNotFound})
	}
}
