// Package gate maps the current auth state and a requested path to the view
// the console should show. Decide is pure and total: every (state, path) pair
// yields exactly one Decision.
package gate

import (
	"path"
	"strings"

	"github.com/campuslib/library-console/internal/core/domain"
)

const (
	HomePath  = "/"
	LoginPath = "/login"
)

// Kind is the shape of a Decision.
type Kind string

const (
	Loading         Kind = "loading"
	RenderProtected Kind = "protected"
	RenderLogin     Kind = "login"
	RenderNotFound  Kind = "not_found"
	RedirectTo      Kind = "redirect"
)

// Decision is what the console renders for one navigation. Path is the view
// to render for RenderProtected and the target for RedirectTo; it is empty
// otherwise.
type Decision struct {
	Kind Kind   `json:"view"`
	Path string `json:"path,omitempty"`
}

// protected maps each signed-in path to its screen name.
var protected = map[string]string{
	"/":               "dashboard",
	"/users":          "users",
	"/books":          "books",
	"/borrow-records": "borrow_records",
	"/reports":        "reports",
	"/profile":        "profile",
}

// IsProtected reports whether p names one of the signed-in screens.
func IsProtected(p string) bool {
	_, ok := protected[Normalize(p)]
	return ok
}

// ViewName returns the screen name for a protected path, or "".
func ViewName(p string) string {
	return protected[Normalize(p)]
}

// Normalize cleans p so "/books/", "books" and "" compare as expected.
func Normalize(p string) string {
	if i := strings.IndexAny(p, "?#"); i >= 0 {
		p = p[:i]
	}
	if p == "" {
		return HomePath
	}
	return path.Clean("/" + p)
}

func Decide(st domain.AuthState, requested string) Decision {
	if st.Loading {
		return Decision{Kind: Loading}
	}

	p := Normalize(requested)

	if !st.IsAuthenticated {
		if p == LoginPath {
			return Decision{Kind: RenderLogin}
		}
		return Decision{Kind: RedirectTo, Path: LoginPath}
	}

	switch {
	case p == LoginPath:
		return Decision{Kind: RedirectTo, Path: HomePath}
	case IsProtected(p):
		return Decision{Kind: RenderProtected, Path: p}
	default:
		return Decision{Kind: RenderNotFound}
	}
}
