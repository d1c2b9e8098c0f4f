package gate

import (
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/campuslib/library-console/internal/core/domain"
)

func paths() gopter.Gen {
	known := []any{"/", "/login", "/users", "/books", "/borrow-records", "/reports", "/profile", "", "/login/"}
	return gen.OneGenOf(
		gen.OneConstOf(known...),
		gen.AlphaString().Map(func(s string) string { return "/" + s }),
		gen.AnyString(),
	)
}

func TestDecideProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500
	properties := gopter.NewProperties(parameters)

	properties.Property("loading always yields the loading view", prop.ForAll(
		func(auth bool, p string) bool {
			d := Decide(domain.AuthState{Loading: true, IsAuthenticated: auth}, p)
			return d == Decision{Kind: Loading}
		},
		gen.Bool(), paths(),
	))

	properties.Property("signed out never renders a protected view", prop.ForAll(
		func(p string) bool {
			d := Decide(domain.AuthState{}, p)
			switch d.Kind {
			case RenderLogin:
				return Normalize(p) == LoginPath
			case RedirectTo:
				return d.Path == LoginPath
			default:
				return false
			}
		},
		paths(),
	))

	properties.Property("signed in never shows the login view", prop.ForAll(
		func(p string) bool {
			d := Decide(domain.AuthState{IsAuthenticated: true, User: &domain.Profile{ID: 1}}, p)
			switch d.Kind {
			case RedirectTo:
				return Normalize(p) == LoginPath && d.Path == HomePath
			case RenderProtected:
				return IsProtected(d.Path)
			case RenderNotFound:
				return !IsProtected(p)
			default:
				return false
			}
		},
		paths(),
	))

	properties.TestingRun(t)
}
