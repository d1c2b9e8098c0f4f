package gate

import (
	"testing"

	"github.com/campuslib/library-console/internal/core/domain"
)

var (
	booting  = domain.AuthState{Loading: true}
	signedIn = domain.AuthState{IsAuthenticated: true, User: &domain.Profile{ID: 1, FullName: "Jane Doe"}}
	anon     = domain.AuthState{}
)

func TestDecide(t *testing.T) {
	tests := []struct {
		name  string
		state domain.AuthState
		path  string
		want  Decision
	}{
		{"loading hides protected", booting, "/books", Decision{Kind: Loading}},
		{"loading hides login", booting, "/login", Decision{Kind: Loading}},
		{"loading with stale auth flag", domain.AuthState{Loading: true, IsAuthenticated: true}, "/", Decision{Kind: Loading}},

		{"signed in login redirects home", signedIn, "/login", Decision{Kind: RedirectTo, Path: "/"}},
		{"signed in dashboard", signedIn, "/", Decision{Kind: RenderProtected, Path: "/"}},
		{"signed in books", signedIn, "/books", Decision{Kind: RenderProtected, Path: "/books"}},
		{"signed in borrow records", signedIn, "/borrow-records", Decision{Kind: RenderProtected, Path: "/borrow-records"}},
		{"signed in trailing slash", signedIn, "/reports/", Decision{Kind: RenderProtected, Path: "/reports"}},
		{"signed in query string", signedIn, "/users?page=2", Decision{Kind: RenderProtected, Path: "/users"}},
		{"signed in unknown", signedIn, "/shelves", Decision{Kind: RenderNotFound}},
		{"signed in nested unknown", signedIn, "/books/42", Decision{Kind: RenderNotFound}},

		{"anon login", anon, "/login", Decision{Kind: RenderLogin}},
		{"anon login trailing slash", anon, "/login/", Decision{Kind: RenderLogin}},
		{"anon protected", anon, "/books", Decision{Kind: RedirectTo, Path: "/login"}},
		{"anon home", anon, "", Decision{Kind: RedirectTo, Path: "/login"}},
		{"anon unknown", anon, "/nowhere", Decision{Kind: RedirectTo, Path: "/login"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Decide(tt.state, tt.path); got != tt.want {
				t.Fatalf("Decide(%+v, %q) = %+v, want %+v", tt.state, tt.path, got, tt.want)
			}
		})
	}
}

func TestNormalize(t *testing.T) {
	cases := map[string]string{
		"":            "/",
		"/":           "/",
		"books":       "/books",
		"/books/":     "/books",
		"//books":     "/books",
		"/a/../books": "/books",
		"/login#top":  "/login",
	}
	for in, want := range cases {
		if got := Normalize(in); got != want {
			t.Fatalf("Normalize(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestViewName(t *testing.T) {
	if got := ViewName("/borrow-records/"); got != "borrow_records" {
		t.Fatalf("unexpected view name %q", got)
	}
	if got := ViewName("/login"); got != "" {
		t.Fatalf("login is not a protected view, got %q", got)
	}
}
