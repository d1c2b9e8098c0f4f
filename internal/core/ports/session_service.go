package ports

import (
	"context"

	"github.com/campuslib/library-console/internal/core/domain"
)

// SessionProvider is the auth state provider as seen by the HTTP layer.
type SessionProvider interface {
	State() domain.AuthState
	Initialize(ctx context.Context) domain.AuthState
	Login(ctx context.Context, token string, user *domain.Profile) error
	Logout(ctx context.Context) error
	Invalidate(ctx context.Context) error
}

// LoginService drives the login form: it talks to the backend and commits an
// obtained token into the provider.
type LoginService interface {
	Login(ctx context.Context, email, password string) (*domain.Profile, error)
	Register(ctx context.Context, in RegisterInput) (string, error)
}

// SessionEventRecorder persists audit events.
type SessionEventRecorder interface {
	Record(ctx context.Context, ev domain.SessionEvent) error
}

// SessionEventSink accepts audit events without blocking the caller.
type SessionEventSink interface {
	Publish(ev domain.SessionEvent)
}
