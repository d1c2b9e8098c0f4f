package ports

import (
	"context"

	"github.com/campuslib/library-console/internal/core/domain"
)

// IdentityClient resolves a bearer token to the profile it belongs to.
type IdentityClient interface {
	Me(ctx context.Context, token string) (*domain.Profile, error)
}

// RegisterInput is the registration form as sent to POST /register.
type RegisterInput struct {
	FullName string `json:"full_name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Role     string `json:"role"`
}

// BackendClient is the subset of the library REST API the session core and
// the login form depend on.
type BackendClient interface {
	IdentityClient
	Login(ctx context.Context, email, password string) (token string, err error)
	Register(ctx context.Context, in RegisterInput) (message string, err error)
}
