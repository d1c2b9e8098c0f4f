package ports

import (
	"context"

	"github.com/campuslib/library-console/internal/core/domain"
)

// CredentialStore is the only component allowed to touch durable storage for
// auth purposes. It persists two entries under fixed keys: the bearer token
// and the JSON-encoded profile.
//
// Get reports ok=false when no token is stored. Set writes both entries so no
// reader observes one without the other. Clear removes both and is a no-op on
// an empty store.
type CredentialStore interface {
	Get(ctx context.Context) (creds domain.Credentials, ok bool, err error)
	Set(ctx context.Context, token string, user *domain.Profile) error
	Clear(ctx context.Context) error
	Ping(ctx context.Context) error
}

const (
	TokenKey = "token"
	UserKey  = "user"
)
