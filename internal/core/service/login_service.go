package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
)

// LoginService implements the login form flow: POST /login, then GET
// /users/me with the new token, then commit both into the provider. Nothing
// is persisted unless every step succeeds.
type LoginService struct {
	backend  ports.BackendClient
	sessions ports.SessionProvider
	validate *validator.Validate
	log      zerolog.Logger
}

func NewLoginService(backend ports.BackendClient, sessions ports.SessionProvider, log zerolog.Logger) *LoginService {
	return &LoginService{
		backend:  backend,
		sessions: sessions,
		validate: validator.New(),
		log:      log.With().Str("component", "login_service").Logger(),
	}
}

func (s *LoginService) Login(ctx context.Context, email, password string) (*domain.Profile, error) {
	if email == "" || password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	token, err := s.backend.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrMissingToken
	}

	user, err := s.backend.Me(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("fetch profile: %w", err)
	}
	if err := s.validate.Struct(user); err != nil {
		return nil, errors.Join(domain.ErrMalformedProfile, err)
	}

	if err := s.sessions.Login(ctx, token, user); err != nil {
		return nil, err
	}
	return user, nil
}

// Register creates a librarian account. It does not sign the user in; the
// returned message is the backend's confirmation text.
func (s *LoginService) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	in.Role = domain.RoleLibrarian
	if err := s.validate.Struct(in); err != nil {
		return "", errors.Join(domain.ErrInvalidCredentials, err)
	}

	msg, err := s.backend.Register(ctx, in)
	if err != nil {
		return "", err
	}
	s.log.Info().Str("email", in.Email).Msg("librarian registered")
	return msg, nil
}
