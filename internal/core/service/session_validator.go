package service

import (
	"context"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
	"github.com/campuslib/library-console/internal/pkg/metrics"
)

// SessionValidator checks the stored token against GET /users/me exactly once
// per call. It never returns an error: every failure resolves to OK=false and
// clears the stored credentials.
type SessionValidator struct {
	store    ports.CredentialStore
	identity ports.IdentityClient
	validate *validator.Validate
	log      zerolog.Logger
	now      func() time.Time
}

func NewSessionValidator(store ports.CredentialStore, identity ports.IdentityClient, log zerolog.Logger) *SessionValidator {
	return &SessionValidator{
		store:    store,
		identity: identity,
		validate: validator.New(),
		log:      log.With().Str("component", "session_validator").Logger(),
		now:      time.Now,
	}
}

func (v *SessionValidator) Validate(ctx context.Context) domain.ValidationResult {
	res := v.run(ctx)
	metrics.SessionValidationsTotal.WithLabelValues(string(res.Outcome)).Inc()
	return res
}

func (v *SessionValidator) run(ctx context.Context) domain.ValidationResult {
	creds, ok, err := v.store.Get(ctx)
	if err != nil {
		v.log.Warn().Err(err).Msg("credential store unreadable, ending session")
		v.clear(ctx)
		return domain.ValidationResult{Outcome: domain.OutcomeStoreError}
	}
	if !ok {
		return domain.ValidationResult{Outcome: domain.OutcomeAbsent}
	}

	info := domain.InspectToken(creds.Token)
	log := v.log.With().Str("token", info.Fingerprint).Logger()
	if info.ExpiredAt(v.now()) {
		log.Debug().Time("expires_at", info.ExpiresAt).Msg("stored token looks expired, asking backend anyway")
	}

	user, err := v.identity.Me(ctx, creds.Token)
	if err == nil {
		err = v.checkProfile(user)
	}
	if err != nil {
		outcome := classify(err)
		log.Info().Err(err).Str("outcome", string(outcome)).Msg("stored session rejected, clearing credentials")
		v.clear(ctx)
		return domain.ValidationResult{Outcome: outcome}
	}

	log.Debug().Int64("user_id", user.ID).Msg("stored session validated")
	return domain.ValidationResult{OK: true, User: user, Outcome: domain.OutcomeValid}
}

func (v *SessionValidator) checkProfile(user *domain.Profile) error {
	if user == nil {
		return domain.ErrMalformedProfile
	}
	if err := v.validate.Struct(user); err != nil {
		return errors.Join(domain.ErrMalformedProfile, err)
	}
	return nil
}

// clear runs on a context detached from the caller so an abandoned request
// cannot leave a rejected token behind.
func (v *SessionValidator) clear(ctx context.Context) {
	if err := v.store.Clear(context.WithoutCancel(ctx)); err != nil {
		v.log.Error().Err(err).Msg("failed to clear credentials")
	}
}

func classify(err error) domain.ValidationOutcome {
	var be *domain.BackendError
	switch {
	case errors.Is(err, domain.ErrMalformedProfile):
		return domain.OutcomeMalformed
	case errors.As(err, &be):
		return domain.OutcomeRejected
	default:
		return domain.OutcomeUnreachable
	}
}
