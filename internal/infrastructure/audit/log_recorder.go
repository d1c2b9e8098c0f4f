package audit

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/campuslib/library-console/internal/core/domain"
)

// LogRecorder writes session events to the log. It is used when no audit
// database is configured.
type LogRecorder struct {
	log zerolog.Logger
}

func NewLogRecorder(log zerolog.Logger) *LogRecorder {
	return &LogRecorder{log: log.With().Str("component", "audit").Logger()}
}

func (r *LogRecorder) Record(_ context.Context, ev domain.SessionEvent) error {
	e := r.log.Info().
		Str("event_id", ev.ID).
		Str("kind", string(ev.Kind)).
		Str("phase", string(ev.Phase)).
		Time("at", ev.At)
	if ev.UserID != 0 {
		e = e.Int64("user_id", ev.UserID)
	}
	if ev.Outcome != "" {
		e = e.Str("outcome", string(ev.Outcome))
	}
	e.Msg("session event")
	return nil
}
