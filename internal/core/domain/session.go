package domain

import "time"

// AuthState is the in-memory view of the session shared with the rest of the
// console. Loading is true only until the first validation resolves.
type AuthState struct {
	IsAuthenticated bool     `json:"is_authenticated"`
	Loading         bool     `json:"loading"`
	User            *Profile `json:"user"`
}

// Phase names the state machine position the snapshot is in.
func (s AuthState) Phase() Phase {
	switch {
	case s.Loading:
		return PhaseBooting
	case s.IsAuthenticated:
		return PhaseAuthenticated
	default:
		return PhaseUnauthenticated
	}
}

type Phase string

const (
	PhaseBooting         Phase = "booting"
	PhaseAuthenticated   Phase = "authenticated"
	PhaseUnauthenticated Phase = "unauthenticated"
)

// ValidationOutcome explains how a validation resolved. Everything except
// OutcomeValid ends unauthenticated.
type ValidationOutcome string

const (
	OutcomeValid       ValidationOutcome = "valid"
	OutcomeAbsent      ValidationOutcome = "absent"
	OutcomeRejected    ValidationOutcome = "rejected"
	OutcomeUnreachable ValidationOutcome = "unreachable"
	OutcomeMalformed   ValidationOutcome = "malformed"
	// OutcomeStoreError means the credential store itself could not be read.
	OutcomeStoreError  ValidationOutcome = "store_error"
)

// ValidationResult is the discriminated result of a session validation.
// User is set only when OK is true.
type ValidationResult struct {
	OK      bool
	User    *Profile
	Outcome ValidationOutcome
}

// SessionEventKind enumerates the transitions recorded in the audit trail.
type SessionEventKind string

const (
	EventInitialized SessionEventKind = "initialized"
	EventLogin       SessionEventKind = "login"
	EventLogout      SessionEventKind = "logout"
	EventInvalidated SessionEventKind = "invalidated"
)

// SessionEvent is a single state transition of the auth provider.
type SessionEvent struct {
	ID      string            `json:"id" bson:"event_id"`
	Kind    SessionEventKind  `json:"kind" bson:"kind"`
	UserID  int64             `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Outcome ValidationOutcome `json:"outcome,omitempty" bson:"outcome,omitempty"`
	Phase   Phase             `json:"phase" bson:"phase"`
	At      time.Time         `json:"at" bson:"at"`
}
