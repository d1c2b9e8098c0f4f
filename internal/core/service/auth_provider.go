package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
	"github.com/campuslib/library-console/internal/pkg/metrics"
)

const defaultValidationTimeout = 10 * time.Second

// Validator is satisfied by *SessionValidator.
type Validator interface {
	Validate(ctx context.Context) domain.ValidationResult
}

// AuthProvider owns the session state machine:
//
//	booting ──Initialize──▶ authenticated | unauthenticated
//	unauthenticated ──Login──▶ authenticated
//	authenticated ──Logout/Invalidate──▶ unauthenticated
//
// It is constructed once per process and handed to the HTTP layer.
type AuthProvider struct {
	store     ports.CredentialStore
	validator Validator
	events    ports.SessionEventSink
	log       zerolog.Logger
	timeout   time.Duration

	init singleflight.Group

	// writeMu serialises the store write, state update and broadcast of
	// Initialize, Login, Logout and Invalidate.
	writeMu sync.Mutex

	mu       sync.RWMutex
	state    domain.AuthState
	resolved bool
	gen      uint64

	subsMu  sync.Mutex
	subs    map[int]chan domain.AuthState
	nextSub int
}

// ProviderOption customises an AuthProvider.
type ProviderOption func(*AuthProvider)

// WithEventSink publishes every transition to sink.
func WithEventSink(sink ports.SessionEventSink) ProviderOption {
	return func(p *AuthProvider) { p.events = sink }
}

// WithValidationTimeout bounds the boot-time validation round-trip.
func WithValidationTimeout(d time.Duration) ProviderOption {
	return func(p *AuthProvider) {
		if d > 0 {
			p.timeout = d
		}
	}
}

func NewAuthProvider(store ports.CredentialStore, v Validator, log zerolog.Logger, opts ...ProviderOption) *AuthProvider {
	p := &AuthProvider{
		store:     store,
		validator: v,
		log:       log.With().Str("component", "auth_provider").Logger(),
		timeout:   defaultValidationTimeout,
		state:     domain.AuthState{Loading: true},
		subs:      make(map[int]chan domain.AuthState),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// State returns a snapshot safe to hand to other goroutines.
func (p *AuthProvider) State() domain.AuthState {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot(p.state)
}

// Initialize validates the stored session once per provider lifetime.
// Concurrent callers share a single validation round-trip; callers arriving
// after it resolved get the current state without touching the network.
//
// The validation runs detached from ctx. A caller whose ctx ends early gets
// the state as it stands, and the shared validation still resolves it.
func (p *AuthProvider) Initialize(ctx context.Context) domain.AuthState {
	if st, ok := p.resolvedState(); ok {
		return st
	}

	ch := p.init.DoChan("initialize", func() (any, error) {
		return p.initialize(), nil
	})

	select {
	case r := <-ch:
		return r.Val.(domain.AuthState)
	case <-ctx.Done():
		return p.State()
	}
}

func (p *AuthProvider) resolvedState() (domain.AuthState, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return snapshot(p.state), p.resolved
}

func (p *AuthProvider) initialize() domain.AuthState {
	p.mu.RLock()
	if p.resolved {
		st := snapshot(p.state)
		p.mu.RUnlock()
		return st
	}
	gen := p.gen
	p.mu.RUnlock()

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	start := time.Now()
	res := p.validator.Validate(ctx)
	metrics.SessionInitializeDuration.WithLabelValues(string(res.Outcome)).Observe(time.Since(start).Seconds())

	// A Logout racing the boot result is ordered after its broadcast.
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	p.mu.Lock()
	switch {
	case p.gen != gen:
		// Logged out while booting; that decision stands.
		p.state = domain.AuthState{}
	case res.OK:
		p.state = domain.AuthState{IsAuthenticated: true, User: res.User.Clone()}
	default:
		p.state = domain.AuthState{}
	}
	p.resolved = true
	st := snapshot(p.state)
	p.mu.Unlock()

	p.log.Info().
		Str("outcome", string(res.Outcome)).
		Str("phase", string(st.Phase())).
		Dur("took", time.Since(start)).
		Msg("session initialized")

	p.broadcast(st)
	p.emit(domain.EventInitialized, st, res.Outcome)
	return st
}

// Login commits a token obtained by the login form. It does not call the
// backend. Logging in before the boot validation resolved is refused.
func (p *AuthProvider) Login(ctx context.Context, token string, user *domain.Profile) error {
	if token == "" {
		return domain.ErrMissingToken
	}
	if user == nil {
		return domain.ErrMissingProfile
	}

	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if _, ok := p.resolvedState(); !ok {
		return domain.ErrSessionBooting
	}

	if err := p.store.Set(ctx, token, user); err != nil {
		return fmt.Errorf("persist credentials: %w", err)
	}

	p.mu.Lock()
	p.state = domain.AuthState{IsAuthenticated: true, User: user.Clone()}
	p.gen++
	st := snapshot(p.state)
	p.mu.Unlock()

	p.log.Info().Int64("user_id", user.ID).Str("role", user.Role).Msg("session started")
	p.broadcast(st)
	p.emit(domain.EventLogin, st, "")
	return nil
}

// Logout clears the stored credentials and drops to unauthenticated. Calling
// it when already logged out is a no-op apart from the idempotent clear.
func (p *AuthProvider) Logout(ctx context.Context) error {
	return p.end(ctx, domain.EventLogout)
}

// Invalidate is the transition collaborators use when a later API call comes
// back unauthorized. It ends in the same state as Logout.
func (p *AuthProvider) Invalidate(ctx context.Context) error {
	return p.end(ctx, domain.EventInvalidated)
}

func (p *AuthProvider) end(ctx context.Context, kind domain.SessionEventKind) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	clearErr := p.store.Clear(ctx)

	p.mu.Lock()
	prev := p.state
	// While booting the pending validation still owns the loading flag; gen
	// tells it to resolve unauthenticated.
	p.state = domain.AuthState{Loading: !p.resolved}
	p.gen++
	st := snapshot(p.state)
	p.mu.Unlock()

	if clearErr != nil {
		p.log.Error().Err(clearErr).Str("kind", string(kind)).Msg("failed to clear credentials")
	}

	if prev.IsAuthenticated {
		ev := p.log.Info().Str("kind", string(kind))
		if prev.User != nil {
			ev = ev.Int64("user_id", prev.User.ID)
		}
		ev.Msg("session ended")
		p.broadcast(st)
		p.emit(kind, domain.AuthState{User: prev.User}, "")
	}

	if clearErr != nil {
		return fmt.Errorf("clear credentials: %w", clearErr)
	}
	return nil
}

// Subscribe streams state snapshots, starting with the current one. The
// channel holds only the latest snapshot; a slow reader skips intermediate
// ones instead of blocking writers. Call cancel to stop receiving.
func (p *AuthProvider) Subscribe() (<-chan domain.AuthState, func()) {
	ch := make(chan domain.AuthState, 1)

	p.subsMu.Lock()
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch
	ch <- p.State()
	p.subsMu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			p.subsMu.Lock()
			delete(p.subs, id)
			close(ch)
			p.subsMu.Unlock()
		})
	}
	return ch, cancel
}

func (p *AuthProvider) broadcast(st domain.AuthState) {
	p.subsMu.Lock()
	defer p.subsMu.Unlock()
	for _, ch := range p.subs {
		select {
		case <-ch:
		default:
		}
		ch <- snapshot(st)
	}
}

func (p *AuthProvider) emit(kind domain.SessionEventKind, st domain.AuthState, outcome domain.ValidationOutcome) {
	metrics.SessionTransitionsTotal.WithLabelValues(string(kind)).Inc()
	if p.events == nil {
		return
	}
	ev := domain.SessionEvent{
		ID:      uuid.NewString(),
		Kind:    kind,
		Outcome: outcome,
		Phase:   st.Phase(),
		At:      time.Now().UTC(),
	}
	if st.User != nil {
		ev.UserID = st.User.ID
	}
	p.events.Publish(ev)
}

func snapshot(s domain.AuthState) domain.AuthState {
	s.User = s.User.Clone()
	return s
}
