package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubStore struct {
	mu       sync.Mutex
	creds    *domain.Credentials
	getErr   error
	setErr   error
	clearErr error
	clears   int
	clearFn  func()
}

func newStubStore(token string, user *domain.Profile) *stubStore {
	s := &stubStore{}
	if token != "" {
		s.creds = &domain.Credentials{Token: token, User: user.Clone()}
	}
	return s
}

func (s *stubStore) Get(context.Context) (domain.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.getErr != nil {
		return domain.Credentials{}, false, s.getErr
	}
	if s.creds == nil {
		return domain.Credentials{}, false, nil
	}
	return domain.Credentials{Token: s.creds.Token, User: s.creds.User.Clone()}, true, nil
}

func (s *stubStore) Set(_ context.Context, token string, user *domain.Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	s.creds = &domain.Credentials{Token: token, User: user.Clone()}
	return nil
}

func (s *stubStore) Clear(context.Context) error {
	s.mu.Lock()
	s.clears++
	if s.clearErr != nil {
		err := s.clearErr
		s.mu.Unlock()
		return err
	}
	s.creds = nil
	fn := s.clearFn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
	return nil
}

func (s *stubStore) Ping(context.Context) error { return nil }

func (s *stubStore) empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.creds == nil
}

type stubIdentity struct {
	calls atomic.Int64
	meFn  func(ctx context.Context, token string) (*domain.Profile, error)
}

func (s *stubIdentity) Me(ctx context.Context, token string) (*domain.Profile, error) {
	s.calls.Add(1)
	return s.meFn(ctx, token)
}

type stubBackend struct {
	stubIdentity
	loginFn    func(ctx context.Context, email, password string) (string, error)
	registerFn func(ctx context.Context, in ports.RegisterInput) (string, error)
}

func (s *stubBackend) Login(ctx context.Context, email, password string) (string, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubBackend) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	return s.registerFn(ctx, in)
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.SessionEvent
}

func (r *recordingSink) Publish(ev domain.SessionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recordingSink) kinds() []domain.SessionEventKind {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.SessionEventKind, 0, len(r.events))
	for _, ev := range r.events {
		out = append(out, ev.Kind)
	}
	return out
}

var errNetwork = errors.New("dial tcp: connection refused")

func jane() *domain.Profile {
	return &domain.Profile{ID: 1, FullName: "Jane Doe", Email: "jane@campus.edu", Role: domain.RoleLibrarian}
}
