// Package store holds the CredentialStore backends: an embedded SQLite file
// (default), Redis, and an in-process map for tests and throwaway runs.
package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/campuslib/library-console/internal/core/domain"
)

// MemoryStore keeps the two entries in a map. Entries are stored in their
// serialized form so behaviour matches the durable backends.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string]string)}
}

func (s *MemoryStore) Get(_ context.Context) (domain.Credentials, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return decode(s.entries[tokenKey], s.entries[userKey])
}

func (s *MemoryStore) Set(_ context.Context, token string, user *domain.Profile) error {
	raw, err := encode(token, user)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[tokenKey] = token
	s.entries[userKey] = raw
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, tokenKey)
	delete(s.entries, userKey)
	return nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }

// Put writes a single raw entry. Tests use it to simulate partial or
// corrupted state left by other writers.
func (s *MemoryStore) Put(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = value
}

func encode(token string, user *domain.Profile) (string, error) {
	if token == "" {
		return "", domain.ErrMissingToken
	}
	if user == nil {
		return "", domain.ErrMissingProfile
	}
	b, err := json.Marshal(user)
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(b), nil
}

// decode turns the raw entries back into credentials. A token without a
// readable profile is still reported, with User nil.
func decode(token, rawUser string) (domain.Credentials, bool, error) {
	if token == "" {
		return domain.Credentials{}, false, nil
	}
	creds := domain.Credentials{Token: token}
	if rawUser != "" {
		var p domain.Profile
		if err := json.Unmarshal([]byte(rawUser), &p); err == nil {
			creds.User = &p
		}
	}
	return creds, true, nil
}
