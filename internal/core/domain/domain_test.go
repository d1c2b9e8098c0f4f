package domain

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signed(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   "1",
		ExpiresAt: jwt.NewNumericDate(exp),
	}).SignedString([]byte("irrelevant"))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	return tok
}

func TestInspectToken_OpaqueToken(t *testing.T) {
	info := InspectToken("abc123")
	if len(info.Fingerprint) != 8 {
		t.Fatalf("unexpected fingerprint %q", info.Fingerprint)
	}
	if !info.ExpiresAt.IsZero() || info.ExpiredAt(time.Now()) {
		t.Fatalf("opaque token has no expiry: %+v", info)
	}
	if InspectToken("abc123").Fingerprint != info.Fingerprint {
		t.Fatalf("fingerprint must be stable")
	}
}

func TestInspectToken_JWTExpiry(t *testing.T) {
	now := time.Now()
	past := InspectToken(signed(t, now.Add(-time.Hour)))
	if !past.ExpiredAt(now) {
		t.Fatalf("expected expired, got %+v", past)
	}
	future := InspectToken(signed(t, now.Add(time.Hour)))
	if future.ExpiredAt(now) {
		t.Fatalf("expected not expired, got %+v", future)
	}
}

func TestBackendError_Unwrap(t *testing.T) {
	var err error = fmt.Errorf("me: %w", &BackendError{Status: 401, Message: "Invalid token"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("401 should match ErrUnauthorized")
	}
	if errors.Is(&BackendError{Status: 403}, ErrUnauthorized) {
		t.Fatalf("403 should not match ErrUnauthorized")
	}
}

func TestAuthState_Phase(t *testing.T) {
	cases := []struct {
		st   AuthState
		want Phase
	}{
		{AuthState{Loading: true}, PhaseBooting},
		{AuthState{IsAuthenticated: true, User: &Profile{ID: 1}}, PhaseAuthenticated},
		{AuthState{}, PhaseUnauthenticated},
	}
	for _, c := range cases {
		if got := c.st.Phase(); got != c.want {
			t.Fatalf("Phase(%+v) = %s, want %s", c.st, got, c.want)
		}
	}
}

func TestProfile_Clone(t *testing.T) {
	var nilProfile *Profile
	if nilProfile.Clone() != nil {
		t.Fatalf("nil clone should be nil")
	}
	p := &Profile{ID: 1, FullName: "Jane Doe"}
	c := p.Clone()
	c.FullName = "changed"
	if p.FullName != "Jane Doe" {
		t.Fatalf("clone shares memory")
	}
}
