package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo is a log-safe description of a bearer token.
//
// Tokens are opaque to the console. When the backend happens to issue JWTs the
// unverified expiry is surfaced for diagnostics only; it never decides whether
// a session is valid.
type TokenInfo struct {
	Fingerprint string
	ExpiresAt   time.Time
}

// InspectToken never fails; unknown formats yield a zero ExpiresAt.
func InspectToken(token string) TokenInfo {
	sum := sha256.Sum256([]byte(token))
	info := TokenInfo{Fingerprint: hex.EncodeToString(sum[:4])}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err == nil && claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info
}

// ExpiredAt reports whether the unverified expiry is known and before now.
func (i TokenInfo) ExpiredAt(now time.Time) bool {
	return !i.ExpiresAt.IsZero() && i.ExpiresAt.Before(now)
}
