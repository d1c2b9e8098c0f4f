// Package fakebackend is an in-process stand-in for the library REST API,
// used by tests. It signs HS256 tokens, keeps bcrypt password hashes, and
// counts identity lookups.
package fakebackend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/campuslib/library-console/internal/core/domain"
)

type account struct {
	profile domain.Profile
	hash    []byte
}

// Server is an httptest server speaking the backend's auth endpoints.
type Server struct {
	*httptest.Server

	secret []byte

	mu       sync.Mutex
	accounts map[string]*account
	tokens   map[string]domain.Profile
	nextID   int64
	override *reply
	hold     chan struct{}

	meCalls atomic.Int64
}

type reply struct {
	status int
	body   string
}

// New starts a server that is closed when the test ends.
func New(t testing.TB) *Server {
	t.Helper()
	s := &Server{
		secret:   []byte("test-secret"),
		accounts: make(map[string]*account),
		tokens:   make(map[string]domain.Profile),
		nextID:   1,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/me", s.me)
	mux.HandleFunc("POST /login", s.login)
	mux.HandleFunc("POST /register", s.register)
	s.Server = httptest.NewServer(mux)
	t.Cleanup(s.Close)
	return s
}

// AddUser registers an account directly and returns its profile.
func (s *Server) AddUser(fullName, email, password string) domain.Profile {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p := domain.Profile{ID: s.nextID, FullName: fullName, Email: email, Role: domain.RoleLibrarian}
	s.nextID++
	s.accounts[email] = &account{profile: p, hash: hash}
	return p
}

// AcceptToken makes /users/me answer token with p.
func (s *Server) AcceptToken(token string, p domain.Profile) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tokens[token] = p
}

// SignToken issues a JWT for p that expires after ttl.
func (s *Server) SignToken(p domain.Profile, ttl time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   strconv.FormatInt(p.ID, 10),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(err)
	}
	return signed
}

// RespondMe forces every /users/me answer to status and raw body.
func (s *Server) RespondMe(status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = &reply{status: status, body: body}
}

// Hold blocks /users/me requests until the returned release func is called.
func (s *Server) Hold() (release func()) {
	ch := make(chan struct{})
	s.mu.Lock()
	s.hold = ch
	s.mu.Unlock()
	var once sync.Once
	return func() { once.Do(func() { close(ch) }) }
}

// MeCalls is the number of /users/me requests served so far.
func (s *Server) MeCalls() int64 {
	return s.meCalls.Load()
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	s.meCalls.Add(1)

	s.mu.Lock()
	hold, override := s.hold, s.override
	s.mu.Unlock()
	if hold != nil {
		<-hold
	}
	if override != nil {
		w.WriteHeader(override.status)
		_, _ = w.Write([]byte(override.body))
		return
	}

	token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	if !ok || token == "" {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "No token provided"})
		return
	}
	p, ok := s.lookup(token)
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid token"})
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Server) lookup(token string) (domain.Profile, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.tokens[token]; ok {
		return p, true
	}

	var claims jwt.RegisteredClaims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return domain.Profile{}, false
	}
	for _, a := range s.accounts {
		if strconv.FormatInt(a.profile.ID, 10) == claims.Subject {
			return a.profile, true
		}
	}
	return domain.Profile{}, false
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	a, ok := s.accounts[req.Email]
	s.mu.Unlock()
	if !ok {
		// The real backend answers this one in plain text.
		w.WriteHeader(http.StatusNotFound)
		_, _ = fmt.Fprint(w, "User not found")
		return
	}
	if bcrypt.CompareHashAndPassword(a.hash, []byte(req.Password)) != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "Invalid credentials"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": s.SignToken(a.profile, time.Hour)})
}

func (s *Server) register(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FullName string `json:"full_name"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Role     string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid request body"})
		return
	}

	s.mu.Lock()
	_, exists := s.accounts[req.Email]
	s.mu.Unlock()
	if exists {
		writeJSON(w, http.StatusConflict, map[string]string{"message": "User already exists"})
		return
	}
	if req.Role != domain.RoleLibrarian {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "Invalid role"})
		return
	}
	s.AddUser(req.FullName, req.Email, req.Password)
	writeJSON(w, http.StatusOK, map[string]string{"message": "User registered successfully"})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
