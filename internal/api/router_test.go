package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/service"
	"github.com/campuslib/library-console/internal/infrastructure/backend"
	"github.com/campuslib/library-console/internal/infrastructure/store"
	"github.com/campuslib/library-console/internal/testutil/fakebackend"
)

type console struct {
	e        *echo.Echo
	srv      *fakebackend.Server
	store    *store.MemoryStore
	provider *service.AuthProvider
}

func newConsole(t *testing.T, rateLimit float64) *console {
	t.Helper()
	srv := fakebackend.New(t)
	client := backend.New(srv.URL, time.Second)
	creds := store.NewMemoryStore()
	provider := service.NewAuthProvider(creds, service.NewSessionValidator(creds, client, zerolog.Nop()), zerolog.Nop())
	reg := prometheus.NewRegistry()
	e := NewRouter(Deps{
		Sessions:       provider,
		Login:          service.NewLoginService(client, provider, zerolog.Nop()),
		Store:          creds,
		Log:            zerolog.Nop(),
		LoginRateLimit: rateLimit,
		Registerer:     reg,
		Gatherer:       reg,
	})
	return &console{e: e, srv: srv, store: creds, provider: provider}
}

func (c *console) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c.e.ServeHTTP(rec, req)
	return rec
}

func body(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func TestRouter_BootingGatesEverything(t *testing.T) {
	c := newConsole(t, 100)

	rec := c.do(http.MethodGet, "/books", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "loading", body(t, rec)["view"])

	rec = c.do(http.MethodPost, "/session/login", `{"email":"jane@campus.edu","password":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusServiceUnavailable, c.do(http.MethodGet, "/health/ready", "").Code)
	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/health", "").Code)
}

func TestRouter_ResumedSession(t *testing.T) {
	c := newConsole(t, 100)
	c.srv.AcceptToken("abc123", domain.Profile{ID: 1, FullName: "Jane Doe", Role: domain.RoleLibrarian})
	require.NoError(t, c.store.Set(context.Background(), "abc123", &domain.Profile{ID: 1, FullName: "Jane Doe"}))
	c.provider.Initialize(context.Background())

	rec := c.do(http.MethodGet, "/login", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/", rec.Header().Get(echo.HeaderLocation))

	rec = c.do(http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "dashboard", body(t, rec)["screen"])

	assert.Equal(t, http.StatusNotFound, c.do(http.MethodGet, "/shelves", "").Code)
}

func TestRouter_LoginLogoutRoundTrip(t *testing.T) {
	c := newConsole(t, 100)
	c.srv.AddUser("Jane Doe", "jane@campus.edu", "hunter22")
	c.provider.Initialize(context.Background())

	rec := c.do(http.MethodGet, "/books", "")
	assert.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get(echo.HeaderLocation))

	rec = c.do(http.MethodPost, "/session/login", `{"email":"jane@campus.edu","password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", body(t, rec)["error"])

	rec = c.do(http.MethodPost, "/session/login", `{"email":"ghost@campus.edu","password":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", body(t, rec)["error"])

	rec = c.do(http.MethodPost, "/session/login", `{"email":"jane@campus.edu","password":"hunter22"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, body(t, rec)["is_authenticated"])

	assert.Equal(t, http.StatusOK, c.do(http.MethodGet, "/books", "").Code)

	rec = c.do(http.MethodPost, "/session/logout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, body(t, rec)["is_authenticated"])
	_, ok, _ := c.store.Get(context.Background())
	assert.False(t, ok)

	assert.Equal(t, http.StatusOK, c.do(http.MethodPost, "/session/logout", "").Code, "logout is idempotent")
	assert.Equal(t, http.StatusFound, c.do(http.MethodGet, "/books", "").Code)
}

func TestRouter_Register(t *testing.T) {
	c := newConsole(t, 100)
	c.provider.Initialize(context.Background())
	payload := `{"full_name":"Ada Reader","email":"ada@campus.edu","password":"s3cret!"}`

	rec := c.do(http.MethodPost, "/session/register", payload)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, "User registered successfully", body(t, rec)["message"])

	rec = c.do(http.MethodPost, "/session/register", payload)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "User already exists", body(t, rec)["error"])

	rec = c.do(http.MethodPost, "/session/register", `{"email":"bad"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	c := newConsole(t, 1)
	c.provider.Initialize(context.Background())

	codes := make(map[int]int)
	for i := 0; i < 5; i++ {
		codes[c.do(http.MethodPost, "/session/login", `{"email":"ghost@campus.edu","password":"x"}`).Code]++
	}
	assert.Positive(t, codes[http.StatusTooManyRequests])
}

func TestRouter_MetricsExposed(t *testing.T) {
	c := newConsole(t, 100)
	c.do(http.MethodGet, "/health", "")

	rec := c.do(http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "library_console_requests_total")
}

func TestRouter_BackendDownOnLogin(t *testing.T) {
	c := newConsole(t, 100)
	c.provider.Initialize(context.Background())
	c.srv.Close()

	rec := c.do(http.MethodPost, "/session/login", `{"email":"jane@campus.edu","password":"hunter22"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)
	assert.Equal(t, "library backend unavailable", body(t, rec)["error"])
}
