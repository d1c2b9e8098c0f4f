// Package backend is the HTTP client for the library REST API.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/campuslib/library-console/internal/core/domain"
	"github.com/campuslib/library-console/internal/core/ports"
)

const (
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Client talks to the backend. The zero value is not usable; use New.
type Client struct {
	baseURL string
	http    *http.Client
}

// Option customises a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying client; its transport is used as is.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func New(baseURL string, timeout time.Duration, opts ...Option) *Client {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var _ ports.BackendClient = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// reply covers every JSON shape the backend answers auth calls with.
type reply struct {
	Token   string `json:"token"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

// Me resolves token to its profile via GET /users/me.
func (c *Client) Me(ctx context.Context, token string) (*domain.Profile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/users/me", nil)
	if err != nil {
		return nil, fmt.Errorf("build identity request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")

	status, body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, &domain.BackendError{Status: status, Message: messageOf(body)}
	}

	var p domain.Profile
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedProfile, err)
	}
	return &p, nil
}

// Login exchanges credentials for a bearer token via POST /login.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	status, body, err := c.postJSON(ctx, "/login", loginRequest{Email: email, Password: password})
	if err != nil {
		return "", err
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		// Plain-text answers such as "User not found" are shown verbatim.
		return "", &domain.BackendError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	if status != http.StatusOK || r.Token == "" {
		return "", &domain.BackendError{Status: status, Message: r.text(body)}
	}
	return r.Token, nil
}

// Register creates an account via POST /register and returns the server's
// confirmation message.
func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (string, error) {
	status, body, err := c.postJSON(ctx, "/register", in)
	if err != nil {
		return "", err
	}

	var r reply
	if err := json.Unmarshal(body, &r); err != nil {
		return "", &domain.BackendError{Status: status, Message: strings.TrimSpace(string(body))}
	}
	if status < 200 || status > 299 {
		return "", &domain.BackendError{Status: status, Message: r.text(body)}
	}
	return r.Message, nil
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) (int, []byte, error) {
	b, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("encode %s request: %w", path, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(b))
	if err != nil {
		return 0, nil, fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) do(req *http.Request) (int, []byte, error) {
	res, err := c.http.Do(req)
	if err != nil {
		return 0, nil, errors.Join(domain.ErrBackendUnavailable, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, errors.Join(domain.ErrBackendUnavailable, fmt.Errorf("read response: %w", err))
	}
	return res.StatusCode, body, nil
}

func (r reply) text(body []byte) string {
	switch {
	case r.Message != "":
		return r.Message
	case r.Error != "":
		return r.Error
	default:
		return strings.TrimSpace(string(body))
	}
}

func messageOf(body []byte) string {
	var r reply
	if err := json.Unmarshal(body, &r); err == nil {
		return r.text(body)
	}
	return strings.TrimSpace(string(body))
}
