// Package client is a typed Go client for the Sprintify REST API.
//
// Every call resolves a bearer token through GetAuthHeaders first, and every
// response envelope with success=false is returned as an *APIError.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	defaultAuthWait     = 10 * time.Second
	defaultAuthAttempts = 3
	defaultAuthBackoff  = time.Second
	fallbackMessage     = "Request failed"
)

// ErrNotAuthenticated is returned when no signed-in user appears within the
// auth retry budget.
var ErrNotAuthenticated = errors.New("user not authenticated")

// APIError is a non-success response, either from the transport (non-2xx
// without an envelope) or from the application (success=false).
type APIError struct {
	StatusCode int
	Message    string
	Details    string

	data json.RawMessage
}

func (e *APIError) Error() string {
	if e.Details != "" && e.Details != e.Message {
		return e.Message + ": " + e.Details
	}
	return e.Message
}

// Client calls the Sprintify API on behalf of the user behind an AuthProvider.
// It is safe for concurrent use.
type Client struct {
	baseURL    string
	auth       AuthProvider
	httpClient *http.Client

	authWait     time.Duration
	authAttempts int
	authBackoff  time.Duration
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithAuthWait bounds how long GetAuthHeaders waits for the auth state to settle.
func WithAuthWait(d time.Duration) Option {
	return func(c *Client) { c.authWait = d }
}

// WithAuthRetry sets how many times GetAuthHeaders asks for a token when no
// user is signed in yet, and the fixed pause between attempts.
func WithAuthRetry(attempts int, backoff time.Duration) Option {
	return func(c *Client) {
		if attempts > 0 {
			c.authAttempts = attempts
		}
		c.authBackoff = backoff
	}
}

// New returns a client for the API rooted at baseURL, e.g.
// "https://api.example.com/api/v1".
func New(baseURL string, auth AuthProvider, opts ...Option) *Client {
	c := &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		auth:         auth,
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		authWait:     defaultAuthWait,
		authAttempts: defaultAuthAttempts,
		authBackoff:  defaultAuthBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// GetAuthHeaders returns the Authorization header for the current user.
//
// It first waits for the provider's auth state, giving up after the auth wait
// and carrying on. It then asks for a freshly refreshed token. While no user
// is signed in it retries with a fixed backoff, and returns
// ErrNotAuthenticated once the attempts are used up.
func (c *Client) GetAuthHeaders(ctx context.Context) (http.Header, error) {
	waitCtx, cancel := context.WithTimeout(ctx, c.authWait)
	_ = c.auth.WaitReady(waitCtx)
	cancel()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	for attempt := 1; attempt <= c.authAttempts; attempt++ {
		token, err := c.auth.Token(ctx, true)
		switch {
		case err == nil && token != "":
			h := http.Header{}
			h.Set("Authorization", "Bearer "+token)
			return h, nil
		case err != nil && !errors.Is(err, ErrNoCurrentUser):
			return nil, fmt.Errorf("failed to get ID token: %w", err)
		}
		if attempt == c.authAttempts {
			break
		}
		timer := time.NewTimer(c.authBackoff)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}
	return nil, ErrNotAuthenticated
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

type request struct {
	method  string
	path    string
	query   url.Values
	body    interface{}
	ifMatch string
}

// do sends r and decodes the envelope's data into out when out is non-nil.
func (c *Client) do(ctx context.Context, r request, out interface{}) error {
	headers, err := c.GetAuthHeaders(ctx)
	if err != nil {
		return err
	}

	u := c.baseURL + r.path
	if len(r.query) > 0 {
		u += "?" + r.query.Encode()
	}
	var body io.Reader
	if r.body != nil {
		raw, err := json.Marshal(r.body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		body = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, r.method, u, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header = headers
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.ifMatch != "" {
		req.Header.Set("If-Match", r.ifMatch)
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", r.method, r.path, err)
	}
	defer res.Body.Close()

	var env envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		return &APIError{StatusCode: res.StatusCode, Message: fallbackMessage, Details: res.Status}
	}
	if !env.Success || res.StatusCode >= http.StatusBadRequest {
		apiErr := &APIError{StatusCode: res.StatusCode, Message: env.Error, Details: env.Message, data: env.Data}
		if apiErr.Message == "" {
			apiErr.Message, apiErr.Details = env.Message, ""
		}
		if apiErr.Message == "" {
			apiErr.Message = fallbackMessage
		}
		return apiErr
	}
	if out == nil || len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", r.method, r.path, err)
	}
	return nil
}
