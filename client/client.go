package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	goerrors "github.com/goliatone/go-errors"
)

// DefaultBaseURL is the single documented default. Earlier revisions of the
// console disagreed between a local and a hosted URL; configuration is now
// the only way to point elsewhere.
const DefaultBaseURL = "http://localhost:3000"

const authBasePath = "/api/usuarios-autenticacion"

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// TokenSource supplies the bearer credential attached to authenticated
// calls. The console session store satisfies it.
type TokenSource interface {
	AccessToken(ctx context.Context) (string, bool)
}

// TokenSourceFunc adapts a function to the TokenSource interface.
type TokenSourceFunc func(ctx context.Context) (string, bool)

func (f TokenSourceFunc) AccessToken(ctx context.Context) (string, bool) {
	if f == nil {
		return "", false
	}
	return f(ctx)
}

// Capabilities is the negotiated feature set of the backend revision we talk
// to. One revision supports hard deletes, another only soft deactivation.
type Capabilities struct {
	HardDelete bool
}

// Client is the thin wrapper around the HTTP/JSON backend. It carries no
// retry policy and no default timeout: failures surface once, and callers
// bound calls through ctx, matching the behavior the console always had.
type Client struct {
	baseURL string
	http    *http.Client
	tokens  TokenSource
	caps    Capabilities
	logger  Logger
}

type Option func(*Client)

// WithHTTPClient overrides the underlying http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

// WithTokenSource wires the bearer token provider.
func WithTokenSource(ts TokenSource) Option {
	return func(c *Client) {
		c.tokens = ts
	}
}

// WithCapabilities pins the backend capability set instead of assuming full
// CRUD.
func WithCapabilities(caps Capabilities) Option {
	return func(c *Client) {
		c.caps = caps
	}
}

// WithLogger overrides the default logger.
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

func New(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		caps:    Capabilities{HardDelete: true},
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}

	return c
}

// BaseURL returns the configured backend origin.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Capabilities returns the currently negotiated backend feature set.
func (c *Client) Capabilities() Capabilities {
	return c.caps
}

func (c *Client) url(path string) string {
	return c.baseURL + path
}

// doJSON issues a request with an optional JSON body and decodes the JSON
// response into out when non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, body any, out any, authenticated bool) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to encode request body")
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.url(path), reader)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to build request")
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	if authenticated {
		if err := c.authorize(ctx, req); err != nil {
			return err
		}
	}

	return c.send(req, out)
}

func (c *Client) authorize(ctx context.Context, req *http.Request) error {
	if c.tokens == nil {
		return goerrors.New("no token source configured", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}
	token, ok := c.tokens.AccessToken(ctx)
	if !ok {
		return goerrors.New("no access token available", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

func (c *Client) send(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryOperation, "request to backend failed").
			WithMetadata(map[string]any{
				"method": req.Method,
				"path":   req.URL.Path,
			})
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return c.responseError(resp)
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to decode backend response").
			WithMetadata(map[string]any{
				"path": req.URL.Path,
			})
	}

	return nil
}

// responseError turns a non-success response into a rich error. The body is
// parsed as JSON first (message, then error field), falling back to raw
// text, falling back to a generic message.
func (c *Client) responseError(resp *http.Response) error {
	message := extractErrorMessage(resp)

	category := goerrors.CategoryInternal
	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		category = goerrors.CategoryAuth
	case resp.StatusCode == http.StatusForbidden:
		category = goerrors.CategoryAuthz
	case resp.StatusCode == http.StatusNotFound:
		category = goerrors.CategoryNotFound
	case resp.StatusCode >= 400 && resp.StatusCode < 500:
		category = goerrors.CategoryBadInput
	}

	c.logger.Warn("backend returned error",
		"status", resp.StatusCode,
		"path", resp.Request.URL.Path,
		"message", message,
	)

	return goerrors.New(message, category).
		WithCode(resp.StatusCode).
		WithMetadata(map[string]any{
			"status": resp.StatusCode,
			"path":   resp.Request.URL.Path,
		})
}

func extractErrorMessage(resp *http.Response) string {
	const genericMessage = "Error en la solicitud"

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	if err != nil || len(raw) == 0 {
		return genericMessage
	}

	var payload struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(raw, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}

	if text := strings.TrimSpace(string(raw)); text != "" {
		return text
	}

	return genericMessage
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CLIENT "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CLIENT "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CLIENT "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CLIENT "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
