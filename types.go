package console

import (
	"context"
	"fmt"

	"github.com/goliatone/go-router"
)

type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// Storage is the key-value backend the session store persists into:
// one opaque blob per key, no TTL, no enumeration.
type Storage interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
}

// SessionStore owns read/write access to the persisted Session. Presence of
// a session is the sole authentication signal; no expiry or signature check
// happens on this side.
type SessionStore interface {
	Set(ctx context.Context, session *Session) error
	Get(ctx context.Context) (*Session, error)
	AccessToken(ctx context.Context) (string, bool)
	IsAuthenticated(ctx context.Context) bool
	Clear(ctx context.Context) error
	RefreshAccessToken(ctx context.Context) (string, error)
}

// Authenticator performs the login exchange against the remote backend and
// persists the resulting session.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*Session, error)
	Logout(ctx context.Context) error
}

// Gate decides, per protected route, whether the wrapped handler runs or the
// request is redirected to the login entry point.
type Gate interface {
	Protected() router.MiddlewareFunc
	SetRedirect(c router.Context)
	GetRedirect(c router.Context, def ...string) string
}

type defLogger struct{}

func (d defLogger) Error(format string, args ...any) {
	fmt.Printf("[ERR] CONSOLE "+newline(format), args...)
}

func (d defLogger) Warn(format string, args ...any) {
	fmt.Printf("[WRN] CONSOLE "+newline(format), args...)
}

func (d defLogger) Info(format string, args ...any) {
	fmt.Printf("[INF] CONSOLE "+newline(format), args...)
}

func (d defLogger) Debug(format string, args ...any) {
	fmt.Printf("[DBG] CONSOLE "+newline(format), args...)
}

func newline(s string) string {
	if len(s) > 0 && s[len(s)-1] != '\n' {
		s += "\n"
	}
	return s
}
