package console

import (
	"net/http"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
)

// SessionContextKey is the Locals key where Protected stores the session for
// downstream handlers.
const SessionContextKey = "console_session"

// DefaultRejectedRouteKey names the cookie holding the path a visitor was
// bounced from, so login can send them back.
const DefaultRejectedRouteKey = "rejected_route"

// DefaultLoginPath is where unauthenticated requests are redirected.
const DefaultLoginPath = "/login"

// RouteGate guards console routes. The check is a synchronous presence test
// against the session store: no token inspection, no network round trip.
type RouteGate struct {
	sessions         SessionStore
	rejectedRouteKey string
	loginPath        string
	Logger           Logger
	AuthErrorHandler func(c router.Context, err error) error
	ErrorHandler     func(c router.Context, err error) error
}

type RouteGateOption func(*RouteGate)

func WithGateLogger(logger Logger) RouteGateOption {
	return func(g *RouteGate) {
		if logger != nil {
			g.Logger = logger
		}
	}
}

func WithGateLoginPath(path string) RouteGateOption {
	return func(g *RouteGate) {
		if path != "" {
			g.loginPath = path
		}
	}
}

func WithGateRejectedRouteKey(key string) RouteGateOption {
	return func(g *RouteGate) {
		if key != "" {
			g.rejectedRouteKey = key
		}
	}
}

func NewRouteGate(sessions SessionStore, opts ...RouteGateOption) *RouteGate {
	g := &RouteGate{
		sessions:         sessions,
		rejectedRouteKey: DefaultRejectedRouteKey,
		loginPath:        DefaultLoginPath,
		Logger:           defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(g)
		}
	}

	g.ErrorHandler = g.defaultErrHandler
	g.AuthErrorHandler = g.defaultAuthErrHandler

	return g
}

// Protected wraps a handler so it only runs for authenticated visitors. The
// wrapped handler never executes on rejection; the visitor is redirected to
// the login path with the rejected route remembered in a cookie.
func (g *RouteGate) Protected() router.MiddlewareFunc {
	return func(hf router.HandlerFunc) router.HandlerFunc {
		return func(c router.Context) error {
			if !g.sessions.IsAuthenticated(c.Context()) {
				return g.AuthErrorHandler(c, ErrNotAuthenticated)
			}

			session, err := g.sessions.Get(c.Context())
			if err != nil {
				return g.AuthErrorHandler(c, err)
			}

			c.Locals(SessionContextKey, session)
			return hf(c)
		}
	}
}

// SessionFromContext returns the session Protected stashed for this request.
func SessionFromContext(c router.Context) (*Session, bool) {
	session, ok := c.Locals(SessionContextKey).(*Session)
	return session, ok && session != nil
}

// GetRedirect consumes the rejected-route cookie, falling back to def.
func (g *RouteGate) GetRedirect(c router.Context, def ...string) string {
	r := c.Cookies(g.rejectedRouteKey)
	if r == "" {
		if len(def) == 0 {
			return "/"
		}
		return def[0]
	}
	g.cookieDel(c, g.rejectedRouteKey)
	return r
}

// SetRedirect remembers the current path so login can return the visitor to
// where they were headed.
func (g *RouteGate) SetRedirect(c router.Context) {
	g.Logger.Info("Setting redirect cookie", "key", g.rejectedRouteKey, "path", c.OriginalURL())

	c.Cookie(&router.Cookie{
		Name:     g.rejectedRouteKey,
		Value:    c.OriginalURL(),
		Expires:  time.Now().Add(time.Minute * 5),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGate) cookieDel(c router.Context, name string) {
	c.Cookie(&router.Cookie{
		Name:     name,
		Value:    "",
		Expires:  time.Now().Add(-time.Hour * (24 * 365)),
		HTTPOnly: true,
		Secure:   true,
		SameSite: "Lax",
	})
}

func (g *RouteGate) defaultAuthErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryAuth, "An unexpected authentication error").
			WithCode(errors.CodeUnauthorized)
	}

	g.Logger.Info(
		"Authentication error, redirecting to login",
		"error", richErr.Message,
		"text_code", richErr.TextCode,
		"path", c.OriginalURL(),
	)

	g.SetRedirect(c)

	statusCode := http.StatusSeeOther
	if c.Method() == string(router.GET) {
		statusCode = http.StatusFound
	}
	return c.Redirect(g.loginPath, statusCode)
}

func (g *RouteGate) defaultErrHandler(c router.Context, err error) error {
	var richErr *errors.Error
	if !errors.As(err, &richErr) {
		richErr = errors.Wrap(err, errors.CategoryInternal, "An unexpected server error occurred").
			WithCode(errors.CodeInternal)
	}

	g.Logger.Info(
		"Route error handler",
		"error", richErr.Message,
		"category", richErr.Category,
		"details", print.MaybePrettyJSON(richErr.Metadata),
	)

	switch richErr.Category {
	case errors.CategoryAuth, errors.CategoryAuthz:
		return g.AuthErrorHandler(c, richErr)
	default:
		return c.Status(richErr.Code).Render("errors/500", router.ViewContext{
			"error": richErr,
		})
	}
}
