package console

import (
	"context"
	"time"

	"github.com/douremember/go-admin-console/client"
	goerrors "github.com/goliatone/go-errors"
)

// LoginBackend is the slice of the REST client the authenticator needs.
type LoginBackend interface {
	Login(ctx context.Context, email, password string) (*client.LoginResult, error)
	FindUser(ctx context.Context, id string) (*client.User, error)
}

var _ Authenticator = (*Auther)(nil)

// Auther runs the login exchange: credential check, user lookup, role
// predicate, session persistence. One implementation serves both the
// admin-only and the general console; the difference is the RequiredRole
// predicate evaluated at login time.
type Auther struct {
	backend      LoginBackend
	sessions     SessionStore
	requiredRole Role
	logger       Logger
	activitySink ActivitySink
}

type AutherOption func(*Auther)

// WithRequiredRole restricts login to accounts holding the given role. The
// admin console sets RoleAdministrator; leave empty to accept any role.
func WithRequiredRole(role Role) AutherOption {
	return func(a *Auther) {
		a.requiredRole = role
	}
}

// WithAutherLogger overrides the default logger.
func WithAutherLogger(logger Logger) AutherOption {
	return func(a *Auther) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithAutherActivitySink sets the sink receiving auth events.
func WithAutherActivitySink(sink ActivitySink) AutherOption {
	return func(a *Auther) {
		a.activitySink = normalizeActivitySink(sink)
	}
}

func NewAuthenticator(backend LoginBackend, sessions SessionStore, opts ...AutherOption) *Auther {
	a := &Auther{
		backend:      backend,
		sessions:     sessions,
		logger:       defLogger{},
		activitySink: noopActivitySink{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}

	return a
}

// Login exchanges credentials with the backend, fetches the account record,
// applies the role predicate, and persists the resulting session. On any
// failure nothing is persisted.
func (a *Auther) Login(ctx context.Context, email, password string) (*Session, error) {
	result, err := a.backend.Login(ctx, email, password)
	if err != nil {
		a.logger.Error("Login exchange error", "error", err)
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, "", map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	user, err := a.backend.FindUser(ctx, result.UserID)
	if err != nil {
		a.logger.Error("Login user lookup error", "user_id", result.UserID, "error", err)
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{Type: "unknown"}, result.UserID, map[string]any{
			"email": email,
			"error": err.Error(),
		})
		return nil, err
	}

	if a.requiredRole != "" && user.Role != a.requiredRole {
		roleErr := NewRoleNotAllowedError(user.Role)
		a.logger.Warn("Login blocked by role predicate",
			"user_id", result.UserID,
			"role", user.Role,
			"required", a.requiredRole,
		)
		a.emitAuthEvent(ctx, ActivityEventLoginFailure, ActorRef{ID: result.UserID, Type: "user"}, result.UserID, map[string]any{
			"email": email,
			"role":  user.Role,
			"error": roleErr.Error(),
		})
		return nil, roleErr
	}

	name := user.Name
	if name == "" {
		name = "Admin"
	}

	session := &Session{
		UserID:       result.UserID,
		Email:        email,
		Name:         name,
		Role:         user.Role,
		AccessToken:  result.AccessToken,
		RefreshToken: result.RefreshToken,
	}
	session.DecorateFromToken()

	if err := a.sessions.Set(ctx, session); err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "unable to persist session")
	}

	a.emitAuthEvent(ctx, ActivityEventLoginSuccess, ActorRef{ID: result.UserID, Type: "user"}, result.UserID, map[string]any{
		"email": email,
		"role":  user.Role,
	})

	return session, nil
}

// Logout clears the persisted session unconditionally; the HTTP layer then
// forces a full navigation to the login entry point so no in-memory state
// outlives the session.
func (a *Auther) Logout(ctx context.Context) error {
	session, _ := a.sessions.Get(ctx)

	if err := a.sessions.Clear(ctx); err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to clear session")
	}

	userID := ""
	if session != nil {
		userID = session.UserID
	}
	a.emitAuthEvent(ctx, ActivityEventLogout, ActorRef{ID: userID, Type: "user"}, userID, nil)

	return nil
}

func (a *Auther) emitAuthEvent(ctx context.Context, eventType ActivityEventType, actor ActorRef, userID string, metadata map[string]any) {
	sink := normalizeActivitySink(a.activitySink)
	event := ActivityEvent{
		EventType:  eventType,
		Actor:      actor,
		UserID:     userID,
		Metadata:   metadata,
		OccurredAt: time.Now(),
	}

	if event.Metadata == nil {
		event.Metadata = map[string]any{}
	}

	if err := sink.Record(ctx, event); err != nil {
		a.logger.Warn("activity sink record error: %v", err)
	}
}
