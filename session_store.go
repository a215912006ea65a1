package console

import (
	"context"
	"encoding/json"

	goerrors "github.com/goliatone/go-errors"
)

const (
	// StorageKeyAdmin is the legacy admin-only storage key.
	StorageKeyAdmin = "adminSession"
	// StorageKeyUser is the legacy general-purpose storage key.
	StorageKeyUser = "userSession"
)

// TokenRefresher exchanges a refresh token for a new access token; the
// client package provides the production implementation.
type TokenRefresher interface {
	RefreshToken(ctx context.Context, refreshToken string) (string, error)
}

var _ SessionStore = (*Store)(nil)

// Store is the unified session store. The two legacy variants (admin-only
// and general-purpose) collapse into one Store parameterized by storage key
// and an optional required-role predicate evaluated at login by the
// Authenticator.
type Store struct {
	storage   Storage
	key       string
	refresher TokenRefresher
	logger    Logger
}

type StoreOption func(*Store)

// WithStoreLogger overrides the default logger.
func WithStoreLogger(logger Logger) StoreOption {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithStoreRefresher wires the collaborator used by RefreshAccessToken.
func WithStoreRefresher(refresher TokenRefresher) StoreOption {
	return func(s *Store) {
		s.refresher = refresher
	}
}

// WithStorageKey overrides the key the session blob is stored under.
func WithStorageKey(key string) StoreOption {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

func NewStore(storage Storage, opts ...StoreOption) *Store {
	s := &Store{
		storage: storage,
		key:     StorageKeyUser,
		logger:  defLogger{},
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	return s
}

// Set persists the full record, overwriting any prior one. No shape
// validation happens beyond serialization.
func (s *Store) Set(ctx context.Context, session *Session) error {
	data, err := json.Marshal(session)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "unable to serialize session")
	}
	return s.storage.Set(ctx, s.key, data)
}

// Get returns the persisted session, or nil when absent. A blob that fails
// to deserialize is treated identically to absence: logged, never surfaced.
func (s *Store) Get(ctx context.Context) (*Session, error) {
	data, ok, err := s.storage.Get(ctx, s.key)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "session storage read failed")
	}
	if !ok {
		return nil, nil
	}

	session := new(Session)
	if err := json.Unmarshal(data, session); err != nil {
		s.logger.Warn("stored session failed to deserialize, treating as absent",
			"key", s.key,
			"error", err,
		)
		return nil, nil
	}

	return session, nil
}

// AccessToken is a convenience accessor over Get.
func (s *Store) AccessToken(ctx context.Context) (string, bool) {
	session, err := s.Get(ctx)
	if err != nil || session == nil {
		return "", false
	}
	return session.AccessToken, session.AccessToken != ""
}

// IsAuthenticated is true iff a session record exists. No token expiry or
// signature check occurs here.
func (s *Store) IsAuthenticated(ctx context.Context) bool {
	session, err := s.Get(ctx)
	if err != nil {
		s.logger.Warn("authentication check storage error", "error", err)
		return false
	}
	return session != nil
}

// Clear removes the persisted record regardless of whether one existed.
func (s *Store) Clear(ctx context.Context) error {
	return s.storage.Delete(ctx, s.key)
}

// RefreshAccessToken exchanges the stored refresh token for a new access
// token and mutates the persisted session in place. On exchange failure
// tokens are cleared so the next gate check sends the user back to login.
func (s *Store) RefreshAccessToken(ctx context.Context) (string, error) {
	session, err := s.Get(ctx)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrNotAuthenticated
	}
	if !session.CanRefresh() {
		return "", ErrNoRefreshToken
	}
	if s.refresher == nil {
		return "", goerrors.New("no token refresher configured", goerrors.CategoryInternal)
	}

	token, err := s.refresher.RefreshToken(ctx, session.RefreshToken)
	if err != nil {
		s.logger.Warn("refresh token exchange failed, clearing session", "error", err)
		if clearErr := s.Clear(ctx); clearErr != nil {
			s.logger.Error("unable to clear session after failed refresh", "error", clearErr)
		}
		return "", goerrors.Wrap(err, goerrors.CategoryAuth, "unable to refresh access token").
			WithCode(goerrors.CodeUnauthorized)
	}

	session.AccessToken = token
	session.DecorateFromToken()
	if err := s.Set(ctx, session); err != nil {
		return "", err
	}

	return token, nil
}
