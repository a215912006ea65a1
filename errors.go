package console

import (
	"fmt"

	goerrors "github.com/goliatone/go-errors"
)

const (
	textCodeNotAuthenticated = "NOT_AUTHENTICATED"
	textCodeRoleNotAllowed   = "ROLE_NOT_ALLOWED"
	textCodeNoRefreshToken   = "NO_REFRESH_TOKEN"
)

// ErrNotAuthenticated is returned when an operation requires a persisted
// session and none exists.
var ErrNotAuthenticated = goerrors.New("no authenticated session", goerrors.CategoryAuth).
	WithTextCode(textCodeNotAuthenticated).
	WithCode(goerrors.CodeUnauthorized)

// ErrNoRefreshToken is returned when a refresh is requested but the stored
// session carries no refresh token (admin-only login variant).
var ErrNoRefreshToken = goerrors.New("session has no refresh token", goerrors.CategoryAuth).
	WithTextCode(textCodeNoRefreshToken).
	WithCode(goerrors.CodeUnauthorized)

// NewRoleNotAllowedError names the offending role in the message itself; the
// login form surfaces it verbatim.
func NewRoleNotAllowedError(role Role) *goerrors.Error {
	message := fmt.Sprintf("No tienes permisos de administrador. Tu rol actual es: %q", string(role))
	return goerrors.New(message, goerrors.CategoryAuthz).
		WithTextCode(textCodeRoleNotAllowed).
		WithCode(goerrors.CodeForbidden).
		WithMetadata(map[string]any{
			"role": string(role),
		})
}

// IsAuthError reports whether err belongs to the authentication or
// authorization categories, the two the gate redirects on.
func IsAuthError(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Category == goerrors.CategoryAuth || richErr.Category == goerrors.CategoryAuthz
}
