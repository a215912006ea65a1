package console

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the locally persisted record proving a user is signed in. Its
// presence is the sole authentication signal: expiry is discovered only when
// a subsequent backend call fails, never checked here.
type Session struct {
	UserID       string `json:"user_id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Role         Role   `json:"role"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`

	// Display-only metadata decoded (unverified) from the access token when
	// it happens to be a JWT. Never used for gating.
	IssuedAt       *time.Time `json:"issued_at,omitempty"`
	ExpirationDate *time.Time `json:"expiration_date,omitempty"`
}

func (s *Session) GetUserID() string {
	return s.UserID
}

func (s *Session) GetEmail() string {
	return s.Email
}

func (s *Session) GetName() string {
	return s.Name
}

func (s *Session) GetRole() Role {
	return s.Role
}

// HasRole checks if the session carries a specific role.
func (s *Session) HasRole(role Role) bool {
	return s.Role == role
}

// CanRefresh reports whether the backend handed us a refresh token at login.
// The admin-only login variant does not.
func (s *Session) CanRefresh() bool {
	return s.RefreshToken != ""
}

func (s Session) String() string {
	issuedAt := "<nil>"
	if s.IssuedAt != nil {
		issuedAt = s.IssuedAt.Format(time.RFC1123)
	}
	return fmt.Sprintf(
		"user=%s email=%s role=%s iat=%s",
		s.UserID,
		s.Email,
		s.Role,
		issuedAt,
	)
}

// DecorateFromToken fills the display metadata from the access token's
// claims. Parsing is unverified on purpose: the console holds no signing
// material, and the metadata is informational only. Non-JWT tokens are left
// untouched.
func (s *Session) DecorateFromToken() {
	if s.AccessToken == "" {
		return
	}

	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	if _, _, err := parser.ParseUnverified(s.AccessToken, claims); err != nil {
		return
	}

	if iat, err := claims.GetIssuedAt(); err == nil && iat != nil {
		t := iat.Time
		s.IssuedAt = &t
	}

	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		s.ExpirationDate = &t
	}
}
