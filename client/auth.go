package client

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// Login performs the credential exchange. It does not persist anything; the
// console authenticator owns the session lifecycle.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	payload := map[string]string{
		"email":    email,
		"password": password,
	}

	result := new(LoginResult)
	if err := c.doJSON(ctx, http.MethodPost, authBasePath+"/login", payload, result, false); err != nil {
		return nil, err
	}

	if !result.OK {
		return nil, goerrors.New("Credenciales inválidas", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return result, nil
}

// RefreshToken exchanges a refresh token for a new access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (string, error) {
	payload := map[string]string{
		"refresh_token": refreshToken,
	}

	var result struct {
		AccessToken string `json:"access_token"`
	}
	if err := c.doJSON(ctx, http.MethodPost, authBasePath+"/refrescarToken", payload, &result, false); err != nil {
		return "", err
	}

	if result.AccessToken == "" {
		return "", goerrors.New("backend returned no access token", goerrors.CategoryAuth).
			WithCode(goerrors.CodeUnauthorized)
	}

	return result.AccessToken, nil
}

// UpdateEmail changes the signed-in account's login identifier.
func (c *Client) UpdateEmail(ctx context.Context, userID, email string) error {
	payload := map[string]string{
		"idUsuario": userID,
		"correo":    email,
	}
	return c.doJSON(ctx, http.MethodPatch, authBasePath+"/actualizar-email", payload, nil, true)
}

// ChangePassword rotates the signed-in account's password. Both values
// travel verbatim; hashing is the backend's job.
func (c *Client) ChangePassword(ctx context.Context, userID, current, next string) error {
	payload := map[string]string{
		"idUsuario":         userID,
		"contraseniaActual": current,
		"contraseniaNueva":  next,
	}
	return c.doJSON(ctx, http.MethodPatch, authBasePath+"/cambiar-contrasena", payload, nil, true)
}
