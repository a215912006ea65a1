package client

import (
	"context"
	"net/http"

	goerrors "github.com/goliatone/go-errors"
)

// FindUser fetches a single account by id. The backend wraps even single
// lookups in a `usuarios` list.
func (c *Client) FindUser(ctx context.Context, id string) (*User, error) {
	envelope := new(usersEnvelope)
	if err := c.doJSON(ctx, http.MethodGet, authBasePath+"/buscarUsuario/"+id, nil, envelope, true); err != nil {
		return nil, err
	}

	if len(envelope.Users) == 0 {
		return nil, goerrors.New("No se encontró el usuario", goerrors.CategoryNotFound).
			WithCode(goerrors.CodeNotFound).
			WithMetadata(map[string]any{"user_id": id})
	}

	return &envelope.Users[0], nil
}

// ListUsers returns every account. Role scoping happens client-side; the
// backend exposes no filtered listing.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	envelope := new(usersEnvelope)
	if err := c.doJSON(ctx, http.MethodGet, authBasePath+"/buscarUsuarios", nil, envelope, true); err != nil {
		return nil, err
	}
	return envelope.Users, nil
}

// ListDoctors returns the medico subset of ListUsers.
func (c *Client) ListDoctors(ctx context.Context) ([]User, error) {
	users, err := c.ListUsers(ctx)
	if err != nil {
		return nil, err
	}

	doctors := make([]User, 0, len(users))
	for _, u := range users {
		if u.Role == "medico" {
			doctors = append(doctors, u)
		}
	}
	return doctors, nil
}

// UpdateProfile partially updates name/birthdate/status/contact fields.
func (c *Client) UpdateProfile(ctx context.Context, id string, update UpdateUser) error {
	return c.doJSON(ctx, http.MethodPatch, authBasePath+"/actualizarPerfil/"+id, update, nil, true)
}

// DeleteUser performs a hard delete. Only valid when the negotiated
// capabilities include it; RemoveUser handles the fallback.
func (c *Client) DeleteUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodDelete, authBasePath+"/borrarPerfil/"+id, nil, nil, true)
}

// DeactivateUser soft-deactivates an account, the only removal one backend
// revision supports. There is no reactivation path on that revision.
func (c *Client) DeactivateUser(ctx context.Context, id string) error {
	return c.doJSON(ctx, http.MethodPatch, authBasePath+"/cuentaInactiva/"+id, nil, nil, true)
}

// RemoveUser removes an account using whichever operation the backend
// supports, reporting which one ran. When a hard delete turns out to be
// unimplemented on this revision the capability is renegotiated and the
// deactivation fallback runs in the same call.
func (c *Client) RemoveUser(ctx context.Context, id string) (RemovalAction, error) {
	if !c.caps.HardDelete {
		if err := c.DeactivateUser(ctx, id); err != nil {
			return "", err
		}
		return RemovalDeactivated, nil
	}

	err := c.DeleteUser(ctx, id)
	if err == nil {
		return RemovalDeleted, nil
	}

	if !isUnsupportedOperation(err) {
		return "", err
	}

	c.logger.Info("backend does not support hard delete, falling back to deactivation", "user_id", id)
	c.caps.HardDelete = false

	if err := c.DeactivateUser(ctx, id); err != nil {
		return "", err
	}
	return RemovalDeactivated, nil
}

// ToggleStatus flips activo <-> inactivo through a partial profile update.
func (c *Client) ToggleStatus(ctx context.Context, id, currentStatus string) (string, error) {
	next := StatusActive
	if currentStatus == StatusActive {
		next = StatusInactive
	}

	if err := c.UpdateProfile(ctx, id, UpdateUser{Status: next}); err != nil {
		return "", err
	}
	return next, nil
}

func isUnsupportedOperation(err error) bool {
	var richErr *goerrors.Error
	if !goerrors.As(err, &richErr) {
		return false
	}
	return richErr.Code == http.StatusNotFound ||
		richErr.Code == http.StatusMethodNotAllowed ||
		richErr.Code == http.StatusNotImplemented
}
