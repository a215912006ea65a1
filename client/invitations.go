package client

import (
	"context"
	"net/http"
	"net/url"
)

// CreateInvitation sends a registration invitation. idMedico travels as an
// explicit null; the backend rejects payloads missing the key.
func (c *Client) CreateInvitation(ctx context.Context, invite CreateInvitation) error {
	return c.doJSON(ctx, http.MethodPost, authBasePath+"/crearInvitacion", invite, nil, true)
}

// VerifyInvitation exchanges a one-time invitation token for the invitation
// record it was minted from. Unauthenticated on purpose: the invitee has no
// session yet.
func (c *Client) VerifyInvitation(ctx context.Context, token string) (*Invitation, error) {
	envelope := new(invitationEnvelope)
	path := authBasePath + "/verificarToken?token=" + url.QueryEscape(token)
	if err := c.doJSON(ctx, http.MethodGet, path, nil, envelope, false); err != nil {
		return nil, err
	}
	return &envelope.Invitation, nil
}

// CompleteRegistration finalizes an invited registration.
func (c *Client) CompleteRegistration(ctx context.Context, reg CompleteRegistration) error {
	return c.doJSON(ctx, http.MethodPost, authBasePath+"/completarRegistro", reg, nil, false)
}

// CreateAccount registers an account directly, without an invitation.
func (c *Client) CreateAccount(ctx context.Context, signup SignUp) error {
	return c.doJSON(ctx, http.MethodPost, authBasePath+"/signUp", signup, nil, false)
}
