package consolesdk

import (
	"context"
	"net/http"
)

// CreateInvitation invites an email address to the team.
func (c *Client) CreateInvitation(ctx context.Context, teamID string, req CreateInvitationRequest) (*Invitation, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, teamPath(teamID, "invitations"), req)
	if err != nil {
		return nil, err
	}

	var inv Invitation
	if err := decodeJSON(resp, &inv, http.StatusCreated); err != nil {
		return nil, err
	}
	return &inv, nil
}

// ListInvitations returns every stored invitation of the team, expired ones
// included.
func (c *Client) ListInvitations(ctx context.Context, teamID string) ([]Invitation, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, teamPath(teamID, "invitations"), nil)
	if err != nil {
		return nil, err
	}

	var out InvitationsResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Invitations, nil
}

// VerifyInvitation looks a token up. An expired invitation is still returned,
// with Status set to InvitationStatusExpired.
func (c *Client) VerifyInvitation(ctx context.Context, token string) (*Invitation, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, invitationPath(token), nil)
	if err != nil {
		return nil, err
	}

	var inv Invitation
	if err := decodeJSON(resp, &inv, http.StatusOK); err != nil {
		return nil, err
	}
	return &inv, nil
}

// AcceptInvitation joins the actor to the invitation's team.
func (c *Client) AcceptInvitation(ctx context.Context, token string) (*AcceptInvitationResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, invitationPath(token, "accept"), nil)
	if err != nil {
		return nil, err
	}

	var out AcceptInvitationResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelInvitation(ctx context.Context, token string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, invitationPath(token), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}
