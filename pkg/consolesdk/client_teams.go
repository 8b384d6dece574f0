package consolesdk

import (
	"context"
	"net/http"
)

// CreateTeam creates a team owned by the actor.
func (c *Client) CreateTeam(ctx context.Context, req CreateTeamRequest) (*Team, error) {
	resp, err := c.doRequest(ctx, http.MethodPost, "/v1/teams", req)
	if err != nil {
		return nil, err
	}

	var team Team
	if err := decodeJSON(resp, &team, http.StatusCreated); err != nil {
		return nil, err
	}
	return &team, nil
}

func (c *Client) GetTeam(ctx context.Context, teamID string) (*Team, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, teamPath(teamID), nil)
	if err != nil {
		return nil, err
	}

	var team Team
	if err := decodeJSON(resp, &team, http.StatusOK); err != nil {
		return nil, err
	}
	return &team, nil
}

// DeleteTeam removes the team. Owner only.
func (c *Client) DeleteTeam(ctx context.Context, teamID string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, teamPath(teamID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// TransferOwnership makes newOwnerID the owner; the actor becomes an admin.
func (c *Client) TransferOwnership(ctx context.Context, teamID, newOwnerID string) error {
	resp, err := c.doRequest(ctx, http.MethodPost, teamPath(teamID, "transfer"),
		TransferOwnershipRequest{NewOwnerID: newOwnerID})
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

// ListMembers returns the roster, pending invitations included.
func (c *Client) ListMembers(ctx context.Context, teamID string) ([]Member, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, teamPath(teamID, "members"), nil)
	if err != nil {
		return nil, err
	}

	var out MembersResponse
	if err := decodeJSON(resp, &out, http.StatusOK); err != nil {
		return nil, err
	}
	return out.Members, nil
}

func (c *Client) RemoveMember(ctx context.Context, teamID, userID string) error {
	resp, err := c.doRequest(ctx, http.MethodDelete, teamPath(teamID, "members", userID), nil)
	if err != nil {
		return err
	}
	return checkStatusNoContent(resp)
}

func (c *Client) AssignPackage(ctx context.Context, teamID, userID, pkg string) (*Member, error) {
	return c.updateMember(ctx, teamPath(teamID, "members", userID, "package"), AssignPackageRequest{Package: pkg})
}

func (c *Client) SetPermissions(ctx context.Context, teamID, userID string, perms []string) (*Member, error) {
	return c.updateMember(ctx, teamPath(teamID, "members", userID, "permissions"),
		SetPermissionsRequest{Permissions: perms})
}

func (c *Client) ChangeRole(ctx context.Context, teamID, userID, role string) (*Member, error) {
	return c.updateMember(ctx, teamPath(teamID, "members", userID, "role"), ChangeRoleRequest{Role: role})
}

func (c *Client) updateMember(ctx context.Context, path string, payload any) (*Member, error) {
	resp, err := c.doRequest(ctx, http.MethodPut, path, payload)
	if err != nil {
		return nil, err
	}

	var m Member
	if err := decodeJSON(resp, &m, http.StatusOK); err != nil {
		return nil, err
	}
	return &m, nil
}
