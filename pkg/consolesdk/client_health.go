package consolesdk

import (
	"context"
	"net/http"
)

// GetLiveness checks if the service is alive.
func (c *Client) GetLiveness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/livez", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetReadiness checks if the service can reach its store.
func (c *Client) GetReadiness(ctx context.Context) (*HealthResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/readyz", nil)
	if err != nil {
		return nil, err
	}

	var health HealthResponse
	if err := decodeJSON(resp, &health, http.StatusOK); err != nil {
		return nil, err
	}
	return &health, nil
}

// GetPermissionCatalog lists the permission groups and packages.
func (c *Client) GetPermissionCatalog(ctx context.Context) (*PermissionCatalogResponse, error) {
	resp, err := c.doRequest(ctx, http.MethodGet, "/v1/permissions", nil)
	if err != nil {
		return nil, err
	}

	var catalog PermissionCatalogResponse
	if err := decodeJSON(resp, &catalog, http.StatusOK); err != nil {
		return nil, err
	}
	return &catalog, nil
}
