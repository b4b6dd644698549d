package apiclient

import (
	"context"
	"net/http"

	"github.com/digitradex/trade-console/internal/models"
)

// LoginResponse is the auth endpoint response
type LoginResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user,omitempty"`
}

// Login exchanges credentials for a bearer token
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	body := map[string]string{
		"email":    email,
		"password": password,
	}

	var resp LoginResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/auth/login", "", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Verify checks whether a stored token is still accepted by the API
func (c *Client) Verify(ctx context.Context, token string) (bool, error) {
	var resp struct {
		Valid bool `json:"valid"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/api/auth/verify", token, nil, &resp); err != nil {
		return false, err
	}
	return resp.Valid, nil
}
