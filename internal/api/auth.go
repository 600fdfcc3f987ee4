package api

import (
	"context"
	"fmt"
)

// Credentials are posted to /auth/login.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult is a successful login reply.  Status is kept because only an
// exact 200 counts as a login; other 2xx codes are treated as failures.
type LoginResult struct {
	Status      int    `json:"-"`
	AccessToken string `json:"access_token"`
	Message     string `json:"message"`
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, cr Credentials) (*LoginResult, error) {
	resp, err := c.PostJSON(ctx, "/auth/login", cr)
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	var out LoginResult
	if err := resp.Decode(&out); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	out.Status = resp.StatusCode
	return &out, nil
}
