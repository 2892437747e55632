package apiclient

import (
	"context"
	"net/http"

	"github.com/alecgard/socialsync/internal/social"
)

type credentials struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password"`
}

// Login authenticates and, when the response carries a token, stores it.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, routeLogin, credentials{Email: email, Password: password})
}

// Register creates an account and, when the response carries a token,
// stores it.
func (c *Client) Register(ctx context.Context, email, name, password string) (*AuthResponse, error) {
	return c.authenticate(ctx, routeRegister, credentials{Email: email, Name: name, Password: password})
}

func (c *Client) authenticate(ctx context.Context, route string, body credentials) (*AuthResponse, error) {
	var resp AuthResponse
	if err := c.do(ctx, call{method: http.MethodPost, route: route, body: body}, &resp); err != nil {
		return nil, err
	}
	if token := resp.SessionToken(); token != "" {
		if err := c.SetToken(token); err != nil {
			return nil, err
		}
	}
	return &resp, nil
}

// CurrentUser returns the user the session token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*social.User, error) {
	var env userEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeMe}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

// Logout clears the session token locally. The backend is not contacted.
func (c *Client) Logout() error {
	return c.ClearToken()
}

// Health probes the backend.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var h Health
	if err := c.do(ctx, call{method: http.MethodGet, route: routeHealth}, &h); err != nil {
		return nil, err
	}
	return &h, nil
}
