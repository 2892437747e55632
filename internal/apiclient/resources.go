package apiclient

import (
	"context"
	"net/http"
	"net/url"

	"github.com/alecgard/socialsync/internal/social"
)

// Analytics returns the report for a range such as "7d" or "30d".
func (c *Client) Analytics(ctx context.Context, rng string) (*social.Analytics, error) {
	var a social.Analytics
	cl := call{method: http.MethodGet, route: routeAnalytics, query: url.Values{"range": {rng}}}
	if err := c.do(ctx, cl, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (c *Client) PlatformAnalytics(ctx context.Context) ([]social.PlatformAnalytics, error) {
	var env platformsEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routePlatforms}, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Platforms), nil
}

// AddAnalytics appends one analytics event.
func (c *Client) AddAnalytics(ctx context.Context, ev social.AnalyticsEvent) error {
	return c.do(ctx, call{method: http.MethodPost, route: routeAnalytics, body: ev}, nil)
}

func (c *Client) Settings(ctx context.Context) (*social.Settings, error) {
	var env settingsEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeSettings}, &env); err != nil {
		return nil, err
	}
	return env.Settings, nil
}

func (c *Client) UpdateSettings(ctx context.Context, s social.Settings) error {
	return c.do(ctx, call{method: http.MethodPut, route: routeSettings, body: s}, nil)
}

// UpdateProfile edits the signed-in user and returns the updated record.
func (c *Client) UpdateProfile(ctx context.Context, upd social.ProfileUpdate) (*social.User, error) {
	var env userEnvelope
	if err := c.do(ctx, call{method: http.MethodPut, route: routeProfile, body: upd}, &env); err != nil {
		return nil, err
	}
	return env.User, nil
}

func (c *Client) TeamUsers(ctx context.Context) ([]social.TeamUser, error) {
	var env teamEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeTeam}, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Users), nil
}

func (c *Client) AddTeamUser(ctx context.Context, u social.NewTeamUser) error {
	return c.do(ctx, call{method: http.MethodPost, route: routeTeam, body: u}, nil)
}

func (c *Client) RemoveTeamUser(ctx context.Context, id social.ID) error {
	return c.do(ctx, call{method: http.MethodDelete, route: routeTeamUser, vars: map[string]string{"id": id.String()}}, nil)
}

func (c *Client) Accounts(ctx context.Context) ([]social.ConnectedAccount, error) {
	var env accountsEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeAccounts}, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Accounts), nil
}

// ConnectAccount registers an account directly, bypassing OAuth.
func (c *Client) ConnectAccount(ctx context.Context, a *social.ConnectedAccount) (*social.ConnectedAccount, error) {
	var env accountEnvelope
	if err := c.do(ctx, call{method: http.MethodPost, route: routeAccounts, body: a}, &env); err != nil {
		return nil, err
	}
	return env.Account, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id social.ID, a *social.ConnectedAccount) (*social.ConnectedAccount, error) {
	var env accountEnvelope
	cl := call{method: http.MethodPut, route: routeAccount, vars: map[string]string{"id": id.String()}, body: a}
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Account, nil
}

func (c *Client) DisconnectAccount(ctx context.Context, id social.ID) error {
	return c.do(ctx, call{method: http.MethodDelete, route: routeAccount, vars: map[string]string{"id": id.String()}}, nil)
}

func (c *Client) AccountStats(ctx context.Context, id social.ID) (*social.AccountStats, error) {
	var env statsEnvelope
	cl := call{method: http.MethodGet, route: routeAccountStat, vars: map[string]string{"id": id.String()}}
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.Stats, nil
}

func (c *Client) Files(ctx context.Context) ([]social.File, error) {
	var env filesEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeFiles}, &env); err != nil {
		return nil, err
	}
	return nonNil(env.Files), nil
}

func (c *Client) CreateFile(ctx context.Context, f *social.File) (*social.File, error) {
	var env fileEnvelope
	if err := c.do(ctx, call{method: http.MethodPost, route: routeFiles, body: f}, &env); err != nil {
		return nil, err
	}
	return env.File, nil
}

func (c *Client) GetFile(ctx context.Context, id social.ID) (*social.File, error) {
	var env fileEnvelope
	if err := c.do(ctx, call{method: http.MethodGet, route: routeFile, vars: map[string]string{"id": id.String()}}, &env); err != nil {
		return nil, err
	}
	return env.File, nil
}

func (c *Client) UpdateFile(ctx context.Context, id social.ID, f *social.File) (*social.File, error) {
	var env fileEnvelope
	cl := call{method: http.MethodPut, route: routeFile, vars: map[string]string{"id": id.String()}, body: f}
	if err := c.do(ctx, cl, &env); err != nil {
		return nil, err
	}
	return env.File, nil
}

func (c *Client) DeleteFile(ctx context.Context, id social.ID) error {
	return c.do(ctx, call{method: http.MethodDelete, route: routeFile, vars: map[string]string{"id": id.String()}}, nil)
}

// OAuthExchange is the body of the code-for-token exchange.
type OAuthExchange struct {
	Platform     social.Platform `json:"platform"`
	Code         string          `json:"code"`
	State        string          `json:"state"`
	RedirectURI  string          `json:"redirectUri"`
	CodeVerifier string          `json:"codeVerifier,omitempty"`
}

// ExchangeOAuthCode trades an authorization code for a connected account.
func (c *Client) ExchangeOAuthCode(ctx context.Context, ex OAuthExchange) (*social.ConnectedAccount, error) {
	var env accountEnvelope
	if err := c.do(ctx, call{method: http.MethodPost, route: routeOAuth, body: ex}, &env); err != nil {
		return nil, err
	}
	return env.Account, nil
}
