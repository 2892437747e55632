package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// maxResponseBody caps how much of a response body is read.
const maxResponseBody = 10 << 20

// TokenStore persists the session token between runs.
type TokenStore interface {
	LoadToken() string
	SaveToken(token string) error
	ClearToken() error
}

// Observer receives per-request measurements. *metrics.Metrics implements it.
type Observer interface {
	ObserveRequest(method, route string, status int, elapsed time.Duration)
	IncNetworkError(route, kind string)
}

// Client is a thin typed adapter over the SocialSync REST API. It holds the
// session token and attaches it to every request. It never retries.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore

	mu    sync.RWMutex
	token string

	logger    *slog.Logger
	observer  Observer
	requestID func() string
}

// New creates a Client for baseURL. The token held by tokens, if any, is
// loaded immediately. A nil httpClient uses http.DefaultClient.
func New(baseURL string, httpClient *http.Client, tokens TokenStore) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
		tokens:     tokens,
		logger:     slog.Default(),
		requestID:  uuid.NewString,
	}
	if tokens != nil {
		c.token = tokens.LoadToken()
	}
	return c
}

// SetLogger replaces the client's logger.
func (c *Client) SetLogger(l *slog.Logger) {
	c.logger = l
}

// SetObserver attaches request instrumentation.
func (c *Client) SetObserver(o Observer) {
	c.observer = o
}

// BaseURL returns the API origin requests are sent to.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Token returns the current session token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// HasToken reports whether a session token is held.
func (c *Client) HasToken() bool {
	return c.Token() != ""
}

// SetToken replaces the session token and persists it. An empty token is
// equivalent to ClearToken.
func (c *Client) SetToken(token string) error {
	if token == "" {
		return c.ClearToken()
	}
	c.mu.Lock()
	c.token = token
	c.mu.Unlock()

	if c.tokens == nil {
		return nil
	}
	if err := c.tokens.SaveToken(token); err != nil {
		return fmt.Errorf("persisting token: %w", err)
	}
	return nil
}

// ClearToken forgets the session token and erases the persisted copy.
func (c *Client) ClearToken() error {
	c.mu.Lock()
	c.token = ""
	c.mu.Unlock()

	if c.tokens == nil {
		return nil
	}
	if err := c.tokens.ClearToken(); err != nil {
		return fmt.Errorf("clearing token: %w", err)
	}
	return nil
}

// call describes one API request.
type call struct {
	method string
	route  string // path template, e.g. /api/posts/{id}
	vars   map[string]string
	query  url.Values
	body   any
}

// do executes c and decodes a successful response into out. out may be nil.
// When out implements validator, the decoded payload is checked before it is
// returned.
func (c *Client) do(ctx context.Context, cl call, out any) error {
	start := time.Now()

	path, err := resolvePath(cl.route, cl.vars)
	if err != nil {
		return fmt.Errorf("building path: %w", err)
	}
	target := c.baseURL + path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		data, err := json.Marshal(cl.body)
		if err != nil {
			return fmt.Errorf("encoding request body: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", c.requestID())
	if token := c.Token(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		kind := classifyNetworkError(err)
		c.observeNetworkError(cl.route, kind)
		c.logger.Debug("api request failed", "method", cl.method, "path", cl.route, "kind", kind, "error", err)
		apiErr := networkError(err)
		switch {
		case ctx.Err() != nil:
			apiErr.failure = failCanceled
		case kind == "rate_limited":
			apiErr.failure = failThrottled
		}
		return apiErr
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		c.observeNetworkError(cl.route, "read")
		return responseError(fmt.Errorf("reading response: %w", err))
	}

	elapsed := time.Since(start)
	if c.observer != nil {
		c.observer.ObserveRequest(cl.method, cl.route, resp.StatusCode, elapsed)
	}
	c.logger.Debug("api request",
		"method", cl.method,
		"path", cl.route,
		"status", resp.StatusCode,
		"duration_ms", elapsed.Milliseconds(),
	)

	if !isJSON(resp.Header.Get("Content-Type")) {
		raw, _ = json.Marshal(map[string]string{"message": string(raw)})
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return newStatusError(resp.StatusCode, raw)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.observeNetworkError(cl.route, "decode")
		return responseError(fmt.Errorf("decoding response: %w", err))
	}
	if v, ok := out.(validator); ok {
		if err := v.validate(); err != nil {
			c.observeNetworkError(cl.route, "invalid")
			return responseError(fmt.Errorf("invalid response: %w", err))
		}
	}
	return nil
}

func (c *Client) observeNetworkError(route, kind string) {
	if c.observer != nil {
		c.observer.IncNetworkError(route, kind)
	}
}

func isJSON(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(contentType, "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
