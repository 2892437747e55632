package oauth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// Defaults for Options.
const (
	DefaultTimeout      = 5 * time.Minute
	DefaultPollInterval = time.Second
	DefaultScreenWidth  = 1920
	DefaultScreenHeight = 1080
)

// Exchanger trades an authorization code for a connected account.
// *apiclient.Client implements it.
type Exchanger interface {
	ExchangeOAuthCode(ctx context.Context, ex apiclient.OAuthExchange) (*social.ConnectedAccount, error)
}

// Observer is notified when flows start and finish.
type Observer interface {
	OAuthStarted()
	OAuthFinished(platform, outcome string)
}

// Options tunes a Bridge. Zero values take the defaults.
type Options struct {
	RedirectBase string // origin the callback listener serves, e.g. http://127.0.0.1:8789
	Timeout      time.Duration
	PollInterval time.Duration
	ScreenWidth  int
	ScreenHeight int
}

// CallbackMessage is what the provider redirect carries back.
type CallbackMessage struct {
	Platform         social.Platform
	State            string
	Code             string
	Error            string
	ErrorDescription string
}

// Bridge runs OAuth authorization flows: it opens the provider's consent
// window, waits for the redirect to be delivered, and exchanges the code
// with the backend. It is safe for concurrent use.
type Bridge struct {
	platforms map[social.Platform]PlatformConfig
	exchanger Exchanger
	opener    Opener
	opts      Options

	mu      sync.Mutex
	pending map[string]*Attempt

	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	newState func() (string, error)
}

// NewBridge creates a Bridge.
func NewBridge(platforms map[social.Platform]PlatformConfig, ex Exchanger, opener Opener, opts Options) *Bridge {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.ScreenWidth <= 0 {
		opts.ScreenWidth = DefaultScreenWidth
	}
	if opts.ScreenHeight <= 0 {
		opts.ScreenHeight = DefaultScreenHeight
	}
	opts.RedirectBase = strings.TrimRight(opts.RedirectBase, "/")

	return &Bridge{
		platforms: platforms,
		exchanger: ex,
		opener:    opener,
		opts:      opts,
		pending:   make(map[string]*Attempt),
		logger:    slog.Default(),
		now:       time.Now,
		newState:  randomState,
	}
}

// SetObserver attaches instrumentation.
func (b *Bridge) SetObserver(o Observer) {
	b.observer = o
}

// SetLogger replaces the bridge's logger.
func (b *Bridge) SetLogger(l *slog.Logger) {
	b.logger = l
}

// randomState returns 128 random bits, hex encoded.
func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generating state: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// RedirectURI returns the callback URL registered for platform.
func (b *Bridge) RedirectURI(platform social.Platform) string {
	return b.opts.RedirectBase + "/oauth/callback/" + string(platform)
}

// ConfigurationStatus reports, for every platform, whether a client id is
// configured.
func (b *Bridge) ConfigurationStatus() map[social.Platform]bool {
	status := make(map[social.Platform]bool, len(social.Platforms))
	for _, p := range social.Platforms {
		status[p] = b.platforms[p].Configured()
	}
	return status
}

// Pending returns the number of attempts awaiting a callback.
func (b *Bridge) Pending() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.pending)
}

// Begin starts a flow for platform and returns once the window is open.
// ctx bounds the whole attempt: cancelling it cancels the flow. An
// unconfigured platform fails with *ConfigError before anything is opened.
func (b *Bridge) Begin(ctx context.Context, platform social.Platform) (*Attempt, error) {
	cfg, ok := b.platforms[platform]
	if !ok || !cfg.Configured() {
		return nil, &ConfigError{Platform: platform}
	}

	state, err := b.newState()
	if err != nil {
		return nil, err
	}
	redirectURI := b.RedirectURI(platform)
	authURL, verifier := authorizationURL(platform, cfg, redirectURI, state)

	a := &Attempt{
		Platform:    platform,
		State:       state,
		AuthURL:     authURL,
		CreatedAt:   b.now(),
		redirectURI: redirectURI,
		verifier:    verifier,
		status:      StateAwaitingAuthorization,
		bridge:      b,
		msgs:        make(chan CallbackMessage),
		done:        make(chan struct{}),
	}

	// Register before opening so a fast redirect still finds the attempt.
	b.mu.Lock()
	b.pending[state] = a
	b.mu.Unlock()

	win, err := b.opener.Open(ctx, authURL, centredWindow("oauth_"+string(platform), b.opts.ScreenWidth, b.opts.ScreenHeight))
	if err != nil {
		err = fmt.Errorf("opening authorization window: %w", err)
		b.remove(state)
		// Release a redirect that found the record while the window opened.
		a.mu.Lock()
		a.status = StateFailed
		a.err = err
		a.mu.Unlock()
		close(a.done)
		return nil, err
	}
	a.window = win

	if b.observer != nil {
		b.observer.OAuthStarted()
	}
	b.logger.Info("oauth flow started", "platform", platform, "state", state)

	go a.run(ctx)
	return a, nil
}

// Connect runs a whole flow: Begin followed by Wait.
func (b *Bridge) Connect(ctx context.Context, platform social.Platform) (*social.ConnectedAccount, error) {
	a, err := b.Begin(ctx, platform)
	if err != nil {
		return nil, err
	}
	return a.Wait(ctx)
}

// Deliver routes a provider redirect to its attempt. Each state token is
// accepted once; later deliveries return ErrUnknownState, as do deliveries
// that lose the race with a timeout or a closed window.
func (b *Bridge) Deliver(msg CallbackMessage) error {
	b.mu.Lock()
	a, ok := b.pending[msg.State]
	if ok {
		delete(b.pending, msg.State)
	}
	b.mu.Unlock()

	if !ok {
		b.logger.Warn("no pending connection for state", "state", msg.State, "platform", msg.Platform)
		return ErrUnknownState
	}
	if msg.Platform != "" && msg.Platform != a.Platform {
		b.logger.Warn("callback platform does not match attempt", "state", msg.State, "platform", msg.Platform, "expected", a.Platform)
	}
	select {
	case a.msgs <- msg:
		return nil
	case <-a.done:
		b.logger.Warn("connection already finished", "state", msg.State, "platform", a.Platform, "outcome", a.Status())
		return ErrUnknownState
	}
}

func (b *Bridge) remove(state string) {
	b.mu.Lock()
	delete(b.pending, state)
	b.mu.Unlock()
}
