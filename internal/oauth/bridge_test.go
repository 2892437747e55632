package oauth

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// notifyWindow reports closure through a channel.
type notifyWindow struct {
	closed    chan struct{}
	closeOnce sync.Once
	closes    atomic.Int32
}

func newNotifyWindow() *notifyWindow {
	return &notifyWindow{closed: make(chan struct{})}
}

func (w *notifyWindow) Close() {
	w.closes.Add(1)
	w.userClose()
}

func (w *notifyWindow) userClose() {
	w.closeOnce.Do(func() { close(w.closed) })
}

func (w *notifyWindow) Closed() <-chan struct{} { return w.closed }

// pollWindow can only be asked whether it is closed.
type pollWindow struct {
	closed atomic.Bool
}

func (w *pollWindow) Close()         { w.closed.Store(true) }
func (w *pollWindow) IsClosed() bool { return w.closed.Load() }

// plainWindow reports nothing.
type plainWindow struct {
	closes atomic.Int32
}

func (w *plainWindow) Close() { w.closes.Add(1) }

// fakeOpener records what it was asked to open.
type fakeOpener struct {
	mu     sync.Mutex
	window Window
	err    error
	urls   []string
	opts   []WindowOptions
}

func (o *fakeOpener) Open(_ context.Context, u string, opts WindowOptions) (Window, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, u)
	o.opts = append(o.opts, opts)
	if o.err != nil {
		return nil, o.err
	}
	return o.window, nil
}

func (o *fakeOpener) calls() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.urls)
}

// fakeExchanger returns a fixed account or error.
type fakeExchanger struct {
	mu      sync.Mutex
	got     []apiclient.OAuthExchange
	account *social.ConnectedAccount
	err     error
}

func (f *fakeExchanger) ExchangeOAuthCode(_ context.Context, ex apiclient.OAuthExchange) (*social.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.got = append(f.got, ex)
	return f.account, f.err
}

type countingObserver struct {
	mu       sync.Mutex
	started  int
	outcomes []string
}

func (c *countingObserver) OAuthStarted() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.started++
}

func (c *countingObserver) OAuthFinished(_, outcome string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.outcomes = append(c.outcomes, outcome)
}

var allConfigured = ClientIDs{Facebook: "fb-id", Twitter: "tw-id", LinkedIn: "li-id", Google: "g-id"}

func newTestBridge(t *testing.T, opener Opener, ex Exchanger, opts Options) *Bridge {
	t.Helper()
	if opts.RedirectBase == "" {
		opts.RedirectBase = "http://127.0.0.1:8789"
	}
	return NewBridge(DefaultPlatforms(allConfigured), ex, opener, opts)
}

func waitCtx(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestBeginUnconfiguredPlatform(t *testing.T) {
	opener := &fakeOpener{window: newNotifyWindow()}
	b := NewBridge(DefaultPlatforms(ClientIDs{Facebook: "fb"}), &fakeExchanger{}, opener, Options{})

	_, err := b.Begin(context.Background(), social.LinkedIn)
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) || cfgErr.Platform != social.LinkedIn {
		t.Fatalf("expected ConfigError for linkedin, got %v", err)
	}
	if !errors.Is(err, ErrNotConfigured) {
		t.Error("ConfigError should match ErrNotConfigured")
	}
	if opener.calls() != 0 {
		t.Error("no window should be opened for an unconfigured platform")
	}
	if b.Pending() != 0 {
		t.Error("nothing should be registered")
	}
}

func TestConfigurationStatus(t *testing.T) {
	b := NewBridge(DefaultPlatforms(ClientIDs{Facebook: "fb", Google: "g"}), nil, nil, Options{})
	status := b.ConfigurationStatus()

	want := map[social.Platform]bool{
		social.Facebook: true, social.Instagram: true, social.Twitter: false,
		social.LinkedIn: false, social.YouTube: true,
	}
	for p, v := range want {
		if status[p] != v {
			t.Errorf("%s: got %v, want %v", p, status[p], v)
		}
	}
}

func TestConnectSuccess(t *testing.T) {
	win := newNotifyWindow()
	opener := &fakeOpener{window: win}
	ex := &fakeExchanger{account: &social.ConnectedAccount{ID: "9", Platform: social.Twitter, Username: "@acme"}}
	obs := &countingObserver{}
	b := newTestBridge(t, opener, ex, Options{})
	b.SetObserver(obs)

	a, err := b.Begin(waitCtx(t), social.Twitter)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if a.Status() != StateAwaitingAuthorization {
		t.Errorf("status = %s", a.Status())
	}
	if b.Pending() != 1 {
		t.Fatalf("expected 1 pending, got %d", b.Pending())
	}

	if err := b.Deliver(CallbackMessage{Platform: social.Twitter, State: a.State, Code: "abc"}); err != nil {
		t.Fatalf("Deliver: %v", err)
	}
	acct, err := a.Wait(waitCtx(t))
	if err != nil {
		t.Fatalf("Wait: %v", err)
	}
	if acct.Username != "@acme" {
		t.Errorf("account = %+v", acct)
	}
	if a.Status() != StateConnected {
		t.Errorf("status = %s", a.Status())
	}
	if b.Pending() != 0 {
		t.Error("record should be dropped")
	}
	if win.closes.Load() == 0 {
		t.Error("window should be closed")
	}

	if len(ex.got) != 1 {
		t.Fatalf("expected one exchange, got %d", len(ex.got))
	}
	got := ex.got[0]
	if got.Platform != social.Twitter || got.Code != "abc" || got.State != a.State {
		t.Errorf("exchange = %+v", got)
	}
	if got.RedirectURI != "http://127.0.0.1:8789/oauth/callback/twitter" {
		t.Errorf("redirect uri = %q", got.RedirectURI)
	}
	if got.CodeVerifier == "" {
		t.Error("twitter exchange should carry the PKCE verifier")
	}

	if err := b.Deliver(CallbackMessage{State: a.State, Code: "abc"}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("second delivery should be rejected, got %v", err)
	}
	if obs.started != 1 || len(obs.outcomes) != 1 || obs.outcomes[0] != "connected" {
		t.Errorf("observer saw started=%d outcomes=%v", obs.started, obs.outcomes)
	}
}

func TestAuthorizationURL(t *testing.T) {
	tests := []struct {
		platform  social.Platform
		host      string
		clientID  string
		wantExtra map[string]string
	}{
		{social.Facebook, "www.facebook.com", "fb-id", nil},
		{social.Instagram, "www.facebook.com", "fb-id", nil},
		{social.Twitter, "twitter.com", "tw-id", map[string]string{"code_challenge_method": "S256"}},
		{social.LinkedIn, "www.linkedin.com", "li-id", nil},
		{social.YouTube, "accounts.google.com", "g-id", map[string]string{"access_type": "offline"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.platform), func(t *testing.T) {
			opener := &fakeOpener{window: &plainWindow{}}
			b := newTestBridge(t, opener, &fakeExchanger{}, Options{})
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			a, err := b.Begin(ctx, tt.platform)
			if err != nil {
				t.Fatalf("Begin: %v", err)
			}
			u, err := url.Parse(opener.urls[0])
			if err != nil {
				t.Fatal(err)
			}
			if u.Host != tt.host {
				t.Errorf("host = %q", u.Host)
			}
			q := u.Query()
			if q.Get("client_id") != tt.clientID || q.Get("response_type") != "code" || q.Get("state") != a.State {
				t.Errorf("query = %v", q)
			}
			if q.Get("redirect_uri") != "http://127.0.0.1:8789/oauth/callback/"+string(tt.platform) {
				t.Errorf("redirect_uri = %q", q.Get("redirect_uri"))
			}
			if q.Get("scope") == "" {
				t.Error("scope missing")
			}
			for k, v := range tt.wantExtra {
				if q.Get(k) != v {
					t.Errorf("%s = %q, want %q", k, q.Get(k), v)
				}
			}
			if len(a.State) != 32 {
				t.Errorf("state should be 128 bits of hex, got %q", a.State)
			}
		})
	}
}

func TestWindowCentredOnScreen(t *testing.T) {
	opener := &fakeOpener{window: &plainWindow{}}
	b := newTestBridge(t, opener, &fakeExchanger{}, Options{ScreenWidth: 1920, ScreenHeight: 1080})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if _, err := b.Begin(ctx, social.Facebook); err != nil {
		t.Fatal(err)
	}
	got := opener.opts[0]
	want := WindowOptions{Name: "oauth_facebook", Width: 600, Height: 700, Left: 660, Top: 190}
	if got != want {
		t.Errorf("window = %+v, want %+v", got, want)
	}

	if small := centredWindow("x", 400, 300); small.Left != 0 || small.Top != 0 {
		t.Errorf("small screen should clamp to 0,0, got %+v", small)
	}
}

func TestWindowClosedByUser(t *testing.T) {
	win := newNotifyWindow()
	obs := &countingObserver{}
	b := newTestBridge(t, &fakeOpener{window: win}, &fakeExchanger{}, Options{})
	b.SetObserver(obs)

	a, err := b.Begin(waitCtx(t), social.LinkedIn)
	if err != nil {
		t.Fatal(err)
	}
	win.userClose()

	if _, err := a.Wait(waitCtx(t)); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
	if a.Status() != StateCancelled || b.Pending() != 0 {
		t.Errorf("status=%s pending=%d", a.Status(), b.Pending())
	}
	if err := b.Deliver(CallbackMessage{State: a.State, Code: "late"}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("late callback should be ignored, got %v", err)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "cancelled" {
		t.Errorf("outcomes = %v", obs.outcomes)
	}
}

func TestPolledWindowClosed(t *testing.T) {
	win := &pollWindow{}
	b := newTestBridge(t, &fakeOpener{window: win}, &fakeExchanger{}, Options{PollInterval: 5 * time.Millisecond})

	a, err := b.Begin(waitCtx(t), social.Facebook)
	if err != nil {
		t.Fatal(err)
	}
	win.Close()

	if _, err := a.Wait(waitCtx(t)); !errors.Is(err, ErrCancelled) {
		t.Fatalf("expected ErrCancelled, got %v", err)
	}
}

func TestTimeout(t *testing.T) {
	win := &plainWindow{}
	obs := &countingObserver{}
	b := newTestBridge(t, &fakeOpener{window: win}, &fakeExchanger{}, Options{Timeout: 20 * time.Millisecond})
	b.SetObserver(obs)

	a, err := b.Begin(waitCtx(t), social.YouTube)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Wait(waitCtx(t)); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}
	if a.Status() != StateTimedOut {
		t.Errorf("status = %s", a.Status())
	}
	if win.closes.Load() != 1 {
		t.Errorf("window should be closed once, got %d", win.closes.Load())
	}
	if b.Pending() != 0 {
		t.Error("record should be dropped")
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "timed_out" {
		t.Errorf("outcomes = %v", obs.outcomes)
	}
}

func TestDeliverAfterTimeoutIsRejected(t *testing.T) {
	b := newTestBridge(t, &fakeOpener{window: &plainWindow{}}, &fakeExchanger{}, Options{Timeout: 20 * time.Millisecond})

	a, err := b.Begin(waitCtx(t), social.Twitter)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := a.Wait(waitCtx(t)); !errors.Is(err, ErrTimedOut) {
		t.Fatalf("expected ErrTimedOut, got %v", err)
	}

	// The callback looked the record up just before the timer fired.
	b.mu.Lock()
	b.pending[a.State] = a
	b.mu.Unlock()

	if err := b.Deliver(CallbackMessage{State: a.State, Code: "late"}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("late delivery err = %v, want ErrUnknownState", err)
	}
	if a.Status() != StateTimedOut {
		t.Errorf("status = %s, want timed out", a.Status())
	}
}

func TestContextCancellation(t *testing.T) {
	b := newTestBridge(t, &fakeOpener{window: &plainWindow{}}, &fakeExchanger{}, Options{})
	ctx, cancel := context.WithCancel(context.Background())

	a, err := b.Begin(ctx, social.Twitter)
	if err != nil {
		t.Fatal(err)
	}
	cancel()

	_, err = a.Wait(waitCtx(t))
	if !errors.Is(err, ErrCancelled) || !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
}

func TestCallbackOutcomes(t *testing.T) {
	exchangeFailure := &apiclient.Error{Status: 400, Message: "invalid_grant"}
	tests := []struct {
		name      string
		msg       CallbackMessage
		exErr     error
		wantState State
		check     func(t *testing.T, err error)
	}{
		{
			name:      "provider denied",
			msg:       CallbackMessage{Error: "access_denied", ErrorDescription: "user said no"},
			wantState: StateDenied,
			check: func(t *testing.T, err error) {
				var denied *DeniedError
				if !errors.As(err, &denied) || denied.Reason != "access_denied" {
					t.Errorf("expected DeniedError, got %v", err)
				}
			},
		},
		{
			name:      "no code",
			msg:       CallbackMessage{},
			wantState: StateFailed,
			check: func(t *testing.T, err error) {
				if !errors.Is(err, ErrNoAuthorizationCode) {
					t.Errorf("expected ErrNoAuthorizationCode, got %v", err)
				}
			},
		},
		{
			name:      "exchange fails",
			msg:       CallbackMessage{Code: "c"},
			exErr:     exchangeFailure,
			wantState: StateFailed,
			check: func(t *testing.T, err error) {
				var apiErr *apiclient.Error
				if !errors.As(err, &apiErr) || apiErr.Status != 400 {
					t.Errorf("expected wrapped API error, got %v", err)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			win := newNotifyWindow()
			ex := &fakeExchanger{err: tt.exErr}
			b := newTestBridge(t, &fakeOpener{window: win}, ex, Options{})

			a, err := b.Begin(waitCtx(t), social.Facebook)
			if err != nil {
				t.Fatal(err)
			}
			msg := tt.msg
			msg.State = a.State
			if err := b.Deliver(msg); err != nil {
				t.Fatalf("Deliver: %v", err)
			}

			acct, err := a.Wait(waitCtx(t))
			if acct != nil {
				t.Errorf("expected no account, got %+v", acct)
			}
			tt.check(t, err)
			if a.Status() != tt.wantState {
				t.Errorf("status = %s, want %s", a.Status(), tt.wantState)
			}
			if win.closes.Load() == 0 {
				t.Error("window should be closed")
			}
		})
	}
}

func TestOpenFailureUnregisters(t *testing.T) {
	b := newTestBridge(t, &fakeOpener{err: errors.New("no display")}, &fakeExchanger{}, Options{})
	if _, err := b.Begin(context.Background(), social.Facebook); err == nil {
		t.Fatal("expected error")
	}
	if b.Pending() != 0 {
		t.Error("failed attempt should not stay registered")
	}
}

func TestDeliverUnknownState(t *testing.T) {
	b := newTestBridge(t, &fakeOpener{window: &plainWindow{}}, &fakeExchanger{}, Options{})
	if err := b.Deliver(CallbackMessage{State: "nope", Code: "x"}); !errors.Is(err, ErrUnknownState) {
		t.Errorf("expected ErrUnknownState, got %v", err)
	}
}
