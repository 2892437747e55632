package oauth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"golang.org/x/time/rate"

	"github.com/alecgard/socialsync/internal/social"
)

// recordingDeliverer captures delivered messages.
type recordingDeliverer struct {
	msgs []CallbackMessage
	err  error
}

func (d *recordingDeliverer) Deliver(msg CallbackMessage) error {
	d.msgs = append(d.msgs, msg)
	return d.err
}

func newTestServer(t *testing.T, d Deliverer) *CallbackServer {
	t.Helper()
	s, err := NewCallbackServer(d, "http://example.com")
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestCallbackDelivers(t *testing.T) {
	d := &recordingDeliverer{}
	s := newTestServer(t, d)

	req := httptest.NewRequest(http.MethodGet, "/oauth/callback/linkedin?state=s1&code=c1", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if len(d.msgs) != 1 {
		t.Fatalf("expected one delivery, got %d", len(d.msgs))
	}
	got := d.msgs[0]
	if got.Platform != social.LinkedIn || got.State != "s1" || got.Code != "c1" {
		t.Errorf("message = %+v", got)
	}
	if !strings.Contains(rec.Body.String(), "Authorization received") {
		t.Errorf("unexpected page: %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestCallbackOtherOriginIgnored(t *testing.T) {
	d := &recordingDeliverer{}
	s := newTestServer(t, d)

	req := httptest.NewRequest(http.MethodGet, "http://evil.example/oauth/callback/twitter?state=s&code=c", nil)
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Errorf("status = %d, want 403", rec.Code)
	}
	if len(d.msgs) != 0 {
		t.Error("message from another origin must not be delivered")
	}
}

func TestCallbackUnknownStateAndPlatform(t *testing.T) {
	d := &recordingDeliverer{err: ErrUnknownState}
	s := newTestServer(t, d)

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/twitter?state=gone&code=c", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown state: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/myspace?state=s&code=c", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown platform: status = %d", rec.Code)
	}
	if len(d.msgs) != 1 {
		t.Errorf("unknown platform should not be delivered, got %d deliveries", len(d.msgs))
	}
}

func TestCallbackEndToEnd(t *testing.T) {
	win := newNotifyWindow()
	ex := &fakeExchanger{account: &social.ConnectedAccount{ID: "1", Platform: social.Facebook, Username: "page"}}
	b := NewBridge(DefaultPlatforms(allConfigured), ex, &fakeOpener{window: win}, Options{RedirectBase: "http://example.com"})
	s := newTestServer(t, b)

	a, err := b.Begin(waitCtx(t), social.Facebook)
	if err != nil {
		t.Fatal(err)
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/facebook?code=xyz&state="+a.State, nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	acct, err := a.Wait(waitCtx(t))
	if err != nil || acct.Username != "page" {
		t.Fatalf("Wait: %+v, %v", acct, err)
	}
}

func TestMountAndServe(t *testing.T) {
	s := newTestServer(t, &recordingDeliverer{})
	s.Mount("/metrics", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("# metrics"))
	}))

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Body.String() != "# metrics" {
		t.Errorf("mounted handler not served: %q", rec.Body.String())
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, "127.0.0.1:0") }()
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Serve returned %v", err)
	}
}

func TestCallbackThrottled(t *testing.T) {
	d := &recordingDeliverer{}
	s := newTestServer(t, d)
	s.SetRateLimit(rate.Every(time.Hour), 2)

	var codes []int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/oauth/callback/twitter?state=s&code=c", nil))
		codes = append(codes, rec.Code)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("status codes = %v", codes)
	}
	if len(d.msgs) != 2 {
		t.Errorf("expected 2 deliveries, got %d", len(d.msgs))
	}
}
