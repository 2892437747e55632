package ratelimit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

// fakeClock is a controllable time source for deterministic tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(t time.Time) *fakeClock {
	return &fakeClock{now: t}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestLimiter(rate int, window time.Duration, clock *fakeClock) *Limiter {
	l := New(rate, window)
	l.now = clock.Now
	return l
}

func TestAllowPerKey(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(2, time.Minute, clock)

	if !l.Allow("api.example.com") || !l.Allow("api.example.com") {
		t.Fatal("first two requests should be allowed")
	}
	if l.Allow("api.example.com") {
		t.Fatal("third request should be denied")
	}
	if !l.Allow("other.example.com") {
		t.Fatal("a different host has its own bucket")
	}
}

func TestReserveReportsWait(t *testing.T) {
	clock := newFakeClock(time.Now())
	// 60 per minute = one token per second.
	l := newTestLimiter(60, time.Minute, clock)

	for i := 0; i < 60; i++ {
		l.Allow("k")
	}
	ok, wait := l.Reserve("k")
	if ok {
		t.Fatal("bucket should be empty")
	}
	if wait < 990*time.Millisecond || wait > time.Second {
		t.Fatalf("expected about 1s wait, got %v", wait)
	}

	clock.Advance(time.Second)
	if ok, _ := l.Reserve("k"); !ok {
		t.Fatal("token should have accrued after 1s")
	}
}

func TestRefillCap(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(5, time.Minute, clock)

	l.Allow("k")
	l.Allow("k")
	clock.Advance(10 * time.Minute)

	limit, remaining, resetAt := l.Status("k")
	if limit != 5 || remaining != 5 {
		t.Fatalf("expected 5/5, got %d/%d", remaining, limit)
	}
	if !resetAt.Equal(clock.Now()) {
		t.Fatalf("full bucket resetAt should be now, got %v", resetAt.Sub(clock.Now()))
	}
}

func TestConcurrentAccess(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(100, time.Minute, clock)

	var wg sync.WaitGroup
	allowed := make(chan bool, 200)
	for i := 0; i < 200; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			allowed <- l.Allow("concurrent")
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != 100 {
		t.Fatalf("expected exactly 100 allowed, got %d", count)
	}
}

type countingRejections struct {
	hosts []string
}

func (c *countingRejections) IncRateLimitRejection(host string) {
	c.hosts = append(c.hosts, host)
}

func TestTransportRejectsBeyondMaxWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	clock := newFakeClock(time.Now())
	l := newTestLimiter(1, time.Hour, clock)
	tr := NewTransport(srv.Client().Transport, l, time.Second)
	rej := &countingRejections{}
	tr.SetRejectionCounter(rej)
	client := &http.Client{Transport: tr}

	resp, err := client.Get(srv.URL)
	if err != nil {
		t.Fatalf("first request: %v", err)
	}
	resp.Body.Close()

	_, err = client.Get(srv.URL)
	var limitErr *LimitError
	if !errors.As(err, &limitErr) {
		t.Fatalf("expected LimitError, got %v", err)
	}
	if !limitErr.RateLimited() || limitErr.RetryAfter <= time.Second {
		t.Errorf("unexpected error %+v", limitErr)
	}
	if len(rej.hosts) != 1 {
		t.Errorf("expected one rejection, got %v", rej.hosts)
	}
}

func TestTransportWaitsWithinMaxWait(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	clock := newFakeClock(time.Now())
	l := newTestLimiter(1, time.Second, clock)
	tr := NewTransport(srv.Client().Transport, l, 5*time.Second)

	var slept []time.Duration
	tr.sleep = func(d time.Duration) <-chan time.Time {
		slept = append(slept, d)
		clock.Advance(d)
		ch := make(chan time.Time, 1)
		ch <- clock.Now()
		return ch
	}
	client := &http.Client{Transport: tr}

	for i := 0; i < 2; i++ {
		resp, err := client.Get(srv.URL)
		if err != nil {
			t.Fatalf("request %d: %v", i+1, err)
		}
		resp.Body.Close()
	}
	if len(slept) != 1 {
		t.Fatalf("expected exactly one wait, got %v", slept)
	}
}

func TestTransportHonoursContext(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(1, time.Minute, clock)
	l.Allow("example.invalid")

	tr := NewTransport(http.DefaultTransport, l, time.Hour)
	tr.sleep = func(time.Duration) <-chan time.Time { return make(chan time.Time) }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, "http://example.invalid/", nil)
	if _, err := tr.RoundTrip(req); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestTransportQuota(t *testing.T) {
	clock := newFakeClock(time.Now())
	l := newTestLimiter(3, time.Minute, clock)
	tr := NewTransport(nil, l, 0)
	l.Allow("api.example.com")

	limit, remaining, _ := tr.Quota("api.example.com")
	if limit != 3 || remaining != 2 {
		t.Errorf("quota = %d/%d, want 2/3", remaining, limit)
	}
	if _, remaining, _ := tr.Quota("other.example.com"); remaining != 3 {
		t.Errorf("untouched host remaining = %d", remaining)
	}
}
