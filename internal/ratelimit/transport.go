package ratelimit

import (
	"fmt"
	"net/http"
	"time"
)

// LimitError is returned by Transport when a request would have to wait
// longer than MaxWait for a token.
type LimitError struct {
	Host       string
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("client rate limit exceeded for %s, retry in %s", e.Host, e.RetryAfter.Round(time.Millisecond))
}

// RateLimited marks the error for callers that classify transport failures.
func (e *LimitError) RateLimited() bool { return true }

// RejectionCounter is notified whenever a request is refused.
type RejectionCounter interface {
	IncRateLimitRejection(host string)
}

// Transport throttles outbound requests per host. A request that finds the
// bucket empty waits for the next token when that is within MaxWait, and
// fails with *LimitError otherwise.
type Transport struct {
	Base    http.RoundTripper
	Limiter *Limiter
	MaxWait time.Duration

	rejections RejectionCounter
	sleep      func(time.Duration) <-chan time.Time
}

// NewTransport wraps base (http.DefaultTransport when nil).
func NewTransport(base http.RoundTripper, l *Limiter, maxWait time.Duration) *Transport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &Transport{Base: base, Limiter: l, MaxWait: maxWait, sleep: time.After}
}

// SetRejectionCounter attaches instrumentation.
func (t *Transport) SetRejectionCounter(c RejectionCounter) {
	t.rejections = c
}

// Quota reports the bucket for host.
func (t *Transport) Quota(host string) (limit, remaining int, resetAt time.Time) {
	return t.Limiter.Status(host)
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	host := req.URL.Host
	for {
		ok, wait := t.Limiter.Reserve(host)
		if ok {
			return t.Base.RoundTrip(req)
		}
		if wait > t.MaxWait {
			if t.rejections != nil {
				t.rejections.IncRateLimitRejection(host)
			}
			closeBody(req)
			return nil, &LimitError{Host: host, RetryAfter: wait}
		}
		select {
		case <-req.Context().Done():
			closeBody(req)
			return nil, req.Context().Err()
		case <-t.sleep(wait):
		}
	}
}

// RoundTrippers must close the request body even when they fail.
func closeBody(req *http.Request) {
	if req.Body != nil {
		req.Body.Close()
	}
}
