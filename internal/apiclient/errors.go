package apiclient

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
)

const defaultErrorMessage = "Request failed"

// failure distinguishes the Status 0 errors. The zero value is a transport
// failure where no response arrived.
type failure int

const (
	failTransport failure = iota
	failResponse          // a response arrived but could not be read or used
	failCanceled          // the caller's context ended
	failThrottled         // refused by the client-side rate limiter
)

// Error is returned for every failed API call. Status is the HTTP status of
// an application error, or 0 when the request never produced a usable
// response (transport failure, malformed or invalid payload).
type Error struct {
	Status  int
	Message string
	Data    json.RawMessage // response body, when there was one
	err     error
	failure failure
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

// IsNetwork reports whether the call produced no usable response. See
// IsUnreachable for failures that never reached the backend.
func (e *Error) IsNetwork() bool {
	return e.Status == 0
}

// IsUnreachable reports whether the request failed without reaching the
// backend: no response, not throttled locally and not cancelled by the
// caller. Only these failures say nothing was written.
func (e *Error) IsUnreachable() bool {
	return e.Status == 0 && e.failure == failTransport
}

func networkError(err error) *Error {
	return &Error{Message: "Network error: " + err.Error(), err: err}
}

// responseError reports a response that arrived but was unreadable,
// malformed or failed validation. The backend may have acted on the request.
func responseError(err error) *Error {
	e := networkError(err)
	e.failure = failResponse
	return e
}

// newStatusError builds an application error from a non-2xx body. The
// message prefers the body's "error" field, then "message".
func newStatusError(status int, body []byte) *Error {
	e := &Error{Status: status, Message: defaultErrorMessage}
	if len(body) > 0 && json.Valid(body) {
		e.Data = json.RawMessage(body)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return e
	}
	for _, key := range []string{"error", "message"} {
		var s string
		if raw, ok := fields[key]; ok && json.Unmarshal(raw, &s) == nil && s != "" {
			e.Message = s
			return e
		}
	}
	return e
}

// IsNetwork reports whether err is an API error with no usable response.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsNetwork()
}

// IsUnreachable reports whether err is an API error raised before any
// response arrived from a backend that could not be reached.
func IsUnreachable(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.IsUnreachable()
}

// IsStatus reports whether err is an API error carrying status.
func IsStatus(err error, status int) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == status
}

// IsUnauthorized reports whether the backend rejected the session token.
func IsUnauthorized(err error) bool {
	return IsStatus(err, http.StatusUnauthorized)
}

// IsNotFound reports whether the backend answered 404.
func IsNotFound(err error) bool {
	return IsStatus(err, http.StatusNotFound)
}

// classifyNetworkError labels a transport failure for metrics.
func classifyNetworkError(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	if errors.Is(err, context.Canceled) {
		return "canceled"
	}
	var rateErr interface{ RateLimited() bool }
	if errors.As(err, &rateErr) && rateErr.RateLimited() {
		return "rate_limited"
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return "dns"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Op == "dial" {
			return "connection_refused"
		}
		return "network"
	}
	return "other"
}
