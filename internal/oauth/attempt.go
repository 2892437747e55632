package oauth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// State is the lifecycle position of an attempt.
type State string

const (
	StateIdle                  State = "idle"
	StateAwaitingAuthorization State = "awaiting-authorization"
	StateExchanging            State = "exchanging"
	StateConnected             State = "connected"
	StateCancelled             State = "cancelled"
	StateTimedOut              State = "timed-out"
	StateDenied                State = "denied"
	StateFailed                State = "failed"
)

// Terminal reports whether no further transitions are possible.
func (s State) Terminal() bool {
	switch s {
	case StateConnected, StateCancelled, StateTimedOut, StateDenied, StateFailed:
		return true
	}
	return false
}

// Attempt is one pending authorization, keyed by its state token. A single
// goroutine owns its transitions.
type Attempt struct {
	Platform  social.Platform
	State     string
	AuthURL   string
	CreatedAt time.Time

	redirectURI string
	verifier    string
	window      Window
	bridge      *Bridge

	msgs chan CallbackMessage
	done chan struct{}

	mu          sync.Mutex
	status      State
	account     *social.ConnectedAccount
	err         error
	closeWindow sync.Once
}

// Status returns the attempt's current state.
func (a *Attempt) Status() State {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.status
}

// Done is closed when the attempt reaches a terminal state.
func (a *Attempt) Done() <-chan struct{} {
	return a.done
}

// Wait blocks until the attempt finishes or ctx is done. Abandoning a wait
// does not cancel the attempt; cancel the context passed to Begin for that.
func (a *Attempt) Wait(ctx context.Context) (*social.ConnectedAccount, error) {
	select {
	case <-a.done:
		a.mu.Lock()
		defer a.mu.Unlock()
		return a.account, a.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (a *Attempt) setStatus(s State) {
	a.mu.Lock()
	a.status = s
	a.mu.Unlock()
}

func (a *Attempt) close() {
	a.closeWindow.Do(func() {
		if a.window != nil {
			a.window.Close()
		}
	})
}

func (a *Attempt) run(ctx context.Context) {
	b := a.bridge

	timer := time.NewTimer(b.opts.Timeout)
	defer timer.Stop()

	var closed <-chan struct{}
	var poll <-chan time.Time
	var poller ClosedPoller
	if n, ok := a.window.(ClosedNotifier); ok {
		closed = n.Closed()
	} else if p, ok := a.window.(ClosedPoller); ok {
		poller = p
		ticker := time.NewTicker(b.opts.PollInterval)
		defer ticker.Stop()
		poll = ticker.C
	}

	for {
		select {
		case msg := <-a.msgs:
			a.handle(ctx, msg)
			return
		case <-closed:
			a.finish(StateCancelled, nil, ErrCancelled)
			return
		case <-poll:
			if poller.IsClosed() {
				a.finish(StateCancelled, nil, ErrCancelled)
				return
			}
		case <-timer.C:
			a.finish(StateTimedOut, nil, ErrTimedOut)
			return
		case <-ctx.Done():
			a.finish(StateCancelled, nil, fmt.Errorf("%w: %w", ErrCancelled, ctx.Err()))
			return
		}
	}
}

func (a *Attempt) handle(ctx context.Context, msg CallbackMessage) {
	a.close()

	if msg.Error != "" {
		a.finish(StateDenied, nil, &DeniedError{Platform: a.Platform, Reason: msg.Error, Description: msg.ErrorDescription})
		return
	}
	if msg.Code == "" {
		a.finish(StateFailed, nil, ErrNoAuthorizationCode)
		return
	}

	a.setStatus(StateExchanging)
	acct, err := a.bridge.exchanger.ExchangeOAuthCode(ctx, apiclient.OAuthExchange{
		Platform:     a.Platform,
		Code:         msg.Code,
		State:        a.State,
		RedirectURI:  a.redirectURI,
		CodeVerifier: a.verifier,
	})
	if err != nil {
		a.finish(StateFailed, nil, fmt.Errorf("exchanging authorization code: %w", err))
		return
	}
	a.finish(StateConnected, acct, nil)
}

// finish performs every terminal transition: drop the record, close the
// window, publish the result.
func (a *Attempt) finish(s State, acct *social.ConnectedAccount, err error) {
	b := a.bridge
	b.remove(a.State)
	a.close()

	a.mu.Lock()
	a.status = s
	a.account = acct
	a.err = err
	a.mu.Unlock()
	close(a.done)

	if b.observer != nil {
		b.observer.OAuthFinished(string(a.Platform), outcomeLabel(s))
	}
	if err != nil {
		b.logger.Info("oauth flow ended", "platform", a.Platform, "state", a.State, "outcome", s, "error", err)
		return
	}
	b.logger.Info("oauth flow connected", "platform", a.Platform, "state", a.State)
}

func outcomeLabel(s State) string {
	if s == StateTimedOut {
		return "timed_out"
	}
	return string(s)
}
