package oauth

import (
	"errors"
	"fmt"

	"github.com/alecgard/socialsync/internal/social"
)

var (
	// ErrNotConfigured matches every *ConfigError.
	ErrNotConfigured = errors.New("oauth not configured")

	ErrCancelled           = errors.New("OAuth authorization was cancelled")
	ErrTimedOut            = errors.New("OAuth authorization timed out")
	ErrNoAuthorizationCode = errors.New("No authorization code received")

	// ErrUnknownState is returned by Deliver for a state token with no
	// pending attempt, including one that was already delivered.
	ErrUnknownState = errors.New("no pending connection for state")
)

// ConfigError reports a platform with no client id. It is returned before
// any window is opened.
type ConfigError struct {
	Platform social.Platform
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("OAuth not configured for %s. Please add the required environment variables.", e.Platform)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrNotConfigured
}

// DeniedError carries the error the provider reported on the callback.
type DeniedError struct {
	Platform    social.Platform
	Reason      string
	Description string
}

func (e *DeniedError) Error() string {
	if e.Description != "" {
		return e.Reason + ": " + e.Description
	}
	return e.Reason
}
