package dataservice

import "github.com/alecgard/socialsync/internal/social"

// PostStore is the local post collection used by the degraded policy.
// *localstore.Store implements it.
type PostStore interface {
	Posts() []social.Post
	UpdatePosts(fn func(posts []social.Post) ([]social.Post, error)) error
}

// Policy decides what the service does when the backend is unreachable.
type Policy interface {
	Name() string
	// LocalPosts returns the store post operations fall back to, or nil
	// when they must fail with ErrBackendUnavailable.
	LocalPosts() PostStore
}

type strictPolicy struct{}

// StrictPolicy fails every operation with ErrBackendUnavailable while the
// backend is unreachable.
func StrictPolicy() Policy { return strictPolicy{} }

func (strictPolicy) Name() string          { return "strict" }
func (strictPolicy) LocalPosts() PostStore { return nil }

type degradedPolicy struct {
	local PostStore
}

// DegradedPolicy serves post operations from local while the backend is
// unreachable, or when a post request fails with a network error. Every
// other resource still fails with ErrBackendUnavailable. Local changes are
// never sent to the backend.
func DegradedPolicy(local PostStore) Policy { return degradedPolicy{local: local} }

func (degradedPolicy) Name() string            { return "degraded" }
func (p degradedPolicy) LocalPosts() PostStore { return p.local }
