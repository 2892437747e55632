package dataservice

import (
	"sync"
	"time"

	"github.com/alecgard/socialsync/internal/social"
)

// keyedMutex serializes work per key. Entries are dropped once unused.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*refLock
}

type refLock struct {
	sync.Mutex
	refs int
}

// Lock acquires the lock for key and returns its release func.
func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &refLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}

// LocalIDs issues ids for posts created offline: the current Unix time in
// milliseconds, bumped so that ids are strictly increasing.
type LocalIDs struct {
	mu   sync.Mutex
	last int64
	now  func() time.Time
}

// NewLocalIDs returns a generator reading the time from now.
func NewLocalIDs(now func() time.Time) *LocalIDs {
	return &LocalIDs{now: now}
}

// Next returns a fresh id.
func (g *LocalIDs) Next() social.ID {
	g.mu.Lock()
	defer g.mu.Unlock()
	ms := g.now().UnixMilli()
	if ms <= g.last {
		ms = g.last + 1
	}
	g.last = ms
	return social.IDFromInt(ms)
}
