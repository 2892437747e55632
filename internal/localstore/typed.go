package localstore

import (
	"fmt"

	"github.com/alecgard/socialsync/internal/social"
)

// LoadToken returns the persisted auth token, or "" when none is stored or
// it cannot be opened with the configured passphrase.
func (s *Store) LoadToken() string {
	var stored string
	if !s.Get(KeyAuthToken, &stored) {
		return ""
	}
	token, err := s.sealer.Open(stored)
	if err != nil {
		s.logger.Warn("discarding unreadable auth token", "error", err)
		return ""
	}
	return token
}

// SaveToken persists token, sealing it when a passphrase is configured.
func (s *Store) SaveToken(token string) error {
	sealed, err := s.sealer.Seal(token)
	if err != nil {
		return fmt.Errorf("sealing token: %w", err)
	}
	return s.Put(KeyAuthToken, sealed)
}

// ClearToken erases the persisted auth token.
func (s *Store) ClearToken() error {
	return s.Delete(KeyAuthToken)
}

// User returns the cached user snapshot.
func (s *Store) User() (*social.User, bool) {
	var u social.User
	if !s.Get(KeyUser, &u) {
		return nil, false
	}
	return &u, true
}

func (s *Store) SaveUser(u *social.User) error {
	return s.Put(KeyUser, u)
}

func (s *Store) ClearUser() error {
	return s.Delete(KeyUser)
}

// Posts returns the locally staged posts, or an empty slice.
func (s *Store) Posts() []social.Post {
	var posts []social.Post
	if !s.Get(KeyPosts, &posts) || posts == nil {
		return []social.Post{}
	}
	return posts
}

// UpdatePosts performs a locked read-modify-write of the post collection.
func (s *Store) UpdatePosts(fn func(posts []social.Post) ([]social.Post, error)) error {
	_, err := Update(s, KeyPosts, func(cur []social.Post, _ bool) ([]social.Post, error) {
		if cur == nil {
			cur = []social.Post{}
		}
		return fn(cur)
	})
	return err
}

// Settings returns the saved settings, or the defaults.
func (s *Store) Settings() social.Settings {
	var st social.Settings
	if !s.Get(KeySettings, &st) {
		return social.DefaultSettings()
	}
	defaults := social.DefaultSettings()
	if st.Notifications == nil {
		st.Notifications = defaults.Notifications
	}
	if st.Privacy == nil {
		st.Privacy = defaults.Privacy
	}
	return st
}

func (s *Store) SaveSettings(st social.Settings) error {
	return s.Put(KeySettings, st)
}

// Widgets returns the saved dashboard widgets, or the defaults.
func (s *Store) Widgets() []social.Widget {
	var widgets []social.Widget
	if !s.Get(KeyWidgets, &widgets) || len(widgets) == 0 {
		return social.DefaultWidgets()
	}
	return widgets
}

func (s *Store) SaveWidgets(widgets []social.Widget) error {
	return s.Put(KeyWidgets, widgets)
}

// Layout returns the saved dashboard layout, or grid.
func (s *Store) Layout() social.Layout {
	var l social.Layout
	if !s.Get(KeyLayout, &l) || !l.Valid() {
		return social.LayoutGrid
	}
	return l
}

func (s *Store) SaveLayout(l social.Layout) error {
	if !l.Valid() {
		return &social.ValidationError{Field: "layout", Message: fmt.Sprintf("unknown layout %q", l)}
	}
	return s.Put(KeyLayout, l)
}
