package localstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/alecgard/socialsync/internal/crypto"
)

// Named buckets. The names match the keys the web dashboard used so an
// exported browser profile can be dropped into the state directory.
const (
	KeyAuthToken = "authToken"
	KeyUser      = "user"
	KeyPosts     = "socialScheduler_posts"
	KeyFiles     = "socialScheduler_files"
	KeyTeamUsers = "socialScheduler_team_users"
	KeySettings  = "socialScheduler_settings"
	KeyWidgets   = "socialSync_dashboard_widgets"
	KeyLayout    = "socialSync_dashboard_layout"
)

// AllKeys lists every bucket the client writes.
var AllKeys = []string{
	KeyAuthToken, KeyUser, KeyPosts, KeyFiles, KeyTeamUsers, KeySettings, KeyWidgets, KeyLayout,
}

const (
	fileExt  = ".json"
	saltFile = ".salt"
)

// Store is a directory of JSON documents, one per key. Every write replaces
// the whole document. It is a degraded-availability cache, never a source
// of truth.
type Store struct {
	dir    string
	mu     sync.Mutex // serializes writers
	sealer *crypto.Sealer
	logger *slog.Logger
}

// Open prepares dir for use. When passphrase is non-empty the auth token is
// sealed at rest with a key derived from it and a per-directory salt.
func Open(dir, passphrase string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating state dir: %w", err)
	}
	s := &Store{dir: dir, logger: slog.Default()}

	if passphrase != "" {
		salt, err := s.loadSalt()
		if err != nil {
			return nil, err
		}
		sealer, err := crypto.NewSealer(passphrase, salt)
		if err != nil {
			return nil, fmt.Errorf("creating sealer: %w", err)
		}
		s.sealer = sealer
	}
	return s, nil
}

// SetLogger replaces the logger used for discarded-value warnings.
func (s *Store) SetLogger(l *slog.Logger) {
	s.logger = l
}

// Dir returns the state directory.
func (s *Store) Dir() string {
	return s.dir
}

func (s *Store) loadSalt() ([]byte, error) {
	path := filepath.Join(s.dir, saltFile)
	salt, err := os.ReadFile(path)
	if err == nil && len(salt) >= crypto.SaltSize {
		return salt, nil
	}
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("reading salt: %w", err)
	}
	salt, err = crypto.NewSalt()
	if err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, salt, 0o600); err != nil {
		return nil, fmt.Errorf("writing salt: %w", err)
	}
	return salt, nil
}

func (s *Store) path(key string) string {
	return filepath.Join(s.dir, key+fileExt)
}

// Get decodes the document stored under key into dst. It returns false
// when the key is absent or its content is malformed; malformed content is
// logged and otherwise treated as absent.
func (s *Store) Get(key string, dst any) bool {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("reading local value", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		s.logger.Warn("discarding malformed local value", "key", key, "error", err)
		return false
	}
	return true
}

// Put serializes v and overwrites the document under key.
func (s *Store) Put(key string, v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(key, v)
}

// write must be called with s.mu held.
func (s *Store) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encoding %s: %w", key, err)
	}

	tmp, err := os.CreateTemp(s.dir, key+".*.tmp")
	if err != nil {
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("writing %s: %w", key, err)
	}
	if err := os.Rename(tmp.Name(), s.path(key)); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("replacing %s: %w", key, err)
	}
	return nil
}

// Delete erases key. Deleting an absent key is not an error.
func (s *Store) Delete(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.Remove(s.path(key)); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("deleting %s: %w", key, err)
	}
	return nil
}

// Keys returns the keys currently present, sorted.
func (s *Store) Keys() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("listing state dir: %w", err)
	}
	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || strings.HasPrefix(name, ".") || !strings.HasSuffix(name, fileExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(name, fileExt))
	}
	sort.Strings(keys)
	return keys, nil
}

// Stats counts the stored documents and their combined size.
func (s *Store) Stats() (entries int, bytes int64, err error) {
	keys, err := s.Keys()
	if err != nil {
		return 0, 0, err
	}
	for _, key := range keys {
		info, err := os.Stat(s.path(key))
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return 0, 0, fmt.Errorf("stat %s: %w", key, err)
		}
		entries++
		bytes += info.Size()
	}
	return entries, bytes, nil
}

// Clear erases every key the client writes.
func (s *Store) Clear() error {
	for _, key := range AllKeys {
		if err := s.Delete(key); err != nil {
			return err
		}
	}
	return nil
}

// Update performs a locked read-modify-write of the document under key.
// fn receives the current value (the zero value when absent or malformed)
// and returns the value to store. If fn fails nothing is written.
func Update[T any](s *Store, key string, fn func(cur T, found bool) (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cur T
	found := s.Get(key, &cur)
	next, err := fn(cur, found)
	if err != nil {
		var zero T
		return zero, err
	}
	if err := s.write(key, next); err != nil {
		var zero T
		return zero, err
	}
	return next, nil
}
