package dataservice

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

var (
	// ErrBackendUnavailable is returned when the backend cannot be reached
	// and the persistence policy has no local answer.
	ErrBackendUnavailable = errors.New("backend API is not available")

	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("not found")
)

// API is the subset of *apiclient.Client the service calls.
type API interface {
	Health(ctx context.Context) (*apiclient.Health, error)

	Login(ctx context.Context, email, password string) (*apiclient.AuthResponse, error)
	Register(ctx context.Context, email, name, password string) (*apiclient.AuthResponse, error)
	CurrentUser(ctx context.Context) (*social.User, error)
	Logout() error

	ListPosts(ctx context.Context, status social.PostStatus) ([]social.Post, error)
	GetPost(ctx context.Context, id social.ID) (*social.Post, error)
	CreatePost(ctx context.Context, p *social.Post) (*social.Post, error)
	UpdatePost(ctx context.Context, id social.ID, p *social.Post) (*social.Post, error)
	DeletePost(ctx context.Context, id social.ID) error
	CalendarPosts(ctx context.Context, year int, month time.Month) ([]social.Post, error)

	Analytics(ctx context.Context, rng string) (*social.Analytics, error)
	PlatformAnalytics(ctx context.Context) ([]social.PlatformAnalytics, error)
	AddAnalytics(ctx context.Context, ev social.AnalyticsEvent) error

	Settings(ctx context.Context) (*social.Settings, error)
	UpdateSettings(ctx context.Context, s social.Settings) error
	UpdateProfile(ctx context.Context, upd social.ProfileUpdate) (*social.User, error)
	TeamUsers(ctx context.Context) ([]social.TeamUser, error)
	AddTeamUser(ctx context.Context, u social.NewTeamUser) error
	RemoveTeamUser(ctx context.Context, id social.ID) error

	Accounts(ctx context.Context) ([]social.ConnectedAccount, error)
	ConnectAccount(ctx context.Context, a *social.ConnectedAccount) (*social.ConnectedAccount, error)
	UpdateAccount(ctx context.Context, id social.ID, a *social.ConnectedAccount) (*social.ConnectedAccount, error)
	DisconnectAccount(ctx context.Context, id social.ID) error
	AccountStats(ctx context.Context, id social.ID) (*social.AccountStats, error)

	Files(ctx context.Context) ([]social.File, error)
	CreateFile(ctx context.Context, f *social.File) (*social.File, error)
	GetFile(ctx context.Context, id social.ID) (*social.File, error)
	UpdateFile(ctx context.Context, id social.ID, f *social.File) (*social.File, error)
	DeleteFile(ctx context.Context, id social.ID) error
}

// SessionCache keeps a snapshot of the signed-in user.
type SessionCache interface {
	SaveUser(u *social.User) error
	ClearUser() error
}

// EventRecorder receives analytics events for post changes.
// *events.Recorder implements it.
type EventRecorder interface {
	Record(ev social.AnalyticsEvent)
}

// Observer receives fallback and reachability measurements.
// *metrics.Metrics implements it.
type Observer interface {
	SetBackendReachable(ok bool)
	IncFallback(operation string)
}

// Service is the facade callers use for all data access. It probes the
// backend lazily and applies the persistence policy when it cannot be
// reached.
type Service struct {
	api    API
	policy Policy

	reachable atomic.Bool
	probes    singleflight.Group

	session  SessionCache
	recorder EventRecorder
	observer Observer
	logger   *slog.Logger
	now      func() time.Time
	ids      *LocalIDs
	locks    keyedMutex
}

// Option configures a Service.
type Option func(*Service)

// WithSessionCache persists the user snapshot on login and clears it on
// logout.
func WithSessionCache(c SessionCache) Option {
	return func(s *Service) { s.session = c }
}

// WithEventRecorder records an analytics event for each saved or deleted
// post.
func WithEventRecorder(r EventRecorder) Option {
	return func(s *Service) { s.recorder = r }
}

// WithObserver attaches instrumentation.
func WithObserver(o Observer) Option {
	return func(s *Service) { s.observer = o }
}

// WithLogger replaces the default logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// New creates a Service. The backend is not contacted until Init or the
// first call.
func New(api API, policy Policy, opts ...Option) *Service {
	if policy == nil {
		policy = StrictPolicy()
	}
	s := &Service{
		api:    api,
		policy: policy,
		logger: slog.Default(),
		now:    time.Now,
		locks:  keyedMutex{locks: make(map[string]*refLock)},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.ids = NewLocalIDs(s.now)
	return s
}

// Policy returns the persistence policy in effect.
func (s *Service) Policy() Policy {
	return s.policy
}

// Init probes the backend and records whether it is reachable. It never
// fails: an unreachable backend is a state, not an error.
func (s *Service) Init(ctx context.Context) bool {
	return s.probe(ctx)
}

// Reachable reports the result of the latest probe.
func (s *Service) Reachable() bool {
	return s.reachable.Load()
}

// ensureInitialized re-probes when the backend is not known to be
// reachable. Concurrent callers share one probe.
func (s *Service) ensureInitialized(ctx context.Context) bool {
	if s.reachable.Load() {
		return true
	}
	return s.probe(ctx)
}

func (s *Service) probe(ctx context.Context) bool {
	v, _, _ := s.probes.Do("health", func() (any, error) {
		_, err := s.api.Health(ctx)
		ok := err == nil
		s.setReachable(ok)
		if ok {
			s.logger.Info("connected to backend API")
		} else {
			s.logger.Warn("backend API is not available", "error", err, "policy", s.policy.Name())
		}
		return ok, nil
	})
	return v.(bool)
}

func (s *Service) setReachable(ok bool) {
	s.reachable.Store(ok)
	if s.observer != nil {
		s.observer.SetBackendReachable(ok)
	}
}

// markUnreachable records a network failure so the next call re-probes.
func (s *Service) markUnreachable(op string, err error) {
	s.logger.Warn("backend request failed, using local storage", "operation", op, "error", err)
	s.setReachable(false)
}

func (s *Service) fellBack(op string) {
	if s.observer != nil {
		s.observer.IncFallback(op)
	}
}
