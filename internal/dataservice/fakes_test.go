package dataservice

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

var errUnexpected = errors.New("unexpected call")

func netErr() error {
	return &apiclient.Error{Message: "Network error: connection refused"}
}

func statusErr(status int, msg string) error {
	return &apiclient.Error{Status: status, Message: msg}
}

// fakeAPI is an in-memory backend. Zero value is a reachable backend with
// no data.
type fakeAPI struct {
	mu sync.Mutex

	healthErr   error
	healthCalls int

	loginResp  *apiclient.AuthResponse
	loginErr   error
	currentErr error
	logouts    int

	posts    []social.Post
	postsErr error
	nextID   int64
	lastList social.PostStatus

	analyticsRange string
	team           []social.TeamUser
	accounts       map[social.ID]social.ConnectedAccount
}

func (f *fakeAPI) Health(context.Context) (*apiclient.Health, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.healthCalls++
	if f.healthErr != nil {
		return nil, f.healthErr
	}
	return &apiclient.Health{Status: "ok"}, nil
}

func (f *fakeAPI) probes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthCalls
}

func (f *fakeAPI) setHealth(err error) {
	f.mu.Lock()
	f.healthErr = err
	f.mu.Unlock()
}

func (f *fakeAPI) setPostsErr(err error) {
	f.mu.Lock()
	f.postsErr = err
	f.mu.Unlock()
}

func (f *fakeAPI) Login(context.Context, string, string) (*apiclient.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) Register(context.Context, string, string, string) (*apiclient.AuthResponse, error) {
	return f.loginResp, f.loginErr
}

func (f *fakeAPI) CurrentUser(context.Context) (*social.User, error) {
	if f.currentErr != nil {
		return nil, f.currentErr
	}
	return &social.User{ID: "1", Email: "ada@example.com"}, nil
}

func (f *fakeAPI) Logout() error {
	f.mu.Lock()
	f.logouts++
	f.mu.Unlock()
	return nil
}

func (f *fakeAPI) ListPosts(_ context.Context, status social.PostStatus) ([]social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lastList = status
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return filterStatus(f.posts, status), nil
}

func (f *fakeAPI) GetPost(_ context.Context, id social.ID) (*social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	for _, p := range f.posts {
		if p.ID == id {
			return &p, nil
		}
	}
	return nil, statusErr(http.StatusNotFound, "Post not found")
}

func (f *fakeAPI) CreatePost(_ context.Context, p *social.Post) (*social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	f.nextID++
	out := *p
	out.ID = social.IDFromInt(f.nextID)
	f.posts = append(f.posts, out)
	return &out, nil
}

func (f *fakeAPI) UpdatePost(_ context.Context, id social.ID, p *social.Post) (*social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i] = *p
			out := *p
			return &out, nil
		}
	}
	return nil, statusErr(http.StatusNotFound, "Post not found")
}

func (f *fakeAPI) DeletePost(_ context.Context, id social.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postsErr != nil {
		return f.postsErr
	}
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts = append(f.posts[:i], f.posts[i+1:]...)
			return nil
		}
	}
	return statusErr(http.StatusNotFound, "Post not found")
}

func (f *fakeAPI) CalendarPosts(_ context.Context, year int, month time.Month) ([]social.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.postsErr != nil {
		return nil, f.postsErr
	}
	return filterMonth(f.posts, year, month), nil
}

func (f *fakeAPI) Analytics(_ context.Context, rng string) (*social.Analytics, error) {
	f.analyticsRange = rng
	return &social.Analytics{}, nil
}

func (f *fakeAPI) PlatformAnalytics(context.Context) ([]social.PlatformAnalytics, error) {
	return []social.PlatformAnalytics{}, nil
}

func (f *fakeAPI) AddAnalytics(context.Context, social.AnalyticsEvent) error { return nil }

func (f *fakeAPI) Settings(context.Context) (*social.Settings, error) {
	st := social.DefaultSettings()
	return &st, nil
}

func (f *fakeAPI) UpdateSettings(context.Context, social.Settings) error { return nil }

func (f *fakeAPI) UpdateProfile(_ context.Context, upd social.ProfileUpdate) (*social.User, error) {
	u := &social.User{ID: "1", Email: "ada@example.com"}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	return u, nil
}

func (f *fakeAPI) TeamUsers(context.Context) ([]social.TeamUser, error) {
	return f.team, nil
}

func (f *fakeAPI) AddTeamUser(_ context.Context, u social.NewTeamUser) error {
	f.team = append(f.team, social.TeamUser{Email: u.Email, Name: u.Name, Role: u.Role})
	return nil
}

func (f *fakeAPI) RemoveTeamUser(context.Context, social.ID) error { return nil }

func (f *fakeAPI) Accounts(context.Context) ([]social.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]social.ConnectedAccount, 0, len(f.accounts))
	for _, a := range f.accounts {
		out = append(out, a)
	}
	return out, nil
}

func (f *fakeAPI) ConnectAccount(_ context.Context, a *social.ConnectedAccount) (*social.ConnectedAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.accounts == nil {
		f.accounts = make(map[social.ID]social.ConnectedAccount)
	}
	out := *a
	out.ID = social.ID(fmt.Sprintf("acct-%d", len(f.accounts)+1))
	f.accounts[out.ID] = out
	return &out, nil
}

func (f *fakeAPI) UpdateAccount(context.Context, social.ID, *social.ConnectedAccount) (*social.ConnectedAccount, error) {
	return nil, errUnexpected
}

func (f *fakeAPI) DisconnectAccount(_ context.Context, id social.ID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.accounts[id]; !ok {
		return statusErr(http.StatusNotFound, "Account not found")
	}
	delete(f.accounts, id)
	return nil
}

func (f *fakeAPI) AccountStats(context.Context, social.ID) (*social.AccountStats, error) {
	return nil, errUnexpected
}

func (f *fakeAPI) Files(context.Context) ([]social.File, error) { return []social.File{}, nil }

func (f *fakeAPI) CreateFile(_ context.Context, file *social.File) (*social.File, error) {
	out := *file
	out.ID = "f1"
	return &out, nil
}

func (f *fakeAPI) GetFile(context.Context, social.ID) (*social.File, error) {
	return nil, statusErr(http.StatusNotFound, "File not found")
}

func (f *fakeAPI) UpdateFile(context.Context, social.ID, *social.File) (*social.File, error) {
	return nil, errUnexpected
}

func (f *fakeAPI) DeleteFile(context.Context, social.ID) error { return nil }

// memPosts is an in-memory PostStore.
type memPosts struct {
	mu    sync.Mutex
	posts []social.Post
}

func (m *memPosts) Posts() []social.Post {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]social.Post{}, m.posts...)
}

func (m *memPosts) UpdatePosts(fn func([]social.Post) ([]social.Post, error)) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	next, err := fn(append([]social.Post{}, m.posts...))
	if err != nil {
		return err
	}
	m.posts = next
	return nil
}

type fakeSession struct {
	user    *social.User
	cleared int
}

func (s *fakeSession) SaveUser(u *social.User) error {
	s.user = u
	return nil
}

func (s *fakeSession) ClearUser() error {
	s.user = nil
	s.cleared++
	return nil
}

type fakeRecorder struct {
	mu     sync.Mutex
	events []social.AnalyticsEvent
}

func (r *fakeRecorder) Record(ev social.AnalyticsEvent) {
	r.mu.Lock()
	r.events = append(r.events, ev)
	r.mu.Unlock()
}

func (r *fakeRecorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, ev := range r.events {
		out[i] = ev.Type
	}
	return out
}

type fakeObserver struct {
	mu        sync.Mutex
	reachable []bool
	fallbacks map[string]int
}

func (o *fakeObserver) SetBackendReachable(ok bool) {
	o.mu.Lock()
	o.reachable = append(o.reachable, ok)
	o.mu.Unlock()
}

func (o *fakeObserver) IncFallback(op string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.fallbacks == nil {
		o.fallbacks = make(map[string]int)
	}
	o.fallbacks[op]++
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}
