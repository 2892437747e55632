package dataservice

import (
	"context"
	"fmt"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// DefaultAnalyticsRange is used when Analytics is called with an empty range.
const DefaultAnalyticsRange = "30d"

// online fails with ErrBackendUnavailable unless the backend is reachable.
// Only post operations have a local fallback.
func (s *Service) online(ctx context.Context) error {
	if !s.ensureInitialized(ctx) {
		return ErrBackendUnavailable
	}
	return nil
}

func notFound(kind string, id social.ID, err error) error {
	if apiclient.IsNotFound(err) {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return err
}

// Analytics fetches the report for rng, DefaultAnalyticsRange when empty.
func (s *Service) Analytics(ctx context.Context, rng string) (*social.Analytics, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	if rng == "" {
		rng = DefaultAnalyticsRange
	}
	a, err := s.api.Analytics(ctx, rng)
	if err != nil {
		return nil, fmt.Errorf("fetching analytics: %w", err)
	}
	return a, nil
}

// PlatformAnalytics fetches per-platform numbers.
func (s *Service) PlatformAnalytics(ctx context.Context) ([]social.PlatformAnalytics, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	p, err := s.api.PlatformAnalytics(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching platform analytics: %w", err)
	}
	return p, nil
}

// AddAnalytics appends ev, stamping it with the current time if unset.
func (s *Service) AddAnalytics(ctx context.Context, ev social.AnalyticsEvent) error {
	if err := s.online(ctx); err != nil {
		return err
	}
	if ev.Timestamp.IsZero() {
		ev.Timestamp = s.now().UTC()
	}
	if err := s.api.AddAnalytics(ctx, ev); err != nil {
		return fmt.Errorf("adding analytics event: %w", err)
	}
	return nil
}

// Settings fetches the notification and privacy toggles.
func (s *Service) Settings(ctx context.Context) (*social.Settings, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	st, err := s.api.Settings(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching settings: %w", err)
	}
	return st, nil
}

// UpdateSettings replaces the settings.
func (s *Service) UpdateSettings(ctx context.Context, st social.Settings) error {
	if err := s.online(ctx); err != nil {
		return err
	}
	if err := s.api.UpdateSettings(ctx, st); err != nil {
		return fmt.Errorf("updating settings: %w", err)
	}
	return nil
}

// UpdateProfile edits the signed-in user and refreshes the cached snapshot.
func (s *Service) UpdateProfile(ctx context.Context, upd social.ProfileUpdate) (*social.User, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	u, err := s.api.UpdateProfile(ctx, upd)
	if err != nil {
		return nil, fmt.Errorf("updating profile: %w", err)
	}
	if s.session != nil {
		if err := s.session.SaveUser(u); err != nil {
			s.logger.Warn("caching user snapshot", "error", err)
		}
	}
	return u, nil
}

// TeamUsers lists the team roster.
func (s *Service) TeamUsers(ctx context.Context) ([]social.TeamUser, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	users, err := s.api.TeamUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing team: %w", err)
	}
	return users, nil
}

// AddTeamUser invites a member. The role defaults to editor.
func (s *Service) AddTeamUser(ctx context.Context, u social.NewTeamUser) error {
	if err := s.online(ctx); err != nil {
		return err
	}
	if u.Role == "" {
		u.Role = social.RoleEditor
	}
	if !u.Role.Valid() {
		return &social.ValidationError{Field: "role", Message: fmt.Sprintf("unknown role %q", u.Role)}
	}
	if u.Email == "" {
		return &social.ValidationError{Field: "email", Message: "email is required"}
	}
	if err := s.api.AddTeamUser(ctx, u); err != nil {
		return fmt.Errorf("adding team member: %w", err)
	}
	return nil
}

// RemoveTeamUser removes a member from the roster.
func (s *Service) RemoveTeamUser(ctx context.Context, id social.ID) error {
	if err := s.online(ctx); err != nil {
		return err
	}
	if err := s.api.RemoveTeamUser(ctx, id); err != nil {
		return fmt.Errorf("removing team member: %w", notFound("team member", id, err))
	}
	return nil
}

// CurrentRole resolves the role of email against the team roster. Users
// missing from the roster are editors.
func (s *Service) CurrentRole(ctx context.Context, email string) (social.Role, error) {
	users, err := s.TeamUsers(ctx)
	if err != nil {
		return social.RoleEditor, err
	}
	return social.ResolveRole(users, email), nil
}

// Accounts lists connected social accounts.
func (s *Service) Accounts(ctx context.Context) ([]social.ConnectedAccount, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	accts, err := s.api.Accounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing accounts: %w", err)
	}
	return accts, nil
}

// ConnectAccount records an account on a supported platform.
func (s *Service) ConnectAccount(ctx context.Context, a social.ConnectedAccount) (*social.ConnectedAccount, error) {
	if !a.Platform.Valid() {
		return nil, &social.ValidationError{Field: "platform", Message: fmt.Sprintf("unknown platform %q", a.Platform)}
	}
	unlock := s.locks.Lock("account-platform:" + string(a.Platform))
	defer unlock()

	if err := s.online(ctx); err != nil {
		return nil, err
	}
	acct, err := s.api.ConnectAccount(ctx, &a)
	if err != nil {
		return nil, fmt.Errorf("connecting account: %w", err)
	}
	return acct, nil
}

// UpdateAccount replaces an account record.
func (s *Service) UpdateAccount(ctx context.Context, id social.ID, a social.ConnectedAccount) (*social.ConnectedAccount, error) {
	unlock := s.locks.Lock("account:" + id.String())
	defer unlock()

	if err := s.online(ctx); err != nil {
		return nil, err
	}
	acct, err := s.api.UpdateAccount(ctx, id, &a)
	if err != nil {
		return nil, fmt.Errorf("updating account: %w", notFound("account", id, err))
	}
	return acct, nil
}

// DisconnectAccount removes a connected account. An account the backend
// does not know yields ErrNotFound.
func (s *Service) DisconnectAccount(ctx context.Context, id social.ID) error {
	unlock := s.locks.Lock("account:" + id.String())
	defer unlock()

	if err := s.online(ctx); err != nil {
		return err
	}
	if err := s.api.DisconnectAccount(ctx, id); err != nil {
		return fmt.Errorf("disconnecting account: %w", notFound("account", id, err))
	}
	return nil
}

// AccountStats fetches audience numbers for an account.
func (s *Service) AccountStats(ctx context.Context, id social.ID) (*social.AccountStats, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	st, err := s.api.AccountStats(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("fetching account stats: %w", notFound("account", id, err))
	}
	return st, nil
}

// Files lists the media library.
func (s *Service) Files(ctx context.Context) ([]social.File, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	files, err := s.api.Files(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing files: %w", err)
	}
	return files, nil
}

// CreateFile adds a file record. A name is required.
func (s *Service) CreateFile(ctx context.Context, f social.File) (*social.File, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	if f.Name == "" {
		return nil, &social.ValidationError{Field: "name", Message: "name is required"}
	}
	out, err := s.api.CreateFile(ctx, &f)
	if err != nil {
		return nil, fmt.Errorf("creating file: %w", err)
	}
	return out, nil
}

// File fetches one file record.
func (s *Service) File(ctx context.Context, id social.ID) (*social.File, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	f, err := s.api.GetFile(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("getting file: %w", notFound("file", id, err))
	}
	return f, nil
}

// UpdateFile replaces a file record.
func (s *Service) UpdateFile(ctx context.Context, id social.ID, f social.File) (*social.File, error) {
	if err := s.online(ctx); err != nil {
		return nil, err
	}
	out, err := s.api.UpdateFile(ctx, id, &f)
	if err != nil {
		return nil, fmt.Errorf("updating file: %w", notFound("file", id, err))
	}
	return out, nil
}

// DeleteFile removes a file record.
func (s *Service) DeleteFile(ctx context.Context, id social.ID) error {
	if err := s.online(ctx); err != nil {
		return err
	}
	if err := s.api.DeleteFile(ctx, id); err != nil {
		return fmt.Errorf("deleting file: %w", notFound("file", id, err))
	}
	return nil
}
