package dataservice

import (
	"context"

	"github.com/alecgard/socialsync/internal/apiclient"
	"github.com/alecgard/socialsync/internal/social"
)

// AuthResult is the outcome of an authentication call. Auth methods report
// failure here rather than through an error.
type AuthResult struct {
	Success bool
	User    *social.User
	Token   string
	Error   string
}

func authFailure(err error, fallback string) AuthResult {
	msg := fallback
	if err != nil && err.Error() != "" {
		msg = err.Error()
	}
	return AuthResult{Error: msg}
}

// Login authenticates and stores the session token and user snapshot.
func (s *Service) Login(ctx context.Context, email, password string) AuthResult {
	s.ensureInitialized(ctx)
	resp, err := s.api.Login(ctx, email, password)
	if err != nil {
		s.logger.Warn("login failed", "error", err)
		return authFailure(err, "Login failed")
	}
	return s.startSession(resp, "Login failed")
}

// Register creates an account and signs in with it.
func (s *Service) Register(ctx context.Context, email, name, password string) AuthResult {
	s.ensureInitialized(ctx)
	resp, err := s.api.Register(ctx, email, name, password)
	if err != nil {
		s.logger.Warn("registration failed", "error", err)
		return authFailure(err, "Registration failed")
	}
	return s.startSession(resp, "Registration failed")
}

func (s *Service) startSession(resp *apiclient.AuthResponse, fallback string) AuthResult {
	token := resp.SessionToken()
	if token == "" {
		msg := fallback
		switch {
		case resp.Error != "":
			msg = resp.Error
		case resp.Message != "":
			msg = resp.Message
		}
		return AuthResult{Error: msg}
	}

	user := resp.SessionUser()
	if user != nil && s.session != nil {
		if err := s.session.SaveUser(user); err != nil {
			s.logger.Warn("caching user snapshot", "error", err)
		}
	}
	return AuthResult{Success: true, User: user, Token: token}
}

// CurrentUser returns the signed-in user. A 401 from the backend clears the
// stored token.
func (s *Service) CurrentUser(ctx context.Context) AuthResult {
	s.ensureInitialized(ctx)
	user, err := s.api.CurrentUser(ctx)
	if err != nil {
		if apiclient.IsUnauthorized(err) {
			s.logger.Info("session token rejected, clearing it")
			s.Logout()
		}
		return authFailure(err, "Not signed in")
	}
	return AuthResult{Success: true, User: user}
}

// Logout forgets the session token and the cached user.
func (s *Service) Logout() {
	if err := s.api.Logout(); err != nil {
		s.logger.Warn("clearing session token", "error", err)
	}
	if s.session != nil {
		if err := s.session.ClearUser(); err != nil {
			s.logger.Warn("clearing user snapshot", "error", err)
		}
	}
}
