package apiclient

import (
	"encoding/json"
	"errors"

	"github.com/alecgard/socialsync/internal/social"
)

// validator is implemented by response envelopes that have required fields.
type validator interface {
	validate() error
}

func missing(field string) error {
	return errors.New(field + " is missing")
}

// AuthResponse is the login/register payload. The backend has shipped both
// a flat shape ({token, user}) and a nested one ({data: {token, user}}).
type AuthResponse struct {
	Token   string          `json:"token"`
	User    *social.User    `json:"user"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
	Message string          `json:"message,omitempty"`
}

// SessionToken returns the top-level token, falling back to data.token.
func (r *AuthResponse) SessionToken() string {
	if r.Token != "" {
		return r.Token
	}
	var nested struct {
		Token string `json:"token"`
	}
	if len(r.Data) > 0 && json.Unmarshal(r.Data, &nested) == nil {
		return nested.Token
	}
	return ""
}

// SessionUser returns user, falling back to data.user and then data itself.
func (r *AuthResponse) SessionUser() *social.User {
	if r.User != nil {
		return r.User
	}
	if len(r.Data) == 0 {
		return nil
	}
	var nested struct {
		User *social.User `json:"user"`
	}
	if json.Unmarshal(r.Data, &nested) == nil && nested.User != nil {
		return nested.User
	}
	var u social.User
	if json.Unmarshal(r.Data, &u) == nil && (u.Email != "" || !u.ID.IsZero()) {
		return &u
	}
	return nil
}

type userEnvelope struct {
	User *social.User `json:"user"`
}

func (e *userEnvelope) validate() error {
	if e.User == nil {
		return missing("user")
	}
	return nil
}

type postsEnvelope struct {
	Posts []social.Post `json:"posts"`
}

type postEnvelope struct {
	Post *social.Post `json:"post"`
}

func (e *postEnvelope) validate() error {
	if e.Post == nil {
		return missing("post")
	}
	return nil
}

type platformsEnvelope struct {
	Platforms []social.PlatformAnalytics `json:"platforms"`
}

type settingsEnvelope struct {
	Settings *social.Settings `json:"settings"`
}

func (e *settingsEnvelope) validate() error {
	if e.Settings == nil {
		return missing("settings")
	}
	return nil
}

type teamEnvelope struct {
	Users []social.TeamUser `json:"users"`
}

type accountsEnvelope struct {
	Accounts []social.ConnectedAccount `json:"accounts"`
}

type accountEnvelope struct {
	Account *social.ConnectedAccount `json:"account"`
}

func (e *accountEnvelope) validate() error {
	if e.Account == nil {
		return missing("account")
	}
	if !e.Account.Platform.Valid() {
		return errors.New("account has an unknown platform")
	}
	return nil
}

type statsEnvelope struct {
	Stats *social.AccountStats `json:"stats"`
}

func (e *statsEnvelope) validate() error {
	if e.Stats == nil {
		return missing("stats")
	}
	return nil
}

type filesEnvelope struct {
	Files []social.File `json:"files"`
}

type fileEnvelope struct {
	File *social.File `json:"file"`
}

func (e *fileEnvelope) validate() error {
	if e.File == nil {
		return missing("file")
	}
	return nil
}

// Health is the health endpoint's answer. Non-JSON bodies land in Message.
type Health struct {
	Status  string `json:"status,omitempty"`
	Message string `json:"message,omitempty"`
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
