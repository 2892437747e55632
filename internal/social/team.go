package social

import "strings"

// Role gates access to team management.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleEditor
}

// TeamUser is a member of the workspace roster.
type TeamUser struct {
	ID         ID     `json:"id,omitempty"`
	Email      string `json:"email"`
	Name       string `json:"name,omitempty"`
	Role       Role   `json:"role"`
	JoinedAt   string `json:"joinedAt,omitempty"`
	LastActive string `json:"lastActive,omitempty"`
}

// IsAdmin returns true if the member can manage the roster.
func (u *TeamUser) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// NewTeamUser is the payload for adding a roster member.
type NewTeamUser struct {
	Email    string `json:"email"`
	Name     string `json:"name,omitempty"`
	Password string `json:"password,omitempty"`
	Role     Role   `json:"role"`
}

// ResolveRole returns the role of the roster entry whose email matches,
// or RoleEditor when the session user is not on the roster.
func ResolveRole(roster []TeamUser, email string) Role {
	for _, u := range roster {
		if strings.EqualFold(u.Email, email) && u.Role.Valid() {
			return u.Role
		}
	}
	return RoleEditor
}

// ProfileUpdate is the payload for editing the signed-in user's profile.
type ProfileUpdate struct {
	Name   *string `json:"name,omitempty"`
	Email  *string `json:"email,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}
