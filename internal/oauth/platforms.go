package oauth

import (
	"golang.org/x/oauth2"

	"github.com/alecgard/socialsync/internal/social"
)

// PlatformConfig describes one provider's authorization endpoint.
type PlatformConfig struct {
	ClientID string
	AuthURL  string
	Scopes   []string
}

// Configured reports whether a client id is set.
func (c PlatformConfig) Configured() bool {
	return c.ClientID != ""
}

// ClientIDs holds the per-provider client ids. Instagram authorizes through
// Facebook and shares its id.
type ClientIDs struct {
	Facebook string
	Twitter  string
	LinkedIn string
	Google   string
}

// DefaultPlatforms returns the provider table for the given client ids.
func DefaultPlatforms(ids ClientIDs) map[social.Platform]PlatformConfig {
	const facebookDialog = "https://www.facebook.com/v18.0/dialog/oauth"
	return map[social.Platform]PlatformConfig{
		social.Facebook: {
			ClientID: ids.Facebook,
			AuthURL:  facebookDialog,
			Scopes: []string{
				"pages_manage_posts", "pages_read_engagement", "pages_show_list",
				"instagram_basic", "instagram_content_publish",
			},
		},
		social.Instagram: {
			ClientID: ids.Facebook,
			AuthURL:  facebookDialog,
			Scopes:   []string{"instagram_basic", "instagram_content_publish"},
		},
		social.Twitter: {
			ClientID: ids.Twitter,
			AuthURL:  "https://twitter.com/i/oauth2/authorize",
			Scopes:   []string{"tweet.read", "tweet.write", "users.read", "offline.access"},
		},
		social.LinkedIn: {
			ClientID: ids.LinkedIn,
			AuthURL:  "https://www.linkedin.com/oauth/v2/authorization",
			Scopes:   []string{"r_liteprofile", "r_emailaddress", "w_member_social"},
		},
		social.YouTube: {
			ClientID: ids.Google,
			AuthURL:  "https://accounts.google.com/o/oauth2/v2/auth",
			Scopes: []string{
				"https://www.googleapis.com/auth/youtube.upload",
				"https://www.googleapis.com/auth/youtube.readonly",
			},
		},
	}
}

// authorizationURL builds the provider URL for one attempt. It returns the
// PKCE verifier to send with the exchange, or "" when the platform does not
// use PKCE.
func authorizationURL(platform social.Platform, cfg PlatformConfig, redirectURI, state string) (string, string) {
	oc := &oauth2.Config{
		ClientID:    cfg.ClientID,
		Endpoint:    oauth2.Endpoint{AuthURL: cfg.AuthURL},
		RedirectURL: redirectURI,
		Scopes:      cfg.Scopes,
	}

	var (
		opts     []oauth2.AuthCodeOption
		verifier string
	)
	switch platform {
	case social.Twitter:
		verifier = oauth2.GenerateVerifier()
		opts = append(opts, oauth2.S256ChallengeOption(verifier))
	case social.YouTube:
		opts = append(opts, oauth2.AccessTypeOffline)
	}
	return oc.AuthCodeURL(state, opts...), verifier
}
