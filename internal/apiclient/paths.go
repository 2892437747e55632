package apiclient

import (
	"fmt"
	"net/url"
	"regexp"
)

// Route templates. Placeholders are filled by resolvePath.
const (
	routeHealth      = "/api/health"
	routeLogin       = "/api/auth/login"
	routeRegister    = "/api/auth/register"
	routeMe          = "/api/auth/me"
	routePosts       = "/api/posts"
	routePost        = "/api/posts/{id}"
	routeCalendar    = "/api/posts/calendar/{year}/{month}"
	routeAnalytics   = "/api/analytics"
	routePlatforms   = "/api/analytics/platforms"
	routeSettings    = "/api/settings"
	routeProfile     = "/api/settings/profile"
	routeTeam        = "/api/settings/team"
	routeTeamUser    = "/api/settings/team/{id}"
	routeAccounts    = "/api/accounts"
	routeAccount     = "/api/accounts/{id}"
	routeAccountStat = "/api/accounts/{id}/stats"
	routeFiles       = "/api/files"
	routeFile        = "/api/files/{id}"
	routeOAuth       = "/api/oauth/exchange"
)

var placeholderPattern = regexp.MustCompile(`\{([a-zA-Z0-9_-]{1,64})\}`)

// resolvePath replaces every {name} in tmpl with the path-escaped value from
// vars. A placeholder with no value, or an empty value, is an error.
func resolvePath(tmpl string, vars map[string]string) (string, error) {
	var missing string
	result := placeholderPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		val, ok := vars[name]
		if !ok || val == "" {
			if missing == "" {
				missing = name
			}
			return match
		}
		return url.PathEscape(val)
	})
	if missing != "" {
		return "", fmt.Errorf("path parameter %q is not set", missing)
	}
	return result, nil
}
