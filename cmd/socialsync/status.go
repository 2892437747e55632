package main

import (
	"context"
	"net/url"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/metrics"
	"github.com/alecgard/socialsync/internal/oauth"
	"github.com/alecgard/socialsync/internal/social"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Probe the backend and show local state",
	RunE:  withApp(runStatus),
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

type statusReport struct {
	Backend   string                   `json:"backend"`
	Reachable bool                     `json:"reachable"`
	Policy    string                   `json:"policy"`
	SignedIn  bool                     `json:"signedIn"`
	User      *social.User             `json:"user,omitempty"`
	StateDir  string                   `json:"stateDir"`
	OAuth     map[social.Platform]bool `json:"oauth"`
	Quota     *quota                   `json:"quota,omitempty"`
	Metrics   *metrics.Summary         `json:"metrics,omitempty"`
}

type quota struct {
	Limit     int       `json:"limit"`
	Remaining int       `json:"remaining"`
	ResetAt   time.Time `json:"resetAt"`
}

func runStatus(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	r := statusReport{
		Backend:   a.client.BaseURL(),
		Reachable: a.svc.Init(ctx),
		Policy:    a.svc.Policy().Name(),
		SignedIn:  a.client.HasToken(),
		StateDir:  a.store.Dir(),
		OAuth:     a.newBridge(oauth.BrowserOpener{}).ConfigurationStatus(),
	}
	if u, ok := a.store.User(); ok && r.SignedIn {
		r.User = u
	}
	if a.limiter != nil {
		if u, err := url.Parse(a.client.BaseURL()); err == nil {
			var q quota
			q.Limit, q.Remaining, q.ResetAt = a.limiter.Quota(u.Host)
			r.Quota = &q
		}
	}
	if a.cfg.Metrics.Enabled {
		sum, err := a.metrics.Summary()
		if err != nil {
			a.logger.Warn("gathering metrics", "error", err)
		} else {
			r.Metrics = &sum
		}
	}
	return printJSON(cmd.OutOrStdout(), r)
}
