package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/oauth"
	"github.com/alecgard/socialsync/internal/social"
)

var (
	noBrowser       bool
	accountPlatform string
	accountUsername string
)

var accountsCmd = &cobra.Command{
	Use:   "accounts",
	Short: "Manage connected social accounts",
}

var accountsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List connected accounts",
	RunE:  withApp(runAccountsList),
}

var accountsConnectCmd = &cobra.Command{
	Use:   "connect <platform>",
	Short: "Connect an account through the platform's OAuth consent page",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAccountsConnect),
}

var accountsAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Record an already-authorized account without OAuth",
	RunE:  withApp(runAccountsAdd),
}

var accountsUpdateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Change the username shown for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAccountsUpdate),
}

var accountsDisconnectCmd = &cobra.Command{
	Use:   "disconnect <id>",
	Short: "Disconnect an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAccountsDisconnect),
}

var accountsStatsCmd = &cobra.Command{
	Use:   "stats <id>",
	Short: "Show audience numbers for an account",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAccountsStats),
}

var accountsOAuthStatusCmd = &cobra.Command{
	Use:   "oauth-status",
	Short: "Show which platforms have an OAuth client id configured",
	RunE:  withApp(runAccountsOAuthStatus),
}

func init() {
	accountsConnectCmd.Flags().BoolVar(&noBrowser, "no-browser", false, "print the authorization URL instead of opening a browser")

	accountsAddCmd.Flags().StringVar(&accountPlatform, "platform", "", "platform of the account")
	_ = accountsAddCmd.MarkFlagRequired("platform")
	for _, c := range []*cobra.Command{accountsAddCmd, accountsUpdateCmd} {
		c.Flags().StringVar(&accountUsername, "username", "", "account username")
		_ = c.MarkFlagRequired("username")
	}

	accountsCmd.AddCommand(accountsListCmd, accountsConnectCmd, accountsAddCmd, accountsUpdateCmd,
		accountsDisconnectCmd, accountsStatsCmd, accountsOAuthStatusCmd)
	rootCmd.AddCommand(accountsCmd)
}

func runAccountsList(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	accts, err := a.svc.Accounts(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tPLATFORM\tUSERNAME\tFOLLOWERS\tCONNECTED")
	for _, acct := range accts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\n", acct.ID, acct.Platform, acct.Username, acct.Followers, acct.ConnectedAt)
	}
	return tw.Flush()
}

// newBridge builds the OAuth bridge from config. The exchange goes through
// the API client.
func (a *app) newBridge(opener oauth.Opener) *oauth.Bridge {
	c := a.cfg.OAuth
	ids := oauth.ClientIDs{
		Facebook: c.FacebookClientID,
		Twitter:  c.TwitterClientID,
		LinkedIn: c.LinkedInClientID,
		Google:   c.GoogleClientID,
	}
	b := oauth.NewBridge(oauth.DefaultPlatforms(ids), a.client, opener, oauth.Options{
		RedirectBase: c.RedirectBase,
		Timeout:      c.Timeout,
		PollInterval: c.PollInterval,
		ScreenWidth:  c.ScreenWidth,
		ScreenHeight: c.ScreenHeight,
	})
	b.SetObserver(a.metrics)
	b.SetLogger(a.logger)
	return b
}

// printedWindow stands in for a browser window when --no-browser is set.
type printedWindow struct{}

func (printedWindow) Close() {}

func printOpener(w io.Writer) oauth.Opener {
	return oauth.OpenerFunc(func(ctx context.Context, url string, _ oauth.WindowOptions) (oauth.Window, error) {
		fmt.Fprintf(w, "Open this URL to authorize:\n\n  %s\n\n", url)
		return printedWindow{}, nil
	})
}

func runAccountsConnect(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	platform := social.Platform(strings.ToLower(args[0]))
	if !platform.Valid() {
		return fmt.Errorf("unknown platform %q", args[0])
	}
	out := cmd.OutOrStdout()

	var opener oauth.Opener = oauth.BrowserOpener{}
	if noBrowser {
		opener = printOpener(out)
	}
	bridge := a.newBridge(opener)
	if !bridge.ConfigurationStatus()[platform] {
		return &oauth.ConfigError{Platform: platform}
	}

	srv, err := oauth.NewCallbackServer(bridge, a.cfg.OAuth.RedirectBase)
	if err != nil {
		return err
	}
	srv.SetLogger(a.logger)
	if a.cfg.Metrics.Enabled {
		srv.Mount("/metrics", promhttp.HandlerFor(a.metrics.Registry(), promhttp.HandlerOpts{}))
		srv.Mount("/metrics/summary", a.metrics.SummaryHandler())
	}

	// Listen before the consent page opens so a fast redirect is not lost.
	ln, err := net.Listen("tcp", a.cfg.CallbackAddr())
	if err != nil {
		return fmt.Errorf("starting callback listener: %w", err)
	}
	srvCtx, stopServer := context.WithCancel(ctx)
	served := make(chan error, 1)
	go func() { served <- srv.ServeListener(srvCtx, ln) }()
	defer func() {
		stopServer()
		if err := <-served; err != nil {
			a.logger.Warn("callback listener", "error", err)
		}
	}()

	attempt, err := bridge.Begin(ctx, platform)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Waiting for %s authorization (press Ctrl-C to cancel)...\n", platform)

	acct, err := attempt.Wait(ctx)
	if err != nil {
		var denied *oauth.DeniedError
		switch {
		case errors.As(err, &denied):
			return fmt.Errorf("authorization denied: %w", err)
		case errors.Is(err, oauth.ErrTimedOut):
			return fmt.Errorf("no response from %s before the timeout: %w", platform, err)
		}
		return err
	}
	fmt.Fprintf(out, "Connected %s account %s\n", acct.Platform, acct.Username)
	return nil
}

func runAccountsAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	acct, err := a.svc.ConnectAccount(ctx, social.ConnectedAccount{
		Platform: social.Platform(strings.ToLower(accountPlatform)),
		Username: accountUsername,
	})
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), acct)
}

func runAccountsUpdate(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	id := social.ID(args[0])
	accts, err := a.svc.Accounts(ctx)
	if err != nil {
		return err
	}
	var cur *social.ConnectedAccount
	for i := range accts {
		if accts[i].ID == id {
			cur = &accts[i]
			break
		}
	}
	if cur == nil {
		return fmt.Errorf("account %s not found", id)
	}
	cur.Username = accountUsername
	acct, err := a.svc.UpdateAccount(ctx, id, *cur)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), acct)
}

func runAccountsDisconnect(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if err := a.svc.DisconnectAccount(ctx, social.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Disconnected account %s\n", args[0])
	return nil
}

func runAccountsStats(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	st, err := a.svc.AccountStats(ctx, social.ID(args[0]))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func runAccountsOAuthStatus(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	bridge := a.newBridge(oauth.BrowserOpener{})
	status := bridge.ConfigurationStatus()
	platforms := make([]string, 0, len(status))
	for p := range status {
		platforms = append(platforms, string(p))
	}
	sort.Strings(platforms)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PLATFORM\tCONFIGURED\tREDIRECT URI")
	for _, p := range platforms {
		fmt.Fprintf(tw, "%s\t%t\t%s\n", p, status[social.Platform(p)], bridge.RedirectURI(social.Platform(p)))
	}
	return tw.Flush()
}
