package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	authEmail    string
	authName     string
	authPassword string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and store the session token",
	RunE:  withApp(runLogin),
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	RunE:  withApp(runRegister),
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	RunE:  withApp(runWhoami),
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the session token and cached user",
	RunE:  withApp(runLogout),
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "account email")
		c.Flags().StringVar(&authPassword, "password", "", "account password (default: $SOCIALSYNC_PASSWORD)")
		_ = c.MarkFlagRequired("email")
	}
	registerCmd.Flags().StringVar(&authName, "name", "", "display name")

	rootCmd.AddCommand(loginCmd, registerCmd, whoamiCmd, logoutCmd)
}

func password() (string, error) {
	if authPassword != "" {
		return authPassword, nil
	}
	if v := os.Getenv("SOCIALSYNC_PASSWORD"); v != "" {
		return v, nil
	}
	return "", errors.New("--password or SOCIALSYNC_PASSWORD is required")
}

func runLogin(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	res := a.svc.Login(ctx, authEmail, pw)
	if !res.Success {
		return errors.New(res.Error)
	}
	if res.User != nil {
		fmt.Fprintf(cmd.OutOrStdout(), "Signed in as %s\n", res.User.Email)
	} else {
		fmt.Fprintln(cmd.OutOrStdout(), "Signed in")
	}
	return nil
}

func runRegister(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	pw, err := password()
	if err != nil {
		return err
	}
	res := a.svc.Register(ctx, authEmail, authName, pw)
	if !res.Success {
		return errors.New(res.Error)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Registered %s\n", authEmail)
	return nil
}

func runWhoami(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if !a.client.HasToken() {
		return errors.New("not signed in")
	}
	res := a.svc.CurrentUser(ctx)
	if res.Success {
		return printJSON(cmd.OutOrStdout(), res.User)
	}
	// Offline: show the snapshot from the last sign-in.
	if !a.svc.Reachable() {
		if u, ok := a.store.User(); ok {
			a.logger.Warn("backend unavailable, showing cached user")
			return printJSON(cmd.OutOrStdout(), u)
		}
	}
	return errors.New(res.Error)
}

func runLogout(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	a.svc.Logout()
	fmt.Fprintln(cmd.OutOrStdout(), "Signed out")
	return nil
}
