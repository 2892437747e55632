package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/social"
)

var (
	profileName   string
	profileEmail  string
	profileAvatar string

	memberEmail    string
	memberName     string
	memberRole     string
	memberPassword string
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage account settings",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Show notification and privacy settings",
	RunE:  withApp(runSettingsGet),
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <notifications|privacy> <key> <true|false>",
	Short: "Change one setting",
	Args:  cobra.ExactArgs(3),
	RunE:  withApp(runSettingsSet),
}

var settingsProfileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Edit the signed-in user's profile",
	RunE:  withApp(runSettingsProfile),
}

var teamCmd = &cobra.Command{
	Use:   "team",
	Short: "Manage the team roster",
}

var teamListCmd = &cobra.Command{
	Use:   "list",
	Short: "List team members",
	RunE:  withApp(runTeamList),
}

var teamAddCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a team member",
	RunE:  withApp(runTeamAdd),
}

var teamRemoveCmd = &cobra.Command{
	Use:   "remove <id>",
	Short: "Remove a team member",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runTeamRemove),
}

var teamRoleCmd = &cobra.Command{
	Use:   "role [email]",
	Short: "Show the role of a user (default: the signed-in user)",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runTeamRole),
}

func init() {
	f := settingsProfileCmd.Flags()
	f.StringVar(&profileName, "name", "", "display name")
	f.StringVar(&profileEmail, "email", "", "email address")
	f.StringVar(&profileAvatar, "avatar", "", "avatar URL")

	f = teamAddCmd.Flags()
	f.StringVar(&memberEmail, "email", "", "member email")
	f.StringVar(&memberName, "name", "", "member name")
	f.StringVar(&memberRole, "role", string(social.RoleEditor), "admin or editor")
	f.StringVar(&memberPassword, "password", "", "initial password")
	_ = teamAddCmd.MarkFlagRequired("email")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd, settingsProfileCmd)
	teamCmd.AddCommand(teamListCmd, teamAddCmd, teamRemoveCmd, teamRoleCmd)
	rootCmd.AddCommand(settingsCmd, teamCmd)
}

func runSettingsGet(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	st, err := a.svc.Settings(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), st)
}

func runSettingsSet(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("invalid value %q: want true or false", args[2])
	}
	st, err := a.svc.Settings(ctx)
	if err != nil {
		return err
	}
	if !st.Set(args[0], args[1], value) {
		return fmt.Errorf("unknown settings section %q", args[0])
	}
	if err := a.svc.UpdateSettings(ctx, *st); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %t\n", args[0], args[1], value)
	return nil
}

func runSettingsProfile(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	var upd social.ProfileUpdate
	f := cmd.Flags()
	if f.Changed("name") {
		upd.Name = &profileName
	}
	if f.Changed("email") {
		upd.Email = &profileEmail
	}
	if f.Changed("avatar") {
		upd.Avatar = &profileAvatar
	}
	if upd.Name == nil && upd.Email == nil && upd.Avatar == nil {
		return errors.New("nothing to update: set --name, --email or --avatar")
	}
	u, err := a.svc.UpdateProfile(ctx, upd)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), u)
}

func runTeamList(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	users, err := a.svc.TeamUsers(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tROLE\tLAST ACTIVE")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.ID, u.Email, u.Name, u.Role, u.LastActive)
	}
	return tw.Flush()
}

func runTeamAdd(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	u := social.NewTeamUser{
		Email:    memberEmail,
		Name:     memberName,
		Role:     social.Role(memberRole),
		Password: memberPassword,
	}
	if err := a.svc.AddTeamUser(ctx, u); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Added %s as %s\n", u.Email, u.Role)
	return nil
}

func runTeamRemove(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if err := a.svc.RemoveTeamUser(ctx, social.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Removed team member %s\n", args[0])
	return nil
}

func runTeamRole(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	var email string
	if len(args) == 1 {
		email = args[0]
	} else {
		u, ok := a.store.User()
		if !ok {
			return errors.New("not signed in: pass an email")
		}
		email = u.Email
	}
	role, err := a.svc.CurrentRole(ctx, email)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", email, role)
	return nil
}
