package main

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/social"
)

var (
	postStatus    string
	saveStatus    string
	postID        string
	postContent   string
	postPlatforms []string
	postDate      string
	postTime      string
	postMedia     string
	postsJSON     bool
)

var postsCmd = &cobra.Command{
	Use:   "posts",
	Short: "Manage posts",
}

var postsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List posts",
	RunE:  withApp(runPostsList),
}

var postsDraftsCmd = &cobra.Command{
	Use:   "drafts",
	Short: "List draft posts",
	RunE:  withApp(runPostsDrafts),
}

var postsGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPostsGet),
}

var postsSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Create a post, or update it when --id is set",
	RunE:  withApp(runPostsSave),
}

var postsDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a post",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runPostsDelete),
}

var postsCalendarCmd = &cobra.Command{
	Use:   "calendar [year] [month]",
	Short: "List posts scheduled in a month (default: this month)",
	Args:  cobra.MaximumNArgs(2),
	RunE:  withApp(runPostsCalendar),
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Show post counts and recent posts",
	RunE:  withApp(runDashboard),
}

func init() {
	postsListCmd.Flags().StringVar(&postStatus, "status", "", "filter by status (draft, scheduled, published, failed, pending)")

	f := postsSaveCmd.Flags()
	f.StringVar(&postID, "id", "", "id of the post to update")
	f.StringVar(&postContent, "content", "", "post text")
	f.StringSliceVar(&postPlatforms, "platform", nil, "target platform, repeatable")
	f.StringVar(&saveStatus, "status", "draft", "post status")
	f.StringVar(&postDate, "date", "", "scheduled date (YYYY-MM-DD)")
	f.StringVar(&postTime, "time", "", "scheduled time (HH:MM)")
	f.StringVar(&postMedia, "media", "", "media reference")

	for _, c := range []*cobra.Command{postsListCmd, postsDraftsCmd, postsCalendarCmd} {
		c.Flags().BoolVar(&postsJSON, "json", false, "print JSON instead of a table")
	}

	postsCmd.AddCommand(postsListCmd, postsDraftsCmd, postsGetCmd, postsSaveCmd, postsDeleteCmd, postsCalendarCmd)
	rootCmd.AddCommand(postsCmd, dashboardCmd)
}

func printPosts(w io.Writer, posts []social.Post) error {
	if postsJSON {
		return printJSON(w, posts)
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTATUS\tPLATFORMS\tSCHEDULED\tCONTENT")
	for _, p := range posts {
		platforms := make([]string, len(p.Platforms))
		for i, pl := range p.Platforms {
			platforms[i] = string(pl)
		}
		when := strings.TrimSpace(p.ScheduledDate + " " + p.ScheduledTime)
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Status, strings.Join(platforms, ","), when, truncate(p.Content, 48))
	}
	return tw.Flush()
}

func truncate(s string, n int) string {
	r := []rune(strings.ReplaceAll(s, "\n", " "))
	if len(r) <= n {
		return string(r)
	}
	return string(r[:n-1]) + "…"
}

func runPostsList(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	posts, err := a.svc.Posts(ctx, social.PostStatus(postStatus))
	if err != nil {
		return err
	}
	return printPosts(cmd.OutOrStdout(), posts)
}

func runPostsDrafts(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	posts, err := a.svc.Drafts(ctx)
	if err != nil {
		return err
	}
	return printPosts(cmd.OutOrStdout(), posts)
}

func runPostsGet(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	p, err := a.svc.Post(ctx, social.ID(args[0]))
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), p)
}

func runPostsSave(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	var p social.Post
	if postID != "" {
		// Start from the stored post so unset flags keep their values.
		cur, err := a.svc.Post(ctx, social.ID(postID))
		if err != nil {
			return err
		}
		p = *cur
	}
	f := cmd.Flags()
	if f.Changed("content") || postID == "" {
		p.Content = postContent
	}
	if f.Changed("platform") || postID == "" {
		p.Platforms = make([]social.Platform, len(postPlatforms))
		for i, pl := range postPlatforms {
			p.Platforms[i] = social.Platform(strings.ToLower(pl))
		}
	}
	if f.Changed("date") {
		p.ScheduledDate = postDate
	}
	if f.Changed("time") {
		p.ScheduledTime = postTime
	}
	if f.Changed("media") {
		p.Media = postMedia
	}
	status := social.PostStatus(saveStatus)
	if postID != "" && !f.Changed("status") {
		status = ""
	}

	saved, err := a.svc.SavePost(ctx, p, status)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), saved)
}

func runPostsDelete(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if err := a.svc.DeletePost(ctx, social.ID(args[0])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %s\n", args[0])
	return nil
}

func runPostsCalendar(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	year, month, err := parseYearMonth(args, time.Now())
	if err != nil {
		return err
	}
	posts, err := a.svc.CalendarPosts(ctx, year, month)
	if err != nil {
		return err
	}
	return printPosts(cmd.OutOrStdout(), posts)
}

// parseYearMonth reads [year] [month] arguments, defaulting to now.
func parseYearMonth(args []string, now time.Time) (int, time.Month, error) {
	year, month := now.Year(), now.Month()
	if len(args) > 0 {
		y, err := strconv.Atoi(args[0])
		if err != nil || y < 1 {
			return 0, 0, fmt.Errorf("invalid year %q", args[0])
		}
		year = y
	}
	if len(args) > 1 {
		m, err := strconv.Atoi(args[1])
		if err != nil || m < 1 || m > 12 {
			return 0, 0, fmt.Errorf("invalid month %q: want 1-12", args[1])
		}
		month = time.Month(m)
	}
	return year, month, nil
}

func runDashboard(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	d, err := a.svc.Dashboard(ctx)
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "Total posts:     %d\n", d.Stats.TotalPosts)
	fmt.Fprintf(w, "Scheduled:       %d\n", d.Stats.ScheduledPosts)
	fmt.Fprintf(w, "Published:       %d\n", d.Stats.PublishedPosts)
	fmt.Fprintf(w, "Drafts:          %d\n", d.Stats.DraftPosts)
	if !a.svc.Reachable() {
		fmt.Fprintf(w, "\nBackend unavailable: showing local posts (%s policy)\n", a.svc.Policy().Name())
	}

	recent := d.Posts
	if len(recent) > 5 {
		recent = recent[len(recent)-5:]
	}
	if len(recent) > 0 {
		fmt.Fprintln(w)
		return printPosts(w, recent)
	}
	return nil
}
