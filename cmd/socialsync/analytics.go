package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/social"
)

var (
	analyticsRange string
	eventPostID    string
	eventPlatforms []string
)

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show analytics",
}

var analyticsOverviewCmd = &cobra.Command{
	Use:   "overview",
	Short: "Show the analytics report for a range",
	RunE:  withApp(runAnalyticsOverview),
}

var analyticsPlatformsCmd = &cobra.Command{
	Use:   "platforms",
	Short: "Show per-platform analytics",
	RunE:  withApp(runAnalyticsPlatforms),
}

var analyticsRecordCmd = &cobra.Command{
	Use:   "record <type>",
	Short: "Append an analytics event",
	Args:  cobra.ExactArgs(1),
	RunE:  withApp(runAnalyticsRecord),
}

func init() {
	analyticsOverviewCmd.Flags().StringVar(&analyticsRange, "range", "30d", "time range, e.g. 7d, 30d, 90d")
	analyticsRecordCmd.Flags().StringVar(&eventPostID, "post", "", "post the event refers to")
	analyticsRecordCmd.Flags().StringSliceVar(&eventPlatforms, "platform", nil, "platforms the event refers to")

	analyticsCmd.AddCommand(analyticsOverviewCmd, analyticsPlatformsCmd, analyticsRecordCmd)
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalyticsOverview(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	report, err := a.svc.Analytics(ctx, analyticsRange)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), report)
}

func runAnalyticsPlatforms(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	platforms, err := a.svc.PlatformAnalytics(ctx)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), platforms)
}

func runAnalyticsRecord(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	ev := social.AnalyticsEvent{Type: args[0], PostID: social.ID(eventPostID)}
	for _, p := range eventPlatforms {
		ev.Platforms = append(ev.Platforms, social.Platform(strings.ToLower(p)))
	}
	if err := a.svc.AddAnalytics(ctx, ev); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Recorded %s\n", ev.Type)
	return nil
}
