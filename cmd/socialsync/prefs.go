package main

import (
	"context"
	"fmt"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/alecgard/socialsync/internal/social"
)

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Manage preferences kept on this machine",
}

var prefsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show local settings, widgets and layout",
	RunE:  withApp(runPrefsShow),
}

var prefsSetCmd = &cobra.Command{
	Use:   "set <notifications|privacy> <key> <true|false>",
	Short: "Change one local setting",
	Args:  cobra.ExactArgs(3),
	RunE:  withApp(runPrefsSet),
}

var prefsWidgetsCmd = &cobra.Command{
	Use:   "widgets [id] [show|hide]",
	Short: "List dashboard widgets, or show or hide one",
	Args:  cobra.MatchAll(cobra.MaximumNArgs(2), widgetArgs),
	RunE:  withApp(runPrefsWidgets),
}

func widgetArgs(cmd *cobra.Command, args []string) error {
	if len(args) == 1 {
		return fmt.Errorf("missing show or hide for widget %q", args[0])
	}
	return nil
}

var prefsLayoutCmd = &cobra.Command{
	Use:   "layout [grid|list|compact]",
	Short: "Show or change the dashboard layout",
	Args:  cobra.MaximumNArgs(1),
	RunE:  withApp(runPrefsLayout),
}

func init() {
	prefsCmd.AddCommand(prefsShowCmd, prefsSetCmd, prefsWidgetsCmd, prefsLayoutCmd)
	rootCmd.AddCommand(prefsCmd)
}

type localPrefs struct {
	Settings social.Settings `json:"settings"`
	Widgets  []social.Widget `json:"widgets"`
	Layout   social.Layout   `json:"layout"`
}

func runPrefsShow(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	return printJSON(cmd.OutOrStdout(), localPrefs{
		Settings: a.store.Settings(),
		Widgets:  a.store.Widgets(),
		Layout:   a.store.Layout(),
	})
}

func runPrefsSet(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	value, err := strconv.ParseBool(args[2])
	if err != nil {
		return fmt.Errorf("invalid value %q: want true or false", args[2])
	}
	st := a.store.Settings()
	if !st.Set(args[0], args[1], value) {
		return fmt.Errorf("unknown settings section %q", args[0])
	}
	if err := a.store.SaveSettings(st); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s.%s = %t\n", args[0], args[1], value)
	return nil
}

// setWidgetVisible flips the named widget. It reports whether the id exists.
func setWidgetVisible(widgets []social.Widget, id string, visible bool) bool {
	for i := range widgets {
		if widgets[i].ID == id {
			widgets[i].Visible = visible
			return true
		}
	}
	return false
}

func runPrefsWidgets(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	widgets := a.store.Widgets()
	if len(args) == 2 {
		var visible bool
		switch args[1] {
		case "show":
			visible = true
		case "hide":
		default:
			return fmt.Errorf("invalid action %q: want show or hide", args[1])
		}
		if !setWidgetVisible(widgets, args[0], visible) {
			return fmt.Errorf("unknown widget %q", args[0])
		}
		if err := a.store.SaveWidgets(widgets); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tVISIBLE\tPOSITION\tSIZE")
	for _, w := range widgets {
		fmt.Fprintf(tw, "%s\t%s\t%t\t%d,%d\t%dx%d\n", w.ID, w.Title, w.Visible,
			w.Position.X, w.Position.Y, w.Size.Width, w.Size.Height)
	}
	return tw.Flush()
}

func runPrefsLayout(ctx context.Context, a *app, cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), a.store.Layout())
		return nil
	}
	l := social.Layout(args[0])
	if !l.Valid() {
		return fmt.Errorf("invalid layout %q: want grid, list or compact", args[0])
	}
	if err := a.store.SaveLayout(l); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Layout set to %s\n", l)
	return nil
}
