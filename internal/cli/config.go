package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/roach88/moreevents/internal/scenario"
	"github.com/roach88/moreevents/internal/store"
	"github.com/roach88/moreevents/internal/trigger"
)

// ConfigOptions holds flags shared by the config subcommands.
type ConfigOptions struct {
	*RootOptions
	Database string
	Event    string   // list: event type filter
	Weathers []string // set: weather names checked against weather settings
}

// SettingView is a stored event setting.
type SettingView struct {
	BlockID int64  `json:"block_id"`
	Event   string `json:"event"`
	Value   string `json:"value"`
}

// ControllerView is the stored configuration of a controller.
type ControllerView struct {
	BlockID   int64         `json:"block_id"`
	Found     bool          `json:"found"`
	Threshold float64       `json:"threshold,omitempty"`
	Direction string        `json:"direction,omitempty"`
	Mode      string        `json:"mode,omitempty"`
	Working   bool          `json:"working"`
	Selected  string        `json:"selected_event,omitempty"`
	Settings  []SettingView `json:"settings"`
}

// NewConfigCommand creates the config command and its subcommands.
func NewConfigCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ConfigOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect and edit stored controller settings",
		Long: `Inspect and edit the controller configuration stored in a settings
database. Scenario runs restore controllers from the same database.

Example:
  moreevents config --db ./controllers.db list
  moreevents config --db ./controllers.db set 1 TargetAcquiredEvent 800`,
	}
	cmd.PersistentFlags().StringVar(&opts.Database, "db", "", "path to SQLite settings database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List stored event settings",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(opts, func(st *store.Store) error { return configList(opts, st, cmd) })
		},
	}
	list.Flags().StringVar(&opts.Event, "event", "", "only list settings of this event type")

	get := &cobra.Command{
		Use:           "get <block-id>",
		Short:         "Show the stored configuration of a controller",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(st *store.Store) error { return configGet(opts, st, id, cmd) })
		},
	}

	set := &cobra.Command{
		Use:   "set <block-id> <event> <value>",
		Short: "Store the setting of an event",
		Long: `Store the setting of an event on a controller after checking it.

Settings use the invariant number format: "0.5", not "0,5". Weather
settings are weather indices checked against --weathers.`,
		Args:          cobra.ExactArgs(3),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(st *store.Store) error { return configSet(opts, st, id, args[1], args[2], cmd) })
		},
	}
	set.Flags().StringSliceVar(&opts.Weathers, "weathers", []string{""}, "weather names by index, index 0 is clear sky")

	unset := &cobra.Command{
		Use:           "unset <block-id> <event>",
		Short:         "Remove the stored setting of an event",
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseBlockID(args[0])
			if err != nil {
				return err
			}
			return withStore(opts, func(st *store.Store) error { return configUnset(opts, st, id, args[1], cmd) })
		},
	}

	cmd.AddCommand(list, get, set, unset)
	return cmd
}

func parseBlockID(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil || id <= 0 {
		return 0, NewExitError(ExitCommandError, fmt.Sprintf("invalid block id %q", arg))
	}
	return id, nil
}

func withStore(opts *ConfigOptions, fn func(st *store.Store) error) error {
	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()
	return fn(st)
}

func settingViews(settings []store.Setting) []SettingView {
	out := make([]SettingView, 0, len(settings))
	for _, s := range settings {
		out = append(out, SettingView{BlockID: s.BlockID, Event: s.EventType, Value: s.Value})
	}
	return out
}

func configList(opts *ConfigOptions, st *store.Store, cmd *cobra.Command) error {
	var (
		settings []store.Setting
		err      error
	)
	if opts.Event != "" {
		settings, err = st.ListSettingsByEvent(cmd.Context(), opts.Event)
	} else {
		settings, err = st.ListSettings(cmd.Context())
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list settings", err)
	}

	views := settingViews(settings)
	return newFormatter(opts.RootOptions, cmd).Success(views, func(w io.Writer) error {
		if len(views) == 0 {
			_, err := fmt.Fprintln(w, "No settings stored.")
			return err
		}
		for _, v := range views {
			fmt.Fprintf(w, "%d\t%s\t%s\n", v.BlockID, v.Event, v.Value)
		}
		return nil
	})
}

func configGet(opts *ConfigOptions, st *store.Store, id int64, cmd *cobra.Command) error {
	ctx := cmd.Context()
	c, found, err := st.LoadController(ctx, id)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to load controller", err)
	}
	all, err := st.ListSettings(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list settings", err)
	}

	view := ControllerView{BlockID: id, Found: found, Settings: []SettingView{}}
	if found {
		view.Threshold = c.Threshold
		view.Direction = trigger.DirectionOf(c.LowerOrEqual).String()
		view.Mode = trigger.ModeOf(c.AndMode).String()
		view.Working = c.Working
		view.Selected = c.SelectedEvent
	}
	for _, s := range settingViews(all) {
		if s.BlockID == id {
			view.Settings = append(view.Settings, s)
		}
	}

	return newFormatter(opts.RootOptions, cmd).Success(view, func(w io.Writer) error {
		fmt.Fprintf(w, "controller %d\n", id)
		if found {
			fmt.Fprintf(w, "  threshold: %s\n", strconv.FormatFloat(view.Threshold, 'g', -1, 64))
			fmt.Fprintf(w, "  direction: %s\n", view.Direction)
			fmt.Fprintf(w, "  mode: %s\n", view.Mode)
			fmt.Fprintf(w, "  working: %t\n", view.Working)
			if view.Selected != "" {
				fmt.Fprintf(w, "  event: %s\n", view.Selected)
			}
		} else {
			fmt.Fprintln(w, "  no stored configuration")
		}
		for _, s := range view.Settings {
			fmt.Fprintf(w, "  %s: %s\n", s.Event, s.Value)
		}
		return nil
	})
}

func configSet(opts *ConfigOptions, st *store.Store, id int64, event, value string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd)
	if err := scenario.CheckSetting(event, value, opts.Weathers); err != nil {
		_ = formatter.Error("E_SETTING", err.Error(), nil)
		return WrapExitError(ExitFailure, "setting rejected", err)
	}
	if err := st.SaveSetting(cmd.Context(), id, event, value); err != nil {
		return WrapExitError(ExitCommandError, "failed to save setting", err)
	}
	view := SettingView{BlockID: id, Event: event, Value: value}
	return formatter.Success(view, func(w io.Writer) error {
		_, err := fmt.Fprintf(w, "✓ controller %d: %s = %s\n", id, event, value)
		return err
	})
}

func configUnset(opts *ConfigOptions, st *store.Store, id int64, event string, cmd *cobra.Command) error {
	removed, err := st.DeleteSetting(cmd.Context(), id, event)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to delete setting", err)
	}
	data := map[string]any{"block_id": id, "event": event, "removed": removed}
	return newFormatter(opts.RootOptions, cmd).Success(data, func(w io.Writer) error {
		if !removed {
			_, err := fmt.Fprintf(w, "controller %d: no %s setting stored\n", id, event)
			return err
		}
		_, err := fmt.Fprintf(w, "✓ controller %d: %s removed\n", id, event)
		return err
	})
}
