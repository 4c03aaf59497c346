package main

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/ayusman/mudra/internal/control"
	"github.com/ayusman/mudra/internal/settings"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change saved preferences",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the saved preferences as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := settings.Load(db.Settings())
		if err != nil {
			return err
		}
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set",
	Short: "Change saved preferences",
	Example: `  mudra settings set --mode hybrid --preset soft
  mudra settings set --trails=false`,
	RunE: func(cmd *cobra.Command, args []string) error {
		patch, err := patchFromFlags(cmd.Flags())
		if err != nil {
			return err
		}
		current, err := settings.Load(db.Settings())
		if err != nil {
			return err
		}
		next := patch.Apply(current)
		if err := next.Validate(); err != nil {
			return err
		}
		if err := settings.Save(db.Settings(), next); err != nil {
			return err
		}
		logger.Info().Str("mode", string(next.Mode)).Str("preset", next.Preset).Msg("Settings saved")
		return nil
	},
}

func init() {
	addSettingsFlags(settingsSetCmd.Flags())

	settingsCmd.AddCommand(settingsShowCmd, settingsSetCmd)
	rootCmd.AddCommand(settingsCmd)
}

func addSettingsFlags(f *pflag.FlagSet) {
	f.String("mode", "", "interaction mode: orbit, pan or hybrid")
	f.String("preset", "", "physics preset")
	f.Bool("landmarks", true, "draw the hand skeleton")
	f.Bool("trails", true, "draw fingertip trails")
	f.Bool("nebula", true, "draw the background nebula")
	f.Bool("enabled", true, "enable hand control")
}

// patchFromFlags builds a patch holding only the flags given on the command line.
func patchFromFlags(f *pflag.FlagSet) (settings.Patch, error) {
	var p settings.Patch

	if f.Changed("mode") {
		name, _ := f.GetString("mode")
		m, err := control.ParseMode(name)
		if err != nil {
			return p, err
		}
		p.Mode = &m
	}
	if f.Changed("preset") {
		name, _ := f.GetString("preset")
		p.Preset = &name
	}
	for flag, field := range map[string]**bool{
		"landmarks": &p.ShowLandmarks,
		"trails":    &p.ShowTrails,
		"nebula":    &p.ShowNebula,
		"enabled":   &p.Enabled,
	} {
		if !f.Changed(flag) {
			continue
		}
		v, err := f.GetBool(flag)
		if err != nil {
			return p, err
		}
		*field = &v
	}

	if p == (settings.Patch{}) {
		return p, errors.New("nothing to change; pass at least one flag")
	}
	return p, nil
}
