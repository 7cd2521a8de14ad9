package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/config"
)

func newConfigCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "config [key] [value]",
		Short: "Get or set configuration values",
		Long: `Get or set cmdcorpus configuration values.

Without arguments, lists all configuration keys.
With one argument, shows the value of that key.
With two arguments, sets the key to the value.

Configuration is stored in ~/.config/cmdcorpus/config.yaml (XDG compliant).

Keys are in the format: section.key
Sections: log, sessions, dedup, stats, knowledge, storage, privacy

Examples:
  cmdcorpus config                        # List all keys
  cmdcorpus config dedup.policy           # Get dedup.policy value
  cmdcorpus config dedup.policy pattern   # Change the default policy
  cmdcorpus config sessions.concurrency 4`,
		Args:    cobra.MaximumNArgs(2),
		GroupID: groupSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			switch len(args) {
			case 0:
				return listConfig(w, a.cfg, a.configFile())
			case 1:
				return getConfig(w, a.cfg, args[0])
			default:
				return setConfig(w, a.configFile(), args[0], args[1])
			}
		},
	}
}

func listConfig(w io.Writer, cfg *config.Config, path string) error {
	fmt.Fprintln(w, styleHeading.Render("Configuration Keys"))
	fmt.Fprintln(w, strings.Repeat("-", 40))
	fmt.Fprintln(w)

	var failedKeys []string
	for _, key := range config.ListKeys() {
		value, err := cfg.Get(key)
		if err != nil {
			failedKeys = append(failedKeys, key)
			continue
		}

		displayValue := value
		if displayValue == "" {
			displayValue = styleDim.Render("(not set)")
		}
		fmt.Fprintf(w, "  %s = %s\n", styleKey.Render(key), displayValue)
	}
	if n := len(cfg.Categories); n > 0 {
		fmt.Fprintf(w, "  %s = %d override(s)\n", styleKey.Render("categories"), n)
	}

	if len(failedKeys) > 0 {
		fmt.Fprintf(w, "\n%s Failed to retrieve keys: %s\n", styleWarn.Render("Warning:"), strings.Join(failedKeys, ", "))
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Config file: %s\n", path)
	return nil
}

func getConfig(w io.Writer, cfg *config.Config, key string) error {
	value, err := cfg.Get(key)
	if err != nil {
		return err
	}

	if value == "" {
		fmt.Fprintln(w, styleDim.Render("(not set)"))
	} else {
		fmt.Fprintln(w, value)
	}
	return nil
}

// setConfig edits the file on disk, so flag and environment overrides in
// the loaded config are not persisted.
func setConfig(w io.Writer, path, key, value string) error {
	cfg, err := config.LoadFileOnly(path)
	if err != nil {
		return err
	}
	if err := cfg.Set(key, value); err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.SaveToFile(path); err != nil {
		return err
	}

	fmt.Fprintf(w, "%s = %s\n", styleKey.Render(key), value)
	fmt.Fprintf(w, "Saved to: %s\n", path)
	return nil
}
