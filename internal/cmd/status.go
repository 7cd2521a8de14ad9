package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/session"
	"github.com/runger/cmdcorpus/internal/storage"
)

func newStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show cmdcorpus status",
		Long: `Show the current status of cmdcorpus, including:
- Configuration file location
- Session log directory and how many logs it holds
- Database location and stored imports
- Command reference size

Examples:
  cmdcorpus status`,
		Args:    cobra.NoArgs,
		GroupID: groupSetup,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			cfg := a.cfg

			fmt.Fprintln(w, styleHeading.Render("cmdcorpus Status"))
			fmt.Fprintln(w, strings.Repeat("-", 40))

			fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Configuration:"))
			configFile := a.configFile()
			if _, err := os.Stat(configFile); err == nil {
				fmt.Fprintf(w, "  File:     %s\n", configFile)
			} else {
				fmt.Fprintf(w, "  File:     %s (not found, using defaults)\n", configFile)
			}
			fmt.Fprintf(w, "  Redact:   %s\n", formatBool(cfg.Privacy.Redact))
			fmt.Fprintf(w, "  Dedup:    %s\n", cfg.Dedup.Policy)

			fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Sessions:"))
			root := cfg.SessionsRoot()
			fmt.Fprintf(w, "  Root:     %s\n", root)
			fmt.Fprintf(w, "  Tool:     %s\n", cfg.Sessions.Tool)
			if logs, err := session.FindLogs(root, ""); err != nil {
				fmt.Fprintf(w, "  Logs:     %s\n", styleBad.Render(err.Error()))
			} else {
				fmt.Fprintf(w, "  Logs:     %d\n", len(logs))
			}

			fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Storage:"))
			dbFile := cfg.DatabasePath()
			if info, err := os.Stat(dbFile); err == nil {
				fmt.Fprintf(w, "  Database: %s (%s)\n", dbFile, formatSize(info.Size()))
				printStoreStats(cmd, a)
			} else {
				fmt.Fprintf(w, "  Database: %s %s\n", dbFile, styleDim.Render("(not created)"))
			}

			fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Command reference:"))
			kb, err := a.knowledge()
			if err != nil {
				fmt.Fprintf(w, "  %s\n", styleBad.Render(err.Error()))
				return nil
			}
			source := "embedded"
			if cfg.Knowledge.Path != "" {
				source = cfg.Knowledge.Path
			}
			st := kb.Stats()
			fmt.Fprintf(w, "  Source:   %s\n", source)
			fmt.Fprintf(w, "  Entries:  %d commands, %d flags, %d operators\n", st.Commands, st.Flags, st.Operators)
			return nil
		},
	}
}

func printStoreStats(cmd *cobra.Command, a *app) {
	w := cmd.OutOrStdout()
	err := a.withStore(func(store *storage.Store) error {
		imports, err := store.ListImports(cmd.Context())
		if err != nil {
			return err
		}
		total := 0
		for _, imp := range imports {
			total += imp.Commands
		}
		version, err := store.SchemaVersion(cmd.Context())
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "  Imports:  %d (%d commands)\n", len(imports), total)
		fmt.Fprintf(w, "  Schema:   v%d\n", version)
		return nil
	})
	if err != nil {
		fmt.Fprintf(w, "  %s\n", styleBad.Render(err.Error()))
	}
}

func formatBool(b bool) string {
	if b {
		return styleGood.Render("enabled")
	}
	return styleDim.Render("disabled")
}

func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
