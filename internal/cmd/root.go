package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

const (
	groupCorpus = "corpus"
	groupStore  = "store"
	groupSetup  = "setup"
)

// NewRootCmd builds the cmdcorpus command tree.
func NewRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "cmdcorpus",
		Short: "Mine and analyse the shell commands in agent session logs",
		Long: `cmdcorpus - a corpus of the shell commands an assistant ran
  - extract commands from JSON-lines session logs or shell history
  - score complexity, categorise, deduplicate and report
  - keep imports in a local SQLite database`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.AddGroup(
		&cobra.Group{ID: groupCorpus, Title: "Corpus Commands:"},
		&cobra.Group{ID: groupStore, Title: "Storage Commands:"},
		&cobra.Group{ID: groupSetup, Title: "Setup Commands:"},
	)

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "Config file (default $XDG_CONFIG_HOME/cmdcorpus/config.yaml)")
	pf.StringVarP(&a.format, "format", "f", "", "Output format: table, json or yaml")
	pf.BoolVar(&a.redact, "redact", false, "Redact secrets in commands and output")

	root.AddCommand(
		newExtractCmd(a),
		newAnalyzeCmd(a),
		newDedupCmd(a),
		newExplainCmd(a),
		newQuizCmd(a),
		newSessionsCmd(a),
		newImportCmd(a),
		newStoredCmd(a),
		newConfigCmd(a),
		newStatusCmd(a),
		newVersionCmd(),
	)
	return root
}

// Execute runs the root command. SIGINT and SIGTERM cancel in-flight work.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return NewRootCmd().ExecuteContext(ctx)
}
