package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newImportCmd(a *app) *cobra.Command {
	var src sourceFlags
	cmd := &cobra.Command{
		Use:   "import [log...]",
		Short: "Store a corpus in the local database",
		Long: `Import session logs, shell history or a command list into the local
database. Each import gets an id that the stored commands accept.

Examples:
  cmdcorpus import
  cmdcorpus import --project my-app
  cmdcorpus import --history zsh --history-file ~/.zsh_history
  cmdcorpus import --redact --lines commands.txt`,
		GroupID: groupStore,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, source, err := a.load(cmd, &src, args)
			if err != nil {
				return err
			}
			imp, err := a.save(cmd.Context(), source, src.kind(), c)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %d commands from %s\n", imp.Commands, source)
			fmt.Fprintf(cmd.OutOrStdout(), "  id: %s\n", styleKey.Render(imp.ID))
			return nil
		},
	}
	src.register(cmd)
	return cmd
}
