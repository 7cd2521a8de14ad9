package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/session"
)

func newSessionsCmd(a *app) *cobra.Command {
	var root, project string
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "List the session logs that would be read",
		Long: `List session logs under the sessions root, newest first.

Examples:
  cmdcorpus sessions
  cmdcorpus sessions --project my-app`,
		Args:    cobra.NoArgs,
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			if root == "" {
				root = a.cfg.SessionsRoot()
			}
			logs, err := session.FindLogs(root, project)
			if err != nil {
				return err
			}
			if logs == nil {
				logs = []session.LogFile{}
			}
			return a.render(cmd.OutOrStdout(), logs, func(w io.Writer) error {
				if len(logs) == 0 {
					_, err := fmt.Fprintf(w, "No session logs under %s\n", root)
					return err
				}
				for _, l := range logs {
					fmt.Fprintf(w, "%s  %8s  %s\n",
						styleDim.Render(l.ModTime.Format("2006-01-02 15:04")), formatSize(l.Size), l.Path)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&root, "root", "", "Session log directory (default from config)")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only logs whose path contains this text")
	return cmd
}
