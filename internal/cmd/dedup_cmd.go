package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/dedup"
	"github.com/runger/cmdcorpus/internal/stats"
)

func newDedupCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		policy string
		counts bool
	)
	cmd := &cobra.Command{
		Use:   "dedup [log...]",
		Short: "Print a corpus with duplicate commands removed",
		Long: `Deduplicate a corpus, keeping the first command of each group.

Policies:
  exact       identical command text
  normalized  same text after collapsing whitespace and letter case
  pattern     same base command and flags in order

Examples:
  cmdcorpus dedup
  cmdcorpus dedup --policy pattern --counts
  cmdcorpus dedup --lines commands.txt --policy normalized`,
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			if policy == "" {
				policy = a.cfg.Dedup.Policy
			}
			p, err := dedup.ParsePolicy(policy)
			if err != nil {
				return err
			}
			key, err := p.Key()
			if err != nil {
				return err
			}

			c, _, err := a.load(cmd, &src, args)
			if err != nil {
				return err
			}
			cmds := c.Commands()

			if counts {
				groups := dedup.Groups(cmds, key)
				return a.render(cmd.OutOrStdout(), groups, func(w io.Writer) error {
					width := termWidth()
					for _, g := range groups {
						if _, err := fmt.Fprintf(w, "%6d  %s\n", g.Count, stats.Truncate(g.Representative, width-8)); err != nil {
							return err
						}
					}
					return nil
				})
			}

			unique := dedup.By(cmds, key)
			return a.render(cmd.OutOrStdout(), unique, func(w io.Writer) error {
				for _, u := range unique {
					if _, err := fmt.Fprintln(w, u); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&policy, "policy", "", "exact, normalized or pattern (default from config)")
	cmd.Flags().BoolVarP(&counts, "counts", "c", false, "Show how many commands each survivor stands for")
	return cmd
}
