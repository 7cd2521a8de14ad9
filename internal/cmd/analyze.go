package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/config"
	"github.com/runger/cmdcorpus/internal/dedup"
	"github.com/runger/cmdcorpus/internal/stats"
)

func newAnalyzeCmd(a *app) *cobra.Command {
	var (
		src    sourceFlags
		policy string
		topK   int
		split  bool
	)
	cmd := &cobra.Command{
		Use:   "analyze [log...]",
		Short: "Report categories, complexity and frequencies for a corpus",
		Long: `Analyze a corpus of commands and print a statistics report.

The report counts commands per category and complexity band, ranks the
most frequent commands and base commands, counts shell operators, and
lists the most complex commands. With --dedup the corpus is deduplicated
first. Rankings count the simple commands of compound commands ("a && b")
unless --split=false or stats.split_compound is off.

Examples:
  cmdcorpus analyze
  cmdcorpus analyze --project my-app --top 10
  cmdcorpus analyze --dedup normalized -f yaml
  cmdcorpus analyze --history bash`,
		Aliases: []string{"stats"},
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, source, err := a.load(cmd, &src, args)
			if err != nil {
				return err
			}
			cmds := c.Commands()
			if policy != "" {
				p, err := dedup.ParsePolicy(policy)
				if err != nil {
					return err
				}
				if cmds, err = dedup.Dedup(cmds, p); err != nil {
					return err
				}
			}

			k := a.cfg.Stats.TopK
			if topK > 0 {
				k = topK
			}
			g := stats.NewAggregator(a.analyzer, k)
			g.SplitCompound = a.cfg.Stats.SplitCompound
			if cmd.Flags().Changed("split") {
				g.SplitCompound = split
			}
			s := g.Aggregate(cmds)
			return writeStats(cmd.OutOrStdout(), a.cfg.Stats.Format, source, s)
		},
	}
	src.register(cmd)
	cmd.Flags().StringVar(&policy, "dedup", "", "Deduplicate first: exact, normalized or pattern")
	cmd.Flags().IntVarP(&topK, "top", "n", 0, "Entries in each ranking (default from config)")
	cmd.Flags().BoolVar(&split, "split", true, "Rank the simple commands of compound commands")
	return cmd
}

func writeStats(w io.Writer, format, source string, s stats.CorpusStats) error {
	var (
		data []byte
		err  error
	)
	switch format {
	case config.FormatJSON:
		data, err = stats.RenderJSON(s)
	case config.FormatYAML:
		data, err = stats.RenderYAML(s)
	default:
		fmt.Fprintln(w, styleHeading.Render("Corpus: "+source))
		fmt.Fprintln(w)
		_, err = io.WriteString(w, stats.RenderTable(s, termWidth()))
		return err
	}
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
