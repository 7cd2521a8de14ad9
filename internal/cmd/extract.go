package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/corpus"
	"github.com/runger/cmdcorpus/internal/stats"
	"github.com/runger/cmdcorpus/internal/storage"
)

func newExtractCmd(a *app) *cobra.Command {
	var (
		src     sourceFlags
		details bool
		save    bool
	)
	cmd := &cobra.Command{
		Use:   "extract [log...]",
		Short: "Print the shell commands found in session logs",
		Long: `Extract the shell commands an assistant ran from JSON-lines session logs.

Without arguments every log under the sessions root is read, newest first.
Commands are printed in log order, one per line. With --details each line
also shows its source, sequence number and outcome.

Examples:
  cmdcorpus extract ~/.claude/projects/my-app/session.jsonl
  cmdcorpus extract --project my-app --details
  cmdcorpus extract --history zsh --save
  cmdcorpus extract -f json > commands.json`,
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, source, err := a.load(cmd, &src, args)
			if err != nil {
				return err
			}
			if save {
				imp, err := a.save(cmd.Context(), source, src.kind(), c)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Saved import %s (%d commands)\n", shortID(imp.ID), imp.Commands)
			}
			return a.render(cmd.OutOrStdout(), c.Records, func(w io.Writer) error {
				return writeRecords(w, c.Records, details)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().BoolVarP(&details, "details", "d", false, "Show source, sequence and outcome")
	cmd.Flags().BoolVar(&save, "save", false, "Also store the commands as an import")
	return cmd
}

func writeRecords(w io.Writer, records []corpus.Record, details bool) error {
	width := termWidth()
	for _, r := range records {
		if !details {
			if _, err := fmt.Fprintln(w, r.Command); err != nil {
				return err
			}
			continue
		}
		status := styleGood.Render("ok  ")
		switch {
		case !r.Answered:
			status = styleDim.Render("--  ")
		case !r.Success:
			status = styleBad.Render("fail")
		}
		prefix := fmt.Sprintf("%s:%d", stats.Truncate(r.Source, 30), r.Seq)
		line := stats.Truncate(r.Command, max(width-len(prefix)-8, 16))
		if len(r.Risks) > 0 {
			line = styleWarn.Render(line)
		}
		if _, err := fmt.Fprintf(w, "%s  %s  %s\n", styleDim.Render(prefix), status, line); err != nil {
			return err
		}
	}
	return nil
}

// save stores c as a new import.
func (a *app) save(ctx context.Context, source, kind string, c *corpus.Corpus) (storage.Import, error) {
	store, err := a.openStore()
	if err != nil {
		return storage.Import{}, err
	}
	defer store.Close()
	return store.SaveImport(ctx, storage.Import{Source: source, Kind: kind}, c.Records)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
