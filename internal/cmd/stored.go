package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/stats"
	"github.com/runger/cmdcorpus/internal/storage"
)

func newStoredCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stored",
		Short: "Inspect and manage imports in the local database",
		Long: `Inspect and manage imports in the local database.

Import ids may be shortened to any unique prefix.

Examples:
  cmdcorpus stored list
  cmdcorpus stored show 3f2a --category git --min-score 4
  cmdcorpus stored stats
  cmdcorpus stored delete 3f2a`,
		GroupID: groupStore,
	}
	cmd.AddCommand(
		newStoredListCmd(a),
		newStoredShowCmd(a),
		newStoredStatsCmd(a),
		newStoredDeleteCmd(a),
	)
	return cmd
}

// withStore opens the database for the duration of fn.
func (a *app) withStore(fn func(*storage.Store) error) error {
	store, err := a.openStore()
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

func newStoredListCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List imports, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *storage.Store) error {
				imports, err := store.ListImports(cmd.Context())
				if err != nil {
					return err
				}
				if imports == nil {
					imports = []storage.Import{}
				}
				return a.render(cmd.OutOrStdout(), imports, func(w io.Writer) error {
					if len(imports) == 0 {
						_, err := fmt.Fprintln(w, "No imports yet. Run 'cmdcorpus import' to add one.")
						return err
					}
					width := termWidth()
					for _, imp := range imports {
						fmt.Fprintf(w, "%s  %s  %-8s %6d  %s\n",
							styleKey.Render(shortID(imp.ID)),
							styleDim.Render(imp.CreatedAt.Format("2006-01-02 15:04")),
							imp.Kind, imp.Commands,
							stats.Truncate(imp.Source, max(width-46, 16)))
					}
					return nil
				})
			})
		},
	}
}

func newStoredShowCmd(a *app) *cobra.Command {
	var (
		category string
		base     string
		minScore int
		limit    int
	)
	cmd := &cobra.Command{
		Use:   "show [import-id]",
		Short: "List stored commands with their scores and categories",
		Long: `List stored commands, optionally limited to one import.

Examples:
  cmdcorpus stored show
  cmdcorpus stored show 3f2a --base git
  cmdcorpus stored show --category network --min-score 6`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *storage.Store) error {
				q := storage.Query{
					Category: analysis.Category(category),
					Base:     base,
					MinScore: minScore,
					Limit:    limit,
				}
				if len(args) == 1 {
					imp, err := store.GetImport(cmd.Context(), args[0])
					if err != nil {
						return importError(args[0], err)
					}
					q.ImportID = imp.ID
				}

				cmds, err := store.QueryCommands(cmd.Context(), q)
				if err != nil {
					return err
				}
				if cmds == nil {
					cmds = []storage.StoredCommand{}
				}
				return a.render(cmd.OutOrStdout(), cmds, func(w io.Writer) error {
					width := termWidth()
					for _, c := range cmds {
						line := stats.Truncate(c.Command, max(width-40, 16))
						if len(c.Risks) > 0 {
							line = styleWarn.Render(line)
						}
						fmt.Fprintf(w, "%4d  %-12s  %-18s  %s\n", c.Score, c.Band(), c.Category, line)
					}
					return nil
				})
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&category, "category", "", "Only this category")
	f.StringVar(&base, "base", "", "Only this base command")
	f.IntVar(&minScore, "min-score", 0, "Only commands scoring at least this")
	f.IntVarP(&limit, "limit", "n", 0, "Maximum commands to list (default 1000)")
	return cmd
}

func newStoredStatsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "stats [import-id]",
		Short: "Report on stored commands",
		Long: `Print the statistics report for one import, or for every stored
command when no id is given. Category and band counts come from the
stored columns, so they reflect the category table in force at import
time and the current band thresholds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *storage.Store) error {
				ctx := cmd.Context()
				id, source := "", "all imports"
				if len(args) == 1 {
					imp, err := store.GetImport(ctx, args[0])
					if err != nil {
						return importError(args[0], err)
					}
					id, source = imp.ID, imp.Source
				}

				texts, err := store.CommandTexts(ctx, id)
				if err != nil {
					return err
				}
				g := stats.NewAggregator(a.analyzer, a.cfg.Stats.TopK)
				g.SplitCompound = a.cfg.Stats.SplitCompound
				s := g.Aggregate(texts)
				if s.Categories, err = store.CategoryHistogram(ctx, id); err != nil {
					return err
				}
				if s.Bands, err = store.BandHistogram(ctx, id); err != nil {
					return err
				}
				return writeStats(cmd.OutOrStdout(), a.cfg.Stats.Format, source, s)
			})
		},
	}
}

func newStoredDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <import-id>",
		Short: "Delete an import and its commands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.withStore(func(store *storage.Store) error {
				imp, err := store.GetImport(cmd.Context(), args[0])
				if err != nil {
					return importError(args[0], err)
				}
				if err := store.DeleteImport(cmd.Context(), imp.ID); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted import %s (%d commands)\n", shortID(imp.ID), imp.Commands)
				return nil
			})
		},
	}
}

func importError(id string, err error) error {
	if errors.Is(err, storage.ErrImportNotFound) {
		return fmt.Errorf("no import matches %q", id)
	}
	return err
}
