package cmd

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/knowledge"
	"github.com/runger/cmdcorpus/internal/sanitize"
)

// explanation is an enriched command plus the destructive rules it matched.
type explanation struct {
	knowledge.Enriched `yaml:",inline"`

	Risks []string `json:"risks,omitempty" yaml:"risks,omitempty"`
}

func newExplainCmd(a *app) *cobra.Command {
	var search string
	cmd := &cobra.Command{
		Use:   "explain <command>",
		Short: "Explain one command: category, complexity, flags and operators",
		Long: `Explain a single shell command.

Shows the base command and its category, the complexity score with the
features that produced it, a description of each flag and operator from
the command reference, and a warning when the command destroys data.

With --search the command reference is searched instead.

Examples:
  cmdcorpus explain "find . -name '*.go' | xargs grep -n TODO"
  cmdcorpus explain git push --force
  cmdcorpus explain --search archive`,
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := a.knowledge()
			if err != nil {
				return err
			}
			if search != "" {
				names := kb.Search(search)
				return a.render(cmd.OutOrStdout(), names, func(w io.Writer) error {
					if len(names) == 0 {
						_, err := fmt.Fprintf(w, "No commands match %q\n", search)
						return err
					}
					for _, n := range names {
						e, _ := kb.Lookup(n)
						fmt.Fprintf(w, "  %-14s %s\n", styleKey.Render(n), e.Description)
					}
					return nil
				})
			}

			raw := strings.TrimSpace(strings.Join(args, " "))
			if raw == "" {
				return errors.New("a command to explain is required")
			}
			risks := sanitize.Risks(raw)
			if r := a.redactor(); r != nil {
				raw = r.Redact(raw)
			}
			ex := explanation{
				Enriched: kb.Enrich(a.analyzer.Command(raw)),
				Risks:    risks,
			}
			return a.render(cmd.OutOrStdout(), ex, func(w io.Writer) error {
				return writeExplanation(w, ex)
			})
		},
	}
	cmd.Flags().StringVarP(&search, "search", "s", "", "Search the command reference")
	// flags after the first word belong to the explained command
	cmd.Flags().SetInterspersed(false)
	return cmd
}

func writeExplanation(w io.Writer, ex explanation) error {
	label := func(s string) string { return styleKey.Render(fmt.Sprintf("%-12s", s)) }

	fmt.Fprintf(w, "%s %s\n", label("Command:"), ex.Command)
	base := ex.Base
	if ex.Elevated {
		base += " (sudo)"
	}
	fmt.Fprintf(w, "%s %s\n", label("Base:"), base)
	fmt.Fprintf(w, "%s %s\n", label("Category:"), ex.Category)
	fmt.Fprintf(w, "%s %d (%s)\n", label("Complexity:"), ex.Score, ex.Band)
	for _, c := range ex.Breakdown {
		fmt.Fprintf(w, "  %s\n", styleDim.Render(fmt.Sprintf("%+d  %s", c.Points, c.Reason)))
	}
	if len(ex.Risks) > 0 {
		fmt.Fprintf(w, "%s %s\n", label("Risk:"), styleBad.Render("destructive ("+strings.Join(ex.Risks, ", ")+")"))
	}

	if ex.Entry != nil {
		fmt.Fprintf(w, "\n%s\n", ex.Entry.Description)
	}
	if len(ex.Flags) > 0 {
		fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Flags"))
		for _, f := range ex.Flags {
			desc := f.Description
			if desc == "" {
				desc = styleDim.Render("(no description)")
			}
			fmt.Fprintf(w, "  %-14s %s\n", f.Flag, desc)
		}
	}
	if len(ex.Operators) > 0 {
		fmt.Fprintf(w, "\n%s\n", styleHeading.Render("Operators"))
		for _, op := range ex.Operators {
			fmt.Fprintf(w, "  %-6s %s", op.Symbol, op.Name)
			if op.Description != "" {
				fmt.Fprintf(w, ": %s", op.Description)
			}
			fmt.Fprintln(w)
		}
	}
	if ex.Entry != nil {
		writeList(w, "Examples", ex.Entry.Examples)
		writeList(w, "Pitfalls", ex.Entry.Pitfalls)
		if len(ex.Entry.Related) > 0 {
			fmt.Fprintf(w, "\n%s %s\n", styleHeading.Render("Related:"), strings.Join(ex.Entry.Related, ", "))
		}
	}
	return nil
}

func writeList(w io.Writer, title string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%s\n", styleHeading.Render(title))
	for _, it := range items {
		fmt.Fprintf(w, "  - %s\n", it)
	}
}
