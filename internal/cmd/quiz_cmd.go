package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/runger/cmdcorpus/internal/quiz"
)

func newQuizCmd(a *app) *cobra.Command {
	var (
		src     sourceFlags
		count   int
		seed    uint64
		title   string
		answers bool
	)
	cmd := &cobra.Command{
		Use:   "quiz [log...]",
		Short: "Generate a multiple-choice quiz from a corpus",
		Long: `Generate a quiz about the commands in a corpus.

Questions ask what a command does, which flag does a described job, which
candidate is the right command for a task, and what separates two similar
commands. Descriptions come from the command reference. Frequent and more
complex commands are picked more often.

With --seed the same corpus always yields the same quiz.

Examples:
  cmdcorpus quiz
  cmdcorpus quiz --count 10 --answers
  cmdcorpus quiz --history bash --seed 7 -f json`,
		GroupID: groupCorpus,
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, err := a.knowledge()
			if err != nil {
				return err
			}
			c, source, err := a.load(cmd, &src, args)
			if err != nil {
				return err
			}

			var g *quiz.Generator
			if cmd.Flags().Changed("seed") {
				g = quiz.NewGenerator(kb, a.analyzer, quiz.Seeded(seed))
			} else {
				g = quiz.NewGenerator(kb, a.analyzer, nil)
			}
			q := g.New(title, "Questions drawn from "+source, c.Commands(), count)
			return a.render(cmd.OutOrStdout(), q, func(w io.Writer) error {
				return writeQuiz(w, q, answers)
			})
		},
	}
	src.register(cmd)
	cmd.Flags().IntVarP(&count, "count", "c", quiz.DefaultCount, "Number of questions")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible quiz")
	cmd.Flags().StringVar(&title, "title", quiz.DefaultTitle, "Quiz title")
	cmd.Flags().BoolVar(&answers, "answers", false, "Show the answer and explanation after each question")
	return cmd
}

func writeQuiz(w io.Writer, q quiz.Quiz, answers bool) error {
	fmt.Fprintf(w, "%s\n%s\n", styleHeading.Render(q.Title), styleDim.Render(q.Description))
	if len(q.Questions) == 0 {
		_, err := fmt.Fprintln(w, "\nNo questions could be generated from this corpus.")
		return err
	}
	for i, qu := range q.Questions {
		fmt.Fprintf(w, "\n%s %s\n", styleKey.Render(fmt.Sprintf("%d.", i+1)), indent(qu.Text, "   "))
		for _, o := range qu.Options {
			fmt.Fprintf(w, "   %s) %s\n", o.ID, o.Text)
		}
		if answers {
			fmt.Fprintf(w, "   %s %s\n", styleGood.Render("Answer: "+qu.Answer), styleDim.Render(qu.Explanation))
		}
	}
	_, err := fmt.Fprintf(w, "\n%d questions, %d points\n", q.QuestionCount, q.TotalPoints)
	return err
}

// indent prefixes every line after the first.
func indent(s, prefix string) string {
	return strings.ReplaceAll(s, "\n", "\n"+prefix)
}
