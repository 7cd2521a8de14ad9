// Package quiz builds multiple-choice questions about the commands in a
// corpus, using the command reference for descriptions and flags.
//
// Four question types are generated: what a command does, which flag does a
// described job, which of several candidates is the right command for a task,
// and what separates two near-identical commands. A Generator draws from a
// caller-supplied random source so a fixed seed reproduces the same quiz.
package quiz

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"sort"
	"strings"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/cmdutil"
	"github.com/runger/cmdcorpus/internal/knowledge"
)

// Type identifies a question type.
type Type string

const (
	WhatDoes       Type = "what_does_this_do"
	WhichFlag      Type = "which_flag"
	BuildCommand   Type = "build_the_command"
	SpotDifference Type = "spot_the_difference"
)

// Types lists the question types in generation order.
func Types() []Type {
	return []Type{WhatDoes, WhichFlag, BuildCommand, SpotDifference}
}

const (
	// DefaultCount is the question count used when none is given.
	DefaultCount = 20
	// DefaultTitle is the title used when none is given.
	DefaultTitle = "Shell Command Quiz"

	optionCount = 4
	// maxWeight caps how often a repeated command is entered in the draw.
	maxWeight = 5
	// minScore is the complexity a command needs to be quizzed on, unless no
	// command in the corpus reaches it.
	minScore      = 2
	maxDifficulty = 5
)

// Option is one answer choice.
type Option struct {
	ID          string `json:"id" yaml:"id"`
	Text        string `json:"text" yaml:"text"`
	Correct     bool   `json:"is_correct" yaml:"is_correct"`
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Question is a multiple-choice question with exactly one correct option.
type Question struct {
	ID          string   `json:"id" yaml:"id"`
	Type        Type     `json:"type" yaml:"type"`
	Text        string   `json:"question" yaml:"question"`
	Options     []Option `json:"options" yaml:"options"`
	Answer      string   `json:"correct_answer" yaml:"correct_answer"`
	Explanation string   `json:"explanation" yaml:"explanation"`
	Difficulty  int      `json:"difficulty" yaml:"difficulty"`
	Context     string   `json:"command_context" yaml:"command_context"`
	Tags        []string `json:"tags" yaml:"tags"`
}

// Quiz is a titled set of questions worth one point each.
type Quiz struct {
	ID               string     `json:"id" yaml:"id"`
	Title            string     `json:"title" yaml:"title"`
	Description      string     `json:"description" yaml:"description"`
	Questions        []Question `json:"questions" yaml:"questions"`
	TotalPoints      int        `json:"total_points" yaml:"total_points"`
	TimeLimitSeconds int        `json:"time_limit_seconds,omitempty" yaml:"time_limit_seconds,omitempty"`
	QuestionCount    int        `json:"question_count" yaml:"question_count"`
}

// Generator builds questions. It is not safe for concurrent use because it
// owns its random source.
type Generator struct {
	kb       *knowledge.Base
	analyzer *analysis.Analyzer
	rng      *rand.Rand
}

// NewGenerator returns a generator over kb. A nil analyzer uses the default
// category table; a nil rng is seeded randomly.
func NewGenerator(kb *knowledge.Base, a *analysis.Analyzer, rng *rand.Rand) *Generator {
	if a == nil {
		a = analysis.NewAnalyzer(nil)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	return &Generator{kb: kb, analyzer: a, rng: rng}
}

// Seeded returns a deterministic random source for NewGenerator.
func Seeded(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed))
}

// New generates a quiz of up to count questions from a corpus.
func (g *Generator) New(title, description string, cmds []string, count int) Quiz {
	if title == "" {
		title = DefaultTitle
	}
	qs := g.Set(cmds, count)
	return Quiz{
		ID:            shortID(title, fmt.Sprint(len(qs))),
		Title:         title,
		Description:   description,
		Questions:     qs,
		TotalPoints:   len(qs),
		QuestionCount: len(qs),
	}
}

// Set generates up to count questions from a corpus. Commands scoring below
// the beginner threshold are skipped unless nothing else is left, and
// repeated commands are drawn more often, up to maxWeight times. About 40%
// of the questions ask what a command does, 25% which flag to use, 20% which
// command to build and 15% what differs between two commands, with at least
// one attempt at each type.
func (g *Generator) Set(cmds []string, count int) []Question {
	if count < 1 {
		count = DefaultCount
	}
	weighted := g.weighted(cmds)
	if len(weighted) == 0 {
		return nil
	}

	targets := map[Type]int{
		WhatDoes:       max(1, count*40/100),
		WhichFlag:      max(1, count*25/100),
		BuildCommand:   max(1, count*20/100),
		SpotDifference: max(1, count*15/100),
	}
	build := map[Type]func(*analysis.Command) (Question, bool){
		WhatDoes:       g.WhatDoes,
		WhichFlag:      g.WhichFlag,
		BuildCommand:   g.Build,
		SpotDifference: g.SpotDifference,
	}

	var out []Question
	seen := make(map[string]bool)
	for _, t := range Types() {
		g.rng.Shuffle(len(weighted), func(i, j int) { weighted[i], weighted[j] = weighted[j], weighted[i] })
		made := 0
		for _, c := range weighted {
			if made >= targets[t] {
				break
			}
			q, ok := build[t](c)
			if !ok || seen[q.ID] {
				continue
			}
			seen[q.ID] = true
			out = append(out, q)
			made++
		}
	}

	g.rng.Shuffle(len(out), func(i, j int) { out[i], out[j] = out[j], out[i] })
	if len(out) > count {
		out = out[:count]
	}
	return out
}

// weighted analyses the distinct commands of cmds and repeats each by its
// capped frequency.
func (g *Generator) weighted(cmds []string) []*analysis.Command {
	freq := make(map[string]int)
	var order []string
	for _, raw := range cmds {
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if freq[raw] == 0 {
			order = append(order, raw)
		}
		freq[raw]++
	}

	var all, eligible []*analysis.Command
	for _, raw := range order {
		c := g.analyzer.Command(raw)
		all = append(all, c)
		if c.Score() >= minScore {
			eligible = append(eligible, c)
		}
	}
	if len(eligible) == 0 {
		eligible = all
	}

	var out []*analysis.Command
	for _, c := range eligible {
		for range min(freq[c.Raw()], maxWeight) {
			out = append(out, c)
		}
	}
	return out
}

// WhatDoes asks for the description of a command.
func (g *Generator) WhatDoes(c *analysis.Command) (Question, bool) {
	raw := strings.TrimSpace(c.Raw())
	p := parse(raw)
	if p.base == "" {
		return Question{}, false
	}
	correct := g.describe(raw)

	var bases []string
	for _, sub := range cmdutil.SplitCommands(raw) {
		bases = append(bases, parse(sub).base)
	}
	pool := g.descriptionPool(bases, correct)
	g.shuffle(pool)
	fillers := []string{
		fmt.Sprintf("Prints the manual page for %s", p.base),
		fmt.Sprintf("Installs %s from source", p.base),
		fmt.Sprintf("Performs an unrelated %s operation", p.base),
	}
	opts, answer := g.options(correct, pick(correct, pool, fillers), func(_ string, ok bool) string {
		verdict := "Incorrect."
		if ok {
			verdict = "Correct!"
		}
		return fmt.Sprintf("%s This command: %s", verdict, correct)
	})

	return Question{
		ID:          shortID(string(WhatDoes), raw),
		Type:        WhatDoes,
		Text:        fmt.Sprintf("What does this command do?\n\n    %s", raw),
		Options:     opts,
		Answer:      answer,
		Explanation: fmt.Sprintf("`%s`: %s", raw, correct),
		Difficulty:  min(max(c.Score(), 1), maxDifficulty),
		Context:     raw,
		Tags:        []string{p.base, string(WhatDoes)},
	}, true
}

// WhichFlag asks which flag of a command does a described job. It needs a
// flag in the command that the reference knows.
func (g *Generator) WhichFlag(c *analysis.Command) (Question, bool) {
	p := parse(c.Raw())
	entry, ok := g.kb.Lookup(p.base)
	if !ok || len(entry.Flags) == 0 {
		return Question{}, false
	}
	var known []string
	for _, f := range p.flags {
		for _, single := range expandBundle(f) {
			if _, ok := entry.Flags[single]; ok && !slices.Contains(known, single) {
				known = append(known, single)
			}
		}
	}
	if len(known) == 0 {
		return Question{}, false
	}
	target := known[g.rng.IntN(len(known))]
	desc := lowerFirst(entry.Flags[target])

	others := sortedKeys(entry.Flags)
	g.shuffle(others)
	opts, answer := g.options(target, pick(target, others, g.foreignFlags(p.base)), func(text string, _ bool) string {
		if d, ok := entry.Flags[text]; ok {
			return text + ": " + d
		}
		return fmt.Sprintf("%s: not a standard flag for %s", text, p.base)
	})

	return Question{
		ID:          shortID(string(WhichFlag), p.base, target),
		Type:        WhichFlag,
		Text:        fmt.Sprintf("You want to %s when using `%s`. Which flag should you use?", desc, p.base),
		Options:     opts,
		Answer:      answer,
		Explanation: fmt.Sprintf("The `%s` flag of `%s` is used to %s.", target, p.base, desc),
		Difficulty:  2,
		Context:     p.base,
		Tags:        []string{p.base, string(WhichFlag)},
	}, true
}

// Build asks which of several candidate command lines does a task. The
// wrong candidates reorder the words, drop the last flag, swap the first
// flag for another one, or use a different command from the same category.
func (g *Generator) Build(c *analysis.Command) (Question, bool) {
	p := parse(c.Raw())
	if p.base == "" {
		return Question{}, false
	}
	correct := p.String()

	var wrong []string
	if words := p.words(); len(words) > 2 {
		shuffled := slices.Clone(words)
		g.shuffle(shuffled)
		if !slices.Equal(shuffled, words) {
			wrong = append(wrong, strings.Join(shuffled, " "))
		}
	}
	if n := len(p.flags); n > 0 {
		missing := p
		missing.flags = p.flags[:n-1]
		wrong = append(wrong, missing.String())

		if alt := g.otherFlag(p.base, p.flags[0]); alt != "" {
			swapped := p
			swapped.flags = append([]string{alt}, p.flags[1:]...)
			wrong = append(wrong, swapped.String())
		}
	}
	if rel := g.relatedCommand(p.base); rel != "" {
		other := p
		other.base = rel
		wrong = append(wrong, other.String())
	}
	fillers := []string{p.base + " --invalid-option", p.base + " --wrong-flag", p.base + " --no-such-flag"}

	opts, answer := g.options(correct, pick(correct, wrong, fillers), func(_ string, ok bool) string {
		if ok {
			return "Correct command structure"
		}
		return "Incorrect command structure"
	})

	return Question{
		ID:          shortID(string(BuildCommand), c.Raw()),
		Type:        BuildCommand,
		Text:        fmt.Sprintf("Build the command for this task: %s.\n\nWhich command is correct?", lowerFirst(g.describe(correct))),
		Options:     opts,
		Answer:      answer,
		Explanation: fmt.Sprintf("The correct command is `%s`.", correct),
		Difficulty:  3,
		Context:     c.Raw(),
		Tags:        []string{p.base, string(BuildCommand)},
	}, true
}

// spotDistractors are the wrong explanations offered for a difference.
var spotDistractors = []string{
	"Both commands do exactly the same thing",
	"Command 1 runs faster than Command 2",
	"Command 2 is deprecated, Command 1 is the modern version",
	"Command 1 modifies files, Command 2 only reads them",
	"Command 2 requires root permissions, Command 1 doesn't",
}

// SpotDifference pairs a command with a variant that adds, removes or
// changes one flag and asks what differs. It needs a command the reference
// lists flags for.
func (g *Generator) SpotDifference(c *analysis.Command) (Question, bool) {
	p := parse(c.Raw())
	v, ok := g.variant(p)
	if !ok {
		return Question{}, false
	}
	return g.difference(p, v)
}

func (g *Generator) difference(p1, p2 parts) (Question, bool) {
	if p1.base == "" || p1.base != p2.base {
		return Question{}, false
	}
	only1 := without(p1.flags, p2.flags)
	only2 := without(p2.flags, p1.flags)
	sameArgs := slices.Equal(p1.args, p2.args)
	if len(only1) == 0 && len(only2) == 0 && sameArgs {
		return Question{}, false
	}

	var diffs []string
	for i, only := range [][]string{only1, only2} {
		for _, f := range only {
			desc := g.kb.DescribeFlag(p1.base, f)
			if desc == "" {
				desc = "unknown"
			}
			diffs = append(diffs, fmt.Sprintf("Command %d has `%s` (%s)", i+1, f, desc))
		}
	}
	if !sameArgs {
		diffs = append(diffs, fmt.Sprintf("Different arguments: '%s' vs '%s'",
			strings.Join(p1.args, " "), strings.Join(p2.args, " ")))
	}
	correct := strings.Join(diffs, "; ")

	distractors := slices.Clone(spotDistractors)
	g.shuffle(distractors)
	opts, answer := g.options(correct, pick(correct, distractors), func(_ string, ok bool) string {
		if ok {
			return "Correct analysis"
		}
		return "Incorrect analysis"
	})

	cmd1, cmd2 := p1.String(), p2.String()
	return Question{
		ID:          shortID(string(SpotDifference), cmd1, cmd2),
		Type:        SpotDifference,
		Text:        fmt.Sprintf("What is the key difference between these two commands?\n\n  1: %s\n  2: %s", cmd1, cmd2),
		Options:     opts,
		Answer:      answer,
		Explanation: "The key difference is: " + correct,
		Difficulty:  4,
		Context:     cmd1 + " vs " + cmd2,
		Tags:        []string{p1.base, string(SpotDifference)},
	}, true
}

// variant returns p with one flag added, removed or replaced.
func (g *Generator) variant(p parts) (parts, bool) {
	entry, ok := g.kb.Lookup(p.base)
	if !ok || len(entry.Flags) == 0 {
		return parts{}, false
	}
	var available []string
	for _, f := range sortedKeys(entry.Flags) {
		if !slices.Contains(p.flags, f) {
			available = append(available, f)
		}
	}

	var strategies []string
	if len(available) > 0 {
		strategies = append(strategies, "add")
	}
	if len(p.flags) > 0 {
		strategies = append(strategies, "remove")
	}
	if len(p.flags) > 0 && len(available) > 0 {
		strategies = append(strategies, "change")
	}
	if len(strategies) == 0 {
		return parts{}, false
	}

	v := p
	v.flags = slices.Clone(p.flags)
	switch strategies[g.rng.IntN(len(strategies))] {
	case "add":
		v.flags = append(v.flags, available[g.rng.IntN(len(available))])
	case "remove":
		i := g.rng.IntN(len(v.flags))
		v.flags = slices.Delete(v.flags, i, i+1)
	case "change":
		v.flags[g.rng.IntN(len(v.flags))] = available[g.rng.IntN(len(available))]
	}
	return v, true
}

// describe explains each simple command of raw from the reference.
func (g *Generator) describe(raw string) string {
	var out []string
	for _, sub := range cmdutil.SplitCommands(raw) {
		p := parse(sub)
		if p.base == "" {
			continue
		}
		desc := "Runs " + p.base
		if e, ok := g.kb.Lookup(p.base); ok && e.Description != "" {
			desc = e.Description
		}
		var flags []string
		for _, f := range p.flags {
			if d := g.kb.DescribeFlag(p.base, f); d != "" {
				flags = append(flags, lowerFirst(d))
			}
		}
		if len(flags) > 0 {
			desc += " with: " + strings.Join(flags, ", ")
		}
		out = append(out, desc)
	}
	return strings.Join(out, "; then ")
}

// descriptionPool returns reference descriptions of commands other than
// bases that differ from correct, in a stable order.
func (g *Generator) descriptionPool(bases []string, correct string) []string {
	seen := map[string]bool{strings.ToLower(correct): true}
	var pool []string
	add := func(d string) {
		if d == "" || seen[strings.ToLower(d)] {
			return
		}
		seen[strings.ToLower(d)] = true
		pool = append(pool, d)
	}
	for _, name := range g.kb.Names() {
		if slices.Contains(bases, name) {
			continue
		}
		e, _ := g.kb.Lookup(name)
		add(e.Description)
		for _, f := range sortedKeys(e.Flags) {
			add(e.Flags[f])
		}
	}
	return pool
}

// otherFlag returns a random flag of base other than flag.
func (g *Generator) otherFlag(base, flag string) string {
	e, ok := g.kb.Lookup(base)
	if !ok {
		return ""
	}
	var others []string
	for _, f := range sortedKeys(e.Flags) {
		if f != flag {
			others = append(others, f)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return others[g.rng.IntN(len(others))]
}

// foreignFlags lists flags of other reference commands, in a stable order.
func (g *Generator) foreignFlags(base string) []string {
	var out []string
	for _, name := range g.kb.Names() {
		if name == base {
			continue
		}
		e, _ := g.kb.Lookup(name)
		out = append(out, sortedKeys(e.Flags)...)
	}
	return out
}

// relatedCommand returns another command from base's category.
func (g *Generator) relatedCommand(base string) string {
	table := g.analyzer.Table()
	cat := table.Lookup(base)
	var rel []string
	for _, cmd := range table.Commands(cat) {
		if cmd != base {
			rel = append(rel, cmd)
		}
	}
	if len(rel) == 0 {
		return ""
	}
	return rel[g.rng.IntN(len(rel))]
}

// options shuffles the correct answer among the distractors and labels them
// a, b, c and d. It returns the options and the correct label.
func (g *Generator) options(correct string, distractors []string, explain func(text string, ok bool) string) ([]Option, string) {
	texts := append([]string{correct}, distractors...)
	g.shuffle(texts)

	opts := make([]Option, len(texts))
	answer := ""
	for i, text := range texts {
		id := string(rune('a' + i))
		ok := text == correct
		if ok {
			answer = id
		}
		opts[i] = Option{ID: id, Text: text, Correct: ok, Explanation: explain(text, ok)}
	}
	return opts, answer
}

func (g *Generator) shuffle(s []string) {
	g.rng.Shuffle(len(s), func(i, j int) { s[i], s[j] = s[j], s[i] })
}

// pick returns up to optionCount-1 distinct candidates that differ from
// correct, taking the sources in order.
func pick(correct string, sources ...[]string) []string {
	seen := map[string]bool{correct: true}
	var out []string
	for _, src := range sources {
		for _, s := range src {
			if len(out) == optionCount-1 {
				return out
			}
			if s == "" || seen[s] {
				continue
			}
			seen[s] = true
			out = append(out, s)
		}
	}
	return out
}

// parts is the first simple command of a line split into its base command,
// flags and remaining arguments.
type parts struct {
	base  string
	flags []string
	args  []string
}

func parse(raw string) parts {
	tokens := cmdutil.Tokenize(cmdutil.FirstCommand(raw))
	b := cmdutil.BaseFromTokens(tokens)
	if b.Token == "" {
		return parts{}
	}
	if b.Elevated {
		tokens = tokens[1:]
	}
	p := parts{base: b.Token, flags: cmdutil.Flags(tokens)}
	for _, tok := range tokens[1:] {
		if !strings.HasPrefix(tok, "-") {
			p.args = append(p.args, tok)
		}
	}
	return p
}

func (p parts) words() []string {
	words := append([]string{p.base}, p.flags...)
	return append(words, p.args...)
}

func (p parts) String() string {
	return strings.Join(p.words(), " ")
}

// expandBundle splits "-la" into "-l" and "-a". Other flags are returned
// as they are.
func expandBundle(flag string) []string {
	if strings.HasPrefix(flag, "--") || len(flag) < 3 {
		return []string{flag}
	}
	out := []string{flag}
	for _, r := range flag[1:] {
		out = append(out, "-"+string(r))
	}
	return out
}

// without returns the elements of a missing from b, in order and distinct.
func without(a, b []string) []string {
	var out []string
	for _, s := range a {
		if !slices.Contains(b, s) && !slices.Contains(out, s) {
			out = append(out, s)
		}
	}
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}

// shortID is the first 8 hex digits of the SHA-256 of the joined parts.
func shortID(fields ...string) string {
	return cmdutil.HashCommand(strings.Join(fields, "\x00"))[:8]
}
