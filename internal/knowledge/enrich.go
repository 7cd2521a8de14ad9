package knowledge

import (
	"strings"

	"github.com/google/shlex"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// FlagInfo is a flag found in a command and its reference description.
type FlagInfo struct {
	Flag        string `json:"flag" yaml:"flag"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// Enriched combines a command's analysis with its reference entry.
type Enriched struct {
	Command   string                  `json:"command" yaml:"command"`
	Base      string                  `json:"base" yaml:"base"`
	Elevated  bool                    `json:"elevated,omitempty" yaml:"elevated,omitempty"`
	Category  analysis.Category       `json:"category" yaml:"category"`
	Score     int                     `json:"score" yaml:"score"`
	Band      analysis.Band           `json:"band" yaml:"band"`
	Breakdown []analysis.Contribution `json:"breakdown,omitempty" yaml:"breakdown,omitempty"`
	Structure cmdutil.Structure       `json:"structure" yaml:"structure"`
	// Entry is nil when the base command is not in the reference.
	Entry     *Entry     `json:"entry,omitempty" yaml:"entry,omitempty"`
	Flags     []FlagInfo `json:"flags,omitempty" yaml:"flags,omitempty"`
	Operators []Operator `json:"operators,omitempty" yaml:"operators,omitempty"`
}

// Enrich attaches reference data to an analysed command.
func (b *Base) Enrich(c *analysis.Command) Enriched {
	base := c.Base()
	s := c.Structure()
	out := Enriched{
		Command:   c.Raw(),
		Base:      base.Token,
		Elevated:  base.Elevated,
		Category:  c.Category(),
		Score:     c.Score(),
		Band:      c.Band(),
		Breakdown: c.Explain(),
		Structure: s,
	}

	entry, ok := b.Lookup(base.Token)
	if ok {
		out.Entry = &entry
	}
	for _, flag := range CommandFlags(c.Raw()) {
		fi := FlagInfo{Flag: flag}
		if ok {
			fi.Description = describeFlag(entry.Flags, flag)
		}
		out.Flags = append(out.Flags, fi)
	}
	for _, sym := range operatorSymbols(s) {
		if op, found := b.Operator(sym); found {
			out.Operators = append(out.Operators, op)
		} else {
			out.Operators = append(out.Operators, Operator{Symbol: sym})
		}
	}
	return out
}

// CommandFlags returns the distinct flags passed to the first command of a
// pipeline or list, in order. Words are split with quote removal, falling
// back to the quote-keeping tokenizer for input shlex rejects.
func CommandFlags(raw string) []string {
	first := cmdutil.FirstCommand(raw)
	words, err := shlex.Split(first)
	if err != nil || len(words) == 0 {
		words = cmdutil.Tokenize(first)
	}
	if len(words) == 0 {
		return nil
	}
	start := 1
	if words[0] == cmdutil.ElevationPrefix && len(words) > 1 {
		start = 2
	}

	seen := make(map[string]bool)
	var flags []string
	for _, w := range words[start:] {
		if isListOperator(w) {
			break
		}
		if w == "--" {
			break
		}
		if !strings.HasPrefix(w, "-") || w == "-" {
			continue
		}
		if i := strings.IndexByte(w, '='); i > 0 && strings.HasPrefix(w, "--") {
			w = w[:i]
		}
		if !seen[w] {
			seen[w] = true
			flags = append(flags, w)
		}
	}
	return flags
}

func isListOperator(w string) bool {
	switch w {
	case "|", "||", "&&", ";", "&", "|&":
		return true
	}
	return false
}

// DescribeFlag returns the reference description of flag for command name,
// or "" when either is unknown.
func (b *Base) DescribeFlag(name, flag string) string {
	e, ok := b.commands[name]
	if !ok {
		return ""
	}
	return describeFlag(e.Flags, flag)
}

// describeFlag looks a flag up directly, then as a bundle of single-letter
// flags ("-la" as "-l" and "-a").
func describeFlag(known map[string]string, flag string) string {
	if d, ok := known[flag]; ok {
		return d
	}
	if strings.HasPrefix(flag, "--") || len(flag) < 3 {
		return ""
	}
	var parts []string
	for _, r := range flag[1:] {
		d, ok := known["-"+string(r)]
		if !ok {
			return ""
		}
		parts = append(parts, d)
	}
	return strings.Join(parts, "; ")
}

// operatorSymbols lists the operators present in s in a fixed order.
func operatorSymbols(s cmdutil.Structure) []string {
	var out []string
	add := func(ok bool, sym string) {
		if ok {
			out = append(out, sym)
		}
	}
	add(s.Pipes > 0, "|")
	add(s.AndOps > 0, "&&")
	add(s.OrOps > 0, "||")
	add(s.Semicolons > 0, ";")
	add(s.Redirects.Stdout, ">")
	add(s.Redirects.Append, ">>")
	add(s.Redirects.Stderr, "2>")
	add(s.Redirects.Stdin, "<")
	add(s.Redirects.Combined, "2>&1")
	add(s.CommandSubstitution, "$()")
	add(s.ProcessSubstitution, "<()")
	add(s.Heredoc.Present, "<<")
	return out
}
