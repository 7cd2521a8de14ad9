package analysis

import (
	"maps"
	"sync"

	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// Analyzer builds Commands against one category table.
type Analyzer struct {
	table *Table
}

// NewAnalyzer returns an analyzer using table, or the default table if nil.
func NewAnalyzer(table *Table) *Analyzer {
	if table == nil {
		table = defaultTable
	}
	return &Analyzer{table: table}
}

// Table returns the analyzer's category table.
func (a *Analyzer) Table() *Table {
	return a.table
}

// Command wraps raw. Derived attributes are computed on first access.
func (a *Analyzer) Command(raw string) *Command {
	return &Command{raw: raw, table: a.table}
}

// Command is an immutable command string with lazily derived attributes.
// It is safe for concurrent readers.
type Command struct {
	raw   string
	table *Table

	once      sync.Once
	tokens    []string
	base      cmdutil.Base
	structure cmdutil.Structure
	score     int
	category  Category
}

func (c *Command) derive() {
	c.once.Do(func() {
		c.tokens = cmdutil.Tokenize(c.raw)
		c.base = cmdutil.BaseFromTokens(c.tokens)
		c.structure = cmdutil.Analyze(c.raw)
		c.score = ScoreStructure(c.structure)
		c.category = c.table.Lookup(c.base.Token)
	})
}

// Raw returns the command as extracted.
func (c *Command) Raw() string { return c.raw }

// Tokens returns a copy of the quote-aware tokens.
func (c *Command) Tokens() []string {
	c.derive()
	out := make([]string, len(c.tokens))
	copy(out, c.tokens)
	return out
}

// Base returns the base command.
func (c *Command) Base() cmdutil.Base {
	c.derive()
	return c.base
}

// Structure returns the structural summary.
func (c *Command) Structure() cmdutil.Structure {
	c.derive()
	s := c.structure
	s.Stages = append([]string(nil), s.Stages...)
	s.Keywords = append([]string(nil), s.Keywords...)
	s.Operators = maps.Clone(s.Operators)
	return s
}

// Stages returns the number of pipeline stages.
func (c *Command) Stages() int {
	c.derive()
	return len(c.structure.Stages)
}

// Score returns the complexity score.
func (c *Command) Score() int {
	c.derive()
	return c.score
}

// Band returns the complexity band.
func (c *Command) Band() Band {
	return BandFor(c.Score())
}

// Category returns the command's category.
func (c *Command) Category() Category {
	c.derive()
	return c.category
}

// Explain returns the score contributions.
func (c *Command) Explain() []Contribution {
	c.derive()
	return ExplainStructure(c.structure)
}
