// Package stats aggregates corpus-level metrics over analysed commands.
package stats

import (
	"sort"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// DefaultTopK is the number of entries kept in frequency rankings.
const DefaultTopK = 5

// Frequency is a string and how often it occurred.
type Frequency struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// Scored is a command and its complexity.
type Scored struct {
	Command string        `json:"command" yaml:"command"`
	Score   int           `json:"score" yaml:"score"`
	Band    analysis.Band `json:"band" yaml:"band"`
}

// CategoryCount is one histogram bucket.
type CategoryCount struct {
	Category analysis.Category `json:"category" yaml:"category"`
	Count    int               `json:"count" yaml:"count"`
	Percent  float64           `json:"percent" yaml:"percent"`
}

// BandCount is one complexity histogram bucket.
type BandCount struct {
	Band    analysis.Band `json:"band" yaml:"band"`
	Count   int           `json:"count" yaml:"count"`
	Percent float64       `json:"percent" yaml:"percent"`
}

// CorpusStats is an aggregate over one command sequence. It is computed fresh
// on every call and holds no references to the input.
type CorpusStats struct {
	Total        int             `json:"total" yaml:"total"`
	Unique       int             `json:"unique" yaml:"unique"`
	Categories   []CategoryCount `json:"categories" yaml:"categories"`
	Bands        []BandCount     `json:"bands" yaml:"bands"`
	TopCommands  []Frequency     `json:"top_commands" yaml:"top_commands"`
	UniqueBases  int             `json:"unique_base_commands" yaml:"unique_base_commands"`
	TopBases     []Frequency     `json:"top_base_commands" yaml:"top_base_commands"`
	AverageScore float64         `json:"average_score" yaml:"average_score"`
	MostComplex  []Scored        `json:"most_complex" yaml:"most_complex"`
	// SubCommands is the number of simple commands counted in the rankings
	// when compound commands are split. It is zero otherwise.
	SubCommands int         `json:"sub_commands,omitempty" yaml:"sub_commands,omitempty"`
	Operators   []Frequency `json:"operators" yaml:"operators"`
}

// CategoryHistogram returns the category counts as a map.
func (s CorpusStats) CategoryHistogram() map[analysis.Category]int {
	m := make(map[analysis.Category]int, len(s.Categories))
	for _, c := range s.Categories {
		m[c.Category] = c.Count
	}
	return m
}

// BandHistogram returns the band counts as a map with every band present.
func (s CorpusStats) BandHistogram() map[analysis.Band]int {
	m := make(map[analysis.Band]int, len(s.Bands))
	for _, b := range analysis.Bands() {
		m[b] = 0
	}
	for _, b := range s.Bands {
		m[b.Band] = b.Count
	}
	return m
}

// Percent returns count as a percentage of total. A zero total yields 0.
func Percent(count, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(count) * 100 / float64(total)
}

// Aggregator computes CorpusStats.
type Aggregator struct {
	// TopK bounds every ranking. Values below 1 use DefaultTopK.
	TopK int
	// SplitCompound makes the command and base-command rankings count the
	// simple commands of each compound command ("a && b | c" counts a, b
	// and c) instead of the whole line. Totals, categories and scores are
	// always per line.
	SplitCompound bool
	analyzer      *analysis.Analyzer
}

// NewAggregator returns an aggregator that analyses raw strings with a.
// A nil analyzer uses the default category table.
func NewAggregator(a *analysis.Analyzer, topK int) *Aggregator {
	if a == nil {
		a = analysis.NewAnalyzer(nil)
	}
	return &Aggregator{TopK: topK, analyzer: a}
}

func (g *Aggregator) topK() int {
	if g.TopK < 1 {
		return DefaultTopK
	}
	return g.TopK
}

// Aggregate analyses and aggregates raw command strings.
func (g *Aggregator) Aggregate(cmds []string) CorpusStats {
	analysed := make([]*analysis.Command, len(cmds))
	for i, raw := range cmds {
		analysed[i] = g.analyzer.Command(raw)
	}
	return g.AggregateCommands(analysed)
}

// AggregateCommands aggregates commands whose attributes were already
// computed, so categories and scores are not derived twice.
func (g *Aggregator) AggregateCommands(cmds []*analysis.Command) CorpusStats {
	k := g.topK()
	s := CorpusStats{Total: len(cmds), Categories: []CategoryCount{}}

	exact := newCounter()
	bases := newCounter()
	cats := make(map[analysis.Category]int)
	bands := make(map[analysis.Band]int)
	ops := make(map[cmdutil.Operator]int)
	scored := make([]Scored, 0, len(cmds))
	unique := make(map[string]struct{}, len(cmds))
	sum := 0

	for _, c := range cmds {
		unique[c.Raw()] = struct{}{}
		if g.SplitCompound {
			for _, sub := range cmdutil.SplitCommands(c.Raw()) {
				s.SubCommands++
				exact.add(sub)
				if base := cmdutil.BaseCommand(sub).Token; base != "" {
					bases.add(base)
				}
			}
		} else {
			exact.add(c.Raw())
			if base := c.Base().Token; base != "" {
				bases.add(base)
			}
		}
		for op, n := range c.Structure().Operators {
			ops[op] += n
		}
		cats[c.Category()]++
		bands[c.Band()]++
		sum += c.Score()
		scored = append(scored, Scored{Command: c.Raw(), Score: c.Score(), Band: c.Band()})
	}

	s.Unique = len(unique)
	s.TopCommands = exact.top(k)
	s.UniqueBases = bases.distinct()
	s.TopBases = bases.top(k)
	if s.Total > 0 {
		s.AverageScore = float64(sum) / float64(s.Total)
	}

	order := g.analyzer.Table().Categories()
	for _, cat := range order {
		if n := cats[cat]; n > 0 {
			s.Categories = append(s.Categories, CategoryCount{Category: cat, Count: n, Percent: Percent(n, s.Total)})
		}
	}
	// Commands analysed against another table may carry foreign labels.
	var extra []analysis.Category
	known := make(map[analysis.Category]bool, len(order))
	for _, cat := range order {
		known[cat] = true
	}
	for cat := range cats {
		if !known[cat] {
			extra = append(extra, cat)
		}
	}
	sort.Slice(extra, func(i, j int) bool { return extra[i] < extra[j] })
	for _, cat := range extra {
		s.Categories = append(s.Categories, CategoryCount{Category: cat, Count: cats[cat], Percent: Percent(cats[cat], s.Total)})
	}
	sort.SliceStable(s.Categories, func(i, j int) bool {
		return s.Categories[i].Count > s.Categories[j].Count
	})

	for _, b := range analysis.Bands() {
		s.Bands = append(s.Bands, BandCount{Band: b, Count: bands[b], Percent: Percent(bands[b], s.Total)})
	}

	s.MostComplex = mostComplex(scored, k)
	s.Operators = operatorRanking(ops)
	return s
}

// operatorRanking orders the non-zero operator counts by frequency, breaking
// ties by cmdutil.Operators order.
func operatorRanking(ops map[cmdutil.Operator]int) []Frequency {
	out := []Frequency{}
	for _, op := range cmdutil.Operators() {
		if n := ops[op]; n > 0 {
			out = append(out, Frequency{Value: string(op), Count: n})
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Aggregate is a convenience wrapper using the default table and top-K.
func Aggregate(cmds []string) CorpusStats {
	return NewAggregator(nil, DefaultTopK).Aggregate(cmds)
}

// mostComplex returns the k highest-scoring distinct commands. Equal scores
// keep first-occurrence order.
func mostComplex(scored []Scored, k int) []Scored {
	seen := make(map[string]bool, len(scored))
	distinct := make([]Scored, 0, len(scored))
	for _, sc := range scored {
		if seen[sc.Command] {
			continue
		}
		seen[sc.Command] = true
		distinct = append(distinct, sc)
	}
	sort.SliceStable(distinct, func(i, j int) bool {
		return distinct[i].Score > distinct[j].Score
	})
	if len(distinct) > k {
		distinct = distinct[:k]
	}
	return distinct
}

// counter counts strings and remembers first-occurrence order.
type counter struct {
	counts map[string]int
	order  []string
}

func newCounter() *counter {
	return &counter{counts: make(map[string]int)}
}

func (c *counter) add(v string) {
	if _, ok := c.counts[v]; !ok {
		c.order = append(c.order, v)
	}
	c.counts[v]++
}

func (c *counter) distinct() int {
	return len(c.order)
}

// top returns the k most frequent values. Ties keep first-occurrence order.
func (c *counter) top(k int) []Frequency {
	out := make([]Frequency, 0, len(c.order))
	for _, v := range c.order {
		out = append(out, Frequency{Value: v, Count: c.counts[v]})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	if len(out) > k {
		out = out[:k]
	}
	return out
}
