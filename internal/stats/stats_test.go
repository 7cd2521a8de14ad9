package stats

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/runger/cmdcorpus/internal/analysis"
)

func TestAggregate_Scenario(t *testing.T) {
	t.Parallel()

	s := Aggregate([]string{"git status", "ls -la /home", "git commit -m 'x'", "git status"})

	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 3, s.Unique)
	assert.Equal(t, map[analysis.Category]int{analysis.Git: 3, analysis.FileOperations: 1}, s.CategoryHistogram())
	assert.Equal(t, analysis.Git, s.Categories[0].Category)
	assert.InDelta(t, 75.0, s.Categories[0].Percent, 0.001)

	require.NotEmpty(t, s.TopCommands)
	assert.Equal(t, Frequency{Value: "git status", Count: 2}, s.TopCommands[0])
	assert.Equal(t, 2, s.UniqueBases)
	assert.Equal(t, []Frequency{{"git", 3}, {"ls", 1}}, s.TopBases)
}

func TestAggregate_Empty(t *testing.T) {
	t.Parallel()

	s := Aggregate(nil)
	assert.Zero(t, s.Total)
	assert.Zero(t, s.Unique)
	assert.Zero(t, s.AverageScore)
	assert.Empty(t, s.Categories)
	assert.Empty(t, s.TopCommands)
	assert.Empty(t, s.MostComplex)

	require.Len(t, s.Bands, 3)
	for _, b := range s.Bands {
		assert.Zero(t, b.Count)
		assert.Zero(t, b.Percent)
	}
	assert.Equal(t, map[analysis.Band]int{analysis.Beginner: 0, analysis.Intermediate: 0, analysis.Advanced: 0}, s.BandHistogram())

	assert.NotPanics(t, func() { _ = RenderTable(s, 80) })
	_, err := RenderJSON(s)
	require.NoError(t, err)
	_, err = RenderYAML(s)
	require.NoError(t, err)
}

func TestAggregate_SplitCompound(t *testing.T) {
	t.Parallel()

	cmds := []string{"git add . && git commit -m 'a; b'", "ls -la | grep x", "ls -la"}

	g := NewAggregator(nil, 10)
	whole := g.Aggregate(cmds)
	assert.Zero(t, whole.SubCommands)
	assert.Equal(t, Frequency{Value: "git add . && git commit -m 'a; b'", Count: 1}, whole.TopCommands[0])

	g.SplitCompound = true
	s := g.Aggregate(cmds)
	assert.Equal(t, 3, s.Total, "totals stay per line")
	assert.Equal(t, 3, s.Unique)
	assert.Equal(t, 5, s.SubCommands)
	assert.Equal(t, []Frequency{
		{"ls -la", 2},
		{"git add .", 1},
		{"git commit -m 'a; b'", 1},
		{"grep x", 1},
	}, s.TopCommands)
	assert.Equal(t, []Frequency{{"git", 2}, {"ls", 2}, {"grep", 1}}, s.TopBases)
	assert.Equal(t, 3, s.UniqueBases)
}

func TestAggregate_Operators(t *testing.T) {
	t.Parallel()

	s := Aggregate([]string{
		"make > build.log 2>&1",
		"cat a | grep b | sort",
		"cd x && make; echo done",
		`echo "a | b"`,
	})
	assert.Equal(t, []Frequency{
		{"|", 2},
		{"&&", 1},
		{";", 1},
		{">", 1},
		{"2>&1", 1},
	}, s.Operators)

	assert.Contains(t, RenderTable(s, 80), "\nOperators\n")
	assert.Empty(t, Aggregate([]string{"ls"}).Operators)
}

func TestAggregate_TopKTies(t *testing.T) {
	t.Parallel()

	cmds := []string{"c", "a", "b", "a", "b", "c", "d"}
	g := NewAggregator(nil, 2)
	s := g.Aggregate(cmds)

	// c, a and b all occur twice; first occurrence decides
	assert.Equal(t, []Frequency{{"c", 2}, {"a", 2}}, s.TopCommands)
}

func TestAggregate_DefaultTopK(t *testing.T) {
	t.Parallel()

	cmds := []string{"a", "b", "c", "d", "e", "f", "g"}
	s := NewAggregator(nil, 0).Aggregate(cmds)
	assert.Len(t, s.TopCommands, DefaultTopK)
}

func TestAggregate_Bands(t *testing.T) {
	t.Parallel()

	s := Aggregate([]string{
		"ls",
		"cat file | grep pattern",
		"for i in *.txt; do cat $i | grep x >> out.txt; done",
	})

	assert.Equal(t, map[analysis.Band]int{
		analysis.Beginner:     1,
		analysis.Intermediate: 1,
		analysis.Advanced:     1,
	}, s.BandHistogram())

	require.NotEmpty(t, s.MostComplex)
	assert.Equal(t, "for i in *.txt; do cat $i | grep x >> out.txt; done", s.MostComplex[0].Command)
	assert.Equal(t, analysis.Advanced, s.MostComplex[0].Band)
	assert.InDelta(t, float64(1+3+10)/3, s.AverageScore, 0.001)
}

func TestAggregateCommands_CustomTable(t *testing.T) {
	t.Parallel()

	table, err := analysis.NewTable([]analysis.TableEntry{{Category: "build", Commands: []string{"make"}}})
	require.NoError(t, err)
	a := analysis.NewAnalyzer(table)

	cmds := []*analysis.Command{a.Command("make"), a.Command("make test"), a.Command("git status")}
	s := NewAggregator(a, 5).AggregateCommands(cmds)

	assert.Equal(t, []CategoryCount{
		{Category: "build", Count: 2, Percent: Percent(2, 3)},
		{Category: analysis.Other, Count: 1, Percent: Percent(1, 3)},
	}, s.Categories)
}

func TestPercent(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 0.0, Percent(5, 0))
	assert.Equal(t, 0.0, Percent(0, 0))
	assert.Equal(t, 50.0, Percent(30, 60))
	assert.Equal(t, 100.0, Percent(4, 4))
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	long := "find . -type f -name '*.log' -mtime +30 -exec gzip {} \\; && echo done with the long cleanup"
	s := Aggregate([]string{"git status", long, "git status"})
	out := RenderTable(s, 60)

	assert.Contains(t, out, "Total commands:       3")
	assert.Contains(t, out, "git")
	assert.Contains(t, out, "66.7%")
	assert.Contains(t, out, "…")
	for _, line := range strings.Split(out, "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 60, "line too wide: %q", line)
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	data, err := RenderJSON(Aggregate([]string{"ls", "ls"}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.EqualValues(t, 2, decoded["total"])
	assert.EqualValues(t, 1, decoded["unique"])
	bands := decoded["bands"].([]any)
	assert.Equal(t, "beginner", bands[0].(map[string]any)["band"])
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	data, err := RenderYAML(Aggregate([]string{"docker ps"}))
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, yaml.Unmarshal(data, &decoded))
	assert.Equal(t, 1, decoded["total"])
	assert.Contains(t, string(data), "category: docker")
	assert.Contains(t, string(data), "band: beginner")
}

func TestTruncate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"abcdefghij", 5, "ab…ij"},
		{"abcdefghij", 2, "ab"},
		{"abc", 0, ""},
		{"line one\nline two", 40, "line one line two"},
		{"日本語テキスト", 7, "日…ト"},
	}

	for _, tt := range tests {
		got := Truncate(tt.in, tt.width)
		assert.Equal(t, tt.want, got, "Truncate(%q, %d)", tt.in, tt.width)
		assert.LessOrEqual(t, runewidth.StringWidth(got), tt.width)
	}
}
