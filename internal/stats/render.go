package stats

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"
	"gopkg.in/yaml.v3"
)

// DefaultTableWidth is used when the caller passes a non-positive width.
const DefaultTableWidth = 80

// minCommandWidth keeps truncated commands readable on narrow terminals.
const minCommandWidth = 16

// RenderTable formats s as fixed-width text no wider than width columns
// (measured in display cells). Long commands are truncated in the middle.
func RenderTable(s CorpusStats, width int) string {
	if width <= 0 {
		width = DefaultTableWidth
	}
	var b strings.Builder

	fmt.Fprintf(&b, "Total commands:       %d\n", s.Total)
	fmt.Fprintf(&b, "Unique commands:      %d\n", s.Unique)
	fmt.Fprintf(&b, "Unique base commands: %d\n", s.UniqueBases)
	if s.SubCommands > 0 {
		fmt.Fprintf(&b, "Simple commands:      %d\n", s.SubCommands)
	}
	fmt.Fprintf(&b, "Average complexity:   %.2f\n", s.AverageScore)

	b.WriteString("\nCategories\n")
	if len(s.Categories) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, c := range s.Categories {
		fmt.Fprintf(&b, "  %-20s %6d  %5.1f%%\n", c.Category, c.Count, c.Percent)
	}

	b.WriteString("\nComplexity\n")
	for _, band := range s.Bands {
		fmt.Fprintf(&b, "  %-20s %6d  %5.1f%%\n", band.Band, band.Count, band.Percent)
	}

	writeRanking(&b, "Top commands", s.TopCommands, width)
	writeRanking(&b, "Top base commands", s.TopBases, width)
	writeRanking(&b, "Operators", s.Operators, width)

	b.WriteString("\nMost complex\n")
	if len(s.MostComplex) == 0 {
		b.WriteString("  (none)\n")
	}
	cmdWidth := commandWidth(width, 2+4+2+12+2)
	for _, sc := range s.MostComplex {
		fmt.Fprintf(&b, "  %4d  %-12s  %s\n", sc.Score, sc.Band, Truncate(sc.Command, cmdWidth))
	}
	return b.String()
}

func writeRanking(b *strings.Builder, title string, rows []Frequency, width int) {
	fmt.Fprintf(b, "\n%s\n", title)
	if len(rows) == 0 {
		b.WriteString("  (none)\n")
		return
	}
	cmdWidth := commandWidth(width, 2+6+2)
	for _, r := range rows {
		fmt.Fprintf(b, "  %6d  %s\n", r.Count, Truncate(r.Value, cmdWidth))
	}
}

func commandWidth(total, used int) int {
	w := total - used
	if w < minCommandWidth {
		return minCommandWidth
	}
	return w
}

// RenderJSON formats s as indented JSON.
func RenderJSON(s CorpusStats) ([]byte, error) {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return append(data, '\n'), nil
}

// RenderYAML formats s as YAML.
func RenderYAML(s CorpusStats) ([]byte, error) {
	data, err := yaml.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshal stats: %w", err)
	}
	return data, nil
}

// Truncate flattens a command onto one line and shortens it to maxWidth
// display cells, keeping its head and tail around an ellipsis.
func Truncate(cmd string, maxWidth int) string {
	flat := strings.Join(strings.Fields(cmd), " ")
	if maxWidth <= 0 {
		return ""
	}
	if runewidth.StringWidth(flat) <= maxWidth {
		return flat
	}

	const ellipsis = "…"
	if maxWidth < 3 {
		return truncateLeft(flat, maxWidth)
	}
	remaining := maxWidth - 1
	head := truncateLeft(flat, (remaining+1)/2)
	tail := truncateRight(flat, remaining/2)
	return head + ellipsis + tail
}

// truncateLeft returns the longest prefix of s at most maxWidth cells wide.
func truncateLeft(s string, maxWidth int) string {
	w := 0
	for i, r := range s {
		rw := runewidth.RuneWidth(r)
		if w+rw > maxWidth {
			return s[:i]
		}
		w += rw
	}
	return s
}

// truncateRight returns the longest suffix of s at most maxWidth cells wide.
func truncateRight(s string, maxWidth int) string {
	runes := []rune(s)
	w := 0
	start := len(runes)
	for i := len(runes) - 1; i >= 0; i-- {
		rw := runewidth.RuneWidth(runes[i])
		if w+rw > maxWidth {
			break
		}
		w += rw
		start = i
	}
	return string(runes[start:])
}
