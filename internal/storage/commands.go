package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/stats"
)

// QueryCommands returns stored commands matching q in insertion order.
func (s *Store) QueryCommands(ctx context.Context, q Query) ([]StoredCommand, error) {
	query := `
		SELECT id, import_id, seq, ts, source, command, command_norm, command_hash,
		       description, tool_use_id, exit_code, is_success, answered,
		       base, category, score, pipe_count, word_count, is_sudo,
		       redacted, risks
		FROM commands
		WHERE 1=1
	`
	args := make([]any, 0, 5)
	if q.ImportID != "" {
		query += " AND import_id = ?"
		args = append(args, q.ImportID)
	}
	if q.Category != "" {
		query += " AND category = ?"
		args = append(args, string(q.Category))
	}
	if q.Base != "" {
		query += " AND base = ?"
		args = append(args, q.Base)
	}
	if q.MinScore > 0 {
		query += " AND score >= ?"
		args = append(args, q.MinScore)
	}
	query += " ORDER BY id"

	limit := q.Limit
	if limit <= 0 {
		limit = DefaultQueryLimit
	}
	query += " LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var out []StoredCommand
	for rows.Next() {
		var c StoredCommand
		var exitCode sql.NullInt64
		var success, answered, sudo, redacted int
		var category, risks string
		err := rows.Scan(
			&c.ID, &c.ImportID, &c.Seq, &c.Timestamp, &c.Source,
			&c.Command, &c.Normalized, &c.Hash,
			&c.Description, &c.ToolUseID, &exitCode, &success, &answered,
			&c.Base, &category, &c.Score, &c.Pipes, &c.Words, &sudo,
			&redacted, &risks,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		if exitCode.Valid {
			ec := int(exitCode.Int64)
			c.ExitCode = &ec
		}
		c.Success = success == 1
		c.Answered = answered == 1
		c.Sudo = sudo == 1
		c.Redacted = redacted == 1
		c.Category = analysis.Category(category)
		if risks != "" {
			c.Risks = strings.Split(risks, ",")
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commands: %w", err)
	}
	return out, nil
}

// CommandTexts returns the raw text of every command in an import, or of
// every stored command when importID is empty, in insertion order.
func (s *Store) CommandTexts(ctx context.Context, importID string) ([]string, error) {
	query := `SELECT command FROM commands`
	var args []any
	if importID != "" {
		query += ` WHERE import_id = ?`
		args = append(args, importID)
	}
	query += ` ORDER BY id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query commands: %w", err)
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var cmd string
		if err := rows.Scan(&cmd); err != nil {
			return nil, fmt.Errorf("failed to scan command: %w", err)
		}
		out = append(out, cmd)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating commands: %w", err)
	}
	return out, nil
}

// BandHistogram counts stored commands per complexity band. Bands are
// derived from the stored scores with analysis.BandFor, so changing the
// thresholds re-bands old imports without re-parsing them. Every band is
// present, in order.
func (s *Store) BandHistogram(ctx context.Context, importID string) ([]stats.BandCount, error) {
	query := `SELECT score, COUNT(*) FROM commands`
	var args []any
	if importID != "" {
		query += ` WHERE import_id = ?`
		args = append(args, importID)
	}
	query += ` GROUP BY score`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	counts := make(map[analysis.Band]int)
	total := 0
	for rows.Next() {
		var score, n int
		if err := rows.Scan(&score, &n); err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		counts[analysis.BandFor(score)] += n
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scores: %w", err)
	}

	bands := analysis.Bands()
	out := make([]stats.BandCount, len(bands))
	for i, b := range bands {
		out[i] = stats.BandCount{Band: b, Count: counts[b], Percent: stats.Percent(counts[b], total)}
	}
	return out, nil
}

// CategoryHistogram counts stored commands per category, most frequent
// first. Ties keep the analyzer table's order; categories the table does
// not know sort last by name.
func (s *Store) CategoryHistogram(ctx context.Context, importID string) ([]stats.CategoryCount, error) {
	query := `SELECT category, COUNT(*) FROM commands`
	var args []any
	if importID != "" {
		query += ` WHERE import_id = ?`
		args = append(args, importID)
	}
	query += ` GROUP BY category`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query categories: %w", err)
	}
	defer rows.Close()

	var out []stats.CategoryCount
	total := 0
	for rows.Next() {
		var cat string
		var n int
		if err := rows.Scan(&cat, &n); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		out = append(out, stats.CategoryCount{Category: analysis.Category(cat), Count: n})
		total += n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating categories: %w", err)
	}

	order := make(map[analysis.Category]int)
	for i, c := range s.analyzer.Table().Categories() {
		order[c] = i
	}
	rank := func(c analysis.Category) int {
		if i, ok := order[c]; ok {
			return i
		}
		return len(order)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		ri, rj := rank(out[i].Category), rank(out[j].Category)
		if ri != rj {
			return ri < rj
		}
		return out[i].Category < out[j].Category
	})
	for i := range out {
		out[i].Percent = stats.Percent(out[i].Count, total)
	}
	return out, nil
}
