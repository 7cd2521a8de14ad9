package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/runger/cmdcorpus/internal/cmdutil"
	"github.com/runger/cmdcorpus/internal/corpus"
)

// SaveImport stores imp and its records in one transaction. An empty ID is
// filled with a new UUID and a zero CreatedAt with the current time. The
// stored Import is returned.
func (s *Store) SaveImport(ctx context.Context, imp Import, records []corpus.Record) (Import, error) {
	if strings.TrimSpace(imp.Source) == "" {
		return Import{}, errors.New("import source is required")
	}
	if imp.ID == "" {
		imp.ID = uuid.NewString()
	}
	if imp.Kind == "" {
		imp.Kind = KindSessions
	}
	if imp.CreatedAt.IsZero() {
		imp.CreatedAt = time.Now()
	}
	imp.Commands = len(records)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Import{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO imports (import_id, source, kind, created_at_unix_ms, command_count)
		VALUES (?, ?, ?, ?, ?)
	`, imp.ID, imp.Source, imp.Kind, imp.CreatedAt.UnixMilli(), imp.Commands)
	if err != nil {
		if isDuplicateKeyError(err) {
			return Import{}, fmt.Errorf("import with id %s already exists", imp.ID)
		}
		return Import{}, fmt.Errorf("failed to create import: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO commands (
			import_id, seq, ts, source, command, command_norm, command_hash,
			description, tool_use_id, exit_code, is_success, answered,
			base, category, score, pipe_count, word_count, is_sudo,
			redacted, risks
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return Import{}, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		c := s.analyzer.Command(rec.Command)
		base := c.Base()
		norm := cmdutil.FoldCommand(rec.Command)
		_, err := stmt.ExecContext(ctx,
			imp.ID,
			rec.Seq,
			rec.Timestamp,
			rec.Source,
			rec.Command,
			norm,
			cmdutil.HashCommand(norm),
			rec.Description,
			rec.ToolUseID,
			rec.ExitCode,
			boolToInt(rec.Success),
			boolToInt(rec.Answered),
			base.Token,
			string(c.Category()),
			c.Score(),
			c.Structure().Pipes,
			cmdutil.CountWords(rec.Command),
			boolToInt(base.Elevated),
			boolToInt(rec.Redacted),
			strings.Join(rec.Risks, ","),
		)
		if err != nil {
			return Import{}, fmt.Errorf("failed to insert command %d: %w", rec.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return Import{}, fmt.Errorf("failed to commit import: %w", err)
	}
	return imp, nil
}

// ListImports returns every import, newest first.
func (s *Store) ListImports(ctx context.Context) ([]Import, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT import_id, source, kind, created_at_unix_ms, command_count
		FROM imports
		ORDER BY created_at_unix_ms DESC, import_id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var out []Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, imp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating imports: %w", err)
	}
	return out, nil
}

// GetImport returns the import with the given id or unique id prefix.
func (s *Store) GetImport(ctx context.Context, idOrPrefix string) (Import, error) {
	if idOrPrefix == "" {
		return Import{}, ErrImportNotFound
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT import_id, source, kind, created_at_unix_ms, command_count
		FROM imports WHERE import_id = ?
	`, idOrPrefix)
	imp, err := scanImport(row)
	if err == nil {
		return imp, nil
	}
	if !errors.Is(err, ErrImportNotFound) {
		return Import{}, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT import_id, source, kind, created_at_unix_ms, command_count
		FROM imports WHERE import_id LIKE ? ESCAPE '\'
		LIMIT 2
	`, escapeLike(idOrPrefix)+"%")
	if err != nil {
		return Import{}, fmt.Errorf("failed to query imports: %w", err)
	}
	defer rows.Close()

	var matches []Import
	for rows.Next() {
		imp, err := scanImport(rows)
		if err != nil {
			return Import{}, err
		}
		matches = append(matches, imp)
	}
	if err := rows.Err(); err != nil {
		return Import{}, fmt.Errorf("error iterating imports: %w", err)
	}
	switch len(matches) {
	case 0:
		return Import{}, ErrImportNotFound
	case 1:
		return matches[0], nil
	default:
		return Import{}, fmt.Errorf("import prefix %q is ambiguous", idOrPrefix)
	}
}

// DeleteImport removes an import and its commands.
func (s *Store) DeleteImport(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM imports WHERE import_id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete import: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if n == 0 {
		return ErrImportNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanImport(r rowScanner) (Import, error) {
	var imp Import
	var created int64
	if err := r.Scan(&imp.ID, &imp.Source, &imp.Kind, &created, &imp.Commands); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Import{}, ErrImportNotFound
		}
		return Import{}, fmt.Errorf("failed to scan import: %w", err)
	}
	imp.CreatedAt = time.UnixMilli(created)
	return imp, nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
