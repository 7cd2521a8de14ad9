// Package corpus builds a command corpus from many session logs.
//
// Each log is extracted in its own pass, with its own reader and pairer, so
// identifiers never pair across files. Passes run in parallel and their
// results are concatenated in input order.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/runger/cmdcorpus/internal/history"
	clog "github.com/runger/cmdcorpus/internal/log"
	"github.com/runger/cmdcorpus/internal/sanitize"
	"github.com/runger/cmdcorpus/internal/session"
)

// Options configures Build.
type Options struct {
	// Concurrency bounds the parallel passes. Zero means GOMAXPROCS.
	Concurrency int
	// Strict makes the first FileError fatal.
	Strict bool
	// Tool and Malformed are passed to session.Extract.
	Tool      string
	Malformed session.MalformedPolicy
	// Redactor, if set, is applied to every command, description and output.
	Redactor *sanitize.Redactor
	Logger   *slog.Logger
}

// FileError is a problem with one input. Line is zero for errors that are
// not tied to a line.
type FileError struct {
	Path string
	Line int
	Err  error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Record is an extracted command and where it came from.
type Record struct {
	session.ExtractedCommand `yaml:",inline"`

	Source string `json:"source" yaml:"source"`
	// Redacted is true when a secret rule rewrote the record.
	Redacted bool `json:"redacted,omitempty" yaml:"redacted,omitempty"`
	// Risks names the destructive rules the command matched.
	Risks []string `json:"risks,omitempty" yaml:"risks,omitempty"`
}

// Corpus is the merged result of a build.
type Corpus struct {
	Records   []Record     `json:"records" yaml:"records"`
	Files     int          `json:"files" yaml:"files"`
	Errors    []*FileError `json:"-" yaml:"-"`
	Orphans   int          `json:"orphans" yaml:"orphans"`
	Unmatched int          `json:"unmatched" yaml:"unmatched"`
}

// Commands returns the command text of every record, in order.
func (c *Corpus) Commands() []string {
	out := make([]string, len(c.Records))
	for i, r := range c.Records {
		out[i] = r.Command
	}
	return out
}

// Len returns the number of records.
func (c *Corpus) Len() int {
	return len(c.Records)
}

type fileResult struct {
	records   []Record
	errs      []*FileError
	orphans   int
	unmatched int
}

// Build extracts commands from every path. Unreadable files and malformed
// lines are collected in Corpus.Errors and do not stop the build unless
// opts.Strict is set. The returned Corpus holds whatever completed, even
// when the error is non-nil.
func Build(ctx context.Context, paths []string, opts Options) (*Corpus, error) {
	limit := opts.Concurrency
	if limit <= 0 {
		limit = runtime.GOMAXPROCS(0)
	}
	logger := clog.Or(opts.Logger)

	results := make([]fileResult, len(paths))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for i, path := range paths {
		g.Go(func() error {
			res, err := extractFile(gctx, path, opts, logger)
			results[i] = res
			if err != nil {
				return err
			}
			if opts.Strict && len(res.errs) > 0 {
				return res.errs[0]
			}
			return nil
		})
	}
	err := g.Wait()

	c := &Corpus{Files: len(paths)}
	for _, res := range results {
		c.Records = append(c.Records, res.records...)
		c.Errors = append(c.Errors, res.errs...)
		c.Orphans += res.orphans
		c.Unmatched += res.unmatched
	}
	if err == nil {
		err = ctx.Err()
	}
	return c, err
}

// extractFile runs one pass. Only context errors are returned; everything
// else is reported through fileResult.errs.
func extractFile(ctx context.Context, path string, opts Options, logger *slog.Logger) (fileResult, error) {
	var res fileResult
	if err := ctx.Err(); err != nil {
		return res, err
	}

	f, err := os.Open(path) //nolint:gosec // G304: paths are chosen by the user
	if err != nil {
		clog.LogFileError(logger, path, err)
		res.errs = append(res.errs, &FileError{Path: path, Err: err})
		return res, nil
	}
	defer f.Close()

	x, err := session.Extract(ctx, f, session.Options{
		Tool:      opts.Tool,
		Malformed: opts.Malformed,
		Source:    path,
		Logger:    logger,
	})
	for _, pe := range x.ParseErrors {
		res.errs = append(res.errs, &FileError{Path: path, Line: pe.Line, Err: pe})
	}
	res.orphans = x.Orphans
	res.unmatched = x.Unmatched
	for _, cmd := range x.Commands {
		res.records = append(res.records, newRecord(cmd, path, opts.Redactor))
	}

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return res, err
		}
		var pe *session.ParseError
		if !errors.As(err, &pe) {
			clog.LogFileError(logger, path, err)
			res.errs = append(res.errs, &FileError{Path: path, Err: err})
		}
	}
	return res, nil
}

func newRecord(cmd session.ExtractedCommand, source string, r *sanitize.Redactor) Record {
	rec := Record{
		Source: source,
		Risks:  sanitize.Risks(cmd.Command),
	}
	if r != nil {
		var fired []string
		cmd.Command, fired = r.RedactReport(cmd.Command)
		rec.Redacted = len(fired) > 0
		if out, more := r.RedactReport(cmd.Output); len(more) > 0 {
			cmd.Output = out
			rec.Redacted = true
		}
		if desc, more := r.RedactReport(cmd.Description); len(more) > 0 {
			cmd.Description = desc
			rec.Redacted = true
		}
	}
	rec.ExtractedCommand = cmd
	return rec
}

// FromHistory turns shell history entries into a corpus. History carries no
// results, so every record is unanswered.
func FromHistory(source string, entries []history.Entry, r *sanitize.Redactor) *Corpus {
	c := &Corpus{Files: 1}
	for i, e := range entries {
		if strings.TrimSpace(e.Command) == "" {
			continue
		}
		cmd := session.ExtractedCommand{
			Command: e.Command,
			Seq:     i + 1,
			Success: true,
		}
		if !e.Timestamp.IsZero() {
			cmd.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
		}
		c.Records = append(c.Records, newRecord(cmd, source, r))
	}
	return c
}

// FromCommands wraps plain command lines, such as a file or stdin, as a
// corpus.
func FromCommands(source string, cmds []string, r *sanitize.Redactor) *Corpus {
	entries := make([]history.Entry, len(cmds))
	for i, c := range cmds {
		entries[i] = history.Entry{Command: c}
	}
	return FromHistory(source, entries, r)
}
