package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"

	clog "github.com/runger/cmdcorpus/internal/log"
)

// DefaultTool is the tool name of shell invocations.
const DefaultTool = "Bash"

// MalformedPolicy says what Extract does with a malformed line.
type MalformedPolicy int

const (
	// SkipMalformed records the line and continues.
	SkipMalformed MalformedPolicy = iota
	// AbortOnMalformed stops the pass with the *ParseError.
	AbortOnMalformed
)

// Options configures Extract.
type Options struct {
	// Tool selects invocations by exact, case-sensitive name. Empty means
	// DefaultTool.
	Tool string
	// Malformed defaults to SkipMalformed.
	Malformed MalformedPolicy
	// Source names the stream in log records.
	Source string
	// Logger receives skipped lines and unpaired events. Nil discards.
	Logger *slog.Logger
}

// ExtractedCommand is one shell command recovered from a log.
type ExtractedCommand struct {
	Command     string `json:"command" yaml:"command"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Output      string `json:"output,omitempty" yaml:"output,omitempty"`
	Timestamp   string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	// Seq is the invocation's event sequence number.
	Seq       int    `json:"seq" yaml:"seq"`
	ToolUseID string `json:"tool_use_id" yaml:"tool_use_id"`
	IsError   bool   `json:"is_error" yaml:"is_error"`
	ExitCode  *int   `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	// Success is false if the result was flagged as an error or reported a
	// non-zero exit code.
	Success bool `json:"success" yaml:"success"`
	// Answered is false for invocations that never received a result.
	Answered bool `json:"answered" yaml:"answered"`
}

// Extraction is the outcome of one pass.
type Extraction struct {
	Commands    []ExtractedCommand
	ParseErrors []*ParseError
	Events      int
	Orphans     int
	Unmatched   int
}

// Extract reads r, pairs invocations with results, and returns the
// commands run by the selected tool in invocation order. Invocations with
// an empty command are dropped.
//
// The error is a *ParseError under AbortOnMalformed, or a read or context
// error. On error the partial Extraction is still returned.
func Extract(ctx context.Context, r io.Reader, opts Options) (*Extraction, error) {
	tool := opts.Tool
	if tool == "" {
		tool = DefaultTool
	}
	logger := clog.Or(opts.Logger)

	out := &Extraction{}
	rd := NewReader(r)
	pairer := NewPairer()

	collect := func(pairs []Pair) {
		for _, p := range pairs {
			out.collect(p, tool, opts.Source, logger)
		}
	}

	var runErr error
	for {
		ev, err := rd.Next(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			var pe *ParseError
			if errors.As(err, &pe) {
				out.ParseErrors = append(out.ParseErrors, pe)
				if opts.Malformed == AbortOnMalformed {
					runErr = err
					break
				}
				clog.LogParseError(logger, opts.Source, pe.Line, pe.Err)
				continue
			}
			runErr = err
			break
		}
		out.Events++
		collect(pairer.Add(ev))
	}
	collect(pairer.Flush())

	sort.SliceStable(out.Commands, func(i, j int) bool {
		return out.Commands[i].Seq < out.Commands[j].Seq
	})
	return out, runErr
}

func (x *Extraction) collect(p Pair, tool, source string, logger *slog.Logger) {
	switch p.Kind {
	case Orphan:
		x.Orphans++
		clog.LogOrphanResult(logger, source, p.ToolResult().ToolUseID, p.Result.Line)
		return
	case Unmatched:
		if p.ToolUse().Tool != tool {
			return
		}
		x.Unmatched++
		clog.LogUnmatchedInvocation(logger, source, p.ToolUse().ID, p.Invocation.Line)
	}

	use := p.ToolUse()
	if use.Tool != tool || strings.TrimSpace(use.Command) == "" {
		return
	}

	cmd := ExtractedCommand{
		Command:     use.Command,
		Description: use.Description,
		Timestamp:   p.Invocation.Timestamp,
		Seq:         p.Invocation.Seq,
		ToolUseID:   use.ID,
		Success:     true,
	}
	if res := p.ToolResult(); res != nil {
		cmd.Answered = true
		cmd.Output = res.Output
		cmd.IsError = res.IsError
		cmd.ExitCode = ExitCode(res.Output)
		cmd.Success = !res.IsError && (cmd.ExitCode == nil || *cmd.ExitCode == 0)
	}
	x.Commands = append(x.Commands, cmd)
}

// CommandStrings returns the raw command strings.
func (x *Extraction) CommandStrings() []string {
	out := make([]string, len(x.Commands))
	for i, c := range x.Commands {
		out[i] = c.Command
	}
	return out
}
