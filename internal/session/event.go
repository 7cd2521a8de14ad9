// Package session reads line-delimited JSON session logs, pairs tool
// invocations with their results, and extracts the shell commands that ran.
//
// Each pass owns its Reader and Pairer. Nothing in this package keeps state
// across passes, so independent logs can be processed in parallel.
package session

import (
	"fmt"
)

// Kind discriminates Event payloads.
type Kind int

const (
	KindText Kind = iota
	KindInvocation
	KindResult
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindInvocation:
		return "invocation"
	case KindResult:
		return "result"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Event is one typed record decoded from a log line. Exactly one payload
// matching Kind is set.
type Event struct {
	Kind Kind
	// Line is the 1-based line number the event was decoded from.
	Line int
	// Seq numbers events within one stream, starting at 1.
	Seq int
	// Timestamp is copied verbatim from the enclosing record, or "".
	Timestamp string

	Text       string
	ToolUse    *ToolUse
	ToolResult *ToolResult
}

// ToolUse is a request to run a tool.
type ToolUse struct {
	ID   string
	Tool string
	// Command and Description are read from the input payload. Missing
	// fields are "".
	Command     string
	Description string
}

// ToolResult answers a ToolUse.
type ToolResult struct {
	ToolUseID string
	Output    string
	IsError   bool
}

// ParseError reports a line that is not valid JSON.
type ParseError struct {
	// Line is the 1-based line number.
	Line int
	// Raw is the offending line without its terminator.
	Raw string
	Err error
}

func (e *ParseError) Error() string {
	raw := e.Raw
	if len(raw) > 80 {
		raw = raw[:77] + "..."
	}
	return fmt.Sprintf("line %d: %v: %q", e.Line, e.Err, raw)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}
