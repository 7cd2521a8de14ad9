// Package storage persists extracted command corpora in SQLite.
//
// Each import is one build (a set of session logs or a history file) with its
// commands. Analysis results are stored alongside the text so reports can be
// rebuilt without re-parsing.
package storage

import (
	"errors"
	"time"

	"github.com/runger/cmdcorpus/internal/analysis"
)

// ErrImportNotFound is returned when an import id does not exist.
var ErrImportNotFound = errors.New("import not found")

// Import kinds.
const (
	KindSessions = "sessions"
	KindHistory  = "history"
	KindLines    = "lines"
)

// Import is one stored build.
type Import struct {
	ID        string    `json:"id" yaml:"id"`
	Source    string    `json:"source" yaml:"source"`
	Kind      string    `json:"kind" yaml:"kind"`
	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	Commands  int       `json:"commands" yaml:"commands"`
}

// StoredCommand is one persisted command with its derived columns.
type StoredCommand struct {
	ID          int64             `json:"id" yaml:"id"`
	ImportID    string            `json:"import_id" yaml:"import_id"`
	Seq         int               `json:"seq" yaml:"seq"`
	Timestamp   string            `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Source      string            `json:"source,omitempty" yaml:"source,omitempty"`
	Command     string            `json:"command" yaml:"command"`
	Normalized  string            `json:"normalized" yaml:"normalized"`
	Hash        string            `json:"hash" yaml:"hash"`
	Description string            `json:"description,omitempty" yaml:"description,omitempty"`
	ToolUseID   string            `json:"tool_use_id,omitempty" yaml:"tool_use_id,omitempty"`
	ExitCode    *int              `json:"exit_code,omitempty" yaml:"exit_code,omitempty"`
	Success     bool              `json:"success" yaml:"success"`
	Answered    bool              `json:"answered" yaml:"answered"`
	Base        string            `json:"base" yaml:"base"`
	Category    analysis.Category `json:"category" yaml:"category"`
	Score       int               `json:"score" yaml:"score"`
	Pipes       int               `json:"pipes" yaml:"pipes"`
	Words       int               `json:"words" yaml:"words"`
	Sudo        bool              `json:"sudo" yaml:"sudo"`
	Redacted    bool              `json:"redacted,omitempty" yaml:"redacted,omitempty"`
	Risks       []string          `json:"risks,omitempty" yaml:"risks,omitempty"`
}

// Band re-derives the complexity band from the stored score.
func (c StoredCommand) Band() analysis.Band {
	return analysis.BandFor(c.Score)
}

// Query filters QueryCommands. Zero fields do not filter.
type Query struct {
	ImportID string
	Category analysis.Category
	Base     string
	MinScore int
	// Limit defaults to DefaultQueryLimit.
	Limit int
}

// DefaultQueryLimit bounds unfiltered queries.
const DefaultQueryLimit = 1000
