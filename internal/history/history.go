// Package history reads shell history files as a source of commands for the
// corpus. Bash, zsh (plain and extended) and fish formats are supported.
package history

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// MaxEntries caps how many of the most recent entries a read returns.
const MaxEntries = 25000

// Format names a history file layout.
type Format string

const (
	FormatAuto Format = "auto"
	FormatBash Format = "bash"
	FormatZsh  Format = "zsh"
	FormatFish Format = "fish"
)

// Formats lists the concrete formats.
func Formats() []Format {
	return []Format{FormatBash, FormatZsh, FormatFish}
}

// ParseFormat parses a format name. The empty string means FormatAuto.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatBash, FormatZsh, FormatFish:
		return f, nil
	default:
		return "", fmt.Errorf("unknown history format %q (want auto, bash, zsh or fish)", s)
	}
}

// Entry is one history command. Timestamp is zero when the file did not
// record one.
type Entry struct {
	Command   string    `json:"command" yaml:"command"`
	Timestamp time.Time `json:"timestamp,omitzero" yaml:"timestamp,omitempty"`
}

// Commands returns the command text of each entry.
func Commands(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Command
	}
	return out
}

// Read parses r in the given format. FormatAuto is not accepted here; use
// ReadFile or Detect to resolve it.
func Read(r io.Reader, format Format) ([]Entry, error) {
	var p parser
	switch format {
	case FormatBash:
		p = &bashParser{}
	case FormatZsh:
		p = &zshParser{}
	case FormatFish:
		p = &fishParser{}
	default:
		return nil, fmt.Errorf("read history: unsupported format %q", format)
	}

	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)
	for scanner.Scan() {
		p.line(scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return trimToLimit(p.finish(), MaxEntries), nil
}

// ReadFile reads a history file. An empty path selects DefaultPath(format).
// FormatAuto is resolved from the path first, then the shell. A missing file
// yields no entries and no error.
func ReadFile(path string, format Format) ([]Entry, error) {
	if format == "" || format == FormatAuto {
		format = Detect(path)
		if format == FormatAuto {
			return nil, fmt.Errorf("cannot detect history format for %q", path)
		}
	}
	if path == "" {
		path = DefaultPath(format)
	}
	if path == "" {
		return nil, nil
	}

	f, err := os.Open(path) //nolint:gosec // G304: path is the user's history file
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open history: %w", err)
	}
	defer f.Close()
	return Read(f, format)
}

// Detect guesses the format from the file name, then from $SHELL. It returns
// FormatAuto when neither gives an answer.
func Detect(path string) Format {
	base := strings.ToLower(filepath.Base(path))
	switch {
	case path == "":
	case strings.Contains(base, "zsh"):
		return FormatZsh
	case strings.Contains(base, "fish"):
		return FormatFish
	case strings.Contains(base, "bash"):
		return FormatBash
	}
	switch filepath.Base(os.Getenv("SHELL")) {
	case "bash":
		return FormatBash
	case "zsh":
		return FormatZsh
	case "fish":
		return FormatFish
	}
	return FormatAuto
}

// DefaultPath returns the conventional history file for format. $HISTFILE
// wins for bash and zsh.
func DefaultPath(format Format) string {
	if format == FormatFish {
		if dataHome := os.Getenv("XDG_DATA_HOME"); dataHome != "" {
			return filepath.Join(dataHome, "fish", "fish_history")
		}
	} else if histFile := os.Getenv("HISTFILE"); histFile != "" {
		return histFile
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	switch format {
	case FormatBash:
		return filepath.Join(home, ".bash_history")
	case FormatZsh:
		return filepath.Join(home, ".zsh_history")
	case FormatFish:
		return filepath.Join(home, ".local", "share", "fish", "fish_history")
	}
	return ""
}

func trimToLimit(entries []Entry, n int) []Entry {
	if len(entries) <= n {
		return entries
	}
	return entries[len(entries)-n:]
}
