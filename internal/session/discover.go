package session

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// LogExt is the extension of session log files.
const LogExt = ".jsonl"

// LogFile is a discovered session log.
type LogFile struct {
	Path    string    `json:"path" yaml:"path"`
	ModTime time.Time `json:"mod_time" yaml:"mod_time"`
	Size    int64     `json:"size" yaml:"size"`
}

// DefaultRoot returns the conventional session log directory,
// ~/.claude/projects, or "" if the home directory is unknown.
func DefaultRoot() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".claude", "projects")
}

// FindLogs walks root for *.jsonl files at any depth. When filter is set,
// only paths (relative to root) containing it, ignoring case, are kept.
// Results are sorted newest first. A missing root yields no logs.
func FindLogs(root, filter string) ([]LogFile, error) {
	if _, err := os.Stat(root); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("stat %s: %w", root, err)
	}

	filter = strings.ToLower(filter)
	var logs []LogFile
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// unreadable subdirectory; keep walking the rest
			if d != nil && d.IsDir() && path != root {
				return fs.SkipDir
			}
			return err
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), LogExt) {
			return nil
		}
		if filter != "" {
			rel, relErr := filepath.Rel(root, path)
			if relErr != nil {
				rel = path
			}
			if !strings.Contains(strings.ToLower(rel), filter) {
				return nil
			}
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		logs = append(logs, LogFile{Path: path, ModTime: info.ModTime(), Size: info.Size()})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}

	sort.Slice(logs, func(i, j int) bool {
		if !logs[i].ModTime.Equal(logs[j].ModTime) {
			return logs[i].ModTime.After(logs[j].ModTime)
		}
		return logs[i].Path < logs[j].Path
	})
	return logs, nil
}

// Paths returns the paths of logs.
func Paths(logs []LogFile) []string {
	out := make([]string, len(logs))
	for i, l := range logs {
		out[i] = l.Path
	}
	return out
}
