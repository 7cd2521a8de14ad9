package session

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	clog "github.com/runger/cmdcorpus/internal/log"
)

const sampleLog = `{"type":"user","timestamp":"2026-03-01T10:00:00Z","message":{"content":"list files"}}
{"type":"assistant","timestamp":"2026-03-01T10:00:01Z","message":{"content":[{"type":"text","text":"Listing"},{"type":"tool_use","id":"toolu_1","name":"Bash","input":{"command":"ls -la","description":"List files"}}]}}
{"type":"assistant","timestamp":"2026-03-01T10:00:02Z","message":{"content":[{"type":"tool_use","id":"toolu_2","name":"Read","input":{"file_path":"/etc/hosts"}}]}}
{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_1","content":"total 0"}]}}
{"type":"assistant","timestamp":"2026-03-01T10:00:03Z","message":{"content":[{"type":"tool_use","id":"toolu_3","name":"Bash","input":{"command":"make test"}}]}}
not json at all
{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_3","content":[{"type":"text","text":"FAIL"},{"type":"text","text":"exit code: 2"}],"is_error":false}]}}
{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_2","content":"127.0.0.1 localhost"}]}}
{"type":"user","message":{"content":[{"type":"tool_result","tool_use_id":"toolu_9","content":"lost"}]}}
{"type":"assistant","message":{"content":[{"type":"tool_use","id":"toolu_4","name":"Bash","input":{"command":"  "}}]}}
{"type":"assistant","message":{"content":[{"type":"tool_use","id":"toolu_5","name":"bash","input":{"command":"pwd"}}]}}
{"type":"assistant","message":{"content":[{"type":"tool_use","id":"toolu_6","name":"Bash","input":"git status"}]}}
`

func TestExtract(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := clog.New(&clog.Config{Output: &logBuf, Debug: true})

	x, err := Extract(context.Background(), strings.NewReader(sampleLog), Options{Source: "sample.jsonl", Logger: logger})
	require.NoError(t, err)

	require.Len(t, x.Commands, 3)
	assert.Equal(t, []string{"ls -la", "make test", "git status"}, x.CommandStrings())

	ls := x.Commands[0]
	assert.Equal(t, "List files", ls.Description)
	assert.Equal(t, "total 0", ls.Output)
	assert.Equal(t, "2026-03-01T10:00:01Z", ls.Timestamp)
	assert.Equal(t, "toolu_1", ls.ToolUseID)
	assert.True(t, ls.Success)
	assert.True(t, ls.Answered)
	assert.Nil(t, ls.ExitCode)

	mk := x.Commands[1]
	assert.Equal(t, "FAIL\nexit code: 2", mk.Output)
	require.NotNil(t, mk.ExitCode)
	assert.Equal(t, 2, *mk.ExitCode)
	assert.False(t, mk.IsError)
	assert.False(t, mk.Success)

	gs := x.Commands[2]
	assert.False(t, gs.Answered)
	assert.True(t, gs.Success)
	assert.Empty(t, gs.Output)

	require.Len(t, x.ParseErrors, 1)
	assert.Equal(t, 6, x.ParseErrors[0].Line)
	assert.Equal(t, 1, x.Orphans)
	// toolu_4 (blank command) and toolu_6 never got results
	assert.Equal(t, 2, x.Unmatched)

	assert.Contains(t, logBuf.String(), "malformed line skipped")
	assert.Contains(t, logBuf.String(), "orphan result")
}

func TestExtract_ToolFilterIsExact(t *testing.T) {
	t.Parallel()

	x, err := Extract(context.Background(), strings.NewReader(sampleLog), Options{Tool: "bash"})
	require.NoError(t, err)
	assert.Equal(t, []string{"pwd"}, x.CommandStrings())

	x, err = Extract(context.Background(), strings.NewReader(sampleLog), Options{Tool: "Read"})
	require.NoError(t, err)
	require.Len(t, x.Commands, 0, "Read inputs carry no command")
}

func TestExtract_AbortOnMalformed(t *testing.T) {
	t.Parallel()

	x, err := Extract(context.Background(), strings.NewReader(sampleLog), Options{Malformed: AbortOnMalformed})
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 6, pe.Line)

	// commands seen before the bad line are still reported
	require.NotNil(t, x)
	assert.Contains(t, x.CommandStrings(), "ls -la")
}

func TestExtract_ErrorFlag(t *testing.T) {
	t.Parallel()

	log := `{"type":"tool_use","id":"a","name":"Bash","input":{"command":"false"}}
{"type":"tool_result","tool_use_id":"a","content":"","is_error":true}
`
	x, err := Extract(context.Background(), strings.NewReader(log), Options{})
	require.NoError(t, err)
	require.Len(t, x.Commands, 1)
	assert.True(t, x.Commands[0].IsError)
	assert.False(t, x.Commands[0].Success)
}

func TestExtract_Empty(t *testing.T) {
	t.Parallel()

	x, err := Extract(context.Background(), strings.NewReader("\n\n"), Options{})
	require.NoError(t, err)
	assert.Empty(t, x.Commands)
	assert.Zero(t, x.Events)
}

func TestExitCode(t *testing.T) {
	t.Parallel()

	tests := []struct {
		output  string
		want    *int
		pattern string
	}{
		{"", nil, ""},
		{"all good", nil, ""},
		{"Exit code: 1", intPtr(1), "exit-code"},
		{"EXIT CODE 127", intPtr(127), "exit-code"},
		{"process exited with 3", intPtr(3), "exited-with"},
		{"Return code: 0", intPtr(0), "return-code"},
		{"[exit code: 4]", intPtr(4), "exit-code"},
		{"exit code: 99999999999999999999999", nil, ""},
	}

	for _, tt := range tests {
		got, name := ExitCodeWithPattern(tt.output)
		assert.Equal(t, tt.want, got, tt.output)
		assert.Equal(t, tt.pattern, name, tt.output)
	}
}

func intPtr(n int) *int { return &n }

func TestFindLogs(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	files := map[string]time.Duration{
		"proj-alpha/one.jsonl":          3 * time.Hour,
		"proj-alpha/sessions/two.jsonl": 1 * time.Hour,
		"proj-beta/three.jsonl":         2 * time.Hour,
		"proj-beta/notes.txt":           0,
	}
	now := time.Now()
	for rel, age := range files {
		path := filepath.Join(root, rel)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
		require.NoError(t, os.Chtimes(path, now.Add(-age), now.Add(-age)))
	}

	logs, err := FindLogs(root, "")
	require.NoError(t, err)
	require.Len(t, logs, 3)
	assert.Equal(t, filepath.Join(root, "proj-alpha/sessions/two.jsonl"), logs[0].Path)
	assert.Equal(t, filepath.Join(root, "proj-beta/three.jsonl"), logs[1].Path)
	assert.Equal(t, filepath.Join(root, "proj-alpha/one.jsonl"), logs[2].Path)
	assert.EqualValues(t, 3, logs[0].Size)

	logs, err = FindLogs(root, "ALPHA")
	require.NoError(t, err)
	assert.Len(t, Paths(logs), 2)

	logs, err = FindLogs(filepath.Join(root, "missing"), "")
	require.NoError(t, err)
	assert.Empty(t, logs)
}
