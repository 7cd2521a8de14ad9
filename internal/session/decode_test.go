package session

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodeLine_Shapes(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		line  string
		kinds []Kind
	}{
		{"bare tool_use", `{"type":"tool_use","id":"toolu_1","name":"Bash","input":{"command":"ls"}}`, []Kind{KindInvocation}},
		{"bare tool_result", `{"type":"tool_result","tool_use_id":"toolu_1","content":"ok"}`, []Kind{KindResult}},
		{"bare text", `{"type":"text","text":"hello"}`, []Kind{KindText}},
		{"content envelope", `{"content":[{"type":"text","text":"hi"},{"type":"tool_use","id":"a","name":"Bash","input":{"command":"pwd"}}]}`, []Kind{KindText, KindInvocation}},
		{"message envelope", `{"type":"assistant","message":{"role":"assistant","content":[{"type":"tool_use","id":"a","name":"Bash","input":{"command":"pwd"}}]}}`, []Kind{KindInvocation}},
		{"messages envelope", `{"messages":[{"content":[{"type":"tool_result","tool_use_id":"a","content":"x"}]},{"content":"plain"}]}`, []Kind{KindResult}},
		{"string content", `{"type":"user","message":{"content":"just text"}}`, nil},
		{"unknown block type", `{"content":[{"type":"image"},"loose string",42]}`, nil},
		{"json array", `[1,2,3]`, nil},
		{"json scalar", `"hello"`, nil},
		{"json null", `null`, nil},
		{"empty object", `{}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			events, err := DecodeLine([]byte(tt.line))
			require.NoError(t, err)
			var kinds []Kind
			for _, ev := range events {
				kinds = append(kinds, ev.Kind)
			}
			assert.Equal(t, tt.kinds, kinds)
		})
	}
}

func TestDecodeLine_Invalid(t *testing.T) {
	t.Parallel()

	for _, line := range []string{`{"type":`, `not json`, `{"a":1}}`} {
		_, err := DecodeLine([]byte(line))
		assert.Error(t, err, line)
	}
}

func TestDecodeLine_ToolUseInput(t *testing.T) {
	t.Parallel()

	events, err := DecodeLine([]byte(`{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"git status","description":"Show status"}}`))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, &ToolUse{ID: "t1", Tool: "Bash", Command: "git status", Description: "Show status"}, events[0].ToolUse)

	events, err = DecodeLine([]byte(`{"type":"tool_use","id":"t2","name":"Bash","input":"echo raw"}`))
	require.NoError(t, err)
	assert.Equal(t, "echo raw", events[0].ToolUse.Command)

	events, err = DecodeLine([]byte(`{"type":"tool_use","id":"t3","name":"Bash","input":{"command":7}}`))
	require.NoError(t, err)
	assert.Equal(t, "", events[0].ToolUse.Command, "non-string command defaults to empty")

	events, err = DecodeLine([]byte(`{"type":"tool_use","name":"Read"}`))
	require.NoError(t, err)
	assert.Equal(t, &ToolUse{Tool: "Read"}, events[0].ToolUse)
}

func TestDecodeLine_ResultContent(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		line    string
		output  string
		isError bool
	}{
		{"string", `{"type":"tool_result","tool_use_id":"a","content":"done"}`, "done", false},
		{"text blocks", `{"type":"tool_result","tool_use_id":"a","content":[{"type":"text","text":"one"},{"type":"image"},"two"]}`, "one\ntwo", false},
		{"error flag", `{"type":"tool_result","tool_use_id":"a","content":"boom","is_error":true}`, "boom", true},
		{"missing content", `{"type":"tool_result","tool_use_id":"a"}`, "", false},
		{"non-bool error flag", `{"type":"tool_result","tool_use_id":"a","is_error":"yes"}`, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			events, err := DecodeLine([]byte(tt.line))
			require.NoError(t, err)
			require.Len(t, events, 1)
			res := events[0].ToolResult
			require.NotNil(t, res)
			assert.Equal(t, "a", res.ToolUseID)
			assert.Equal(t, tt.output, res.Output)
			assert.Equal(t, tt.isError, res.IsError)
		})
	}
}

func TestDecodeLine_Timestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		line string
		want string
	}{
		{`{"timestamp":"2026-01-02T03:04:05Z","content":[{"type":"text","text":"x"}]}`, "2026-01-02T03:04:05Z"},
		{`{"created_at":"yesterday","time":"ignored","content":[{"type":"text","text":"x"}]}`, "yesterday"},
		{`{"ts":1700000000,"content":[{"type":"text","text":"x"}]}`, "1700000000"},
		{`{"message":{"time":"inner","content":[{"type":"text","text":"x"}]}}`, "inner"},
		{`{"content":[{"type":"text","text":"x"}]}`, ""},
	}

	for _, tt := range tests {
		events, err := DecodeLine([]byte(tt.line))
		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, tt.want, events[0].Timestamp, tt.line)
	}
}

func TestReader(t *testing.T) {
	t.Parallel()

	input := strings.Join([]string{
		`{"type":"tool_use","id":"a","name":"Bash","input":{"command":"ls"}}`,
		``,
		`   `,
		`{broken`,
		`{"content":[{"type":"text","text":"x"},{"type":"tool_result","tool_use_id":"a","content":"f"}]}`,
	}, "\n")

	rd := NewReader(strings.NewReader(input))
	ctx := context.Background()

	ev, err := rd.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindInvocation, ev.Kind)
	assert.Equal(t, 1, ev.Line)
	assert.Equal(t, 1, ev.Seq)

	_, err = rd.Next(ctx)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, 4, pe.Line)
	assert.Equal(t, "{broken", pe.Raw)
	assert.Contains(t, pe.Error(), "line 4")

	ev, err = rd.Next(ctx)
	require.NoError(t, err, "reader continues after a malformed line")
	assert.Equal(t, KindText, ev.Kind)
	assert.Equal(t, 5, ev.Line)
	assert.Equal(t, 2, ev.Seq)

	ev, err = rd.Next(ctx)
	require.NoError(t, err)
	assert.Equal(t, KindResult, ev.Kind)
	assert.Equal(t, 5, ev.Line)
	assert.Equal(t, 3, ev.Seq)

	_, err = rd.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
	_, err = rd.Next(ctx)
	assert.ErrorIs(t, err, io.EOF)
}

func TestReader_CRLFAndLongLines(t *testing.T) {
	t.Parallel()

	long := strings.Repeat("x", 3*readBufferSize)
	input := `{"type":"tool_result","tool_use_id":"a","content":"` + long + `"}` + "\r\n"

	events, parseErrs, err := ReadAll(context.Background(), strings.NewReader(input))
	require.NoError(t, err)
	assert.Empty(t, parseErrs)
	require.Len(t, events, 1)
	assert.Len(t, events[0].ToolResult.Output, len(long))
}

func TestReader_EmptyStream(t *testing.T) {
	t.Parallel()

	events, parseErrs, err := ReadAll(context.Background(), strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, events)
	assert.Empty(t, parseErrs)
}

func TestReader_Cancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewReader(strings.NewReader(`{"type":"text","text":"x"}`)).Next(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestReader_Deadline(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	_, _, err := ReadAll(ctx, strings.NewReader(`{"type":"text","text":"x"}`))
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestParseError_Unwrap(t *testing.T) {
	t.Parallel()

	inner := errors.New("bad")
	pe := &ParseError{Line: 2, Raw: strings.Repeat("y", 200), Err: inner}
	assert.ErrorIs(t, pe, inner)
	assert.Less(t, len(pe.Error()), 120)
}
