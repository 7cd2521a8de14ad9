package session

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
)

// Block types recognised in a content list.
const (
	blockText       = "text"
	blockToolUse    = "tool_use"
	blockToolResult = "tool_result"
)

var errInvalidJSON = errors.New("invalid JSON")

// Timestamp fields, in lookup order.
var (
	envelopeTimeKeys = []string{"timestamp", "created_at", "time", "ts", "datetime"}
	messageTimeKeys  = []string{"timestamp", "created_at", "time"}
)

type object = map[string]json.RawMessage

// DecodeLine decodes one non-empty log line into zero or more events.
// Line and Seq are left zero for the caller to assign.
//
// A line may be a bare content block, or an envelope holding blocks under
// "content", "message.content" or "messages[].content". Valid JSON of any
// other shape yields no events. Only invalid JSON is an error.
func DecodeLine(line []byte) ([]Event, error) {
	line = bytes.TrimSpace(line)
	if !json.Valid(line) {
		return nil, errInvalidJSON
	}

	var top object
	if err := json.Unmarshal(line, &top); err != nil {
		// valid JSON that is not an object
		return nil, nil
	}

	ts := timestamp(top)

	if _, ok := blockKind(top); ok {
		if ev, ok := decodeBlock(top, ts); ok {
			return []Event{ev}, nil
		}
		return nil, nil
	}

	var events []Event
	events = appendBlocks(events, top["content"], ts)
	if msg, ok := asObject(top["message"]); ok {
		events = appendBlocks(events, msg["content"], ts)
	}
	var msgs []json.RawMessage
	if err := json.Unmarshal(top["messages"], &msgs); err == nil {
		for _, raw := range msgs {
			if msg, ok := asObject(raw); ok {
				events = appendBlocks(events, msg["content"], ts)
			}
		}
	}
	return events, nil
}

func appendBlocks(events []Event, raw json.RawMessage, ts string) []Event {
	var blocks []json.RawMessage
	if err := json.Unmarshal(raw, &blocks); err != nil {
		// absent, or plain-text content
		return events
	}
	for _, b := range blocks {
		obj, ok := asObject(b)
		if !ok {
			continue
		}
		if ev, ok := decodeBlock(obj, ts); ok {
			events = append(events, ev)
		}
	}
	return events
}

func blockKind(obj object) (Kind, bool) {
	switch str(obj, "type") {
	case blockText:
		return KindText, true
	case blockToolUse:
		return KindInvocation, true
	case blockToolResult:
		return KindResult, true
	}
	return 0, false
}

func decodeBlock(obj object, ts string) (Event, bool) {
	kind, ok := blockKind(obj)
	if !ok {
		return Event{}, false
	}
	ev := Event{Kind: kind, Timestamp: ts}

	switch kind {
	case KindText:
		ev.Text = str(obj, "text")
	case KindInvocation:
		use := &ToolUse{ID: str(obj, "id"), Tool: str(obj, "name")}
		if in, ok := asObject(obj["input"]); ok {
			use.Command = str(in, "command")
			use.Description = str(in, "description")
		} else {
			use.Command = asString(obj["input"])
		}
		ev.ToolUse = use
	case KindResult:
		ev.ToolResult = &ToolResult{
			ToolUseID: str(obj, "tool_use_id"),
			Output:    resultText(obj["content"]),
			IsError:   asBool(obj["is_error"]),
		}
	}
	return ev, true
}

// resultText flattens result content: a string, or a list of text blocks
// and strings joined by newlines.
func resultText(raw json.RawMessage) string {
	if s := asString(raw); s != "" {
		return s
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return ""
	}
	parts := make([]string, 0, len(items))
	for _, item := range items {
		if obj, ok := asObject(item); ok {
			if str(obj, "type") == blockText {
				parts = append(parts, str(obj, "text"))
			}
			continue
		}
		var s string
		if err := json.Unmarshal(item, &s); err == nil {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, "\n")
}

func timestamp(top object) string {
	for _, k := range envelopeTimeKeys {
		if v, ok := top[k]; ok {
			return scalarText(v)
		}
	}
	if msg, ok := asObject(top["message"]); ok {
		for _, k := range messageTimeKeys {
			if v, ok := msg[k]; ok {
				return scalarText(v)
			}
		}
	}
	return ""
}

// scalarText renders a JSON string unquoted and any other value as its JSON
// text.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(bytes.TrimSpace(raw))
}

func asObject(raw json.RawMessage) (object, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var obj object
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, false
	}
	return obj, true
}

func asString(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func asBool(raw json.RawMessage) bool {
	var b bool
	if len(raw) == 0 || json.Unmarshal(raw, &b) != nil {
		return false
	}
	return b
}

// str reads a string field. Missing or non-string values are "".
func str(obj object, key string) string {
	return asString(obj[key])
}
