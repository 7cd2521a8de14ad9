package session

import (
	"fmt"
	"sort"
)

// PairKind classifies a pairing outcome.
type PairKind int

const (
	// Matched pairs an invocation with its result.
	Matched PairKind = iota
	// Orphan is a result with no pending invocation.
	Orphan
	// Unmatched is an invocation that never received a result.
	Unmatched
)

func (k PairKind) String() string {
	switch k {
	case Matched:
		return "matched"
	case Orphan:
		return "orphan"
	case Unmatched:
		return "unmatched"
	}
	return fmt.Sprintf("PairKind(%d)", int(k))
}

// Pair is one pairing outcome. Invocation is nil for orphans and Result is
// nil for unmatched invocations.
type Pair struct {
	Kind       PairKind
	Invocation *Event
	Result     *Event
}

// ToolUse returns the invocation payload, or nil.
func (p Pair) ToolUse() *ToolUse {
	if p.Invocation == nil {
		return nil
	}
	return p.Invocation.ToolUse
}

// ToolResult returns the result payload, or nil.
func (p Pair) ToolResult() *ToolResult {
	if p.Result == nil {
		return nil
	}
	return p.Result.ToolResult
}

type pendingUse struct {
	ev    Event
	order int
}

// Pairer matches results to invocations within one pass. It is not safe for
// concurrent use; give each pass its own Pairer.
type Pairer struct {
	pending map[string]pendingUse
	next    int
}

// NewPairer returns an empty Pairer.
func NewPairer() *Pairer {
	return &Pairer{pending: make(map[string]pendingUse)}
}

// Pending returns the number of invocations waiting for a result.
func (p *Pairer) Pending() int {
	return len(p.pending)
}

// Add feeds one event and returns the outcomes it settles.
//
// A result whose reference is pending is Matched and the invocation is
// released, so a second result for the same identifier is an Orphan. An
// invocation reusing a pending identifier supersedes it and the earlier one
// is reported Unmatched. Invocations without an identifier can never be
// answered and are Unmatched at once; results without a reference are
// Orphans. Text events settle nothing.
func (p *Pairer) Add(ev Event) []Pair {
	switch ev.Kind {
	case KindInvocation:
		if ev.ToolUse == nil {
			return nil
		}
		id := ev.ToolUse.ID
		if id == "" {
			return []Pair{{Kind: Unmatched, Invocation: &ev}}
		}
		var out []Pair
		if prev, ok := p.pending[id]; ok {
			prevEv := prev.ev
			out = append(out, Pair{Kind: Unmatched, Invocation: &prevEv})
		}
		p.pending[id] = pendingUse{ev: ev, order: p.next}
		p.next++
		return out

	case KindResult:
		if ev.ToolResult == nil {
			return nil
		}
		id := ev.ToolResult.ToolUseID
		use, ok := p.pending[id]
		if !ok || id == "" {
			return []Pair{{Kind: Orphan, Result: &ev}}
		}
		delete(p.pending, id)
		inv := use.ev
		return []Pair{{Kind: Matched, Invocation: &inv, Result: &ev}}
	}
	return nil
}

// Flush reports every pending invocation as Unmatched, in the order they
// were added, and resets the Pairer.
func (p *Pairer) Flush() []Pair {
	uses := make([]pendingUse, 0, len(p.pending))
	for _, u := range p.pending {
		uses = append(uses, u)
	}
	sort.Slice(uses, func(i, j int) bool { return uses[i].order < uses[j].order })

	out := make([]Pair, 0, len(uses))
	for i := range uses {
		ev := uses[i].ev
		out = append(out, Pair{Kind: Unmatched, Invocation: &ev})
	}
	p.pending = make(map[string]pendingUse)
	return out
}

// PairAll pairs a complete event sequence. Outcomes are reported in the
// order they settle, followed by the unmatched invocations.
func PairAll(events []Event) []Pair {
	p := NewPairer()
	var out []Pair
	for _, ev := range events {
		out = append(out, p.Add(ev)...)
	}
	return append(out, p.Flush()...)
}
