// Package dedup reduces command sequences to representative subsets.
//
// Every policy is a KeyFunc: two commands are equivalent when their keys are
// equal. Results keep the first occurrence of each key, in input order, and
// never modify the input slice.
package dedup

import (
	"errors"
	"fmt"
	"strings"

	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// KeyFunc maps a command to its equivalence key.
type KeyFunc func(cmd string) string

// Policy names an equivalence policy.
type Policy string

const (
	PolicyExact      Policy = "exact"
	PolicyNormalized Policy = "normalized"
	PolicyPattern    Policy = "pattern"
)

// ErrUnknownPolicy is returned for an unrecognized policy name.
var ErrUnknownPolicy = errors.New("unknown dedup policy")

// Policies lists the supported policies.
func Policies() []Policy {
	return []Policy{PolicyExact, PolicyNormalized, PolicyPattern}
}

// ParsePolicy parses a policy name, ignoring case.
func ParsePolicy(s string) (Policy, error) {
	p := Policy(strings.ToLower(strings.TrimSpace(s)))
	if _, err := p.Key(); err != nil {
		return "", fmt.Errorf("%w: %q (want exact, normalized or pattern)", ErrUnknownPolicy, s)
	}
	return p, nil
}

// Key returns the key function for the policy.
func (p Policy) Key() (KeyFunc, error) {
	switch p {
	case PolicyExact:
		return ExactKey, nil
	case PolicyNormalized:
		return NormalizedKey, nil
	case PolicyPattern:
		return PatternKey, nil
	}
	return nil, ErrUnknownPolicy
}

// ExactKey is the command itself.
func ExactKey(cmd string) string { return cmd }

// NormalizedKey collapses whitespace runs and folds case.
func NormalizedKey(cmd string) string { return cmdutil.FoldCommand(cmd) }

// PatternKey is the sudo-aware base command followed by the flag tokens in
// order. Plain arguments are ignored.
func PatternKey(cmd string) string {
	tokens := cmdutil.Tokenize(cmd)
	base := cmdutil.BaseFromTokens(tokens)
	if base.Token == "" {
		return ""
	}
	if base.Elevated {
		tokens = tokens[1:]
	}

	var b strings.Builder
	b.WriteString(base.Token)
	for _, flag := range cmdutil.Flags(tokens) {
		// NUL cannot appear in a token read from a text log, so keys stay
		// unambiguous.
		b.WriteByte(0)
		b.WriteString(flag)
	}
	return b.String()
}

// By returns the first occurrence of each key in cmds, preserving order.
func By(cmds []string, key KeyFunc) []string {
	seen := make(map[string]struct{}, len(cmds))
	out := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		k := key(cmd)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, cmd)
	}
	return out
}

// Dedup applies a named policy.
func Dedup(cmds []string, p Policy) ([]string, error) {
	key, err := p.Key()
	if err != nil {
		return nil, fmt.Errorf("%w: %q", err, p)
	}
	return By(cmds, key), nil
}

// Exact keeps the first of each byte-identical command.
func Exact(cmds []string) []string { return By(cmds, ExactKey) }

// Normalized keeps the first of each command differing only in spacing or
// case.
func Normalized(cmds []string) []string { return By(cmds, NormalizedKey) }

// Pattern keeps the first of each base command and flag combination.
func Pattern(cmds []string) []string { return By(cmds, PatternKey) }

// Group is a representative and the number of commands it stands for.
type Group struct {
	Representative string   `json:"representative" yaml:"representative"`
	Count          int      `json:"count" yaml:"count"`
	Members        []string `json:"members,omitempty" yaml:"members,omitempty"`
}

// Groups partitions cmds by key. Groups are ordered by first occurrence and
// Members lists the distinct variants seen, representative first.
func Groups(cmds []string, key KeyFunc) []Group {
	index := make(map[string]int)
	var groups []Group
	variants := make([]map[string]bool, 0)

	for _, cmd := range cmds {
		k := key(cmd)
		i, ok := index[k]
		if !ok {
			index[k] = len(groups)
			groups = append(groups, Group{Representative: cmd, Count: 1, Members: []string{cmd}})
			variants = append(variants, map[string]bool{cmd: true})
			continue
		}
		groups[i].Count++
		if !variants[i][cmd] {
			variants[i][cmd] = true
			groups[i].Members = append(groups[i].Members, cmd)
		}
	}
	return groups
}
