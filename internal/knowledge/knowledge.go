// Package knowledge holds the static command reference used to enrich
// analysed commands for reporting. A Base is loaded once and never mutated.
package knowledge

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultData []byte

// Entry is the reference metadata for one command.
type Entry struct {
	Description string            `yaml:"description" json:"description"`
	Difficulty  string            `yaml:"difficulty,omitempty" json:"difficulty,omitempty"`
	ManURL      string            `yaml:"man_url,omitempty" json:"man_url,omitempty"`
	Flags       map[string]string `yaml:"flags,omitempty" json:"flags,omitempty"`
	Examples    []string          `yaml:"examples,omitempty" json:"examples,omitempty"`
	Pitfalls    []string          `yaml:"pitfalls,omitempty" json:"pitfalls,omitempty"`
	Related     []string          `yaml:"related,omitempty" json:"related,omitempty"`
}

// Operator describes a shell operator.
type Operator struct {
	Symbol      string `yaml:"-" json:"symbol"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
}

type dataset struct {
	Commands  map[string]Entry    `yaml:"commands"`
	Operators map[string]Operator `yaml:"operators"`
}

// Base is a read-only command reference.
type Base struct {
	commands  map[string]Entry
	operators map[string]Operator
}

// Load parses a YAML dataset.
func Load(r io.Reader) (*Base, error) {
	var ds dataset
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&ds); err != nil {
		if errors.Is(err, io.EOF) {
			return &Base{commands: map[string]Entry{}, operators: map[string]Operator{}}, nil
		}
		return nil, fmt.Errorf("parse knowledge dataset: %w", err)
	}

	b := &Base{
		commands:  make(map[string]Entry, len(ds.Commands)),
		operators: make(map[string]Operator, len(ds.Operators)),
	}
	for name, e := range ds.Commands {
		if strings.TrimSpace(name) == "" {
			return nil, errors.New("parse knowledge dataset: empty command name")
		}
		b.commands[name] = e
	}
	for sym, op := range ds.Operators {
		op.Symbol = sym
		b.operators[sym] = op
	}
	return b, nil
}

// LoadFile parses a YAML dataset from path.
func LoadFile(path string) (*Base, error) {
	f, err := os.Open(path) //nolint:gosec // G304: path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("open knowledge dataset: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Default returns the embedded dataset.
func Default() (*Base, error) {
	return Load(bytes.NewReader(defaultData))
}

// Len returns the number of commands.
func (b *Base) Len() int {
	return len(b.commands)
}

// Lookup returns a copy of the entry for name. A miss is not an error.
func (b *Base) Lookup(name string) (Entry, bool) {
	e, ok := b.commands[name]
	if !ok {
		return Entry{}, false
	}
	return e.clone(), true
}

// Operator returns the operator with the given symbol.
func (b *Base) Operator(symbol string) (Operator, bool) {
	op, ok := b.operators[symbol]
	return op, ok
}

// Names returns every command name, sorted.
func (b *Base) Names() []string {
	names := make([]string, 0, len(b.commands))
	for n := range b.commands {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Search returns command names whose name or description contains query,
// ignoring case, sorted by name.
func (b *Base) Search(query string) []string {
	q := strings.ToLower(strings.TrimSpace(query))
	var out []string
	for _, name := range b.Names() {
		if q == "" ||
			strings.Contains(strings.ToLower(name), q) ||
			strings.Contains(strings.ToLower(b.commands[name].Description), q) {
			out = append(out, name)
		}
	}
	return out
}

// Stats summarises the dataset size.
type Stats struct {
	Commands  int `json:"commands" yaml:"commands"`
	Operators int `json:"operators" yaml:"operators"`
	Flags     int `json:"flags" yaml:"flags"`
	Examples  int `json:"examples" yaml:"examples"`
}

// Stats counts the dataset contents.
func (b *Base) Stats() Stats {
	s := Stats{Commands: len(b.commands), Operators: len(b.operators)}
	for _, e := range b.commands {
		s.Flags += len(e.Flags)
		s.Examples += len(e.Examples)
	}
	return s
}

func (e Entry) clone() Entry {
	c := e
	if e.Flags != nil {
		c.Flags = make(map[string]string, len(e.Flags))
		for k, v := range e.Flags {
			c.Flags[k] = v
		}
	}
	c.Examples = append([]string(nil), e.Examples...)
	c.Pitfalls = append([]string(nil), e.Pitfalls...)
	c.Related = append([]string(nil), e.Related...)
	return c
}
