package analysis

import (
	"fmt"
	"sort"
	"strings"

	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// Category is a semantic label for a command.
type Category string

// Built-in categories.
const (
	Git               Category = "git"
	FileOperations    Category = "file_operations"
	TextProcessing    Category = "text_processing"
	System            Category = "system"
	Network           Category = "network"
	PackageManagement Category = "package_management"
	Docker            Category = "docker"
	Search            Category = "search"
	Archive           Category = "archive"
	Other             Category = "other"
)

// TableEntry assigns a set of base commands to one category.
type TableEntry struct {
	Category Category `yaml:"category" json:"category"`
	Commands []string `yaml:"commands" json:"commands"`
}

// Table is a validated, immutable category lookup. Entries are checked in
// insertion order and no base command belongs to more than one category.
type Table struct {
	order   []Category
	lookup  map[string]Category
	members map[Category][]string
}

// ConfigurationError reports base commands claimed by more than one category.
type ConfigurationError struct {
	// Duplicates maps each contested base command to the categories claiming
	// it, in table order.
	Duplicates map[string][]Category
	// Reason is set for structural problems other than duplicates.
	Reason string
}

func (e *ConfigurationError) Error() string {
	if len(e.Duplicates) == 0 {
		return "invalid category table: " + e.Reason
	}
	cmds := make([]string, 0, len(e.Duplicates))
	for cmd := range e.Duplicates {
		cmds = append(cmds, cmd)
	}
	sort.Strings(cmds)

	parts := make([]string, 0, len(cmds))
	for _, cmd := range cmds {
		cats := make([]string, 0, len(e.Duplicates[cmd]))
		for _, c := range e.Duplicates[cmd] {
			cats = append(cats, string(c))
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", cmd, strings.Join(cats, ", ")))
	}
	return "invalid category table: commands in more than one category: " + strings.Join(parts, "; ")
}

// NewTable validates entries and builds a table. Every duplicate base command
// is reported, not just the first. The fallback category may not be listed
// explicitly.
func NewTable(entries []TableEntry) (*Table, error) {
	t := &Table{lookup: make(map[string]Category), members: make(map[Category][]string)}
	owners := make(map[string][]Category)
	seen := make(map[Category]bool)

	for _, e := range entries {
		if e.Category == "" {
			return nil, &ConfigurationError{Reason: "empty category name"}
		}
		if e.Category == Other {
			return nil, &ConfigurationError{Reason: "category \"other\" is the fallback and cannot list commands"}
		}
		if seen[e.Category] {
			return nil, &ConfigurationError{Reason: fmt.Sprintf("category %q listed twice", e.Category)}
		}
		seen[e.Category] = true
		t.order = append(t.order, e.Category)

		for _, cmd := range e.Commands {
			if cmd == "" {
				continue
			}
			owners[cmd] = append(owners[cmd], e.Category)
			if _, taken := t.lookup[cmd]; !taken {
				t.lookup[cmd] = e.Category
				t.members[e.Category] = append(t.members[e.Category], cmd)
			}
		}
	}

	dups := make(map[string][]Category)
	for cmd, cats := range owners {
		if len(cats) > 1 {
			dups[cmd] = cats
		}
	}
	if len(dups) > 0 {
		return nil, &ConfigurationError{Duplicates: dups}
	}

	t.order = append(t.order, Other)
	return t, nil
}

// DefaultEntries returns a fresh copy of the built-in category table.
func DefaultEntries() []TableEntry {
	return []TableEntry{
		{Git, []string{"git"}},
		{FileOperations, []string{"ls", "cat", "cp", "mv", "rm", "mkdir", "touch", "chmod", "chown", "ln", "rmdir", "stat", "tree", "cd", "pwd"}},
		{TextProcessing, []string{"grep", "sed", "awk", "sort", "uniq", "wc", "head", "tail", "cut", "tr", "jq", "diff", "less", "rg"}},
		{System, []string{"ps", "top", "kill", "systemctl", "service", "df", "du", "free", "uname", "htop", "pkill", "journalctl", "lsof"}},
		{Network, []string{"curl", "wget", "ssh", "scp", "ping", "netstat", "nc", "dig", "rsync", "ss"}},
		{PackageManagement, []string{"apt", "apt-get", "yum", "dnf", "brew", "npm", "pip", "pip3", "yarn", "pnpm", "cargo"}},
		{Docker, []string{"docker", "docker-compose", "podman", "kubectl"}},
		{Search, []string{"find", "locate", "which", "whereis", "fd"}},
		{Archive, []string{"tar", "zip", "unzip", "gzip", "gunzip", "bzip2", "xz"}},
	}
}

var defaultTable = mustTable(DefaultEntries())

func mustTable(entries []TableEntry) *Table {
	t, err := NewTable(entries)
	if err != nil {
		panic(err)
	}
	return t
}

// DefaultTable returns the built-in table. It is validated at package init.
func DefaultTable() *Table {
	return defaultTable
}

// Categories returns the table's categories in lookup order, ending with the
// fallback.
func (t *Table) Categories() []Category {
	out := make([]Category, len(t.order))
	copy(out, t.order)
	return out
}

// Commands returns the base commands listed for cat in table order. The
// fallback category lists none.
func (t *Table) Commands(cat Category) []string {
	return append([]string(nil), t.members[cat]...)
}

// Lookup returns the category of a base command, or Other.
func (t *Table) Lookup(base string) Category {
	if c, ok := t.lookup[base]; ok {
		return c
	}
	return Other
}

// Categorize returns the category of cmd using its sudo-aware base command.
// It never fails: empty and unknown commands are Other.
func (t *Table) Categorize(cmd string) Category {
	return t.Lookup(cmdutil.BaseCommand(cmd).Token)
}

// Categorize classifies cmd with the default table.
func Categorize(cmd string) Category {
	return defaultTable.Categorize(cmd)
}
