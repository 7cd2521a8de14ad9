package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/dedup"
	clog "github.com/runger/cmdcorpus/internal/log"
	"github.com/runger/cmdcorpus/internal/session"
	"github.com/runger/cmdcorpus/internal/stats"
)

// Environment overrides.
const (
	EnvSessionsRoot = "CMDCORPUS_SESSIONS_ROOT"
	EnvDatabase     = "CMDCORPUS_DB"
	EnvRedact       = "CMDCORPUS_REDACT"
)

// Config is the cmdcorpus configuration.
type Config struct {
	Log        LogConfig          `yaml:"log"`
	Sessions   SessionsConfig     `yaml:"sessions"`
	Dedup      DedupConfig        `yaml:"dedup"`
	Stats      StatsConfig        `yaml:"stats"`
	Knowledge  KnowledgeConfig    `yaml:"knowledge"`
	Storage    StorageConfig      `yaml:"storage"`
	Privacy    PrivacyConfig      `yaml:"privacy"`
	Categories []CategoryOverride `yaml:"categories,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error
}

// SessionsConfig controls session log discovery and extraction.
type SessionsConfig struct {
	Root        string `yaml:"root"`        // Log directory (empty = ~/.claude/projects)
	Tool        string `yaml:"tool"`        // Tool name whose invocations are commands
	Concurrency int    `yaml:"concurrency"` // Parallel passes (0 = GOMAXPROCS)
	Strict      bool   `yaml:"strict"`      // Fail on the first unreadable file or bad line
}

// DedupConfig selects the default deduplication policy.
type DedupConfig struct {
	Policy string `yaml:"policy"` // exact, normalized or pattern
}

// StatsConfig controls report output.
type StatsConfig struct {
	TopK   int    `yaml:"top_k"`  // Entries in frequency rankings
	Format string `yaml:"format"` // table, json or yaml
	// SplitCompound ranks the simple commands of compound commands
	// separately.
	SplitCompound bool `yaml:"split_compound"`
}

// KnowledgeConfig points at a replacement reference dataset.
type KnowledgeConfig struct {
	Path string `yaml:"path"` // Empty = embedded dataset
}

// StorageConfig locates the corpus database.
type StorageConfig struct {
	Path string `yaml:"path"` // Empty = <data dir>/corpus.db
}

// PrivacyConfig controls secret redaction.
type PrivacyConfig struct {
	Redact bool `yaml:"redact"` // Redact secrets before output and storage
}

// CategoryOverride replaces the command list of one category, or adds a new
// category.
type CategoryOverride struct {
	Name     string   `yaml:"name"`
	Commands []string `yaml:"commands"`
}

// Output formats.
const (
	FormatTable = "table"
	FormatJSON  = "json"
	FormatYAML  = "yaml"
)

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log:      LogConfig{Level: "warn"},
		Sessions: SessionsConfig{Tool: session.DefaultTool},
		Dedup:    DedupConfig{Policy: string(dedup.PolicyExact)},
		Stats:    StatsConfig{TopK: stats.DefaultTopK, Format: FormatTable, SplitCompound: true},
	}
}

// Load loads configuration from the default path.
func Load() (*Config, error) {
	return LoadFromFile(DefaultPaths().ConfigFile())
}

// LoadFromFile loads configuration from path. A missing file yields the
// defaults. Environment overrides are applied after the file.
func LoadFromFile(path string) (*Config, error) {
	cfg, err := LoadFileOnly(path)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFileOnly reads path over the defaults without environment overrides
// or validation. It is the starting point for editing the file.
func LoadFileOnly(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // G304: path is the user's config file
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the configuration to path, creating its directory.
func (c *Config) SaveToFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil { //nolint:gosec // G306: config is not secret
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv(clog.EnvDebug); v != "" {
		if b, err := strconv.ParseBool(v); err == nil && b {
			c.Log.Level = "debug"
		}
	}
	if v := os.Getenv(clog.EnvLogLevel); v != "" {
		if _, err := clog.ParseLevel(v); err == nil {
			c.Log.Level = v
		}
	}
	if v := os.Getenv(EnvSessionsRoot); v != "" {
		c.Sessions.Root = v
	}
	if v := os.Getenv(EnvDatabase); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv(EnvRedact); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Privacy.Redact = b
		}
	}
}

// Validate checks every setting. The category overrides must produce a
// table in which no command belongs to two categories.
func (c *Config) Validate() error {
	var errs []error
	if _, err := clog.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	if _, err := dedup.ParsePolicy(c.Dedup.Policy); err != nil {
		errs = append(errs, fmt.Errorf("dedup.policy: %w", err))
	}
	if c.Stats.TopK < 1 {
		errs = append(errs, fmt.Errorf("stats.top_k must be at least 1, got %d", c.Stats.TopK))
	}
	if !isValidFormat(c.Stats.Format) {
		errs = append(errs, fmt.Errorf("stats.format must be table, json or yaml, got %q", c.Stats.Format))
	}
	if c.Sessions.Concurrency < 0 {
		errs = append(errs, fmt.Errorf("sessions.concurrency must not be negative, got %d", c.Sessions.Concurrency))
	}
	if strings.TrimSpace(c.Sessions.Tool) == "" {
		errs = append(errs, errors.New("sessions.tool must not be empty"))
	}
	if _, err := c.Table(); err != nil {
		errs = append(errs, fmt.Errorf("categories: %w", err))
	}
	return errors.Join(errs...)
}

func isValidFormat(f string) bool {
	switch f {
	case FormatTable, FormatJSON, FormatYAML:
		return true
	default:
		return false
	}
}

// Table builds the category table: the defaults with each overridden
// category's command list replaced, and new categories appended in the
// order they are configured.
func (c *Config) Table() (*analysis.Table, error) {
	if len(c.Categories) == 0 {
		return analysis.DefaultTable(), nil
	}

	entries := analysis.DefaultEntries()
	index := make(map[analysis.Category]int, len(entries))
	for i, e := range entries {
		index[e.Category] = i
	}
	for _, o := range c.Categories {
		cat := analysis.Category(o.Name)
		if i, ok := index[cat]; ok {
			entries[i].Commands = o.Commands
			continue
		}
		index[cat] = len(entries)
		entries = append(entries, analysis.TableEntry{Category: cat, Commands: o.Commands})
	}
	return analysis.NewTable(entries)
}

// Analyzer returns an analyzer bound to Table.
func (c *Config) Analyzer() (*analysis.Analyzer, error) {
	t, err := c.Table()
	if err != nil {
		return nil, err
	}
	return analysis.NewAnalyzer(t), nil
}

// SessionsRoot returns the configured log directory or the default.
func (c *Config) SessionsRoot() string {
	if c.Sessions.Root != "" {
		return expandHome(c.Sessions.Root)
	}
	return session.DefaultRoot()
}

// DatabasePath returns the configured database path or the default.
func (c *Config) DatabasePath() string {
	if c.Storage.Path != "" {
		return expandHome(c.Storage.Path)
	}
	return DefaultPaths().DatabaseFile()
}

func expandHome(p string) string {
	if p == "~" || strings.HasPrefix(p, "~/") {
		return filepath.Join(homeDir(), strings.TrimPrefix(p, "~"))
	}
	return p
}

// ListKeys returns the keys accepted by Get and Set.
func ListKeys() []string {
	return []string{
		"log.level",
		"sessions.root",
		"sessions.tool",
		"sessions.concurrency",
		"sessions.strict",
		"dedup.policy",
		"stats.top_k",
		"stats.format",
		"stats.split_compound",
		"knowledge.path",
		"storage.path",
		"privacy.redact",
	}
}

// Get retrieves a value by dot-separated key, e.g. "stats.top_k".
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "log.level":
		return c.Log.Level, nil
	case "sessions.root":
		return c.Sessions.Root, nil
	case "sessions.tool":
		return c.Sessions.Tool, nil
	case "sessions.concurrency":
		return strconv.Itoa(c.Sessions.Concurrency), nil
	case "sessions.strict":
		return strconv.FormatBool(c.Sessions.Strict), nil
	case "dedup.policy":
		return c.Dedup.Policy, nil
	case "stats.top_k":
		return strconv.Itoa(c.Stats.TopK), nil
	case "stats.format":
		return c.Stats.Format, nil
	case "stats.split_compound":
		return strconv.FormatBool(c.Stats.SplitCompound), nil
	case "knowledge.path":
		return c.Knowledge.Path, nil
	case "storage.path":
		return c.Storage.Path, nil
	case "privacy.redact":
		return strconv.FormatBool(c.Privacy.Redact), nil
	}
	return "", unknownKey(key)
}

// Set assigns a value by dot-separated key. The value is checked the same
// way Validate checks it.
func (c *Config) Set(key, value string) error {
	switch key {
	case "log.level":
		if _, err := clog.ParseLevel(value); err != nil {
			return err
		}
		c.Log.Level = value
	case "sessions.root":
		c.Sessions.Root = value
	case "sessions.tool":
		if strings.TrimSpace(value) == "" {
			return errors.New("sessions.tool must not be empty")
		}
		c.Sessions.Tool = value
	case "sessions.concurrency":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return fmt.Errorf("invalid value for sessions.concurrency: %q", value)
		}
		c.Sessions.Concurrency = n
	case "sessions.strict":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for sessions.strict: %w", err)
		}
		c.Sessions.Strict = b
	case "dedup.policy":
		p, err := dedup.ParsePolicy(value)
		if err != nil {
			return err
		}
		c.Dedup.Policy = string(p)
	case "stats.top_k":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("invalid value for stats.top_k: %q", value)
		}
		c.Stats.TopK = n
	case "stats.format":
		if !isValidFormat(value) {
			return fmt.Errorf("invalid value for stats.format: %q", value)
		}
		c.Stats.Format = value
	case "stats.split_compound":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for stats.split_compound: %w", err)
		}
		c.Stats.SplitCompound = b
	case "knowledge.path":
		c.Knowledge.Path = value
	case "storage.path":
		c.Storage.Path = value
	case "privacy.redact":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("invalid value for privacy.redact: %w", err)
		}
		c.Privacy.Redact = b
	default:
		return unknownKey(key)
	}
	return nil
}

func unknownKey(key string) error {
	if !strings.Contains(key, ".") {
		return errors.New("key must be in format 'section.key'")
	}
	return fmt.Errorf("unknown key: %s", key)
}
