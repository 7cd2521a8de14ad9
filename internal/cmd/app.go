package cmd

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/runger/cmdcorpus/internal/analysis"
	"github.com/runger/cmdcorpus/internal/config"
	"github.com/runger/cmdcorpus/internal/corpus"
	"github.com/runger/cmdcorpus/internal/history"
	"github.com/runger/cmdcorpus/internal/knowledge"
	clog "github.com/runger/cmdcorpus/internal/log"
	"github.com/runger/cmdcorpus/internal/sanitize"
	"github.com/runger/cmdcorpus/internal/session"
	"github.com/runger/cmdcorpus/internal/storage"
)

// app carries the state shared by every subcommand once the root's
// PersistentPreRunE has run.
type app struct {
	configPath string
	format     string
	redact     bool

	cfg      *config.Config
	logger   *slog.Logger
	analyzer *analysis.Analyzer
}

func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.configPath != "" {
		a.cfg, err = config.LoadFromFile(a.configPath)
	} else {
		a.cfg, err = config.Load()
	}
	if err != nil {
		return err
	}
	if a.format != "" {
		if err := a.cfg.Set("stats.format", a.format); err != nil {
			return err
		}
	}
	if a.redact {
		a.cfg.Privacy.Redact = true
	}

	level, err := clog.ParseLevel(a.cfg.Log.Level)
	if err != nil {
		return err
	}
	logCfg := &clog.Config{Output: cmd.ErrOrStderr(), Level: level}
	clog.ApplyEnv(logCfg)
	a.logger = clog.New(logCfg)

	a.analyzer, err = a.cfg.Analyzer()
	return err
}

func (a *app) configFile() string {
	if a.configPath != "" {
		return a.configPath
	}
	return config.DefaultPaths().ConfigFile()
}

// redactor is nil when redaction is off.
func (a *app) redactor() *sanitize.Redactor {
	if !a.cfg.Privacy.Redact {
		return nil
	}
	return sanitize.NewRedactor()
}

func (a *app) knowledge() (*knowledge.Base, error) {
	if a.cfg.Knowledge.Path != "" {
		return knowledge.LoadFile(a.cfg.Knowledge.Path)
	}
	return knowledge.Default()
}

func (a *app) openStore() (*storage.Store, error) {
	s, err := storage.Open(a.cfg.DatabasePath())
	if err != nil {
		return nil, err
	}
	s.SetAnalyzer(a.analyzer)
	return s, nil
}

// render writes v as JSON or YAML, or calls table for the table format.
func (a *app) render(w io.Writer, v any, table func(io.Writer) error) error {
	switch a.cfg.Stats.Format {
	case config.FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case config.FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return table(w)
	}
}

// sourceFlags select where a command reads its corpus from. Session logs
// are the default: the positional arguments, or every log under the
// sessions root.
type sourceFlags struct {
	root        string
	project     string
	tool        string
	strict      bool
	concurrency int
	lines       string
	history     string
	historyFile string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.root, "root", "", "Session log directory (default from config)")
	f.StringVarP(&s.project, "project", "p", "", "Only logs whose path contains this text")
	f.StringVar(&s.tool, "tool", "", "Tool name whose invocations are commands (default from config)")
	f.BoolVar(&s.strict, "strict", false, "Fail on the first unreadable file or malformed line")
	f.IntVarP(&s.concurrency, "concurrency", "j", 0, "Parallel extraction passes (default from config)")
	f.StringVar(&s.lines, "lines", "", "Read one command per line from a file ('-' for stdin)")
	f.StringVar(&s.history, "history", "", "Read shell history instead: auto, bash, zsh or fish")
	f.StringVar(&s.historyFile, "history-file", "", "History file (default from $HISTFILE or the shell)")
	cmd.MarkFlagsMutuallyExclusive("lines", "history")
}

// kind classifies the source for storage.
func (s *sourceFlags) kind() string {
	switch {
	case s.history != "":
		return storage.KindHistory
	case s.lines != "":
		return storage.KindLines
	default:
		return storage.KindSessions
	}
}

// load builds the corpus the flags select. Per-file problems are logged and,
// outside strict mode, reported as a one-line warning on stderr.
func (a *app) load(cmd *cobra.Command, src *sourceFlags, args []string) (*corpus.Corpus, string, error) {
	switch {
	case src.lines != "":
		return a.loadLines(cmd, src.lines)
	case src.history != "":
		return a.loadHistory(src)
	}

	paths := args
	source := strings.Join(args, ", ")
	if len(paths) == 0 {
		root := src.root
		if root == "" {
			root = a.cfg.SessionsRoot()
		}
		logs, err := session.FindLogs(root, src.project)
		if err != nil {
			return nil, "", err
		}
		if len(logs) == 0 {
			return nil, "", fmt.Errorf("no session logs found under %s", root)
		}
		paths = session.Paths(logs)
		source = root
		if src.project != "" {
			source += " (" + src.project + ")"
		}
	}

	opts := corpus.Options{
		Concurrency: a.cfg.Sessions.Concurrency,
		Strict:      a.cfg.Sessions.Strict || src.strict,
		Tool:        a.cfg.Sessions.Tool,
		Redactor:    a.redactor(),
		Logger:      a.logger,
	}
	if src.tool != "" {
		opts.Tool = src.tool
	}
	if src.concurrency > 0 {
		opts.Concurrency = src.concurrency
	}
	if opts.Strict {
		opts.Malformed = session.AbortOnMalformed
	}

	c, err := corpus.Build(cmd.Context(), paths, opts)
	if err != nil {
		return nil, "", err
	}
	if n := len(c.Errors); n > 0 {
		fmt.Fprintln(cmd.ErrOrStderr(), styleWarn.Render(
			fmt.Sprintf("warning: %d problem(s) reading %d log(s); first: %v", n, c.Files, c.Errors[0])))
	}
	return c, source, nil
}

func (a *app) loadLines(cmd *cobra.Command, path string) (*corpus.Corpus, string, error) {
	var r io.Reader
	source := path
	if path == "-" {
		r = cmd.InOrStdin()
		source = "stdin"
	} else {
		f, err := os.Open(path) //nolint:gosec // G304: path is a CLI argument
		if err != nil {
			return nil, "", fmt.Errorf("failed to open command list: %w", err)
		}
		defer f.Close()
		r = f
	}

	var cmds []string
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		cmds = append(cmds, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, "", fmt.Errorf("failed to read command list: %w", err)
	}
	return corpus.FromCommands(source, cmds, a.redactor()), source, nil
}

func (a *app) loadHistory(src *sourceFlags) (*corpus.Corpus, string, error) {
	format, err := history.ParseFormat(src.history)
	if err != nil {
		return nil, "", err
	}
	if format == history.FormatAuto {
		format = history.Detect(src.historyFile)
		if format == history.FormatAuto {
			return nil, "", errors.New("cannot detect the history format; pass --history bash, zsh or fish")
		}
	}
	path := src.historyFile
	if path == "" {
		path = history.DefaultPath(format)
	}
	if path == "" {
		return nil, "", errors.New("cannot locate a history file; pass --history-file")
	}
	entries, err := history.ReadFile(path, format)
	if err != nil {
		return nil, "", err
	}
	return corpus.FromHistory(path, entries, a.redactor()), path, nil
}
