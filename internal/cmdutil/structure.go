package cmdutil

import (
	"strings"
)

// ControlKeywords are the control-flow words that mark a command as a script
// fragment rather than a single invocation.
var ControlKeywords = []string{"for", "while", "if", "case"}

// Operator is a shell operator tracked in per-command histograms.
type Operator string

const (
	OpPipe           Operator = "|"
	OpOr             Operator = "||"
	OpAnd            Operator = "&&"
	OpSemicolon      Operator = ";"
	OpRedirect       Operator = ">"
	OpAppend         Operator = ">>"
	OpStdin          Operator = "<"
	OpStderrToStdout Operator = "2>&1"
	OpStderrToNull   Operator = "2>/dev/null"
)

// Operators lists the histogram operators in display order.
func Operators() []Operator {
	return []Operator{
		OpPipe, OpOr, OpAnd, OpSemicolon,
		OpRedirect, OpAppend, OpStdin,
		OpStderrToStdout, OpStderrToNull,
	}
}

// Redirects holds independent redirect flags for a command.
type Redirects struct {
	Stdout   bool `json:"stdout" yaml:"stdout"`     // > not part of >>
	Append   bool `json:"append" yaml:"append"`     // >>
	Stderr   bool `json:"stderr" yaml:"stderr"`     // 2>
	Stdin    bool `json:"stdin" yaml:"stdin"`       // <
	Combined bool `json:"combined" yaml:"combined"` // 2>&1 or &>
}

// Any reports whether any redirect flag is set.
func (r Redirects) Any() bool {
	return r.Stdout || r.Append || r.Stderr || r.Stdin || r.Combined
}

// Heredoc describes the first here-document found in a command.
type Heredoc struct {
	Present   bool   `json:"present" yaml:"present"`
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
	StripTabs bool   `json:"strip_tabs,omitempty" yaml:"strip_tabs,omitempty"` // <<-
	Quoted    bool   `json:"quoted,omitempty" yaml:"quoted,omitempty"`         // expansion suppressed in the body
}

// Structure is the structural summary of a command line.
type Structure struct {
	Pipes               int       `json:"pipes" yaml:"pipes"`
	Stages              []string  `json:"stages" yaml:"stages"`
	Redirects           Redirects `json:"redirects" yaml:"redirects"`
	AndOps              int       `json:"and_ops" yaml:"and_ops"`
	OrOps               int       `json:"or_ops" yaml:"or_ops"`
	Semicolons          int       `json:"semicolons" yaml:"semicolons"`
	CommandSubstitution bool      `json:"command_substitution" yaml:"command_substitution"`
	ProcessSubstitution bool      `json:"process_substitution" yaml:"process_substitution"`
	Subshell            bool      `json:"subshell" yaml:"subshell"`
	Variables           bool      `json:"variables" yaml:"variables"`
	Keywords            []string  `json:"keywords,omitempty" yaml:"keywords,omitempty"`
	Heredoc             Heredoc   `json:"heredoc" yaml:"heredoc"`
	Multiline           bool      `json:"multiline" yaml:"multiline"`
	Lines               int       `json:"lines" yaml:"lines"`
	// Operators counts each occurrence of the histogram operators. A plain >
	// is only counted when it is not part of 2>, &>, >& or >>.
	Operators map[Operator]int `json:"operators,omitempty" yaml:"operators,omitempty"`
}

// HasKeyword reports whether any control-flow keyword was found.
func (s Structure) HasKeyword() bool {
	return len(s.Keywords) > 0
}

// OperatorCounts returns the histogram operator counts of cmd.
func OperatorCounts(cmd string) map[Operator]int {
	return Analyze(cmd).Operators
}

// PipelineStages splits a command on unquoted pipes.
func PipelineStages(cmd string) []string {
	return Analyze(cmd).Stages
}

// HasHeredoc reports whether cmd contains a << operator anywhere, quoted or
// not. Only unquoted operators open a body that is scanned.
func HasHeredoc(cmd string) bool {
	return Analyze(cmd).Heredoc.Present
}

// heredocSpec is a here-document whose body starts after the current line.
type heredocSpec struct {
	delim     string
	stripTabs bool
	quoted    bool
}

// scanner holds the state of one left-to-right pass over a command.
type scanner struct {
	cmd        string
	s          Structure
	quote      byte
	parenDepth int
	backtick   bool
	pipeAt     []int
	pending    []heredocSpec
	seenKw     map[string]bool
	// body is set while scanning a line of an unquoted here-document body.
	body bool
}

// Analyze computes the structure of a command in a single pass.
// Operators are only recognised outside quotes. Expansions ($, $( ) and
// backticks) are also recognised inside double quotes. Bodies of
// here-documents with an unquoted delimiter are scanned like command text,
// one line at a time with fresh quote state.
func Analyze(cmd string) Structure {
	sc := &scanner{cmd: cmd}
	sc.s.Heredoc.Present = strings.Contains(cmd, "<<")
	sc.scan(0, len(cmd))
	sc.finish()
	return sc.s
}

// scan walks cmd[start:end].
func (sc *scanner) scan(start, end int) {
	cmd := sc.cmd
	for i := start; i < end; i++ {
		c := cmd[i]

		switch sc.quote {
		case '\'':
			if c == '\\' && i+1 < len(cmd) && cmd[i+1] == '\'' {
				i++
			} else if c == '\'' {
				sc.quote = 0
			}
			continue
		case '"':
			switch c {
			case '\\':
				i++
			case '"':
				sc.quote = 0
			case '$', '`':
				sc.expansion(i)
			}
			continue
		}

		switch c {
		case '\\':
			i++
		case '\'', '"':
			sc.quote = c
		case '$', '`':
			sc.expansion(i)
		case '|':
			i = sc.pipe(i)
		case '&':
			i = sc.ampersand(i)
		case ';':
			sc.s.Semicolons++
			sc.count(OpSemicolon)
		case '>':
			i = sc.greater(i)
		case '<':
			i = sc.less(i)
		case '(':
			sc.parenDepth++
		case ')':
			if sc.parenDepth > 0 {
				sc.parenDepth--
				sc.s.Subshell = true
			}
		case '\n':
			if !sc.body && len(sc.pending) > 0 {
				i = sc.skipHeredocBodies(i + 1)
			}
		default:
			sc.keyword(i)
		}
	}
}

func (sc *scanner) count(op Operator) {
	if sc.s.Operators == nil {
		sc.s.Operators = make(map[Operator]int)
	}
	sc.s.Operators[op]++
}

func (sc *scanner) expansion(i int) {
	cmd := sc.cmd
	if cmd[i] == '`' {
		if sc.backtick {
			sc.s.CommandSubstitution = true
		}
		sc.backtick = !sc.backtick
		return
	}
	sc.s.Variables = true
	if i+1 < len(cmd) && cmd[i+1] == '(' && strings.IndexByte(cmd[i+2:], ')') >= 0 {
		sc.s.CommandSubstitution = true
	}
}

func (sc *scanner) pipe(i int) int {
	cmd := sc.cmd
	if i+1 < len(cmd) && cmd[i+1] == '|' {
		sc.s.OrOps++
		sc.count(OpOr)
		return i + 1
	}
	if i > 0 && cmd[i-1] == '|' {
		return i
	}
	sc.s.Pipes++
	sc.count(OpPipe)
	if !sc.body {
		sc.pipeAt = append(sc.pipeAt, i)
	}
	return i
}

func (sc *scanner) ampersand(i int) int {
	cmd := sc.cmd
	if i+1 < len(cmd) {
		switch cmd[i+1] {
		case '&':
			sc.s.AndOps++
			sc.count(OpAnd)
			return i + 1
		case '>':
			sc.s.Redirects.Combined = true
		}
	}
	return i
}

func (sc *scanner) greater(i int) int {
	cmd := sc.cmd
	r := &sc.s.Redirects
	fdTwo := i > 0 && cmd[i-1] == '2'
	if fdTwo {
		r.Stderr = true
	}
	if i+1 < len(cmd) && cmd[i+1] == '>' {
		r.Append = true
		sc.count(OpAppend)
		return i + 1
	}
	r.Stdout = true
	rest := cmd[i+1:]
	switch {
	case fdTwo && strings.HasPrefix(rest, "&1"):
		r.Combined = true
		sc.count(OpStderrToStdout)
	case fdTwo && strings.HasPrefix(rest, "/dev/null"):
		sc.count(OpStderrToNull)
	case strings.HasPrefix(rest, "("):
		sc.s.ProcessSubstitution = true
	case !fdTwo && !strings.HasPrefix(rest, "&") && (i == 0 || cmd[i-1] != '&'):
		sc.count(OpRedirect)
	}
	return i
}

func (sc *scanner) less(i int) int {
	cmd := sc.cmd
	sc.s.Redirects.Stdin = true
	if i+1 >= len(cmd) {
		sc.count(OpStdin)
		return i
	}
	switch cmd[i+1] {
	case '(':
		sc.s.ProcessSubstitution = true
		return i
	case '<':
		sc.s.Heredoc.Present = true
		if i+2 < len(cmd) && cmd[i+2] == '<' {
			// here-string
			return i + 2
		}
		if sc.body {
			return i + 1
		}
		spec := parseHeredocSpec(cmd[i+2:])
		if spec.delim != "" {
			sc.pending = append(sc.pending, spec)
			if sc.s.Heredoc.Delimiter == "" {
				sc.s.Heredoc.Delimiter = spec.delim
				sc.s.Heredoc.StripTabs = spec.stripTabs
				sc.s.Heredoc.Quoted = spec.quoted
			}
		}
		return i + 1
	}
	sc.count(OpStdin)
	return i
}

// keyword records a control-flow keyword starting at i.
func (sc *scanner) keyword(i int) {
	cmd := sc.cmd
	if i > 0 && isWordByte(cmd[i-1]) {
		return
	}
	for _, kw := range ControlKeywords {
		end := i + len(kw)
		if end >= len(cmd) || !strings.HasPrefix(cmd[i:], kw) || !isSpace(cmd[end]) {
			continue
		}
		if sc.seenKw == nil {
			sc.seenKw = make(map[string]bool)
		}
		if !sc.seenKw[kw] {
			sc.seenKw[kw] = true
			sc.s.Keywords = append(sc.s.Keywords, kw)
		}
		return
	}
}

// skipHeredocBodies consumes the bodies of pending here-documents starting
// at offset start. It returns the index of the last consumed byte.
func (sc *scanner) skipHeredocBodies(start int) int {
	cmd := sc.cmd
	pos := start
	for len(sc.pending) > 0 && pos < len(cmd) {
		spec := sc.pending[0]
		end := strings.IndexByte(cmd[pos:], '\n')
		var line string
		next := len(cmd)
		if end < 0 {
			line = cmd[pos:]
		} else {
			line = cmd[pos : pos+end]
			next = pos + end + 1
		}

		check := line
		if spec.stripTabs {
			check = strings.TrimLeft(check, "\t")
		}
		if strings.TrimRight(check, "\r") == spec.delim {
			sc.pending = sc.pending[1:]
		} else if !spec.quoted {
			sc.scanBodyLine(pos, pos+len(line))
		}
		pos = next
	}
	sc.pending = nil
	// step back so the caller sees the newline that ended the last body line
	return pos - 1
}

// scanBodyLine scans one line of an unquoted here-document body. Quotes in
// a body are literal text, so quote state never carries across lines.
func (sc *scanner) scanBodyLine(start, end int) {
	quote, backtick, depth := sc.quote, sc.backtick, sc.parenDepth
	sc.quote, sc.backtick, sc.body = 0, false, true
	sc.scan(start, end)
	sc.quote, sc.backtick, sc.parenDepth, sc.body = quote, backtick, depth, false
}

func (sc *scanner) finish() {
	cmd := sc.cmd
	trimmed := strings.TrimSpace(cmd)
	if trimmed == "" {
		return
	}

	sc.s.Multiline = strings.Contains(trimmed, "\n")
	sc.s.Lines = strings.Count(strings.ReplaceAll(trimmed, "\\\n", ""), "\n") + 1

	prev := 0
	for _, at := range sc.pipeAt {
		sc.addStage(cmd[prev:at])
		prev = at + 1
	}
	sc.addStage(cmd[prev:])
}

func (sc *scanner) addStage(seg string) {
	seg = strings.TrimSpace(seg)
	if seg != "" {
		sc.s.Stages = append(sc.s.Stages, seg)
	}
}

// parseHeredocSpec reads the delimiter that follows a << operator.
func parseHeredocSpec(rest string) heredocSpec {
	var spec heredocSpec
	j := 0
	if j < len(rest) && rest[j] == '-' {
		spec.stripTabs = true
		j++
	}
	for j < len(rest) && (rest[j] == ' ' || rest[j] == '\t') {
		j++
	}
	if j >= len(rest) {
		return spec
	}

	switch q := rest[j]; q {
	case '\'', '"':
		spec.quoted = true
		end := strings.IndexByte(rest[j+1:], q)
		if end < 0 {
			spec.delim = readWord(rest[j+1:])
		} else {
			spec.delim = rest[j+1 : j+1+end]
		}
	case '\\':
		spec.quoted = true
		spec.delim = readWord(rest[j+1:])
	default:
		spec.delim = readWord(rest[j:])
	}
	return spec
}

func readWord(s string) string {
	end := 0
	for end < len(s) && !isSpace(s[end]) && !strings.ContainsRune(";|&<>()'\"", rune(s[end])) {
		end++
	}
	return s[:end]
}

func isWordByte(c byte) bool {
	return c == '_' || c == '-' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}
