package history

import (
	"strconv"
	"strings"
	"time"
)

type parser interface {
	line(s string)
	finish() []Entry
}

// bashParser handles one command per line, with optional HISTTIMEFORMAT
// "#<unix>" lines before a command.
type bashParser struct {
	pending time.Time
	entries []Entry
}

func (p *bashParser) line(s string) {
	if s == "" {
		return
	}
	if strings.HasPrefix(s, "#") {
		if ts, ok := parseUnix(s[1:]); ok {
			p.pending = ts
			return
		}
	}
	p.entries = append(p.entries, Entry{Command: s, Timestamp: p.pending})
	p.pending = time.Time{}
}

func (p *bashParser) finish() []Entry { return p.entries }

// zshParser handles plain lines and the extended ": <ts>:<dur>;<cmd>" form.
// A trailing unescaped backslash continues the command on the next line.
type zshParser struct {
	multiline strings.Builder
	pending   time.Time
	entries   []Entry
}

func (p *zshParser) line(s string) {
	if p.multiline.Len() > 0 {
		p.add(s)
		return
	}
	if strings.HasPrefix(s, ": ") {
		if semi := strings.IndexByte(s, ';'); semi != -1 {
			meta := s[2:semi]
			if colon := strings.IndexByte(meta, ':'); colon != -1 {
				if ts, ok := parseUnix(meta[:colon]); ok {
					p.pending = ts
				}
			}
			s = s[semi+1:]
		}
	}
	p.add(s)
}

func (p *zshParser) add(s string) {
	if continues(s) {
		p.multiline.WriteString(s[:len(s)-1])
		p.multiline.WriteByte('\n')
		return
	}
	if p.multiline.Len() > 0 {
		p.multiline.WriteString(s)
		s = p.multiline.String()
		p.multiline.Reset()
	}
	if s != "" {
		p.entries = append(p.entries, Entry{Command: s, Timestamp: p.pending})
	}
	p.pending = time.Time{}
}

func (p *zshParser) finish() []Entry {
	if p.multiline.Len() > 0 {
		p.entries = append(p.entries, Entry{
			Command:   strings.TrimSuffix(p.multiline.String(), "\n"),
			Timestamp: p.pending,
		})
		p.multiline.Reset()
	}
	return p.entries
}

// continues reports whether s ends in a backslash that is not itself
// escaped.
func continues(s string) bool {
	n := 0
	for i := len(s) - 1; i >= 0 && s[i] == '\\'; i-- {
		n++
	}
	return n%2 == 1
}

// fishParser handles the pseudo-YAML fish_history layout:
//
//   - cmd: <command>
//     when: <unix>
//
// Path lists under an entry are ignored.
type fishParser struct {
	cmd     string
	when    time.Time
	entries []Entry
}

func (p *fishParser) line(s string) {
	switch {
	case strings.HasPrefix(s, "- cmd: "):
		p.flush()
		p.cmd = strings.TrimPrefix(s, "- cmd: ")
	case strings.HasPrefix(s, "  when: "):
		if ts, ok := parseUnix(strings.TrimPrefix(s, "  when: ")); ok {
			p.when = ts
		}
	}
}

func (p *fishParser) flush() {
	if p.cmd != "" {
		p.entries = append(p.entries, Entry{Command: unescapeFish(p.cmd), Timestamp: p.when})
	}
	p.cmd = ""
	p.when = time.Time{}
}

func (p *fishParser) finish() []Entry {
	p.flush()
	return p.entries
}

// unescapeFish decodes the two escapes fish writes: \\ and \n.
func unescapeFish(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			switch s[i+1] {
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			case 'n':
				b.WriteByte('\n')
				i++
				continue
			}
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func parseUnix(s string) (time.Time, bool) {
	ts, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.Unix(ts, 0), true
}
