package cmdutil

import "strings"

// inlineInterpreters run a script passed on the command line with -c or -e.
var inlineInterpreters = map[string]bool{
	"python": true, "python3": true, "node": true,
	"bash": true, "sh": true, "ruby": true, "perl": true,
}

// inlineScriptMarkers introduce an inline script argument.
var inlineScriptMarkers = []string{
	` -c "`, ` -c '`, ` -c $`, ` -c` + "\n", ` -c` + "\r",
	` -e "`, ` -e '`, ` -e $`,
}

// SplitCommands splits a compound command into its simple commands on
// unquoted |, ||, && and ; operators. Segments are trimmed and empty ones
// dropped. Inline interpreter scripts (python -c "...") and commands with a
// here-document are returned whole, since their operators belong to the
// embedded text.
func SplitCommands(cmd string) []string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return nil
	}
	if isInlineScript(cmd) || Analyze(cmd).Heredoc.Delimiter != "" {
		return []string{cmd}
	}

	var out []string
	var cur strings.Builder
	var quote byte
	flush := func() {
		if seg := strings.TrimSpace(cur.String()); seg != "" {
			out = append(out, seg)
		}
		cur.Reset()
	}

	for i := 0; i < len(cmd); i++ {
		c := cmd[i]
		if quote != 0 {
			cur.WriteByte(c)
			switch {
			case c == '\\' && quote == '"' && i+1 < len(cmd):
				i++
				cur.WriteByte(cmd[i])
			case c == quote:
				quote = 0
			}
			continue
		}

		switch c {
		case '\\':
			cur.WriteByte(c)
			if i+1 < len(cmd) {
				i++
				cur.WriteByte(cmd[i])
			}
		case '\'', '"':
			quote = c
			cur.WriteByte(c)
		case '|':
			if i+1 < len(cmd) && (cmd[i+1] == '|' || cmd[i+1] == '&') {
				i++
			}
			flush()
		case '&':
			if i+1 < len(cmd) && cmd[i+1] == '&' {
				i++
				flush()
				continue
			}
			cur.WriteByte(c)
		case ';':
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()
	return out
}

// FirstCommand returns the first simple command of a compound command.
func FirstCommand(cmd string) string {
	if parts := SplitCommands(cmd); len(parts) > 0 {
		return parts[0]
	}
	return ""
}

func isInlineScript(cmd string) bool {
	base := BaseCommand(cmd).Original
	if !inlineInterpreters[base] {
		return false
	}
	for _, m := range inlineScriptMarkers {
		if strings.Contains(cmd, m) {
			return true
		}
	}
	return false
}
