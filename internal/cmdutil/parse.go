package cmdutil

import (
	"strings"
)

// ElevationPrefix is the privilege-elevation token skipped when resolving the
// base command.
const ElevationPrefix = "sudo"

// Base describes the command word of a command line.
type Base struct {
	// Token is the effective base command used for categorization.
	Token string
	// Original is token 0 as written.
	Original string
	// Elevated is set when Original was the elevation prefix and Token was
	// taken from the following token.
	Elevated bool
}

// Tokenize splits a command into whitespace-delimited tokens.
// Quoted regions are kept inside their token together with the quote
// characters. A backslash-escaped quote inside a quoted region does not
// close it. Unterminated quotes run to the end of the string.
func Tokenize(cmd string) []string {
	var tokens []string
	var cur strings.Builder
	var quote byte

	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}

	for i := 0; i < len(cmd); i++ {
		c := cmd[i]

		if quote != 0 {
			if c == '\\' && i+1 < len(cmd) && cmd[i+1] == quote {
				cur.WriteByte(c)
				cur.WriteByte(cmd[i+1])
				i++
				continue
			}
			cur.WriteByte(c)
			if c == quote {
				quote = 0
			}
			continue
		}

		switch {
		case c == '\\' && i+1 < len(cmd):
			if cmd[i+1] == '\n' {
				// line continuation
				flush()
				i++
				continue
			}
			cur.WriteByte(c)
			cur.WriteByte(cmd[i+1])
			i++
		case c == '\'' || c == '"':
			quote = c
			cur.WriteByte(c)
		case isSpace(c):
			flush()
		default:
			cur.WriteByte(c)
		}
	}
	flush()

	return tokens
}

// BaseCommand returns the base command of cmd, skipping a leading sudo.
// An empty command yields a zero Base.
func BaseCommand(cmd string) Base {
	return BaseFromTokens(Tokenize(cmd))
}

// BaseFromTokens applies the sudo rule to an already tokenized command.
func BaseFromTokens(tokens []string) Base {
	if len(tokens) == 0 {
		return Base{}
	}
	b := Base{Token: tokens[0], Original: tokens[0]}
	if tokens[0] == ElevationPrefix && len(tokens) > 1 {
		b.Token = tokens[1]
		b.Elevated = true
	}
	return b
}

// CountWords returns the number of quote-aware tokens in a command.
func CountWords(cmd string) int {
	return len(Tokenize(cmd))
}

// Flags returns the tokens after token 0 that start with "-", in order.
func Flags(tokens []string) []string {
	var flags []string
	for i, tok := range tokens {
		if i == 0 {
			continue
		}
		if strings.HasPrefix(tok, "-") {
			flags = append(flags, tok)
		}
	}
	return flags
}

func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\v', '\f':
		return true
	}
	return false
}
