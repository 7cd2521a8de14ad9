package session

import (
	"regexp"
	"strconv"
)

// exitCodePattern recognises one way tools report an exit status in output.
type exitCodePattern struct {
	Name  string
	Regex *regexp.Regexp
}

// exitCodePatterns are tried in priority order; the first match wins.
var exitCodePatterns = []exitCodePattern{
	{
		// Matches: Exit code: 2, exit code 127
		Name:  "exit-code",
		Regex: regexp.MustCompile(`(?i)exit code[:\s]+(\d+)`),
	},
	{
		// Matches: process exited with 1
		Name:  "exited-with",
		Regex: regexp.MustCompile(`(?i)exited with[:\s]+(\d+)`),
	},
	{
		// Matches: return code: 3
		Name:  "return-code",
		Regex: regexp.MustCompile(`(?i)return code[:\s]+(\d+)`),
	},
	{
		// Matches: [exit code: 1]
		Name:  "bracketed",
		Regex: regexp.MustCompile(`(?i)\[exit code: (\d+)\]`),
	},
}

// ExitCode scrapes an exit status from command output. It returns nil when
// no pattern matches.
func ExitCode(output string) *int {
	code, _ := ExitCodeWithPattern(output)
	return code
}

// ExitCodeWithPattern is ExitCode that also reports which pattern matched.
func ExitCodeWithPattern(output string) (*int, string) {
	if output == "" {
		return nil, ""
	}
	for _, p := range exitCodePatterns {
		m := p.Regex.FindStringSubmatch(output)
		if len(m) < 2 {
			continue
		}
		n, err := strconv.Atoi(m[1])
		if err != nil {
			// overflow; try the next pattern
			continue
		}
		return &n, p.Name
	}
	return nil, ""
}
