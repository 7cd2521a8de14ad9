// Package analysis scores, bands, and categorizes shell commands.
package analysis

import (
	"errors"
	"fmt"
	"strings"

	"github.com/runger/cmdcorpus/internal/cmdutil"
)

// BaseScore is the score of a command with no structural features.
const BaseScore = 1

// Score weights.
const (
	pipePoints         = 2
	redirectPoints     = 1
	andPoints          = 2
	orPoints           = 1
	semicolonPoints    = 1
	substitutionPoints = 2
	subshellPoints     = 1
	keywordPoints      = 3
	variablePoints     = 1
)

// Band thresholds: scores up to BeginnerMax are beginner, up to
// IntermediateMax intermediate, anything above advanced.
const (
	BeginnerMax     = 2
	IntermediateMax = 5
)

// Band is a difficulty tier derived from a complexity score.
type Band int

const (
	Beginner Band = iota
	Intermediate
	Advanced
)

// ErrUnknownBand is returned by ParseBand for an unrecognized name.
var ErrUnknownBand = errors.New("unknown complexity band")

var bandNames = [...]string{"beginner", "intermediate", "advanced"}

func (b Band) String() string {
	if b < Beginner || b > Advanced {
		return fmt.Sprintf("Band(%d)", int(b))
	}
	return bandNames[b]
}

// MarshalText encodes the band by name so histograms keyed by Band render
// readably in JSON and YAML.
func (b Band) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

// UnmarshalText parses a band name.
func (b *Band) UnmarshalText(text []byte) error {
	parsed, err := ParseBand(string(text))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}

// ParseBand parses a band name, ignoring case and surrounding whitespace.
func ParseBand(s string) (Band, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for i, n := range bandNames {
		if n == name {
			return Band(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBand, s)
}

// Bands returns every band in ascending order.
func Bands() []Band {
	return []Band{Beginner, Intermediate, Advanced}
}

// BandFor maps a score to its band. It depends only on the score, so stored
// scores can be re-banded without re-parsing the command.
func BandFor(score int) Band {
	switch {
	case score <= BeginnerMax:
		return Beginner
	case score <= IntermediateMax:
		return Intermediate
	default:
		return Advanced
	}
}

// Contribution is one term of a complexity score.
type Contribution struct {
	Reason string `json:"reason" yaml:"reason"`
	Points int    `json:"points" yaml:"points"`
}

// Score returns the complexity score of cmd.
func Score(cmd string) int {
	return ScoreStructure(cmdutil.Analyze(cmd))
}

// ScoreStructure scores an already analyzed command.
func ScoreStructure(s cmdutil.Structure) int {
	total := BaseScore
	for _, c := range ExplainStructure(s) {
		total += c.Points
	}
	return total
}

// Explain lists the score contributions for cmd in a fixed order. The base
// score is not included.
func Explain(cmd string) []Contribution {
	return ExplainStructure(cmdutil.Analyze(cmd))
}

// ExplainStructure lists the score contributions of an analyzed command.
// Each condition is evaluated independently, so a $( ) substitution earns the
// substitution, subshell, and variable terms together.
func ExplainStructure(s cmdutil.Structure) []Contribution {
	var out []Contribution
	add := func(reason string, points int) {
		if points > 0 {
			out = append(out, Contribution{Reason: reason, Points: points})
		}
	}

	add(fmt.Sprintf("%d pipe(s)", s.Pipes), s.Pipes*pipePoints)
	if s.Redirects.Stdout || s.Redirects.Append {
		add("stdout redirect", redirectPoints)
	}
	if s.Redirects.Stderr {
		add("stderr redirect", redirectPoints)
	}
	if s.Redirects.Stdin {
		add("stdin redirect", redirectPoints)
	}
	add(fmt.Sprintf("%d && operator(s)", s.AndOps), s.AndOps*andPoints)
	add(fmt.Sprintf("%d || operator(s)", s.OrOps), s.OrOps*orPoints)
	add(fmt.Sprintf("%d ; separator(s)", s.Semicolons), s.Semicolons*semicolonPoints)
	if s.CommandSubstitution {
		add("command substitution", substitutionPoints)
	}
	if s.Subshell {
		add("parenthesized group", subshellPoints)
	}
	if s.HasKeyword() {
		add("control flow ("+strings.Join(s.Keywords, ", ")+")", keywordPoints)
	}
	if s.Variables {
		add("variable expansion", variablePoints)
	}
	return out
}
