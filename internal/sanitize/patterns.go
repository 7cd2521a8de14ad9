// Package sanitize redacts credentials from command lines before they are
// exported or stored, and flags commands that destroy data.
package sanitize

import "regexp"

// Rule is a compiled secret pattern and its replacement. Replacement may
// reference capture groups.
type Rule struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
}

// secretRules are applied in order. Values already replaced by an earlier
// rule start with '[' and are left alone by the assignment rule.
var secretRules = []Rule{
	{
		Name:        "pem-block",
		Regex:       regexp.MustCompile(`-----BEGIN [A-Z ]+-----[\s\S]+?-----END [A-Z ]+-----`),
		Replacement: "[PEM_BLOCK_REDACTED]",
	},
	{
		Name:        "aws-access-key",
		Regex:       regexp.MustCompile(`\b(?:AKIA|ASIA)[0-9A-Z]{16}\b`),
		Replacement: "[AWS_ACCESS_KEY_REDACTED]",
	},
	{
		Name:        "github-token",
		Regex:       regexp.MustCompile(`\bgh[pousr]_[A-Za-z0-9]{36,}\b`),
		Replacement: "[GITHUB_TOKEN_REDACTED]",
	},
	{
		Name:        "slack-token",
		Regex:       regexp.MustCompile(`\bxox[baprs]-[0-9A-Za-z-]+`),
		Replacement: "[SLACK_TOKEN_REDACTED]",
	},
	{
		Name:        "jwt",
		Regex:       regexp.MustCompile(`\beyJ[A-Za-z0-9_-]+\.eyJ[A-Za-z0-9_-]+\.[A-Za-z0-9_-]+`),
		Replacement: "[JWT_REDACTED]",
	},
	{
		Name:        "authorization-header",
		Regex:       regexp.MustCompile(`(?i)\b(bearer|basic|token)\s+[A-Za-z0-9+/=._-]{16,}`),
		Replacement: "$1 [REDACTED]",
	},
	{
		Name:        "url-credentials",
		Regex:       regexp.MustCompile(`\b([a-z][a-z0-9+.-]*://[^:/@\s'"]+):[^@/\s'"]+@`),
		Replacement: "$1:[REDACTED]@",
	},
	{
		Name:        "curl-user",
		Regex:       regexp.MustCompile(`(\s(?:-u|--user)\s+['"]?[^:\s'"]+):[^\s'"]+`),
		Replacement: "$1:[REDACTED]",
	},
	{
		Name:        "password-flag",
		Regex:       regexp.MustCompile(`(?i)(--(?:password|passwd|token|secret|api-key)[=\s]+)(?:'[^']*'|"[^"]*"|\S+)`),
		Replacement: "${1}[REDACTED]",
	},
	{
		Name:        "secret-assignment",
		Regex:       regexp.MustCompile(`(?i)\b([A-Z0-9_]*(?:password|passwd|token|secret|api_key|apikey|private_key)[A-Z0-9_]*)\s*[=:]\s*(?:'[^']*'|"[^"]*"|[^\s\[]\S*)`),
		Replacement: "$1=[REDACTED]",
	},
}

// Rules returns a copy of the built-in secret rules.
func Rules() []Rule {
	out := make([]Rule, len(secretRules))
	copy(out, secretRules)
	return out
}
