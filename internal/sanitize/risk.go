package sanitize

import (
	"regexp"
	"strings"
)

// RiskLevel classifies what a command can do to the machine it runs on.
type RiskLevel string

const (
	RiskSafe        RiskLevel = "safe"
	RiskDestructive RiskLevel = "destructive"
)

type riskRule struct {
	Name  string
	Regex *regexp.Regexp
}

var destructiveRules = []riskRule{
	{Name: "rm -rf", Regex: regexp.MustCompile(`\brm\s+(-[a-zA-Z]*r[a-zA-Z]*f|-[a-zA-Z]*f[a-zA-Z]*r|--recursive\s+--force)\b`)},
	{Name: "rm -r", Regex: regexp.MustCompile(`\brm\s+-[a-zA-Z]*[rR]\b`)},
	{Name: "rm -f", Regex: regexp.MustCompile(`\brm\s+-[a-zA-Z]*f\b`)},
	{Name: "find -delete", Regex: regexp.MustCompile(`\bfind\b.*\s-delete\b`)},
	{Name: "shred", Regex: regexp.MustCompile(`\bshred\b`)},

	{Name: "drop table", Regex: regexp.MustCompile(`(?i)\bDROP\s+(TABLE|DATABASE|SCHEMA)\b`)},
	{Name: "truncate table", Regex: regexp.MustCompile(`(?i)\bTRUNCATE\s+TABLE\b`)},
	{Name: "delete from", Regex: regexp.MustCompile(`(?i)\bDELETE\s+FROM\b`)},

	{Name: "git push --force", Regex: regexp.MustCompile(`\bgit\s+push\b.*\s(-f|--force|--force-with-lease)\b`)},
	{Name: "git reset --hard", Regex: regexp.MustCompile(`\bgit\s+reset\s+--hard\b`)},
	{Name: "git clean", Regex: regexp.MustCompile(`\bgit\s+clean\s+-[a-zA-Z]*f`)},
	{Name: "git checkout .", Regex: regexp.MustCompile(`\bgit\s+(checkout|restore)\s+(--\s+)?\.(\s|$)`)},
	{Name: "git branch -D", Regex: regexp.MustCompile(`\bgit\s+branch\s+-D\b`)},

	{Name: "chmod 777", Regex: regexp.MustCompile(`\bchmod\s+(-R\s+)?777\b`)},
	{Name: "recursive chown", Regex: regexp.MustCompile(`\bch(own|mod)\s+-[a-zA-Z]*R\b`)},

	{Name: "write to block device", Regex: regexp.MustCompile(`(>\s*|\bof=)/dev/(sd|hd|nvme|vd|xvd|disk)[a-z0-9]*\b`)},
	{Name: "mkfs", Regex: regexp.MustCompile(`\bmkfs(\.[a-z0-9]+)?\b`)},
	{Name: "partition table", Regex: regexp.MustCompile(`\b(fdisk|parted|wipefs)\b`)},

	{Name: "shutdown", Regex: regexp.MustCompile(`\b(shutdown|reboot|halt|poweroff)\b`)},
	{Name: "kill -9", Regex: regexp.MustCompile(`\bkill\s+-(9|KILL)\b`)},
	{Name: "killall", Regex: regexp.MustCompile(`\b(killall|pkill)\b`)},

	{Name: "package removal", Regex: regexp.MustCompile(`\b(apt|apt-get|dnf|yum)\s+(remove|purge|autoremove)\b|\bbrew\s+uninstall\b|\bnpm\s+(uninstall|rm)\s+-g\b`)},

	{Name: "docker prune", Regex: regexp.MustCompile(`\bdocker\s+(system|volume|image|container)\s+prune\b`)},
	{Name: "docker rm -f", Regex: regexp.MustCompile(`\bdocker\s+(container\s+)?rm\s+-[a-zA-Z]*f\b`)},
	{Name: "kubectl delete", Regex: regexp.MustCompile(`\bkubectl\s+delete\b`)},
	{Name: "terraform destroy", Regex: regexp.MustCompile(`\bterraform\s+destroy\b`)},
}

// Risks returns the names of the destructive rules command matches, in rule
// order. It returns nil for a safe command.
func Risks(command string) []string {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return nil
	}
	var names []string
	for _, r := range destructiveRules {
		if r.Regex.MatchString(cmd) {
			names = append(names, r.Name)
		}
	}
	return names
}

// IsDestructive reports whether command matches any destructive rule.
func IsDestructive(command string) bool {
	cmd := strings.TrimSpace(command)
	if cmd == "" {
		return false
	}
	for _, r := range destructiveRules {
		if r.Regex.MatchString(cmd) {
			return true
		}
	}
	return false
}

// Level returns the risk level of command.
func Level(command string) RiskLevel {
	if IsDestructive(command) {
		return RiskDestructive
	}
	return RiskSafe
}

// RiskRuleNames lists every destructive rule name.
func RiskRuleNames() []string {
	names := make([]string, len(destructiveRules))
	for i, r := range destructiveRules {
		names[i] = r.Name
	}
	return names
}
