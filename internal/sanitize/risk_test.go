package sanitize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsDestructive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cmd  string
		want bool
	}{
		{"", false},
		{"ls -la", false},
		{"rm -rf /tmp/build", true},
		{"rm file.txt", false},
		{"find . -name '*.tmp' -delete", true},
		{"git push --force origin main", true},
		{"git push origin main", false},
		{"git reset --hard HEAD~1", true},
		{"git checkout .", true},
		{"git checkout ./cmd/main.go", false},
		{"git checkout main", false},
		{`psql -c "DROP TABLE users"`, true},
		{"echo hi > /dev/sda", true},
		{"echo hi > /dev/null", false},
		{"sudo shutdown -h now", true},
		{"docker system prune -a", true},
		{"docker ps", false},
		{"kubectl delete pod web-1", true},
		{"kubectl get pods", false},
		{"terraform destroy -auto-approve", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, IsDestructive(tt.cmd), "IsDestructive(%q)", tt.cmd)
		if tt.want {
			assert.Equal(t, RiskDestructive, Level(tt.cmd), tt.cmd)
			assert.NotEmpty(t, Risks(tt.cmd), tt.cmd)
		} else {
			assert.Equal(t, RiskSafe, Level(tt.cmd), tt.cmd)
			assert.Nil(t, Risks(tt.cmd), tt.cmd)
		}
	}
}

func TestRisks_NamesEveryMatch(t *testing.T) {
	t.Parallel()

	got := Risks("rm -rf build && git reset --hard")
	assert.Contains(t, got, "rm -rf")
	assert.Contains(t, got, "git reset --hard")
}

func TestRiskRuleNames(t *testing.T) {
	t.Parallel()

	names := RiskRuleNames()
	assert.Len(t, names, len(destructiveRules))
	seen := map[string]bool{}
	for _, n := range names {
		assert.False(t, seen[n], "duplicate rule name %q", n)
		seen[n] = true
	}
}
