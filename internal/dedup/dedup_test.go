package dedup

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExact(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"b", "a", "c"}, Exact([]string{"b", "a", "c", "a", "b"}))
	assert.Equal(t, []string{"ls", "ls "}, Exact([]string{"ls", "ls ", "ls"}))
	assert.Empty(t, Exact(nil))
}

func TestNormalized(t *testing.T) {
	t.Parallel()

	got := Normalized([]string{"ls  -la", "ls -la", "LS -LA", "pwd"})
	assert.Len(t, got, 2)
	assert.Equal(t, []string{"ls  -la", "pwd"}, got, "first occurrence is kept verbatim")
}

func TestPattern(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   []string
		want []string
	}{
		{
			name: "arguments ignored",
			in:   []string{"git commit -m 'first'", "git commit -m 'second'", "git commit --amend"},
			want: []string{"git commit -m 'first'", "git commit --amend"},
		},
		{
			name: "flag order matters",
			in:   []string{"ls -l -a", "ls -a -l", "ls -l -a /tmp"},
			want: []string{"ls -l -a", "ls -a -l"},
		},
		{
			name: "sudo is transparent",
			in:   []string{"sudo apt install -y vim", "apt install -y git"},
			want: []string{"sudo apt install -y vim"},
		},
		{
			name: "different base",
			in:   []string{"cat a", "less a"},
			want: []string{"cat a", "less a"},
		},
		{
			name: "empty commands collapse",
			in:   []string{"", "   ", "ls"},
			want: []string{"", "ls"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, Pattern(tt.in))
		})
	}
}

func TestPatternKey(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "ls\x00-l\x00-a", PatternKey("ls -l /tmp -a"))
	assert.Equal(t, "apt\x00-y", PatternKey("sudo apt install -y vim"), "sudo and its base are not flags")
	assert.Equal(t, "sudo\x00-i", PatternKey("sudo -i"))
	assert.Equal(t, "git", PatternKey("git status"))
	assert.Empty(t, PatternKey("  "))
}

func TestDedup_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	in := []string{"b", "a", "b"}
	for _, p := range Policies() {
		_, err := Dedup(in, p)
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"b", "a", "b"}, in)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	p, err := ParsePolicy(" Normalized ")
	require.NoError(t, err)
	assert.Equal(t, PolicyNormalized, p)

	_, err = ParsePolicy("fuzzy")
	require.ErrorIs(t, err, ErrUnknownPolicy)

	_, err = Dedup([]string{"x"}, Policy("fuzzy"))
	require.ErrorIs(t, err, ErrUnknownPolicy)
}

func TestGroups(t *testing.T) {
	t.Parallel()

	groups := Groups([]string{"git status", "ls", "GIT  status", "git status"}, NormalizedKey)
	require.Len(t, groups, 2)

	assert.Equal(t, "git status", groups[0].Representative)
	assert.Equal(t, 3, groups[0].Count)
	assert.Equal(t, []string{"git status", "GIT  status"}, groups[0].Members)

	assert.Equal(t, Group{Representative: "ls", Count: 1, Members: []string{"ls"}}, groups[1])
	assert.Empty(t, Groups(nil, ExactKey))
}
