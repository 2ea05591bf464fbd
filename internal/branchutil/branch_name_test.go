package branchutil

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBranchName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		changeID string
		expected string
	}{
		{
			name:     "plain identifier passes through",
			changeID: "kxyzwvutsrqponml",
			expected: "revsync/kxyzwvutsrqponml",
		},
		{
			name:     "mixed case and digits preserved",
			changeID: "Change123",
			expected: "revsync/Change123",
		},
		{
			name:     "hyphen preserved",
			changeID: "a-b",
			expected: "revsync/a-b",
		},
		{
			name:     "underscore escaped as double underscore",
			changeID: "a_b",
			expected: "revsync/a__b",
		},
		{
			name:     "out-of-alphabet byte hex escaped",
			changeID: "a.b",
			expected: "revsync/a_2eb",
		},
		{
			name:     "slash escaped",
			changeID: "a/b",
			expected: "revsync/a_2fb",
		},
		{
			name:     "empty identifier yields bare prefix",
			changeID: "",
			expected: "revsync/",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.expected, BranchName("revsync/", tt.changeID))
		})
	}
}

func TestBranchNameAlphabet(t *testing.T) {
	t.Parallel()

	isValid := func(name string) bool {
		for _, c := range name {
			switch {
			case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9':
			case c == '/', c == '-', c == '_':
			default:
				return false
			}
		}
		return true
	}

	inputs := []string{
		"plain", "with space", "dots.and.more", "üñïçödé", "a\tb", "#123", "semi;colon",
	}
	for _, input := range inputs {
		require.True(t, isValid(BranchName("revsync/", input)), "branch name for %q contains invalid characters", input)
	}
}

func TestBranchNameInjectivity(t *testing.T) {
	t.Parallel()

	// Adversarial near-collisions: pairs whose naive sanitization would collide.
	adversarial := [][2]string{
		{"a_b", "a__b"},
		{"a_b", "a.b"},
		{"a.b", "a-b"},
		{"a.b", "a/b"},
		{"a b", "a.b"},
		{"a__b", "a_2eb"},
		{"trailing.", "trailing-"},
		{"", "_"},
	}
	for _, pair := range adversarial {
		left := BranchName("revsync/", pair[0])
		right := BranchName("revsync/", pair[1])
		require.NotEqual(t, left, right, "identifiers %q and %q collide", pair[0], pair[1])
	}

	// Property over a large random sample of identifiers drawn from a hostile
	// alphabet including the escape character and escape-lookalike sequences.
	rng := rand.New(rand.NewSource(42))
	alphabet := []byte("abcdef0123_-./ ")
	seen := make(map[string]string)
	for i := 0; i < 20000; i++ {
		var sb strings.Builder
		for n := rng.Intn(12); n >= 0; n-- {
			sb.WriteByte(alphabet[rng.Intn(len(alphabet))])
		}
		id := sb.String()
		name := BranchName("revsync/", id)
		if prev, ok := seen[name]; ok {
			require.Equal(t, prev, id, "identifiers %q and %q both map to %s", prev, id, name)
		}
		seen[name] = id
	}
}
