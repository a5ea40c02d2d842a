package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 10))
	assert.Equal(t, "ab", Truncate("abc", 2))
	assert.Equal(t, "", Truncate("abc", 0))
	assert.Equal(t, "hé", Truncate("héllo", 2))
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "boom", Snippet("\n  boom \n", 500))
	assert.Len(t, Snippet(strings.Repeat("x", 900), 500), 500)
	assert.Equal(t, "", Snippet("   ", 500))
}

func TestRedacted_NeverContainsValue(t *testing.T) {
	out := Redacted("super-secret-token")
	assert.NotContains(t, out, "super-secret-token")
	assert.Equal(t, "<redacted len=18>", out)
}
