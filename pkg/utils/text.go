package utils

import (
	"fmt"
	"strings"
)

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// Snippet trims s and truncates it to n runes; used for diagnostic output of child processes.
func Snippet(s string, n int) string {
	return strings.TrimSpace(Truncate(strings.TrimSpace(s), n))
}

// Redacted describes a secret value without revealing it.
func Redacted(secret string) string {
	return fmt.Sprintf("<redacted len=%d>", len(secret))
}
