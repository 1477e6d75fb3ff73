package testutil

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TextDiff returns a line-oriented diff of want and got, or "" when they are
// identical.
func TextDiff(want, got string) string {
	if want == got {
		return ""
	}
	return cmp.Diff(strings.Split(want, "\n"), strings.Split(got, "\n"))
}

// AssertText fails the test with a line diff when got differs from want.
func AssertText(t *testing.T, want, got string) {
	t.Helper()

	if diff := TextDiff(want, got); diff != "" {
		t.Errorf("text mismatch (-want +got):\n%s", diff)
	}
}

// LineCount returns the number of lines in s as split on "\n", so a trailing
// newline counts as a final empty line.
func LineCount(s string) int {
	return strings.Count(s, "\n") + 1
}
