package gate

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	// [ERROR] /src/main/java/org/x/Blog.java:[12,5] cannot find symbol
	mavenErrorRe = regexp.MustCompile(`^\[ERROR\]\s+(.*?):\[(\d+),(\d+)\]\s+(.+)$`)
	// src/main/java/org/x/Blog.java:12: error: ';' expected
	javacErrorRe = regexp.MustCompile(`^(.+?\.java):(\d+):\s+error:\s+(.+)$`)

	// Tests run: 12, Failures: 1, Errors: 0, Skipped: 2
	testSummaryRe = regexp.MustCompile(`Tests run:\s*(\d+),\s*Failures:\s*(\d+),\s*Errors:\s*(\d+)(?:,\s*Skipped:\s*(\d+))?`)
	// testSave(org.x.BlogTest)
	junit4FailureRe = regexp.MustCompile(`^\s*(?:\[ERROR\]\s+)?([A-Za-z_$][\w$]*)\(([A-Za-z_$][\w.$]*)\)`)
	// [ERROR]   BlogTest.testSave:42 expected:<1> but was:<2>
	surefireFailureRe = regexp.MustCompile(`^\[ERROR\]\s+([A-Za-z_$][\w$]*(?:\.[A-Za-z_$][\w$]*)*)\.([A-Za-z_$][\w$]*)(?::\d+)?(?:\s|$)`)
)

// parseBuildDiagnostics extracts compiler errors from build output. Maven and
// plain javac formats are recognised; other lines are ignored.
func parseBuildDiagnostics(output string) []Diagnostic {
	var diags []Diagnostic
	seen := make(map[Diagnostic]bool)

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		var d Diagnostic
		if m := mavenErrorRe.FindStringSubmatch(line); m != nil {
			d = Diagnostic{File: m[1], Line: atoi(m[2]), Column: atoi(m[3]), Message: strings.TrimSpace(m[4])}
		} else if m := javacErrorRe.FindStringSubmatch(line); m != nil {
			d = Diagnostic{File: m[1], Line: atoi(m[2]), Message: strings.TrimSpace(m[3])}
		} else {
			continue
		}
		if !seen[d] {
			seen[d] = true
			diags = append(diags, d)
		}
	}
	return diags
}

// parseTestReport extracts the aggregate summary and failing test names
// (Class.method) from test output. Surefire prints one summary per class
// followed by a total, so the last summary wins.
func parseTestReport(output string) (*TestSummary, []string) {
	var summary *TestSummary
	var failing []string
	seen := make(map[string]bool)

	add := func(class, method string) {
		name := class + "." + method
		if !seen[name] {
			seen[name] = true
			failing = append(failing, name)
		}
	}

	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimRight(line, "\r")

		if m := testSummaryRe.FindStringSubmatch(line); m != nil {
			summary = &TestSummary{Run: atoi(m[1]), Failures: atoi(m[2]), Errors: atoi(m[3]), Skipped: atoi(m[4])}
			continue
		}
		if m := junit4FailureRe.FindStringSubmatch(line); m != nil {
			add(m[2], m[1])
			continue
		}
		if m := surefireFailureRe.FindStringSubmatch(line); m != nil {
			add(m[1], m[2])
		}
	}
	return summary, failing
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// tail returns at most the last n lines of s.
func tail(s string, n int) string {
	s = strings.TrimRight(s, "\n")
	lines := strings.Split(s, "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}
