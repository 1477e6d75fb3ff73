package gate

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
)

func TestParseBuildDiagnostics(t *testing.T) {
	tests := []struct {
		name   string
		output string
		want   []Diagnostic
	}{
		{
			name: "maven",
			output: "[INFO] Compiling 3 source files\n" +
				"[ERROR] COMPILATION ERROR :\n" +
				"[ERROR] /w/src/main/java/a/Blog.java:[12,5] cannot find symbol\n" +
				"[ERROR] /w/src/main/java/a/Blog.java:[20,1] class, interface, or enum expected\r\n",
			want: []Diagnostic{
				{File: "/w/src/main/java/a/Blog.java", Line: 12, Column: 5, Message: "cannot find symbol"},
				{File: "/w/src/main/java/a/Blog.java", Line: 20, Column: 1, Message: "class, interface, or enum expected"},
			},
		},
		{
			name:   "javac",
			output: "src/a/Blog.java:7: error: ';' expected\n        int x = 1\n                 ^\n1 error\n",
			want:   []Diagnostic{{File: "src/a/Blog.java", Line: 7, Message: "';' expected"}},
		},
		{
			name:   "windows path",
			output: "[ERROR] C:\\w\\Blog.java:[3,9] incompatible types\n",
			want:   []Diagnostic{{File: "C:\\w\\Blog.java", Line: 3, Column: 9, Message: "incompatible types"}},
		},
		{
			name:   "duplicates collapse",
			output: "A.java:1: error: x\nA.java:1: error: x\n",
			want:   []Diagnostic{{File: "A.java", Line: 1, Message: "x"}},
		},
		{
			name:   "nothing recognised",
			output: "BUILD FAILURE\n[ERROR] Failed to execute goal\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if diff := cmp.Diff(tt.want, parseBuildDiagnostics(tt.output)); diff != "" {
				t.Errorf("parseBuildDiagnostics() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestParseTestReport(t *testing.T) {
	tests := []struct {
		name        string
		output      string
		wantSummary *TestSummary
		wantFailing []string
	}{
		{
			name: "surefire 2 per-class then total",
			output: "Running org.x.BlogTest\n" +
				"Tests run: 2, Failures: 1, Errors: 0, Skipped: 0, Time elapsed: 0.1 sec <<< FAILURE!\n" +
				"testSave(org.x.BlogTest)  Time elapsed: 0.01 sec  <<< FAILURE!\n" +
				"Results :\n" +
				"Failed tests:\n" +
				"  testSave(org.x.BlogTest): expected:<1> but was:<2>\n" +
				"Tests run: 5, Failures: 1, Errors: 0, Skipped: 1\n",
			wantSummary: &TestSummary{Run: 5, Failures: 1, Skipped: 1},
			wantFailing: []string{"org.x.BlogTest.testSave"},
		},
		{
			name: "surefire 3",
			output: "[ERROR] Tests run: 4, Failures: 1, Errors: 1, Skipped: 0\n" +
				"[ERROR] Failures: \n" +
				"[ERROR]   BlogTest.countsEntries:42 expected: <1> but was: <2>\n" +
				"[ERROR] Errors: \n" +
				"[ERROR]   BlogIT.startsServer:17 » NullPointer\n" +
				"[ERROR] org.x.BlogTest.countsEntries -- Time elapsed: 0.01 s <<< FAILURE!\n",
			wantSummary: &TestSummary{Run: 4, Failures: 1, Errors: 1},
			wantFailing: []string{"BlogTest.countsEntries", "BlogIT.startsServer", "org.x.BlogTest.countsEntries"},
		},
		{
			name:   "no summary",
			output: "[INFO] BUILD SUCCESS\n[ERROR] Failed to execute goal\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			summary, failing := parseTestReport(tt.output)
			assert.Equal(t, tt.wantSummary, summary)
			assert.Equal(t, tt.wantFailing, failing)
		})
	}
}

func TestParse_LinesAfterOversizedLine(t *testing.T) {
	long := strings.Repeat("x", 2<<20)

	diags := parseBuildDiagnostics(long + "\nsrc/a/Blog.java:7: error: ';' expected\n")
	assert.Equal(t, []Diagnostic{{File: "src/a/Blog.java", Line: 7, Message: "';' expected"}}, diags)

	summary, failing := parseTestReport(long + "\n[ERROR]   BlogTest.testSave:42 boom\nTests run: 3, Failures: 1, Errors: 0\n")
	assert.Equal(t, &TestSummary{Run: 3, Failures: 1}, summary)
	assert.Equal(t, []string{"BlogTest.testSave"}, failing)
}

func TestTail(t *testing.T) {
	assert.Equal(t, "c\nd", tail("a\nb\nc\nd\n", 2))
	assert.Equal(t, "a", tail("a", 5))
}

func TestDiagnosticString(t *testing.T) {
	assert.Equal(t, "A.java:3:4: boom", Diagnostic{File: "A.java", Line: 3, Column: 4, Message: "boom"}.String())
	assert.Equal(t, "A.java:3: boom", Diagnostic{File: "A.java", Line: 3, Message: "boom"}.String())
	assert.Equal(t, "boom", Diagnostic{Message: "boom"}.String())
}
