// Package gate validates candidate file contents in escalating stages
// (syntax, build, test). The build and test stages write the candidate over
// the real file, run an external tool and restore the original bytes on
// every exit path.
package gate

import (
	"fmt"
	"time"
)

// Stage identifies a validation stage.
type Stage int

const (
	StageSyntax Stage = iota
	StageBuild
	StageTest
)

func (s Stage) String() string {
	switch s {
	case StageSyntax:
		return "syntax"
	case StageBuild:
		return "build"
	case StageTest:
		return "test"
	default:
		return fmt.Sprintf("Stage(%d)", int(s))
	}
}

// MarshalText renders the stage by name.
func (s Stage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Status is how far a candidate got.
type Status int

const (
	Passed Status = iota
	SyntaxError
	BuildError
	TestFailure
	ToolUnavailable
)

var statusNames = map[Status]string{
	Passed:          "passed",
	SyntaxError:     "syntax-error",
	BuildError:      "build-error",
	TestFailure:     "test-failure",
	ToolUnavailable: "tool-unavailable",
}

func (s Status) String() string {
	if n, ok := statusNames[s]; ok {
		return n
	}
	return fmt.Sprintf("Status(%d)", int(s))
}

// MarshalText renders the status by name.
func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Diagnostic is one located problem reported by the parser or build tool.
// Line and Column are 0 when unknown.
type Diagnostic struct {
	File    string `json:"file,omitempty"`
	Line    int    `json:"line,omitempty"`
	Column  int    `json:"column,omitempty"`
	Message string `json:"message"`
}

func (d Diagnostic) String() string {
	switch {
	case d.Line > 0 && d.Column > 0:
		return fmt.Sprintf("%s:%d:%d: %s", d.File, d.Line, d.Column, d.Message)
	case d.Line > 0:
		return fmt.Sprintf("%s:%d: %s", d.File, d.Line, d.Message)
	default:
		return d.Message
	}
}

// TestSummary is the aggregate line of a test run.
type TestSummary struct {
	Run      int `json:"run"`
	Failures int `json:"failures"`
	Errors   int `json:"errors"`
	Skipped  int `json:"skipped,omitempty"`
}

// Outcome is the result of one validation attempt.
type Outcome struct {
	AttemptID string `json:"attemptId"`
	Path      string `json:"path"`
	Status    Status `json:"status"`
	// Stage is the last stage that ran.
	Stage   Stage  `json:"stage"`
	Message string `json:"message,omitempty"`

	Diagnostics  []Diagnostic `json:"diagnostics,omitempty"`
	FailingTests []string     `json:"failingTests,omitempty"`
	Summary      *TestSummary `json:"summary,omitempty"`
	// SelectedTests lists the narrowed test classes; empty means the full
	// suite ran.
	SelectedTests []string `json:"selectedTests,omitempty"`

	// Unchecked is set when no syntax checker was available and the syntax
	// stage was skipped.
	Unchecked bool `json:"unchecked,omitempty"`
	TimedOut  bool `json:"timedOut,omitempty"`
	// Output is the tail of the failing tool's combined output.
	Output   string        `json:"output,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Passed reports whether every enabled stage passed.
func (o Outcome) Passed() bool {
	return o.Status == Passed
}
