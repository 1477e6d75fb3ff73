// Package structure locates type and member boundaries in Java source and
// checks candidate text for syntax errors. Two implementations exist: a
// tree-sitter backed one (cgo builds only) and a lexical one built on the
// brace scanner. Callers should treat both as optional and degrade when
// Parse fails.
package structure

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoCGO is returned when tree-sitter parsing is unavailable due to missing CGO.
var ErrNoCGO = errors.New("tree-sitter parsing requires CGO")

// Span is a 1-based inclusive line range.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Member kinds.
const (
	KindMethod      = "method"
	KindConstructor = "constructor"
	KindType        = "type"
	KindInitializer = "initializer"
)

// Member is a replaceable unit inside a type body. Fields are not members;
// they stay with the surrounding text.
type Member struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
	Span Span   `json:"span"`
}

// TypeDecl is a top-level type declaration.
type TypeDecl struct {
	Name    string   `json:"name"`
	Keyword string   `json:"keyword"`
	Span    Span     `json:"span"`
	Members []Member `json:"members,omitempty"`
}

// Outline lists the top-level types of a file in source order. Outlines
// returned by a Parser may be shared and must not be modified.
type Outline struct {
	Types []TypeDecl `json:"types"`
}

// SyntaxError locates the first syntax problem in a text.
type SyntaxError struct {
	Line    int    `json:"line"`
	Column  int    `json:"column"`
	Message string `json:"message"`
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("syntax error at %d:%d: %s", e.Line, e.Column, e.Message)
}

// Parser locates top-level types and their members. An error means the text
// could not be outlined; callers fall back to line windows.
type Parser interface {
	Parse(ctx context.Context, src []byte) (*Outline, error)
}

// Checker reports the first syntax error in src, or nil when src parses.
// An error means the check itself could not run.
type Checker interface {
	Check(ctx context.Context, src []byte) (*SyntaxError, error)
}

// Capability is a structural parser that can also check syntax.
type Capability interface {
	Parser
	Checker
	Name() string
}

// Detect returns the most precise capability this build supports.
func Detect() Capability {
	if ts := NewTreeSitter(); ts != nil {
		return ts
	}
	return NewLexical()
}
