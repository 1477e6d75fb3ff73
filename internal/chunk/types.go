// Package chunk decomposes a source file into ordered chunks sized for an
// external rewrite step. Every chunk carries two line ranges: Replace, the
// canonical range its rewrite substitutes during merge, and Context, the
// range shown to the rewrite call. Replace ranges never overlap; Context
// ranges may.
package chunk

import (
	"fmt"
	"os"
	"strings"

	"chunkgate/internal/errors"
	"chunkgate/internal/header"
)

// Kind identifies how a chunk was cut.
type Kind int

const (
	WholeFile Kind = iota
	TypeBlock
	MemberBlock
	TextWindow
)

var kindNames = map[Kind]string{
	WholeFile:   "whole-file",
	TypeBlock:   "type",
	MemberBlock: "member",
	TextWindow:  "window",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name in plans.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// Strategy is the decomposition chosen for a file.
type Strategy int

const (
	Whole Strategy = iota
	ByType
	ByLines
)

func (s Strategy) String() string {
	switch s {
	case Whole:
		return "whole"
	case ByType:
		return "by-type"
	case ByLines:
		return "by-lines"
	default:
		return fmt.Sprintf("Strategy(%d)", int(s))
	}
}

// MarshalText renders the strategy by name in plans.
func (s Strategy) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Span is a 1-based inclusive line range against the original file.
type Span struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of lines covered.
func (s Span) Len() int {
	return s.End - s.Start + 1
}

func (s Span) String() string {
	return fmt.Sprintf("%d-%d", s.Start, s.End)
}

// SourceFile is the immutable text of one file. Lines is Raw split on "\n",
// so joining Lines with "\n" reproduces Raw byte for byte.
type SourceFile struct {
	Path  string
	Raw   string
	Lines []string
}

// NewSourceFile wraps raw text.
func NewSourceFile(path, raw string) *SourceFile {
	return &SourceFile{Path: path, Raw: raw, Lines: strings.Split(raw, "\n")}
}

// LoadSourceFile reads a file from disk.
func LoadSourceFile(path string) (*SourceFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(errors.SourceUnreadable, "reading "+path, err)
	}
	return NewSourceFile(path, string(data)), nil
}

// Size returns the size of the text in bytes.
func (f *SourceFile) Size() int {
	return len(f.Raw)
}

// LineCount returns the number of lines.
func (f *SourceFile) LineCount() int {
	return len(f.Lines)
}

// Text returns the lines covered by s joined with "\n". Out of range parts
// of s are clipped.
func (f *SourceFile) Text(s Span) string {
	start, end := s.Start, s.End
	if start < 1 {
		start = 1
	}
	if end > len(f.Lines) {
		end = len(f.Lines)
	}
	if start > end {
		return ""
	}
	return strings.Join(f.Lines[start-1:end], "\n")
}

// Chunk is one replaceable region of a file.
type Chunk struct {
	ID         int    `json:"id" yaml:"id"`
	Kind       Kind   `json:"kind" yaml:"kind"`
	Replace    Span   `json:"replace" yaml:"replace"`
	Context    Span   `json:"context" yaml:"context"`
	TypeName   string `json:"typeName,omitempty" yaml:"typeName,omitempty"`
	MemberName string `json:"memberName,omitempty" yaml:"memberName,omitempty"`
	// Prefix is the enclosing type's shared prefix for member chunks. It is
	// context only and never replaced.
	Prefix *Span `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Original is the text of the Replace range.
	Original string `json:"-" yaml:"-"`
	// SharedPrefix is the text of Prefix.
	SharedPrefix string `json:"-" yaml:"-"`

	rewritten *string
}

// SetRewrite records the rewrite for this chunk. It may be called once.
func (c *Chunk) SetRewrite(text string) error {
	if c.rewritten != nil {
		return errors.Newf(errors.AlreadyRewritten, "chunk %d already has a rewrite", c.ID)
	}
	c.rewritten = &text
	return nil
}

// Rewritten returns the rewrite, if one was set.
func (c *Chunk) Rewritten() (string, bool) {
	if c.rewritten == nil {
		return "", false
	}
	return *c.rewritten, true
}

// Replacement returns the rewrite if set, else the original text.
func (c *Chunk) Replacement() string {
	if c.rewritten != nil {
		return *c.rewritten
	}
	return c.Original
}

// FileContext is a file, its header and the chunks that, together with the
// gaps between them, tile it.
type FileContext struct {
	Source        *SourceFile   `json:"-" yaml:"-"`
	Path          string        `json:"path" yaml:"path"`
	Header        header.Header `json:"header" yaml:"header"`
	Strategy      Strategy      `json:"strategy" yaml:"strategy"`
	Degraded      bool          `json:"degraded,omitempty" yaml:"degraded,omitempty"`
	DegradeReason string        `json:"degradeReason,omitempty" yaml:"degradeReason,omitempty"`
	Chunks        []*Chunk      `json:"chunks" yaml:"chunks"`
}

// Rewritten counts chunks that carry a rewrite.
func (fc *FileContext) Rewritten() int {
	n := 0
	for _, c := range fc.Chunks {
		if _, ok := c.Rewritten(); ok {
			n++
		}
	}
	return n
}
