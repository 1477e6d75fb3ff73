// Package scan is a lexical scanner for Java-like source text. It blanks out
// string, char and text-block literals and comments so that braces are only
// counted where they are code, and reports the first imbalance it finds.
package scan

import (
	"fmt"
	"strings"
)

type mode int

const (
	modeCode mode = iota
	modeString
	modeChar
	modeTextBlock
	modeBlockComment
)

// Line is one source line after masking.
type Line struct {
	// Number is the 1-based line number.
	Number int
	// Code is the line with literal and comment bytes replaced by spaces.
	// It has the same length as the raw line.
	Code string
	// Depth is the brace depth at the start of the line.
	Depth int
	// EndDepth is the brace depth after the last byte of the line.
	EndDepth int
}

// Problem describes the first lexical imbalance in a text.
type Problem struct {
	Line    int
	Column  int
	Message string
}

func (p *Problem) Error() string {
	return fmt.Sprintf("%d:%d: %s", p.Line, p.Column, p.Message)
}

// Index is the masked form of a whole text.
type Index struct {
	Lines []Line
	// Problem is nil when every bracket is matched and no literal or
	// comment is left open.
	Problem *Problem
}

type opener struct {
	ch        byte
	line, col int
}

type scanner struct {
	mode     mode
	depth    int
	stack    []opener
	openLine int
	openCol  int
	problem  *Problem
}

// Build scans lines in order and returns their masked form.
func Build(lines []string) *Index {
	s := &scanner{}
	idx := &Index{Lines: make([]Line, len(lines))}
	for i, text := range lines {
		idx.Lines[i] = s.line(text, i+1)
	}

	switch s.mode {
	case modeBlockComment:
		s.fail(s.openLine, s.openCol, "unterminated block comment")
	case modeTextBlock:
		s.fail(s.openLine, s.openCol, "unterminated text block")
	}
	if len(s.stack) > 0 {
		top := s.stack[len(s.stack)-1]
		s.fail(top.line, top.col, fmt.Sprintf("unclosed '%c'", top.ch))
	}
	idx.Problem = s.problem
	return idx
}

// Text splits raw on "\n" and builds its index.
func Text(raw string) *Index {
	return Build(strings.Split(raw, "\n"))
}

func (s *scanner) fail(line, col int, msg string) {
	if s.problem == nil {
		s.problem = &Problem{Line: line, Column: col, Message: msg}
	}
}

func (s *scanner) line(text string, num int) Line {
	buf := []byte(text)
	start := s.depth

	for i := 0; i < len(buf); {
		c := buf[i]
		switch s.mode {
		case modeCode:
			switch {
			case c == '/' && i+1 < len(buf) && buf[i+1] == '/':
				blank(buf, i, len(buf))
				i = len(buf)
			case c == '/' && i+1 < len(buf) && buf[i+1] == '*':
				s.mode, s.openLine, s.openCol = modeBlockComment, num, i+1
				blank(buf, i, i+2)
				i += 2
			case strings.HasPrefix(text[i:], `"""`):
				s.mode, s.openLine, s.openCol = modeTextBlock, num, i+1
				blank(buf, i, i+3)
				i += 3
			case c == '"':
				s.mode, s.openLine, s.openCol = modeString, num, i+1
				buf[i] = ' '
				i++
			case c == '\'':
				s.mode, s.openLine, s.openCol = modeChar, num, i+1
				buf[i] = ' '
				i++
			default:
				s.bracket(c, num, i+1)
				i++
			}

		case modeString, modeChar:
			closer := byte('"')
			if s.mode == modeChar {
				closer = '\''
			}
			if c == '\\' {
				blank(buf, i, i+2)
				i += 2
				continue
			}
			buf[i] = ' '
			if c == closer {
				s.mode = modeCode
			}
			i++

		case modeTextBlock:
			if c == '\\' {
				blank(buf, i, i+2)
				i += 2
				continue
			}
			if strings.HasPrefix(text[i:], `"""`) {
				blank(buf, i, i+3)
				s.mode = modeCode
				i += 3
				continue
			}
			buf[i] = ' '
			i++

		case modeBlockComment:
			if c == '*' && i+1 < len(buf) && buf[i+1] == '/' {
				blank(buf, i, i+2)
				s.mode = modeCode
				i += 2
				continue
			}
			buf[i] = ' '
			i++
		}
	}

	// String and char literals cannot span lines.
	if s.mode == modeString || s.mode == modeChar {
		s.fail(s.openLine, s.openCol, "unterminated literal")
		s.mode = modeCode
	}

	return Line{Number: num, Code: string(buf), Depth: start, EndDepth: s.depth}
}

func (s *scanner) bracket(c byte, line, col int) {
	switch c {
	case '{', '(', '[':
		s.stack = append(s.stack, opener{ch: c, line: line, col: col})
		if c == '{' {
			s.depth++
		}
	case '}', ')', ']':
		want := matching(c)
		if len(s.stack) == 0 {
			s.fail(line, col, fmt.Sprintf("unexpected '%c'", c))
			return
		}
		top := s.stack[len(s.stack)-1]
		if top.ch != want {
			s.fail(line, col, fmt.Sprintf("'%c' does not match '%c' at %d:%d", c, top.ch, top.line, top.col))
			// Recover by unwinding to the matching opener, if there is one.
			k := len(s.stack) - 1
			for k >= 0 && s.stack[k].ch != want {
				k--
			}
			if k < 0 {
				return
			}
			for _, o := range s.stack[k+1:] {
				if o.ch == '{' {
					s.depth--
				}
			}
			s.stack = s.stack[:k+1]
		}
		s.stack = s.stack[:len(s.stack)-1]
		if c == '}' {
			s.depth--
		}
	}
}

func matching(c byte) byte {
	switch c {
	case '}':
		return '{'
	case ')':
		return '('
	default:
		return '['
	}
}

func blank(buf []byte, from, to int) {
	if to > len(buf) {
		to = len(buf)
	}
	for i := from; i < to; i++ {
		buf[i] = ' '
	}
}
