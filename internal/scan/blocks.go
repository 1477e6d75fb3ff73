package scan

import "strings"

// BlockEnd returns the line on which the declaration starting at line start
// (1-based) ends: the line holding the '}' that closes its body, or the line
// holding a ';' reached before any body opens (abstract methods, fields).
// Braces inside parentheses, such as annotation array values, do not open a
// body. ok is false when the declaration runs past the end of the text.
func (idx *Index) BlockEnd(start int) (end int, ok bool) {
	if start < 1 || start > len(idx.Lines) {
		return 0, false
	}

	base := idx.Lines[start-1].Depth
	opened := false
	parens := 0

	for n := start; n <= len(idx.Lines); n++ {
		l := idx.Lines[n-1]
		depth := l.Depth
		for i := 0; i < len(l.Code); i++ {
			switch l.Code[i] {
			case '(':
				parens++
			case ')':
				if parens > 0 {
					parens--
				}
			case '{':
				if !opened && parens == 0 {
					opened = true
				}
				depth++
			case '}':
				depth--
				if opened && depth == base {
					return n, true
				}
				if depth < base {
					return 0, false
				}
			case ';':
				if !opened && parens == 0 && depth == base {
					return n, true
				}
			}
		}
	}
	return 0, false
}

// HasCode reports whether line n holds anything besides whitespace,
// literals blanked out, and comments.
func (idx *Index) HasCode(n int) bool {
	if n < 1 || n > len(idx.Lines) {
		return false
	}
	return strings.TrimSpace(idx.Lines[n-1].Code) != ""
}

// ClosesBlock reports whether a raw line, once trimmed, closes a block:
// "}", "};", "});" or "})". A window ending on such a line does not cut a
// body in half.
func ClosesBlock(line string) bool {
	switch strings.TrimSpace(line) {
	case "}", "};", "});", "})":
		return true
	}
	return false
}
