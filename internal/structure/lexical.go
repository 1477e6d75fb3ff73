package structure

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"chunkgate/internal/scan"
)

// ErrNoTypes is returned by Parse when a text declares no top-level type.
var ErrNoTypes = errors.New("no top-level type declarations found")

var (
	annotationRe = regexp.MustCompile(`@[\w$.]+(\s*\([^()]*\))?`)
	identRe      = regexp.MustCompile(`[A-Za-z_$][\w$]*`)
)

// Lexical outlines and checks source text with the brace scanner alone. It
// needs no parser and is always available.
type Lexical struct{}

// NewLexical returns a lexical capability.
func NewLexical() *Lexical {
	return &Lexical{}
}

// Name implements Capability.
func (l *Lexical) Name() string {
	return "lexical"
}

// Parse outlines src. It fails when brackets, literals or comments are
// unbalanced, or when no type is declared at depth zero.
func (l *Lexical) Parse(ctx context.Context, src []byte) (*Outline, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := scan.Text(string(src))
	if idx.Problem != nil {
		return nil, idx.Problem
	}

	out := outlineIndex(idx)
	if len(out.Types) == 0 {
		return nil, ErrNoTypes
	}
	return out, nil
}

// Check implements Checker by reporting the scanner's first imbalance.
func (l *Lexical) Check(ctx context.Context, src []byte) (*SyntaxError, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	idx := scan.Text(string(src))
	if p := idx.Problem; p != nil {
		return &SyntaxError{Line: p.Line, Column: p.Column, Message: p.Message}, nil
	}
	return nil, nil
}

func outlineIndex(idx *scan.Index) *Outline {
	out := &Outline{}
	for n := 1; n <= len(idx.Lines); n++ {
		line := idx.Lines[n-1]
		if line.Depth != 0 {
			continue
		}
		keyword, name, ok := scan.TypeDecl(line.Code)
		if !ok {
			continue
		}
		end, ok := idx.BlockEnd(n)
		if !ok {
			break
		}
		out.Types = append(out.Types, TypeDecl{
			Name:    name,
			Keyword: keyword,
			Span:    Span{Start: annotationStart(idx, n), End: end},
			Members: membersOf(idx, n, end, name, keyword == "enum"),
		})
		n = end
	}
	return out
}

// annotationStart walks back from a declaration line over the annotation
// lines directly above it.
func annotationStart(idx *scan.Index, n int) int {
	start := n
	for k := n - 1; k >= 1; k-- {
		l := idx.Lines[k-1]
		code := strings.TrimSpace(l.Code)
		if l.Depth != idx.Lines[n-1].Depth || !strings.HasPrefix(code, "@") {
			break
		}
		if _, _, ok := scan.TypeDecl(code); ok {
			break
		}
		start = k
	}
	return start
}

// statement is one declaration at member depth inside a type body.
type statement struct {
	start, end int
	header     strings.Builder
	hasBody    bool
}

// membersOf splits the body of the type declared on line decl (ending on
// line end) into statements at member depth and keeps the ones that are
// members.
func membersOf(idx *scan.Index, decl, end int, typeName string, isEnum bool) []Member {
	base := idx.Lines[decl-1].Depth
	memberDepth := base + 1
	inConstants := isEnum

	var (
		members []Member
		cur     *statement
		opened  bool
		parens  int
	)

	finish := func(line int) {
		if cur == nil {
			return
		}
		cur.end = line
		if m, ok := classify(cur, typeName); ok && !inConstants {
			members = append(members, m)
		}
		cur = nil
	}

	for n := decl; n <= end; n++ {
		l := idx.Lines[n-1]
		depth := l.Depth
		if cur != nil {
			cur.header.WriteByte(' ')
		}
		for i := 0; i < len(l.Code); i++ {
			c := l.Code[i]
			if !opened {
				switch c {
				case '(':
					parens++
				case ')':
					parens--
				case '{':
					depth++
					if parens == 0 {
						opened = true
					}
				case '}':
					depth--
				}
				continue
			}

			switch {
			case c == '{':
				if depth == memberDepth && parens == 0 {
					if cur == nil {
						cur = &statement{start: n}
					}
					if inConstants {
						// Constant bodies belong to the constant list.
						depth++
						continue
					}
					cur.hasBody = true
				}
				depth++
			case c == '}':
				depth--
				if depth < memberDepth {
					finish(n)
					return members
				}
				if depth == memberDepth && cur != nil && cur.hasBody {
					finish(n)
				}
			case depth != memberDepth:
				// Inside a member body.
			case c == '(':
				parens++
				cur = ensure(cur, n)
				cur.header.WriteByte(c)
			case c == ')':
				parens--
				cur = ensure(cur, n)
				cur.header.WriteByte(c)
			case c == ';' && parens == 0:
				if cur != nil {
					finish(n)
				}
				inConstants = false
			case c == ' ' || c == '\t' || c == '\r':
				if cur != nil {
					cur.header.WriteByte(' ')
				}
			default:
				cur = ensure(cur, n)
				cur.header.WriteByte(c)
			}
		}
	}
	finish(end)
	return members
}

func ensure(s *statement, line int) *statement {
	if s == nil {
		return &statement{start: line}
	}
	return s
}

// classify decides whether a statement is a member and names it.
func classify(s *statement, typeName string) (Member, bool) {
	raw := s.header.String()
	header := strings.TrimSpace(annotationRe.ReplaceAllString(raw, " "))
	span := Span{Start: s.start, End: s.end}

	if _, name, ok := scan.TypeDecl(raw); ok {
		return Member{Name: name, Kind: KindType, Span: span}, true
	}

	if s.hasBody && (header == "" || header == "static") {
		return Member{Name: header, Kind: KindInitializer, Span: span}, true
	}

	if paren := strings.IndexByte(header, '('); paren > 0 {
		before := header[:paren]
		if strings.Contains(before, "=") {
			return Member{}, false
		}
		idents := identRe.FindAllString(before, -1)
		if len(idents) == 0 {
			return Member{}, false
		}
		name := idents[len(idents)-1]
		kind := KindMethod
		if name == typeName {
			kind = KindConstructor
		}
		return Member{Name: name, Kind: kind, Span: span}, true
	}

	// Compact record constructor: "public R {".
	if s.hasBody {
		idents := identRe.FindAllString(header, -1)
		if len(idents) > 0 && idents[len(idents)-1] == typeName {
			return Member{Name: typeName, Kind: KindConstructor, Span: span}, true
		}
	}
	return Member{}, false
}
