//go:build cgo

package structure

import (
	"context"
	"fmt"
	"strings"
	"sync"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// typeNodeKeywords maps tree-sitter Java declaration nodes to keywords.
var typeNodeKeywords = map[string]string{
	"class_declaration":           "class",
	"interface_declaration":       "interface",
	"enum_declaration":            "enum",
	"record_declaration":          "record",
	"annotation_type_declaration": "@interface",
}

// memberNodeKinds maps body children to member kinds. Fields are absent on
// purpose: they are not members.
var memberNodeKinds = map[string]string{
	"method_declaration":                  KindMethod,
	"annotation_type_element_declaration": KindMethod,
	"constructor_declaration":             KindConstructor,
	"compact_constructor_declaration":     KindConstructor,
	"class_declaration":                   KindType,
	"interface_declaration":               KindType,
	"enum_declaration":                    KindType,
	"record_declaration":                  KindType,
	"annotation_type_declaration":         KindType,
	"static_initializer":                  KindInitializer,
	"block":                               KindInitializer,
}

// TreeSitter parses Java with tree-sitter. A tree-sitter parser is not safe
// for concurrent use, so calls are serialized.
type TreeSitter struct {
	mu     sync.Mutex
	parser *sitter.Parser
}

// NewTreeSitter creates a tree-sitter backed capability.
func NewTreeSitter() *TreeSitter {
	p := sitter.NewParser()
	p.SetLanguage(java.GetLanguage())
	return &TreeSitter{parser: p}
}

// TreeSitterAvailable reports whether this build includes tree-sitter.
func TreeSitterAvailable() bool {
	return true
}

// Name implements Capability.
func (t *TreeSitter) Name() string {
	return "tree-sitter"
}

func (t *TreeSitter) parse(ctx context.Context, src []byte) (*sitter.Tree, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	tree, err := t.parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("parse error: %w", err)
	}
	return tree, nil
}

// Parse outlines src. A tree containing error nodes is rejected rather than
// outlined, since recovered trees place boundaries unpredictably.
func (t *TreeSitter) Parse(ctx context.Context, src []byte) (*Outline, error) {
	tree, err := t.parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.HasError() {
		if se := firstError(root, src); se != nil {
			return nil, se
		}
		return nil, fmt.Errorf("parse error")
	}

	out := &Outline{}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		keyword, ok := typeNodeKeywords[node.Type()]
		if !ok {
			continue
		}
		out.Types = append(out.Types, TypeDecl{
			Name:    nodeName(node, src),
			Keyword: keyword,
			Span:    nodeSpan(node),
			Members: members(node, src),
		})
	}
	if len(out.Types) == 0 {
		return nil, ErrNoTypes
	}
	return out, nil
}

// Check implements Checker.
func (t *TreeSitter) Check(ctx context.Context, src []byte) (*SyntaxError, error) {
	tree, err := t.parse(ctx, src)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	if !root.HasError() {
		return nil, nil
	}
	if se := firstError(root, src); se != nil {
		return se, nil
	}
	return &SyntaxError{Line: 1, Column: 1, Message: "unparseable input"}, nil
}

func members(typeNode *sitter.Node, src []byte) []Member {
	body := typeNode.ChildByFieldName("body")
	if body == nil {
		return nil
	}

	var out []Member
	var visit func(n *sitter.Node)
	visit = func(n *sitter.Node) {
		for i := 0; i < int(n.NamedChildCount()); i++ {
			child := n.NamedChild(i)
			if child.Type() == "enum_body_declarations" {
				visit(child)
				continue
			}
			kind, ok := memberNodeKinds[child.Type()]
			if !ok {
				continue
			}
			name := nodeName(child, src)
			if child.Type() == "static_initializer" {
				name = "static"
			}
			out = append(out, Member{Name: name, Kind: kind, Span: nodeSpan(child)})
		}
	}
	visit(body)
	return out
}

func nodeName(n *sitter.Node, src []byte) string {
	if name := n.ChildByFieldName("name"); name != nil {
		return name.Content(src)
	}
	return ""
}

func nodeSpan(n *sitter.Node) Span {
	return Span{Start: int(n.StartPoint().Row) + 1, End: int(n.EndPoint().Row) + 1}
}

// firstError returns the first ERROR or MISSING node in document order.
func firstError(n *sitter.Node, src []byte) *SyntaxError {
	if n.Type() == "ERROR" || n.IsMissing() {
		p := n.StartPoint()
		msg := "unexpected " + snippet(n.Content(src))
		if n.IsMissing() {
			msg = "missing " + n.Type()
		}
		return &SyntaxError{Line: int(p.Row) + 1, Column: int(p.Column) + 1, Message: msg}
	}
	if !n.HasError() {
		return nil
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		if child := n.Child(i); child != nil {
			if se := firstError(child, src); se != nil {
				return se
			}
		}
	}
	return nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	if len(s) > 40 {
		s = s[:40] + "..."
	}
	if s == "" {
		return "token"
	}
	return fmt.Sprintf("%q", s)
}
