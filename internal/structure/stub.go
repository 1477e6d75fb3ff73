//go:build !cgo

package structure

import "context"

// TreeSitter is a stub for non-CGO builds.
type TreeSitter struct{}

// NewTreeSitter returns nil when CGO is disabled.
func NewTreeSitter() *TreeSitter {
	return nil
}

// TreeSitterAvailable returns false when CGO is disabled.
func TreeSitterAvailable() bool {
	return false
}

// Name implements Capability.
func (t *TreeSitter) Name() string {
	return "tree-sitter (unavailable)"
}

// Parse always fails in non-CGO builds.
func (t *TreeSitter) Parse(ctx context.Context, src []byte) (*Outline, error) {
	return nil, ErrNoCGO
}

// Check always fails in non-CGO builds.
func (t *TreeSitter) Check(ctx context.Context, src []byte) (*SyntaxError, error) {
	return nil, ErrNoCGO
}
