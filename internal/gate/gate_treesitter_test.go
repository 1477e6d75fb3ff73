//go:build cgo

package gate

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/structure"
)

func TestValidate_TreeSitterChecker(t *testing.T) {
	cached, err := structure.WithCache(structure.NewTreeSitter(), 8)
	require.NoError(t, err)

	checkers := map[string]structure.Checker{
		"tree-sitter": structure.NewTreeSitter(),
		"cached":      cached,
	}
	for name, checker := range checkers {
		t.Run(name, func(t *testing.T) {
			root, file := newTree(t, nil)
			runner := &fakeRunner{watch: file}
			g := New(root, testOptions(), checker, runner, nil)

			out, err := g.Validate(context.Background(), Request{
				Path:      blogPath,
				Candidate: "package org.example;\n\npublic class Blog {\n    void f() {\n        int x = ;\n    }\n}\n",
			})
			require.NoError(t, err)

			assert.Equal(t, SyntaxError, out.Status)
			assert.Equal(t, StageSyntax, out.Stage)
			require.Len(t, out.Diagnostics, 1)
			assert.GreaterOrEqual(t, out.Diagnostics[0].Line, 1)
			assert.Empty(t, runner.calls)
			assertUntouched(t, root, file)

			out, err = g.Validate(context.Background(), Request{Path: blogPath, Candidate: blogRewrite})
			require.NoError(t, err)

			assert.True(t, out.Passed(), out.Message)
			assert.False(t, out.Unchecked)
			assert.Equal(t, []string{blogRewrite, blogRewrite}, runner.seen)
			assertUntouched(t, root, file)
		})
	}
}
