package chunk

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/structure"
	"chunkgate/internal/testutil"
)

func TestPrompt_MemberChunk(t *testing.T) {
	src := NewSourceFile("Blog.java", testutil.ReadFixture(t, "Blog.java"))
	fc, err := NewEngine(smallOptions(), structure.NewLexical(), nil).Chunk(context.Background(), src)
	require.NoError(t, err)

	p := fc.Prompt(fc.Chunks[1])

	assert.Equal(t, fc.Chunks[1].Original, p.Body)
	assert.Empty(t, p.Before)
	assert.Empty(t, p.After)

	h := p.ContextHeader()
	assert.True(t, strings.HasPrefix(h, "package org.example;\n\nimport java.util.List;"), h)
	assert.Contains(t, h, "public class Blog {")
	assert.True(t, strings.HasSuffix(h, "// ... other members ..."), h)
	assert.NotContains(t, h, "toString", "the body must not leak into the header")

	out := p.Render("Long Method: toString is long")
	assert.Contains(t, out, "// File context (imports and declarations):\npackage org.example;")
	assert.Contains(t, out, "// Detected design smells in this code:\nLong Method: toString is long\n")
	assert.True(t, strings.HasSuffix(out, "// Code to refactor:\n"+p.Body), out)
}

func TestPrompt_WholeFileHasNoHeader(t *testing.T) {
	raw := "package p;\n\nclass A {}\n"
	fc, err := NewEngine(DefaultOptions(), nil, nil).Chunk(context.Background(), NewSourceFile("A.java", raw))
	require.NoError(t, err)

	p := fc.Prompt(fc.Chunks[0])

	assert.Equal(t, Prompt{Body: raw}, p)
	assert.Equal(t, "", p.ContextHeader())
	assert.Equal(t, "// Code to refactor:\n"+raw, p.Render(""))
}

func TestPrompt_WindowContext(t *testing.T) {
	src := NewSourceFile("W.java", testutil.JavaClass("W", 6, 3))
	fc, err := NewEngine(smallOptions(), nil, nil).Chunk(context.Background(), src)
	require.NoError(t, err)
	require.Greater(t, len(fc.Chunks), 2)

	c := fc.Chunks[1]
	p := fc.Prompt(c)

	assert.Equal(t, src.Text(Span{Start: c.Context.Start, End: c.Replace.Start - 1}), p.Before)
	assert.Equal(t, src.Text(Span{Start: c.Replace.End + 1, End: c.Context.End}), p.After)
	assert.Equal(t, "", p.Prefix)

	out := p.Render("")
	assert.Contains(t, out, "// Preceding context (read-only):\n"+p.Before)
	assert.Contains(t, out, "// Following context (read-only):\n"+p.After)
	assert.NotContains(t, out, "Detected design smells")
}
