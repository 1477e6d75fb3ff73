//go:build cgo

package structure

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/testutil"
)

func TestTreeSitter_ParseFixture(t *testing.T) {
	src := testutil.ReadFixture(t, "Blog.java")

	got, err := NewTreeSitter().Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	if diff := cmp.Diff(blogOutline(), got); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestTreeSitter_Check(t *testing.T) {
	ts := NewTreeSitter()
	ctx := context.Background()

	se, err := ts.Check(ctx, []byte("class A {\n  void f() { int x = 1; }\n}\n"))
	require.NoError(t, err)
	assert.Nil(t, se)

	se, err = ts.Check(ctx, []byte("class A {\n  void f() {\n    int x = ;\n  }\n}\n"))
	require.NoError(t, err)
	require.NotNil(t, se)
	assert.GreaterOrEqual(t, se.Line, 1)

	_, err = ts.Parse(ctx, []byte("class A {\n  void f( {\n}\n"))
	assert.Error(t, err)
}
