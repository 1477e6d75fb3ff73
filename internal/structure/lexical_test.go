package structure

import (
	"context"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/testutil"
)

func blogOutline() *Outline {
	return &Outline{Types: []TypeDecl{
		{
			Name:    "Blog",
			Keyword: "class",
			Span:    Span{Start: 8, End: 27},
			Members: []Member{
				{Name: "Blog", Kind: KindConstructor, Span: Span{Start: 13, End: 15}},
				{Name: "toString", Kind: KindMethod, Span: Span{Start: 17, End: 20}},
				{Name: "Entry", Kind: KindType, Span: Span{Start: 22, End: 24}},
				{Name: "tick", Kind: KindMethod, Span: Span{Start: 26, End: 26}},
			},
		},
		{
			Name:    "Color",
			Keyword: "enum",
			Span:    Span{Start: 29, End: 34},
			Members: []Member{
				{Name: "next", Kind: KindMethod, Span: Span{Start: 31, End: 33}},
			},
		},
	}}
}

func TestLexical_ParseFixture(t *testing.T) {
	src := testutil.ReadFixture(t, "Blog.java")

	got, err := NewLexical().Parse(context.Background(), []byte(src))
	require.NoError(t, err)

	if diff := cmp.Diff(blogOutline(), got); diff != "" {
		t.Errorf("outline mismatch (-want +got):\n%s", diff)
	}
}

func TestLexical_ParseMembers(t *testing.T) {
	tests := []struct {
		name string
		src  string
		want []Member
	}{
		{
			name: "fields are not members",
			src: `class A {
  int a, b;
  Map<String, Integer> counts = new HashMap<>();
  Runnable r = () -> {
    run();
  };
  @SuppressWarnings("x") int c;
}`,
			want: nil,
		},
		{
			name: "generic method and initializers",
			src: `class A {
  static {
    init();
  }
  {
    x = 1;
  }
  public <T> Map<String, T> index(List<T> xs)
      throws IOException {
    return null;
  }
}`,
			want: []Member{
				{Name: "static", Kind: KindInitializer, Span: Span{Start: 2, End: 4}},
				{Name: "", Kind: KindInitializer, Span: Span{Start: 5, End: 7}},
				{Name: "index", Kind: KindMethod, Span: Span{Start: 8, End: 11}},
			},
		},
		{
			name: "record with compact constructor",
			src: `record Point(int x, int y) {
  public Point {
    check(x);
  }
  int sum() { return x + y; }
}`,
			want: []Member{
				{Name: "Point", Kind: KindConstructor, Span: Span{Start: 2, End: 4}},
				{Name: "sum", Kind: KindMethod, Span: Span{Start: 5, End: 5}},
			},
		},
		{
			name: "enum constants with bodies",
			src: `enum Op {
  ADD {
    int apply(int a, int b) { return a + b; }
  },
  SUB("-") {
    int apply(int a, int b) { return a - b; }
  };
  abstract int apply(int a, int b);
}`,
			want: []Member{
				{Name: "apply", Kind: KindMethod, Span: Span{Start: 8, End: 8}},
			},
		},
		{
			name: "interface and annotation elements",
			src: `@interface Tag {
  String value() default "";
  @interface Nested {}
}`,
			want: []Member{
				{Name: "value", Kind: KindMethod, Span: Span{Start: 2, End: 2}},
				{Name: "Nested", Kind: KindType, Span: Span{Start: 3, End: 3}},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewLexical().Parse(context.Background(), []byte(tt.src))
			require.NoError(t, err)
			require.Len(t, out.Types, 1)
			if diff := cmp.Diff(tt.want, out.Types[0].Members); diff != "" {
				t.Errorf("members mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLexical_ParseFailures(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unbalanced", "class A {\n  void f() {\n}\n"},
		{"no types", "package a;\nimport b.C;\n"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := NewLexical().Parse(context.Background(), []byte(tt.src))
			assert.Error(t, err)
			assert.Nil(t, out)
		})
	}
}

func TestLexical_Check(t *testing.T) {
	ctx := context.Background()
	lex := NewLexical()

	se, err := lex.Check(ctx, []byte("class A {\n  void f() { }\n}\n"))
	require.NoError(t, err)
	assert.Nil(t, se)

	se, err = lex.Check(ctx, []byte("class A {\n  void f() {\n    if (x) {\n  }\n}\n"))
	require.NoError(t, err)
	require.NotNil(t, se)
	assert.Equal(t, 1, se.Line)
	assert.Contains(t, se.Error(), "unclosed")
}

func TestLexical_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewLexical().Parse(ctx, []byte("class A {}"))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestDetect(t *testing.T) {
	c := Detect()
	require.NotNil(t, c)
	if TreeSitterAvailable() {
		assert.Equal(t, "tree-sitter", c.Name())
	} else {
		assert.Equal(t, "lexical", c.Name())
	}
}

func FuzzLexicalParse(f *testing.F) {
	f.Add("class A { void f() {} int x; }")
	f.Add(testutil.JavaClass("G", 3, 2))
	f.Add("enum E { A { }, B; void f(); }")

	f.Fuzz(func(t *testing.T, src string) {
		out, err := NewLexical().Parse(context.Background(), []byte(src))
		if err != nil {
			return
		}
		n := strings.Count(src, "\n") + 1
		prevEnd := 0
		for _, td := range out.Types {
			if td.Span.Start <= prevEnd || td.Span.End < td.Span.Start || td.Span.End > n {
				t.Fatalf("bad type span %+v after %d (lines=%d)", td.Span, prevEnd, n)
			}
			memberEnd := 0
			for _, m := range td.Members {
				if m.Span.Start < td.Span.Start || m.Span.End > td.Span.End || m.Span.Start < memberEnd {
					t.Fatalf("member %+v escapes type %+v", m, td.Span)
				}
				memberEnd = m.Span.End
			}
			prevEnd = td.Span.End
		}
	})
}
