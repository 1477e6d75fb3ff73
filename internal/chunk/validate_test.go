package chunk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/errors"
)

func spans(kind Kind, ss ...Span) []*Chunk {
	out := make([]*Chunk, len(ss))
	for i, s := range ss {
		out[i] = &Chunk{ID: i, Kind: kind, Replace: s, Context: s}
	}
	return out
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		chunks []*Chunk
		lines  int
		reason string
	}{
		{"tiling", spans(TextWindow, Span{1, 3}, Span{4, 10}), 10, ""},
		{"gaps allowed", spans(MemberBlock, Span{2, 3}, Span{6, 8}), 10, ""},
		{"unsorted input", spans(MemberBlock, Span{6, 8}, Span{2, 3}), 10, ""},
		{"whole file", spans(WholeFile, Span{1, 10}), 10, ""},
		{"empty", nil, 10, "no chunks"},
		{"overlap", spans(TypeBlock, Span{1, 5}, Span{5, 9}), 10, "overlaps"},
		{"past end", spans(TypeBlock, Span{8, 11}), 10, "outside the file"},
		{"before start", spans(TypeBlock, Span{0, 2}), 10, "outside the file"},
		{"inverted", spans(TypeBlock, Span{5, 4}), 10, "ends before it starts"},
		{"partial whole file", spans(WholeFile, Span{1, 9}), 10, "does not cover"},
		{"whole file mixed", append(spans(WholeFile, Span{1, 10}), spans(TypeBlock, Span{1, 2})...), 10, "mixed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.chunks, tt.lines)
			if tt.reason == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, errors.ErrInvalidSpans)
			assert.Contains(t, err.Error(), tt.reason)

			var e *errors.Error
			require.ErrorAs(t, err, &e)
			v, ok := e.Details.(*SpanViolation)
			require.True(t, ok, "details should be a *SpanViolation")
			assert.Contains(t, v.Reason, tt.reason)
		})
	}
}

func TestSorted(t *testing.T) {
	in := spans(MemberBlock, Span{9, 9}, Span{1, 2}, Span{4, 5})

	out := Sorted(in)

	assert.Equal(t, []int{1, 2, 0}, []int{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, 0, in[0].ID, "input order must be kept")
}
