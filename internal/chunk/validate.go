package chunk

import (
	"sort"

	"chunkgate/internal/errors"
)

// SpanViolation describes why a set of replace spans does not tile a file.
type SpanViolation struct {
	ChunkID int    `json:"chunkId"`
	Span    Span   `json:"span"`
	Reason  string `json:"reason"`
}

// Validate checks that the chunks' replace spans lie within a file of
// lineCount lines and, sorted by start, are non-overlapping and strictly
// increasing. A WholeFile chunk must be alone and cover every line. The
// returned error has code INVALID_SPANS and carries a *SpanViolation.
func Validate(chunks []*Chunk, lineCount int) error {
	if len(chunks) == 0 {
		return invalidSpans(SpanViolation{ChunkID: -1, Reason: "no chunks"})
	}

	for _, c := range chunks {
		if c.Kind != WholeFile {
			continue
		}
		if len(chunks) != 1 {
			return invalidSpans(SpanViolation{ChunkID: c.ID, Span: c.Replace, Reason: "whole-file chunk mixed with other chunks"})
		}
		if c.Replace.Start != 1 || c.Replace.End != lineCount {
			return invalidSpans(SpanViolation{ChunkID: c.ID, Span: c.Replace, Reason: "whole-file chunk does not cover the file"})
		}
	}

	sorted := Sorted(chunks)
	prevEnd := 0
	for _, c := range sorted {
		s := c.Replace
		switch {
		case s.Start < 1 || s.End > lineCount:
			return invalidSpans(SpanViolation{ChunkID: c.ID, Span: s, Reason: "span outside the file"})
		case s.End < s.Start:
			return invalidSpans(SpanViolation{ChunkID: c.ID, Span: s, Reason: "span ends before it starts"})
		case s.Start <= prevEnd:
			return invalidSpans(SpanViolation{ChunkID: c.ID, Span: s, Reason: "span overlaps the previous chunk"})
		}
		prevEnd = s.End
	}
	return nil
}

// Sorted returns the chunks ordered by replace start, leaving the input
// untouched.
func Sorted(chunks []*Chunk) []*Chunk {
	out := make([]*Chunk, len(chunks))
	copy(out, chunks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Replace.Start < out[j].Replace.Start
	})
	return out
}

func invalidSpans(v SpanViolation) error {
	return errors.Newf(errors.InvalidSpans, "chunk %d %s: %s", v.ChunkID, v.Span, v.Reason).WithDetails(&v)
}
