// Package merge splices chunk rewrites back into their source file.
package merge

import (
	"strings"

	"chunkgate/internal/chunk"
	"chunkgate/internal/errors"
)

// Stats summarises a merge.
type Stats struct {
	ChunksRewritten int `json:"chunksRewritten"`
	// LineDelta is the merged line count minus the original line count.
	LineDelta int `json:"lineDelta"`
}

// Merge reassembles fc with each chunk's rewrite, or its original text when
// none was set. Text outside every replace span is copied unchanged.
func Merge(fc *chunk.FileContext) (string, error) {
	out, _, err := MergeWithStats(fc)
	return out, err
}

// MergeWithStats is Merge that also reports what changed. It fails with
// INVALID_SPANS, without producing output, when the replace spans do not tile
// the file.
func MergeWithStats(fc *chunk.FileContext) (string, Stats, error) {
	if fc == nil || fc.Source == nil {
		return "", Stats{}, errors.New(errors.InternalError, "merge needs a file context with its source", nil)
	}
	src := fc.Source
	if err := chunk.Validate(fc.Chunks, src.LineCount()); err != nil {
		return "", Stats{}, err
	}

	stats := Stats{ChunksRewritten: fc.Rewritten()}

	if len(fc.Chunks) == 1 && fc.Chunks[0].Kind == chunk.WholeFile {
		out := fc.Chunks[0].Replacement()
		stats.LineDelta = strings.Count(out, "\n") - strings.Count(src.Raw, "\n")
		return out, stats, nil
	}

	lines := make([]string, len(src.Lines))
	copy(lines, src.Lines)

	// Spans refer to the original file; delta shifts them onto the lines
	// already spliced.
	delta := 0
	for _, c := range chunk.Sorted(fc.Chunks) {
		text, ok := c.Rewritten()
		if !ok {
			continue
		}
		repl := strings.Split(text, "\n")
		start := c.Replace.Start - 1 + delta
		end := c.Replace.End + delta

		spliced := make([]string, 0, len(lines)-(end-start)+len(repl))
		spliced = append(spliced, lines[:start]...)
		spliced = append(spliced, repl...)
		spliced = append(spliced, lines[end:]...)
		lines = spliced

		delta += len(repl) - c.Replace.Len()
	}

	stats.LineDelta = delta
	return strings.Join(lines, "\n"), stats, nil
}
