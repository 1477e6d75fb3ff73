package chunk

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"chunkgate/internal/config"
	"chunkgate/internal/errors"
	"chunkgate/internal/header"
	"chunkgate/internal/scan"
	"chunkgate/internal/slogutil"
	"chunkgate/internal/structure"
)

// snapSlack is how far past the nearest closing line a window may extend
// to end on a member or type boundary.
const snapSlack = 8

// Options are the engine's size limits.
type Options struct {
	// WholeMaxBytes is the largest file sent as one chunk, and the largest
	// type sent as one TypeBlock.
	WholeMaxBytes int
	// TypeMaxBytes is the file size above which every type with members is
	// split by member.
	TypeMaxBytes int
	// MaxChunkTokens and CharsPerToken give the character budget of a line
	// window.
	MaxChunkTokens int
	CharsPerToken  int
	// ContextLines are added above and below a line window's replace span.
	ContextLines int
	// MaxSnapLines bounds how far a window end may move to reach a line
	// that closes a block.
	MaxSnapLines int
}

// DefaultOptions mirrors config.DefaultConfig().Chunking.
func DefaultOptions() Options {
	return OptionsFromConfig(config.DefaultConfig().Chunking)
}

// OptionsFromConfig converts the chunking section of the configuration.
func OptionsFromConfig(c config.ChunkingConfig) Options {
	return Options{
		WholeMaxBytes:  c.WholeMaxBytes,
		TypeMaxBytes:   c.TypeMaxBytes,
		MaxChunkTokens: c.MaxChunkTokens,
		CharsPerToken:  c.CharsPerToken,
		ContextLines:   c.ContextLines,
		MaxSnapLines:   c.MaxSnapLines,
	}
}

// CharBudget is the character budget of one line window.
func (o Options) CharBudget() int {
	return o.MaxChunkTokens * o.CharsPerToken
}

// Engine decomposes files. It holds no per-file state and is safe for
// concurrent use when its parser is.
type Engine struct {
	opts   Options
	parser structure.Parser
	logger *slog.Logger
}

// NewEngine creates an engine. A nil parser means no structural capability:
// files above WholeMaxBytes are cut into line windows.
func NewEngine(opts Options, parser structure.Parser, logger *slog.Logger) *Engine {
	return &Engine{
		opts:   opts,
		parser: parser,
		logger: slogutil.Component(logger, "chunk"),
	}
}

// Decide picks the strategy for a file of the given size.
func (e *Engine) Decide(sizeBytes int) Strategy {
	switch {
	case sizeBytes <= e.opts.WholeMaxBytes:
		return Whole
	case e.parser != nil:
		return ByType
	default:
		return ByLines
	}
}

// Chunk decomposes src. Structural failures never surface as errors: the
// engine falls back to line windows and sets Degraded with the reason. The
// returned error is reserved for internal faults.
func (e *Engine) Chunk(ctx context.Context, src *SourceFile) (*FileContext, error) {
	fc := &FileContext{
		Source:   src,
		Path:     src.Path,
		Header:   header.Parse(src.Raw),
		Strategy: e.Decide(src.Size()),
	}

	switch fc.Strategy {
	case Whole:
		fc.Chunks = []*Chunk{{
			Kind:     WholeFile,
			Replace:  Span{Start: 1, End: src.LineCount()},
			Context:  Span{Start: 1, End: src.LineCount()},
			Original: src.Raw,
		}}

	case ByType:
		chunks, err := e.byType(ctx, src)
		if err == nil {
			number(chunks)
			err = Validate(chunks, src.LineCount())
		}
		if err != nil {
			fc.Strategy = ByLines
			fc.Degraded = true
			fc.DegradeReason = err.Error()
			e.logger.Warn("Structural chunking failed, using line windows",
				"path", src.Path,
				"reason", fc.DegradeReason)
			chunks = e.byLines(src)
		}
		fc.Chunks = chunks

	case ByLines:
		fc.Chunks = e.byLines(src)
	}

	number(fc.Chunks)
	if err := Validate(fc.Chunks, src.LineCount()); err != nil {
		return nil, errors.New(errors.InternalError, "chunk engine produced invalid spans", err)
	}

	e.logger.Debug("Chunked file",
		"path", src.Path,
		"strategy", fc.Strategy.String(),
		"chunks", len(fc.Chunks),
		"bytes", src.Size())
	return fc, nil
}

func number(chunks []*Chunk) {
	for i, c := range chunks {
		c.ID = i
	}
}

// byType cuts one chunk per top-level type, splitting large types by member.
func (e *Engine) byType(ctx context.Context, src *SourceFile) ([]*Chunk, error) {
	outline, err := e.parser.Parse(ctx, []byte(src.Raw))
	if err != nil {
		return nil, fmt.Errorf("structural parse: %w", err)
	}
	if outline == nil || len(outline.Types) == 0 {
		return nil, structure.ErrNoTypes
	}

	idx := scan.Build(src.Lines)
	splitAll := src.Size() > e.opts.TypeMaxBytes

	var chunks []*Chunk
	lastEnd := 0
	for _, td := range outline.Types {
		span := Span{Start: td.Span.Start, End: td.Span.End}
		if end, ok := idx.BlockEnd(span.Start); ok {
			span.End = end
		}
		if span.Start <= lastEnd {
			return nil, fmt.Errorf("type %s at line %d overlaps the previous type", td.Name, span.Start)
		}
		if span.Start < 1 || span.End > src.LineCount() || span.End < span.Start {
			return nil, fmt.Errorf("type %s has span %s outside the file", td.Name, span)
		}
		lastEnd = span.End

		text := src.Text(span)
		if splitAll || len(text) > e.opts.WholeMaxBytes {
			if members, ok := e.byMember(src, idx, td, span); ok {
				chunks = append(chunks, members...)
				continue
			}
			e.logger.Debug("Type cannot be split by member, keeping it whole",
				"path", src.Path,
				"type", td.Name)
		}

		chunks = append(chunks, &Chunk{
			Kind:     TypeBlock,
			Replace:  span,
			Context:  span,
			TypeName: td.Name,
			Original: text,
		})
	}
	return chunks, nil
}

// byMember cuts one chunk per member of a type. The lines before the first
// member, up to the last one holding code, form the shared prefix. Members that share a line are merged into
// one chunk. ok is false when the type cannot be split cleanly.
func (e *Engine) byMember(src *SourceFile, idx *scan.Index, td structure.TypeDecl, typeSpan Span) ([]*Chunk, bool) {
	if len(td.Members) == 0 || td.Members[0].Span.Start <= typeSpan.Start {
		return nil, false
	}
	prefix := Span{Start: typeSpan.Start, End: lastCodeLine(idx, typeSpan.Start, td.Members[0].Span.Start-1)}
	prefixText := src.Text(prefix)

	var out []*Chunk
	last := prefix.End
	for _, m := range td.Members {
		start := m.Span.Start
		if start <= last {
			if len(out) == 0 {
				return nil, false
			}
			prev := out[len(out)-1]
			if m.Span.End > prev.Replace.End {
				prev.Replace.End = m.Span.End
			}
			prev.MemberName += "," + m.Name
			last = prev.Replace.End
			continue
		}

		end := m.Span.End
		if blockEnd, ok := idx.BlockEnd(start); ok {
			end = blockEnd
		}
		out = append(out, &Chunk{
			Kind:       MemberBlock,
			Replace:    Span{Start: start, End: end},
			TypeName:   td.Name,
			MemberName: m.Name,
		})
		last = end
	}

	// The type's closing line must stay outside every member.
	if last >= typeSpan.End {
		return nil, false
	}

	for _, c := range out {
		p := prefix
		c.Context = c.Replace
		c.Prefix = &p
		c.SharedPrefix = prefixText
		c.Original = src.Text(c.Replace)
	}
	return out, true
}

// byLines cuts windows of roughly CharBudget characters, snapping each end
// forward to a line that closes a block.
func (e *Engine) byLines(src *SourceFile) []*Chunk {
	n := src.LineCount()
	avg := float64(src.Size()) / float64(n)
	if avg < 1 {
		avg = 1
	}
	window := int(float64(e.opts.CharBudget()) / avg)
	if window < 1 {
		window = 1
	}

	idx := scan.Build(src.Lines)
	var chunks []*Chunk
	for start := 1; start <= n; {
		end := start + window - 1
		if end >= n {
			end = n
		} else {
			end = e.snap(src, idx, end)
		}

		replace := Span{Start: start, End: end}
		chunks = append(chunks, &Chunk{
			Kind:     TextWindow,
			Replace:  replace,
			Context:  e.widen(replace, n),
			Original: src.Text(replace),
		})
		start = end + 1
	}
	return chunks
}

// snap moves end forward to the nearest line that closes a block, within
// MaxSnapLines. A line closing a member or type body up to snapSlack lines
// past that one is taken instead. end is kept when no closing line exists.
func (e *Engine) snap(src *SourceFile, idx *scan.Index, end int) int {
	limit := end + e.opts.MaxSnapLines
	if limit > src.LineCount() {
		limit = src.LineCount()
	}

	first := 0
	for j := end; j <= limit; j++ {
		if first != 0 && j > first+snapSlack {
			break
		}
		if !scan.ClosesBlock(src.Lines[j-1]) {
			continue
		}
		if idx.Lines[j-1].EndDepth <= 1 {
			return j
		}
		if first == 0 {
			first = j
		}
	}
	if first != 0 {
		return first
	}
	return end
}

// lastCodeLine returns the last line in [from, to] holding code outside
// comments, or from when there is none.
func lastCodeLine(idx *scan.Index, from, to int) int {
	for n := to; n > from; n-- {
		if strings.TrimSpace(idx.Lines[n-1].Code) != "" {
			return n
		}
	}
	return from
}

func (e *Engine) widen(s Span, n int) Span {
	c := Span{Start: s.Start - e.opts.ContextLines, End: s.End + e.opts.ContextLines}
	if c.Start < 1 {
		c.Start = 1
	}
	if c.End > n {
		c.End = n
	}
	return c
}
