// Package rewrite drives one transformation attempt: it feeds each chunk of
// a file to an external rewrite function, merges the results and hands the
// candidate to the validation gate.
package rewrite

import (
	"context"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"

	"chunkgate/internal/chunk"
	"chunkgate/internal/errors"
	"chunkgate/internal/gate"
	"chunkgate/internal/merge"
	"chunkgate/internal/slogutil"
	"chunkgate/internal/smell"
)

// Request is the input of one rewrite call.
type Request struct {
	ChunkID int
	// ChunkText is the only text the call may change.
	ChunkText string
	// ContextHeader holds the read-only declarations around the chunk.
	ContextHeader string
	Before        string
	After         string
	// Issue describes what the rewrite should address.
	Issue string
	// Prompt is the rendered text combining all of the above.
	Prompt string
}

// Func is an opaque rewrite call. Timeouts and retries are its own concern.
type Func func(ctx context.Context, req Request) (string, error)

var fenceRe = regexp.MustCompile("(?s)```(?:java)?[ \t]*\r?\n(.*?)```")

// ExtractCode returns the largest fenced code block in a response, or the
// whole response when it has none. Surrounding blank lines are dropped;
// the first line's indentation is kept.
func ExtractCode(response string) string {
	code := response
	best := -1
	for _, m := range fenceRe.FindAllStringSubmatch(response, -1) {
		if len(m[1]) > best {
			best = len(m[1])
			code = m[1]
		}
	}
	return trimBlankLines(code)
}

func trimBlankLines(s string) string {
	lines := strings.Split(strings.ReplaceAll(s, "\r\n", "\n"), "\n")
	start, end := 0, len(lines)
	for start < end && strings.TrimSpace(lines[start]) == "" {
		start++
	}
	for end > start && strings.TrimSpace(lines[end-1]) == "" {
		end--
	}
	for i := start; i < end; i++ {
		lines[i] = strings.TrimRight(lines[i], " \t")
	}
	return strings.Join(lines[start:end], "\n")
}

// Apply calls fn once per chunk, in order, and records each result with
// SetRewrite. Member chunks only see issues that apply to their member. An
// empty response or a failed call stops the attempt with REWRITE_FAILED.
func Apply(ctx context.Context, fc *chunk.FileContext, fn Func, issues []smell.Issue) error {
	for _, c := range fc.Chunks {
		if err := ctx.Err(); err != nil {
			return err
		}

		p := fc.Prompt(c)
		issue := smell.Describe(smell.ForMember(issues, c.MemberName))
		req := Request{
			ChunkID:       c.ID,
			ChunkText:     p.Body,
			ContextHeader: p.ContextHeader(),
			Before:        p.Before,
			After:         p.After,
			Issue:         issue,
			Prompt:        p.Render(issue),
		}

		resp, err := fn(ctx, req)
		if err != nil {
			return errors.New(errors.RewriteFailed, "rewriting chunk "+c.Replace.String(), err)
		}
		code := ExtractCode(resp)
		if code == "" {
			return errors.Newf(errors.RewriteFailed, "rewrite of chunk %s returned no code", c.Replace)
		}
		if c.Kind == chunk.WholeFile && strings.HasSuffix(c.Original, "\n") {
			code += "\n"
		}
		if err := c.SetRewrite(code); err != nil {
			return err
		}
	}
	return nil
}

// Result is everything one attempt produced.
type Result struct {
	File      *chunk.FileContext `json:"file"`
	Candidate string             `json:"-"`
	Stats     merge.Stats        `json:"stats"`
	Outcome   gate.Outcome       `json:"outcome"`
	Committed bool               `json:"committed"`
}

// Pipeline wires the chunk engine, merge and gate together.
type Pipeline struct {
	Engine *chunk.Engine
	Gate   *gate.Gate
	// Commit writes candidates that pass validation over the original file.
	Commit bool
	Logger *slog.Logger
}

// Run performs one attempt for the file at path: load, chunk, rewrite,
// merge, validate and optionally commit. There are no retries. A failed
// validation is reported in Result.Outcome, not as an error.
func (p *Pipeline) Run(ctx context.Context, path string, fn Func, issues []smell.Issue) (*Result, error) {
	path, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.New(errors.SourceUnreadable, "resolving path", err)
	}
	logger := slogutil.Component(p.Logger, "rewrite").With("path", path)

	src, err := chunk.LoadSourceFile(path)
	if err != nil {
		return nil, err
	}
	fc, err := p.Engine.Chunk(ctx, src)
	if err != nil {
		return nil, err
	}
	logger.Info("File chunked",
		"strategy", fc.Strategy.String(),
		"chunks", len(fc.Chunks),
		"degraded", fc.Degraded)

	if err := Apply(ctx, fc, fn, issues); err != nil {
		return &Result{File: fc}, err
	}

	candidate, stats, err := merge.MergeWithStats(fc)
	if err != nil {
		return &Result{File: fc}, err
	}
	res := &Result{File: fc, Candidate: candidate, Stats: stats}
	logger.Info("Chunks merged",
		"rewritten", stats.ChunksRewritten,
		"lineDelta", stats.LineDelta)

	req := gate.Request{Path: path, Candidate: candidate, TypeName: typeName(fc)}
	res.Outcome, err = p.Gate.Validate(ctx, req)
	if err != nil {
		return res, err
	}
	if !res.Outcome.Passed() {
		logger.Info("Candidate rejected",
			"status", res.Outcome.Status.String(),
			"message", res.Outcome.Message)
		return res, nil
	}

	if p.Commit {
		if err := p.Gate.Commit(req); err != nil {
			return res, err
		}
		res.Committed = true
	}
	return res, nil
}

// typeName picks the type whose tests cover this file: the first chunked
// type, else the file name.
func typeName(fc *chunk.FileContext) string {
	for _, c := range fc.Chunks {
		if c.TypeName != "" {
			return qualify(fc.Header.Package, c.TypeName)
		}
	}
	base := strings.TrimSuffix(filepath.Base(fc.Path), filepath.Ext(fc.Path))
	return qualify(fc.Header.Package, base)
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}
