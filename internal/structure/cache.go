package structure

import (
	"context"
	"crypto/sha256"

	lru "github.com/hashicorp/golang-lru/v2"
)

type parseEntry struct {
	outline *Outline
	err     error
}

type checkEntry struct {
	syntax *SyntaxError
	err    error
}

// Cached memoizes Parse and Check results by content hash. Chunking and the
// syntax stage usually see the same text more than once per attempt.
type Cached struct {
	inner  Capability
	parses *lru.Cache[[32]byte, parseEntry]
	checks *lru.Cache[[32]byte, checkEntry]
}

// WithCache wraps c in an LRU cache holding up to entries results per
// operation. entries <= 0 returns c unchanged.
func WithCache(c Capability, entries int) (Capability, error) {
	if c == nil || entries <= 0 {
		return c, nil
	}
	parses, err := lru.New[[32]byte, parseEntry](entries)
	if err != nil {
		return nil, err
	}
	checks, err := lru.New[[32]byte, checkEntry](entries)
	if err != nil {
		return nil, err
	}
	return &Cached{inner: c, parses: parses, checks: checks}, nil
}

// Name implements Capability.
func (c *Cached) Name() string {
	return c.inner.Name()
}

// Parse implements Parser. Context cancellation errors are not cached.
func (c *Cached) Parse(ctx context.Context, src []byte) (*Outline, error) {
	key := sha256.Sum256(src)
	if e, ok := c.parses.Get(key); ok {
		return e.outline, e.err
	}
	outline, err := c.inner.Parse(ctx, src)
	if ctx.Err() == nil {
		c.parses.Add(key, parseEntry{outline: outline, err: err})
	}
	return outline, err
}

// Check implements Checker.
func (c *Cached) Check(ctx context.Context, src []byte) (*SyntaxError, error) {
	key := sha256.Sum256(src)
	if e, ok := c.checks.Get(key); ok {
		return e.syntax, e.err
	}
	syntax, err := c.inner.Check(ctx, src)
	if ctx.Err() == nil {
		c.checks.Add(key, checkEntry{syntax: syntax, err: err})
	}
	return syntax, err
}

// Len returns the number of cached parse results.
func (c *Cached) Len() int {
	return c.parses.Len()
}
