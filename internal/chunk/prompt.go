package chunk

import "strings"

// Prompt is the input the rewrite call sees for one chunk. Only Body is to
// be rewritten; everything else is read-only context.
type Prompt struct {
	// Header is the package and import preamble. Empty for whole-file chunks,
	// whose body already contains it.
	Header string
	// Prefix is the enclosing type's declaration and fields, for member chunks.
	Prefix string
	// Before and After are context lines around Body for line windows.
	Before string
	After  string
	// Body is the text of the replace span.
	Body string
}

// Prompt builds the rewrite input for a chunk of this file.
func (fc *FileContext) Prompt(c *Chunk) Prompt {
	p := Prompt{Body: c.Original}
	if c.Kind == WholeFile {
		return p
	}

	p.Header = fc.Header.Text()
	p.Prefix = c.SharedPrefix
	if c.Context.Start < c.Replace.Start {
		p.Before = fc.Source.Text(Span{Start: c.Context.Start, End: c.Replace.Start - 1})
	}
	if c.Context.End > c.Replace.End {
		p.After = fc.Source.Text(Span{Start: c.Replace.End + 1, End: c.Context.End})
	}
	return p
}

// ContextHeader joins the read-only declarations that precede the body:
// the file header and, for member chunks, the type's shared prefix followed
// by a marker for the members left out.
func (p Prompt) ContextHeader() string {
	var parts []string
	if p.Header != "" {
		parts = append(parts, strings.TrimRight(p.Header, "\n"))
	}
	if p.Prefix != "" {
		parts = append(parts, p.Prefix, "    // ... other members ...")
	}
	return strings.Join(parts, "\n")
}

// Render lays the prompt out as one text with labelled sections.
func (p Prompt) Render(issue string) string {
	var lines []string
	if h := p.ContextHeader(); h != "" {
		lines = append(lines, "// File context (imports and declarations):", h, "")
	}
	if issue != "" {
		lines = append(lines, "// Detected design smells in this code:", issue, "")
	}
	if p.Before != "" {
		lines = append(lines, "// Preceding context (read-only):", p.Before, "")
	}
	lines = append(lines, "// Code to refactor:", p.Body)
	if p.After != "" {
		lines = append(lines, "", "// Following context (read-only):", p.After)
	}
	return strings.Join(lines, "\n")
}

// PromptText renders the rewrite input for chunk c with the given issue
// description.
func (fc *FileContext) PromptText(c *Chunk, issue string) string {
	return fc.Prompt(c).Render(issue)
}
