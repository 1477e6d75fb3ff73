// Package header extracts the package declaration and imports that precede
// the first type declaration of a Java source file.
package header

import (
	"regexp"
	"strings"

	"chunkgate/internal/scan"
)

var packageRe = regexp.MustCompile(`^package\s+([\w.]+)\s*;`)

// Header is a file's preamble. Imports keep their source order and are not
// deduplicated.
type Header struct {
	Package string   `json:"package,omitempty" yaml:"package,omitempty"`
	Imports []string `json:"imports,omitempty" yaml:"imports,omitempty"`
}

// Parse scans raw line by line and stops at the first type declaration, so
// import-like text inside a body is never picked up. Lines inside comments
// and text blocks are ignored. Parse never fails.
func Parse(raw string) Header {
	var h Header
	idx := scan.Text(raw)

	for _, l := range idx.Lines {
		code := strings.TrimSpace(l.Code)
		switch {
		case code == "":
			continue
		case strings.HasPrefix(code, "package "):
			if h.Package != "" {
				continue
			}
			if m := packageRe.FindStringSubmatch(code); m != nil {
				h.Package = m[1]
			}
		case strings.HasPrefix(code, "import "):
			h.Imports = append(h.Imports, strings.TrimSpace(code))
		default:
			if _, _, ok := scan.TypeDecl(code); ok {
				return h
			}
		}
	}
	return h
}

// Text renders the header as it is handed to the rewrite call: the package
// line, a blank line, the imports and a closing blank line. An empty header
// renders as "".
func (h Header) Text() string {
	var lines []string
	if h.Package != "" {
		lines = append(lines, "package "+h.Package+";", "")
	}
	lines = append(lines, h.Imports...)
	if len(h.Imports) > 0 {
		lines = append(lines, "")
	}
	return strings.Join(lines, "\n")
}

// IsEmpty reports whether neither a package nor an import was found.
func (h Header) IsEmpty() bool {
	return h.Package == "" && len(h.Imports) == 0
}
