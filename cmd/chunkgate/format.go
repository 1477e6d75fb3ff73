package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"chunkgate/internal/chunk"
	"chunkgate/internal/gate"
)

// OutputFormat is the --format flag value of commands that print results.
type OutputFormat string

const (
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
	FormatHuman OutputFormat = "human"
)

func parseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatJSON, FormatYAML, FormatHuman:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported format: %s (want json, yaml or human)", s)
	}
}

// writeResponse writes resp in the given format. Types without a human
// rendering fall back to JSON.
func writeResponse(w io.Writer, resp any, format OutputFormat) error {
	var out string
	switch format {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(resp); err != nil {
			return fmt.Errorf("failed to marshal YAML: %w", err)
		}
		if err := enc.Close(); err != nil {
			return err
		}
		out = buf.String()
	case FormatHuman:
		switch v := resp.(type) {
		case *chunk.FileContext:
			out = formatPlanHuman(v)
		case []gate.Outcome:
			out = formatOutcomesHuman(v)
		default:
			return writeResponse(w, resp, FormatJSON)
		}
	default:
		data, err := json.MarshalIndent(resp, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		out = string(data) + "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}

func formatPlanHuman(fc *chunk.FileContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s\n", fc.Path)
	fmt.Fprintf(&b, "Strategy: %s, %d lines, %d chunks\n", fc.Strategy, fc.Source.LineCount(), len(fc.Chunks))
	if fc.Degraded {
		fmt.Fprintf(&b, "Degraded: %s\n", fc.DegradeReason)
	}
	if fc.Header.Package != "" {
		fmt.Fprintf(&b, "Package: %s\n", fc.Header.Package)
	}
	if n := len(fc.Header.Imports); n > 0 {
		fmt.Fprintf(&b, "Imports: %d\n", n)
	}
	b.WriteString("\n")

	for _, c := range fc.Chunks {
		name := c.TypeName
		if c.MemberName != "" {
			name += "." + c.MemberName
		}
		fmt.Fprintf(&b, "  #%-3d %-10s replace %-9s context %-9s %s\n",
			c.ID, c.Kind, c.Replace, c.Context, name)
	}
	return b.String()
}

func formatOutcomesHuman(outcomes []gate.Outcome) string {
	var b strings.Builder
	for i, o := range outcomes {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s: %s (stage %s, %s)\n", o.Path, o.Status, o.Stage, o.Duration.Round(1e6))
		if o.Message != "" {
			fmt.Fprintf(&b, "  %s\n", o.Message)
		}
		if o.Unchecked {
			b.WriteString("  syntax not checked: no parser available\n")
		}
		for _, d := range o.Diagnostics {
			fmt.Fprintf(&b, "  %s\n", d)
		}
		for _, t := range o.FailingTests {
			fmt.Fprintf(&b, "  failed: %s\n", t)
		}
		if len(o.SelectedTests) > 0 {
			fmt.Fprintf(&b, "  selected tests: %s\n", strings.Join(o.SelectedTests, ", "))
		}
	}
	return b.String()
}
