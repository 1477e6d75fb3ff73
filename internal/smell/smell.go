// Package smell names the design issues a rewrite is asked to address and
// ranks them.
package smell

import (
	"fmt"
	"sort"
	"strings"
)

// Kind is a design smell category.
type Kind int

const (
	Unknown Kind = iota
	GodClass
	BlobClass
	LongMethod
	ComplexMethod
	FeatureEnvy
	DataClass
	LongParameterList
	DuplicateAbstraction
	MagicNumber
	EmptyCatch
)

// Info is the static description of a kind.
type Info struct {
	Name string
	// Weight ranks kinds; higher is addressed first.
	Weight int
	// Hint is a one-line refactoring strategy for the rewrite call.
	Hint string
	// MemberLevel is set for smells located in a single method.
	MemberLevel bool
}

var kinds = map[Kind]Info{
	Unknown:              {Name: "Unknown", Weight: 1, Hint: "Improve the structure without changing behavior."},
	GodClass:             {Name: "God Class", Weight: 10, Hint: "Extract each distinct responsibility into a focused class."},
	BlobClass:            {Name: "Blob Class", Weight: 10, Hint: "Move data and behavior that belong together into their own classes."},
	LongMethod:           {Name: "Long Method", Weight: 9, Hint: "Extract logical sections into well-named methods.", MemberLevel: true},
	ComplexMethod:        {Name: "Complex Method", Weight: 9, Hint: "Simplify conditionals with guard clauses and extracted methods.", MemberLevel: true},
	FeatureEnvy:          {Name: "Feature Envy", Weight: 8, Hint: "Move the method toward the data it uses most.", MemberLevel: true},
	DataClass:            {Name: "Data Class", Weight: 7, Hint: "Move behavior that uses this data into the class."},
	LongParameterList:    {Name: "Long Parameter List", Weight: 6, Hint: "Group related parameters into a parameter object.", MemberLevel: true},
	DuplicateAbstraction: {Name: "Duplicate Abstraction", Weight: 5, Hint: "Pull common behavior into a shared abstraction."},
	MagicNumber:          {Name: "Magic Number", Weight: 3, Hint: "Replace literals with named constants.", MemberLevel: true},
	EmptyCatch:           {Name: "Empty Catch Clause", Weight: 2, Hint: "Handle or log the caught exception.", MemberLevel: true},
}

var byName = func() map[string]Kind {
	m := make(map[string]Kind, len(kinds))
	for k, info := range kinds {
		m[normalize(info.Name)] = k
	}
	// Designite spells these differently across versions.
	m[normalize("Empty catch block")] = EmptyCatch
	m[normalize("Insufficient Modularization")] = GodClass
	return m
}()

func normalize(s string) string {
	return strings.Map(func(r rune) rune {
		switch r {
		case ' ', '_', '-':
			return -1
		}
		return r
	}, strings.ToLower(strings.TrimSpace(s)))
}

// ParseKind maps a smell name to its kind. Matching ignores case, spaces,
// underscores and dashes. Unrecognised names map to Unknown.
func ParseKind(s string) Kind {
	if k, ok := byName[normalize(s)]; ok {
		return k
	}
	return Unknown
}

// Info returns the kind's description. Out of range kinds describe as
// Unknown.
func (k Kind) Info() Info {
	if info, ok := kinds[k]; ok {
		return info
	}
	return kinds[Unknown]
}

func (k Kind) String() string {
	if info, ok := kinds[k]; ok {
		return info.Name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText parses a kind name with ParseKind.
func (k *Kind) UnmarshalText(b []byte) error {
	*k = ParseKind(string(b))
	return nil
}

// Issue is one detected smell.
type Issue struct {
	Kind  Kind   `json:"kind" yaml:"kind"`
	Cause string `json:"cause,omitempty" yaml:"cause,omitempty"`
	// Method locates member-level smells.
	Method string `json:"method,omitempty" yaml:"method,omitempty"`
}

func (i Issue) String() string {
	var b strings.Builder
	b.WriteString(i.Kind.String())
	if i.Method != "" {
		b.WriteString(" in ")
		b.WriteString(i.Method)
	}
	if i.Cause != "" {
		b.WriteString(": ")
		b.WriteString(i.Cause)
	}
	return b.String()
}

// Rank orders issues by descending weight, keeping input order for ties.
// The input is not modified.
func Rank(issues []Issue) []Issue {
	out := append([]Issue(nil), issues...)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Kind.Info().Weight > out[j].Kind.Info().Weight
	})
	return out
}

// Describe renders ranked issues as the issue text of a rewrite call: one
// "- " line per issue, then one hint line per distinct kind.
func Describe(issues []Issue) string {
	if len(issues) == 0 {
		return ""
	}
	ranked := Rank(issues)

	var lines []string
	for _, is := range ranked {
		lines = append(lines, "- "+is.String())
	}

	seen := make(map[Kind]bool)
	var hints []string
	for _, is := range ranked {
		if seen[is.Kind] {
			continue
		}
		seen[is.Kind] = true
		hints = append(hints, fmt.Sprintf("  %s: %s", is.Kind, is.Kind.Info().Hint))
	}
	lines = append(lines, "Suggested strategy:")
	lines = append(lines, hints...)
	return strings.Join(lines, "\n")
}

// ForMember returns the issues that apply to a chunk holding the named
// member: class-level issues and member-level issues located in it.
// Member-level issues without a method apply everywhere.
func ForMember(issues []Issue, member string) []Issue {
	var out []Issue
	for _, is := range issues {
		if is.Kind.Info().MemberLevel && is.Method != "" && member != "" && !containsName(member, is.Method) {
			continue
		}
		out = append(out, is)
	}
	return out
}

// containsName reports whether a comma-joined member list names m.
func containsName(members, m string) bool {
	for _, name := range strings.Split(members, ",") {
		if name == m {
			return true
		}
	}
	return false
}
