package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"chunkgate/internal/gate"
	"chunkgate/internal/header"
)

var (
	validateType   string
	validateJobs   int
	validateCommit bool
	validateFormat string
)

var validateCmd = &cobra.Command{
	Use:   "validate <file> <candidate> [<file> <candidate>...]",
	Short: "Validate candidate replacements for files",
	Long: `Check each candidate by syntax, build and tests while it temporarily
occupies its file. The file is restored whatever the outcome. Pairs run in
parallel and must name distinct files.

Exit status is 0 when every candidate passed, 2 when one was rejected and 1
on errors.

Examples:
  chunkgate validate src/main/java/org/example/Blog.java /tmp/Blog.java
  chunkgate validate A.java A.new B.java B.new --jobs 2 --commit`,
	Args: func(cmd *cobra.Command, args []string) error {
		if len(args) == 0 || len(args)%2 != 0 {
			return fmt.Errorf("expected <file> <candidate> pairs, got %d arguments", len(args))
		}
		return nil
	},
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateType, "type", "", "Type whose tests to run (default: derived from the candidate)")
	validateCmd.Flags().IntVarP(&validateJobs, "jobs", "j", 1, "Maximum parallel validations")
	validateCmd.Flags().BoolVar(&validateCommit, "commit", false, "Write passing candidates over their files")
	validateCmd.Flags().StringVar(&validateFormat, "format", "human", "Output format (json, yaml, human)")
	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(validateFormat)
	if err != nil {
		return err
	}
	if validateType != "" && len(args) > 2 {
		return fmt.Errorf("--type applies to a single file")
	}
	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	g := e.gate()
	jobs, err := validationJobs(g, args, validateType)
	if err != nil {
		return err
	}

	outcomes, err := gate.ValidateAll(cmd.Context(), jobs, validateJobs)
	if err != nil {
		return err
	}
	if err := writeResponse(cmd.OutOrStdout(), outcomes, format); err != nil {
		return err
	}

	for _, o := range outcomes {
		if !o.Passed() {
			return &rejectedError{status: o.Status}
		}
	}
	if validateCommit {
		for _, j := range jobs {
			if err := g.Commit(j.Request); err != nil {
				return err
			}
		}
	}
	return nil
}

// validationJobs reads the candidates of <file> <candidate> pairs.
func validationJobs(g *gate.Gate, args []string, typeName string) ([]gate.Job, error) {
	jobs := make([]gate.Job, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		target, err := filepath.Abs(args[i])
		if err != nil {
			return nil, err
		}
		data, err := os.ReadFile(args[i+1])
		if err != nil {
			return nil, fmt.Errorf("reading candidate: %w", err)
		}
		candidate := string(data)
		name := typeName
		if name == "" {
			name = derivedTypeName(target, candidate)
		}
		jobs = append(jobs, gate.Job{
			Gate:    g,
			Request: gate.Request{Path: target, Candidate: candidate, TypeName: name},
		})
	}
	return jobs, nil
}

// derivedTypeName qualifies the file's base name with the candidate's
// package.
func derivedTypeName(path, candidate string) string {
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	if pkg := header.Parse(candidate).Package; pkg != "" {
		return pkg + "." + name
	}
	return name
}
