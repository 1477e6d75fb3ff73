package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"chunkgate/internal/gate"
	"chunkgate/internal/rewrite"
	"chunkgate/internal/smell"
)

var (
	rewriteCommand string
	rewriteTimeout time.Duration
	rewriteSmells  string
	rewriteSmell   []string
	rewriteCommit  bool
	rewriteFormat  string
)

var rewriteCmd = &cobra.Command{
	Use:   "rewrite <file>",
	Short: "Rewrite a file chunk by chunk and validate the result",
	Long: `Run one rewrite attempt: each chunk's rewrite input is piped to --command,
whose standard output is taken as the rewrite (a fenced code block is
extracted when present). The merged candidate is validated and, with
--commit, written over the file when it passes.

Smells steer the rewrite. They come from --smells, a JSON or YAML list of
{kind, cause, method}, and from repeated --smell flags.

Examples:
  chunkgate rewrite Blog.java --command "llm -m local" --smell "God Class"
  chunkgate rewrite Blog.java --command ./refactor.sh --smells smells.yaml --commit`,
	Args: cobra.ExactArgs(1),
	RunE: runRewrite,
}

func init() {
	rewriteCmd.Flags().StringVar(&rewriteCommand, "command", "", "Command that rewrites one chunk (input on stdin)")
	rewriteCmd.Flags().DurationVar(&rewriteTimeout, "timeout", 5*time.Minute, "Timeout of one rewrite call")
	rewriteCmd.Flags().StringVar(&rewriteSmells, "smells", "", "JSON or YAML file listing detected smells")
	rewriteCmd.Flags().StringArrayVar(&rewriteSmell, "smell", nil, "Smell name affecting the whole file (repeatable)")
	rewriteCmd.Flags().BoolVar(&rewriteCommit, "commit", false, "Write a passing candidate over the file")
	rewriteCmd.Flags().StringVar(&rewriteFormat, "format", "human", "Output format (json, yaml, human)")
	_ = rewriteCmd.MarkFlagRequired("command")
	rootCmd.AddCommand(rewriteCmd)
}

func runRewrite(cmd *cobra.Command, args []string) error {
	format, err := parseFormat(rewriteFormat)
	if err != nil {
		return err
	}
	argv := strings.Fields(rewriteCommand)
	if len(argv) == 0 {
		return fmt.Errorf("--command is empty")
	}
	issues, err := loadIssues(rewriteSmells, rewriteSmell)
	if err != nil {
		return err
	}

	e, err := loadEnv(cmd)
	if err != nil {
		return err
	}
	defer e.Close()

	p := &rewrite.Pipeline{
		Engine: e.engine(),
		Gate:   e.gate(),
		Commit: rewriteCommit,
		Logger: e.logger,
	}
	res, err := p.Run(cmd.Context(), args[0], commandFunc(argv, rewriteTimeout), issues)
	if err != nil {
		return err
	}

	if err := writeResponse(cmd.OutOrStdout(), []gate.Outcome{res.Outcome}, format); err != nil {
		return err
	}
	if !res.Outcome.Passed() {
		return &rejectedError{status: res.Outcome.Status}
	}
	return nil
}

// commandFunc runs argv once per chunk with the rendered rewrite input on
// stdin and returns its standard output.
func commandFunc(argv []string, timeout time.Duration) rewrite.Func {
	return func(ctx context.Context, req rewrite.Request) (string, error) {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		c := exec.CommandContext(ctx, argv[0], argv[1:]...)
		c.Stdin = strings.NewReader(req.Prompt)
		c.Env = append(os.Environ(), fmt.Sprintf("CHUNKGATE_CHUNK_ID=%d", req.ChunkID))
		var stdout, stderr bytes.Buffer
		c.Stdout = &stdout
		c.Stderr = &stderr
		if err := c.Run(); err != nil {
			if msg := strings.TrimSpace(stderr.String()); msg != "" {
				return "", fmt.Errorf("%w: %s", err, msg)
			}
			return "", err
		}
		return stdout.String(), nil
	}
}

// loadIssues reads a smells file and appends one file-level issue per
// name.
func loadIssues(path string, names []string) ([]smell.Issue, error) {
	var issues []smell.Issue
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading smells: %w", err)
		}
		switch strings.ToLower(filepath.Ext(path)) {
		case ".yaml", ".yml":
			err = yaml.Unmarshal(data, &issues)
		default:
			err = json.Unmarshal(data, &issues)
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", path, err)
		}
	}
	for _, n := range names {
		issues = append(issues, smell.Issue{Kind: smell.ParseKind(n)})
	}
	return issues, nil
}
