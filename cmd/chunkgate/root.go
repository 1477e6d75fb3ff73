package main

import (
	"fmt"
	"io"
	"log/slog"
	"path/filepath"

	"github.com/spf13/cobra"

	"chunkgate/internal/chunk"
	"chunkgate/internal/config"
	"chunkgate/internal/gate"
	"chunkgate/internal/slogutil"
	"chunkgate/internal/structure"
	"chunkgate/internal/version"
)

var (
	repoFlag    string
	verboseFlag int
	quietFlag   bool
)

var rootCmd = &cobra.Command{
	Use:   "chunkgate",
	Short: "Chunk, merge and validate rewrites of Java source files",
	Long: `chunkgate decomposes Java source files into replaceable chunks, merges
rewritten chunks back into a candidate file and validates candidates by
syntax check, build and tests. The working tree always ends up holding the
bytes it held before validation.`,
	Version:       version.Info(),
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.SetVersionTemplate("chunkgate version {{.Version}}\n")
	rootCmd.PersistentFlags().StringVar(&repoFlag, "repo", ".", "Working tree root")
	rootCmd.PersistentFlags().CountVarP(&verboseFlag, "verbose", "v", "Increase log verbosity (-v, -vv)")
	rootCmd.PersistentFlags().BoolVarP(&quietFlag, "quiet", "q", false, "Only log errors")
}

// rejectedError reports a candidate that failed validation. It maps to exit
// code 2 and carries no message of its own; the outcome was already printed.
type rejectedError struct {
	status gate.Status
}

func (e *rejectedError) Error() string {
	return "candidate rejected: " + e.status.String()
}

// env is what every command needs: configuration, a logger and the
// structural capability.
type env struct {
	root   string
	cfg    *config.Config
	logger *slog.Logger
	closer io.Closer
	cap    structure.Capability
}

func loadEnv(cmd *cobra.Command) (*env, error) {
	root, err := absPath(repoFlag)
	if err != nil {
		return nil, err
	}
	cfg, err := config.LoadConfig(root)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger, closer, err := slogutil.Setup(root, cfg.Logging, cmd.ErrOrStderr(),
		slogutil.LevelFromVerbosity(verboseFlag, quietFlag))
	if err != nil {
		return nil, fmt.Errorf("opening log file: %w", err)
	}

	c, err := structure.WithCache(structure.Detect(), cfg.Cache.ParseEntries)
	if err != nil {
		_ = closer.Close()
		return nil, err
	}
	logger.Debug("Environment loaded", "root", root, "parser", c.Name())
	return &env{root: root, cfg: cfg, logger: logger, closer: closer, cap: c}, nil
}

func (e *env) Close() error {
	return e.closer.Close()
}

// engine builds the chunk engine. The "lines" strategy never consults the
// parser.
func (e *env) engine() *chunk.Engine {
	var parser structure.Parser = e.cap
	if e.cfg.Chunking.Strategy == "lines" {
		parser = nil
	}
	return chunk.NewEngine(chunk.OptionsFromConfig(e.cfg.Chunking), parser, e.logger)
}

func (e *env) gate() *gate.Gate {
	return gate.New(e.root, gate.OptionsFromConfig(e.cfg.Validation), e.cap, nil, e.logger)
}

func absPath(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolving %s: %w", p, err)
	}
	return abs, nil
}
