package gate

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"chunkgate/internal/config"
	"chunkgate/internal/errors"
	"chunkgate/internal/paths"
	"chunkgate/internal/slogutil"
	"chunkgate/internal/structure"
)

// outputTailLines is how much tool output an Outcome keeps.
const outputTailLines = 60

// StageOptions configures a subprocess-backed stage.
type StageOptions struct {
	Enabled bool
	Argv    []string
	Timeout time.Duration
}

// Options configures a Gate.
type Options struct {
	// RequireParser makes a missing syntax checker a ToolUnavailable outcome
	// instead of an unchecked pass.
	RequireParser bool
	Build         StageOptions
	Test          StageOptions
	// SelectArg is appended to the test command when related tests exist;
	// {tests} becomes their comma-joined names.
	SelectArg string
	TestRoots []string
}

// OptionsFromConfig converts the validation section of the configuration.
func OptionsFromConfig(c config.ValidationConfig) Options {
	return Options{
		RequireParser: c.Syntax.RequireParser,
		Build: StageOptions{
			Enabled: c.Build.Enabled,
			Argv:    strings.Fields(c.Build.Command),
			Timeout: time.Duration(c.Build.TimeoutSec) * time.Second,
		},
		Test: StageOptions{
			Enabled: c.Test.Enabled,
			Argv:    strings.Fields(c.Test.Command),
			Timeout: time.Duration(c.Test.TimeoutSec) * time.Second,
		},
		SelectArg: c.Test.SelectArg,
		TestRoots: c.Test.TestRoots,
	}
}

// Request is one candidate to validate.
type Request struct {
	// Path is the file the candidate would replace. Relative paths resolve
	// against the gate's root.
	Path      string
	Candidate string
	// TypeName narrows the test stage to the type's tests. Empty runs the
	// full suite.
	TypeName string
}

// Gate validates candidates for files of one working tree. At most one
// validation per file runs at a time, within and across processes.
type Gate struct {
	root    string
	opts    Options
	checker structure.Checker
	runner  Runner
	logger  *slog.Logger

	mu       sync.Mutex
	inflight map[string]bool
}

// New creates a gate for the working tree at root. A nil checker skips the
// syntax stage; a nil runner runs real subprocesses.
func New(root string, opts Options, checker structure.Checker, runner Runner, logger *slog.Logger) *Gate {
	if runner == nil {
		runner = NewExecRunner()
	}
	return &Gate{
		root:     root,
		opts:     opts,
		checker:  checker,
		runner:   runner,
		logger:   slogutil.Component(logger, "gate"),
		inflight: make(map[string]bool),
	}
}

// Root returns the working tree root.
func (g *Gate) Root() string {
	return g.root
}

// Validate runs the enabled stages in order and stops at the first failure.
// Failing stages are reported in the Outcome; the error return is reserved
// for infrastructure failures (lock held, snapshot or restore failure,
// cancellation). When Validate returns, the file holds the bytes it held
// before the call.
func (g *Gate) Validate(ctx context.Context, req Request) (out Outcome, err error) {
	start := time.Now()
	out = Outcome{AttemptID: uuid.NewString(), Path: req.Path, Stage: StageSyntax}
	logger := g.logger.With("attempt", out.AttemptID, "path", req.Path)
	defer func() {
		out.Duration = time.Since(start)
		logger.Info("Validation finished",
			"status", out.Status.String(),
			"stage", out.Stage.String(),
			"duration", out.Duration)
	}()

	if stop, err := g.checkSyntax(ctx, req, &out); stop || err != nil {
		return out, err
	}
	if !g.opts.Build.Enabled && !g.opts.Test.Enabled {
		return out, nil
	}

	abs, key, err := g.resolve(req.Path)
	if err != nil {
		return out, err
	}

	unlock, err := g.acquire(abs, key)
	if err != nil {
		return out, err
	}
	defer unlock()

	if err := g.recoverStale(key, logger); err != nil {
		return out, err
	}
	snap, err := takeSnapshot(abs)
	if err != nil {
		return out, errors.New(errors.SourceUnreadable, "snapshotting "+abs, err)
	}
	journalPath, err := writeJournal(paths.JournalDir(g.root), key, out.AttemptID, snap)
	if err != nil {
		return out, errors.New(errors.InternalError, "writing crash journal", err)
	}

	defer func() {
		if rerr := g.restore(snap, journalPath, logger); rerr != nil {
			if err == nil {
				err = rerr
			} else {
				err = stderrors.Join(err, rerr)
			}
		}
	}()

	if err := overwrite(abs, []byte(req.Candidate), snap.mode); err != nil {
		return out, errors.New(errors.InternalError, "writing candidate", err)
	}
	logger.Debug("Candidate written", "bytes", len(req.Candidate))

	if g.opts.Build.Enabled {
		out.Stage = StageBuild
		if stop, err := g.runBuild(ctx, &out, logger); stop || err != nil {
			return out, err
		}
	}
	if g.opts.Test.Enabled {
		out.Stage = StageTest
		if _, err := g.runTests(ctx, req, &out, logger); err != nil {
			return out, err
		}
	}
	return out, nil
}

// Commit writes a validated candidate over its file, holding the file's
// lock so it cannot race a validation. The original stays journaled until
// the write completes.
func (g *Gate) Commit(req Request) error {
	abs, key, err := g.resolve(req.Path)
	if err != nil {
		return err
	}
	unlock, err := g.acquire(abs, key)
	if err != nil {
		return err
	}
	defer unlock()

	logger := g.logger.With("path", req.Path)
	if err := g.recoverStale(key, logger); err != nil {
		return err
	}
	snap, err := takeSnapshot(abs)
	if err != nil {
		return errors.New(errors.SourceUnreadable, "reading "+abs, err)
	}
	journalPath, err := writeJournal(paths.JournalDir(g.root), key, uuid.NewString(), snap)
	if err != nil {
		return errors.New(errors.InternalError, "writing crash journal", err)
	}

	if err := overwrite(abs, []byte(req.Candidate), snap.mode); err != nil {
		werr := errors.New(errors.InternalError, "writing "+abs, err)
		if rerr := g.restore(snap, journalPath, logger); rerr != nil {
			return stderrors.Join(werr, rerr)
		}
		return werr
	}
	if err := removeJournal(journalPath); err != nil {
		logger.Warn("Could not remove journal entry", "journal", journalPath, "error", err)
	}
	logger.Info("Candidate committed", "bytes", len(req.Candidate))
	return nil
}

// recoverStale restores the original left in the journal by an attempt on
// this file that died before restoring it. It runs before a new snapshot is
// journaled under the same key.
func (g *Gate) recoverStale(key string, logger *slog.Logger) error {
	journalPath := filepath.Join(paths.JournalDir(g.root), key+journalExt)
	if _, err := os.Stat(journalPath); os.IsNotExist(err) {
		return nil
	}
	entry, err := restoreFromJournal(journalPath)
	if err != nil {
		return errors.New(errors.RestoreFailed, "recovering interrupted attempt", err).
			WithDetails(map[string]string{"journal": journalPath})
	}
	logger.Warn("Restored file left by an interrupted validation",
		"attempt", entry.AttemptID,
		"pid", entry.PID)
	return nil
}

// checkSyntax runs the in-memory stage. stop is true when the outcome is
// final.
func (g *Gate) checkSyntax(ctx context.Context, req Request, out *Outcome) (bool, error) {
	unavailable := func() (bool, error) {
		if g.opts.RequireParser {
			out.Status = ToolUnavailable
			out.Message = "no syntax checker available"
			return true, nil
		}
		out.Unchecked = true
		return false, nil
	}

	if g.checker == nil {
		return unavailable()
	}
	se, err := g.checker.Check(ctx, []byte(req.Candidate))
	switch {
	case stderrors.Is(err, structure.ErrNoCGO):
		return unavailable()
	case err != nil && ctx.Err() != nil:
		return true, ctx.Err()
	case err != nil:
		return true, errors.New(errors.InternalError, "syntax check", err)
	case se != nil:
		out.Status = SyntaxError
		out.Message = se.Error()
		out.Diagnostics = []Diagnostic{{File: req.Path, Line: se.Line, Column: se.Column, Message: se.Message}}
		return true, nil
	}
	return false, nil
}

func (g *Gate) runBuild(ctx context.Context, out *Outcome, logger *slog.Logger) (bool, error) {
	logger.Info("Build started", "command", strings.Join(g.opts.Build.Argv, " "))
	res, err := g.runner.Run(ctx, g.root, g.opts.Build.Argv, g.opts.Build.Timeout)
	if stop, err := g.runFailed(ctx, out, BuildError, g.opts.Build, res, err); stop {
		return true, err
	}

	if res.ExitCode != 0 {
		out.Status = BuildError
		out.Diagnostics = parseBuildDiagnostics(res.Output)
		out.Message = fmt.Sprintf("build failed with exit code %d", res.ExitCode)
		if len(out.Diagnostics) > 0 {
			out.Message += ": " + out.Diagnostics[0].String()
		}
		out.Output = tail(res.Output, outputTailLines)
		return true, nil
	}
	logger.Info("Build passed", "duration", res.Duration)
	return false, nil
}

func (g *Gate) runTests(ctx context.Context, req Request, out *Outcome, logger *slog.Logger) (bool, error) {
	if req.TypeName != "" {
		out.SelectedTests = relatedTests(g.root, g.opts.TestRoots, req.TypeName)
	}
	argv := testCommand(g.opts.Test.Argv, g.opts.SelectArg, out.SelectedTests)
	logger.Info("Tests started",
		"command", strings.Join(argv, " "),
		"selected", len(out.SelectedTests))

	res, err := g.runner.Run(ctx, g.root, argv, g.opts.Test.Timeout)
	if stop, err := g.runFailed(ctx, out, TestFailure, g.opts.Test, res, err); stop {
		return true, err
	}

	out.Summary, out.FailingTests = parseTestReport(res.Output)
	failedBySummary := out.Summary != nil && out.Summary.Failures+out.Summary.Errors > 0
	if res.ExitCode != 0 || failedBySummary {
		out.Status = TestFailure
		out.Message = fmt.Sprintf("tests failed with exit code %d", res.ExitCode)
		if out.Summary != nil {
			out.Message = fmt.Sprintf("tests failed: %d run, %d failures, %d errors",
				out.Summary.Run, out.Summary.Failures, out.Summary.Errors)
		}
		out.Output = tail(res.Output, outputTailLines)
		return true, nil
	}
	logger.Info("Tests passed", "duration", res.Duration)
	return false, nil
}

// runFailed classifies a run that did not produce a usable exit code: a
// missing tool, a timeout or cancellation.
func (g *Gate) runFailed(ctx context.Context, out *Outcome, failure Status, stage StageOptions, res Result, err error) (bool, error) {
	switch {
	case err != nil && ctx.Err() != nil:
		out.Status = failure
		out.Message = "validation cancelled"
		return true, ctx.Err()
	case err != nil:
		out.Status = ToolUnavailable
		out.Message = err.Error()
		return true, nil
	case res.TimedOut:
		out.Status = failure
		out.TimedOut = true
		out.Message = fmt.Sprintf("%s timed out after %s", out.Stage, stage.Timeout)
		out.Output = tail(res.Output, outputTailLines)
		return true, nil
	}
	return false, nil
}

// resolve returns the absolute path of a request and its lock key.
func (g *Gate) resolve(path string) (string, string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(g.root, abs)
	}
	abs = filepath.Clean(abs)

	canonical, err := paths.CanonicalizePath(abs, g.root)
	if err != nil {
		return "", "", errors.New(errors.SourceUnreadable, "resolving "+path, err)
	}
	return abs, paths.FileKey(canonical), nil
}

// acquire takes the in-process and cross-process locks for one file. Both
// are keyed by the file's canonical path, so links to one file share them.
func (g *Gate) acquire(abs, key string) (func(), error) {
	g.mu.Lock()
	if g.inflight[key] {
		g.mu.Unlock()
		return nil, errors.Newf(errors.LockHeld, "%s is already being validated", abs)
	}
	g.inflight[key] = true
	g.mu.Unlock()

	lock, err := acquireFileLock(paths.LocksDir(g.root), key)
	if err != nil {
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
		return nil, err
	}

	g.logger.Debug("Lock acquired", "path", abs)
	return func() {
		lock.release()
		g.mu.Lock()
		delete(g.inflight, key)
		g.mu.Unlock()
	}, nil
}

func (g *Gate) restore(snap *snapshot, journalPath string, logger *slog.Logger) error {
	if err := snap.restore(); err != nil {
		logger.Error("Restore failed, original kept in journal",
			"journal", journalPath,
			"error", err)
		return errors.New(errors.RestoreFailed, "restoring "+snap.path, err).WithDetails(map[string]string{"journal": journalPath})
	}
	if err := removeJournal(journalPath); err != nil {
		logger.Warn("Could not remove journal entry", "journal", journalPath, "error", err)
	}
	logger.Debug("Original restored")
	return nil
}
