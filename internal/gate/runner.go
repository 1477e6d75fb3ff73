package gate

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// ErrToolMissing is returned by a Runner when the executable cannot be found
// or started.
var ErrToolMissing = stderrors.New("tool not found")

// maxOutput bounds the output kept from one tool run.
const maxOutput = 4 << 20

// Result is what a tool run produced.
type Result struct {
	ExitCode int
	// Output is stdout and stderr interleaved.
	Output   string
	TimedOut bool
	Duration time.Duration
}

// Runner abstracts command execution for testability.
type Runner interface {
	// Run executes argv in dir under a hard timeout. A non-zero exit is not
	// an error; errors mean the command could not be run at all.
	Run(ctx context.Context, dir string, argv []string, timeout time.Duration) (Result, error)
}

// ExecRunner implements Runner using os/exec. The tool and every process it
// spawns are killed when the timeout expires.
type ExecRunner struct {
	// WaitDelay bounds how long Run waits for output pipes after a kill.
	WaitDelay time.Duration
}

// NewExecRunner creates a runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{WaitDelay: 2 * time.Second}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, dir string, argv []string, timeout time.Duration) (Result, error) {
	if len(argv) == 0 {
		return Result{}, fmt.Errorf("%w: empty command", ErrToolMissing)
	}
	if err := lookTool(dir, argv[0]); err != nil {
		return Result{}, err
	}

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.WaitDelay = r.WaitDelay
	killProcessGroup(cmd)

	out := &cappedBuffer{limit: maxOutput}
	cmd.Stdout = out
	cmd.Stderr = out

	start := time.Now()
	err := cmd.Run()
	res := Result{
		Output:   out.String(),
		Duration: time.Since(start),
		ExitCode: -1,
	}
	if cmd.ProcessState != nil {
		res.ExitCode = cmd.ProcessState.ExitCode()
	}

	if runCtx.Err() == context.DeadlineExceeded && ctx.Err() == nil {
		res.TimedOut = true
		return res, nil
	}
	if ctx.Err() != nil {
		return res, ctx.Err()
	}

	var exitErr *exec.ExitError
	switch {
	case err == nil, stderrors.As(err, &exitErr):
		return res, nil
	case stderrors.Is(err, fs.ErrNotExist), stderrors.Is(err, fs.ErrPermission), stderrors.Is(err, exec.ErrNotFound):
		return res, fmt.Errorf("%w: %s: %v", ErrToolMissing, argv[0], err)
	default:
		return res, fmt.Errorf("running %s: %w", argv[0], err)
	}
}

// lookTool checks that name resolves to an executable: through PATH for a
// bare name, relative to dir otherwise.
func lookTool(dir, name string) error {
	if filepath.Base(name) == name {
		if _, err := exec.LookPath(name); err != nil {
			return fmt.Errorf("%w: %s", ErrToolMissing, name)
		}
		return nil
	}

	path := name
	if !filepath.IsAbs(path) {
		path = filepath.Join(dir, path)
	}
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return fmt.Errorf("%w: %s", ErrToolMissing, name)
	}
	return nil
}

// cappedBuffer keeps the last limit bytes written to it.
type cappedBuffer struct {
	buf   bytes.Buffer
	limit int
}

func (b *cappedBuffer) Write(p []byte) (int, error) {
	n := len(p)
	if len(p) > b.limit {
		p = p[len(p)-b.limit:]
	}
	if over := b.buf.Len() + len(p) - b.limit; over > 0 {
		b.buf.Next(over)
	}
	b.buf.Write(p)
	return n, nil
}

func (b *cappedBuffer) String() string {
	return b.buf.String()
}
