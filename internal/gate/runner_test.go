//go:build !windows

package gate

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chunkgate/internal/testutil"
)

func TestExecRunner_ExitCodeAndOutput(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "tool", "echo out\necho err >&2\nexit 7")

	res, err := NewExecRunner().Run(context.Background(), dir, []string{script}, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 7, res.ExitCode)
	assert.False(t, res.TimedOut)
	assert.Contains(t, res.Output, "out")
	assert.Contains(t, res.Output, "err")
}

func TestExecRunner_RunsInDir(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteScript(t, dir, "mvnw", "test -f mvnw && echo in-tree")

	res, err := NewExecRunner().Run(context.Background(), dir, []string{"./mvnw"}, 5*time.Second)
	require.NoError(t, err)

	assert.Equal(t, 0, res.ExitCode)
	assert.Equal(t, "in-tree\n", res.Output)
}

func TestExecRunner_Timeout(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "slow", "echo started\nsleep 30 &\nwait")

	start := time.Now()
	res, err := (&ExecRunner{WaitDelay: time.Second}).Run(context.Background(), dir, []string{script}, 200*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.Less(t, time.Since(start), 10*time.Second, "the whole process group must be killed")
	assert.Contains(t, res.Output, "started")
}

func TestExecRunner_Cancelled(t *testing.T) {
	dir := t.TempDir()
	script := testutil.WriteScript(t, dir, "slow", "sleep 30")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(100*time.Millisecond, cancel)

	res, err := (&ExecRunner{WaitDelay: time.Second}).Run(ctx, dir, []string{script}, 10*time.Second)

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.TimedOut)
}

func TestExecRunner_MissingTool(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name string
		argv []string
	}{
		{"empty", nil},
		{"not on path", []string{"chunkgate-no-such-tool"}},
		{"relative", []string{"./mvnw", "compile"}},
		{"absolute", []string{dir + "/nope"}},
		{"directory", []string{dir}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewExecRunner().Run(context.Background(), dir, tt.argv, time.Second)
			assert.ErrorIs(t, err, ErrToolMissing)
		})
	}
}

func TestCappedBuffer(t *testing.T) {
	b := &cappedBuffer{limit: 8}

	n, err := b.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, _ = b.Write([]byte("world"))
	assert.Equal(t, "lo world", b.String())

	_, _ = b.Write([]byte("0123456789abc"))
	assert.Equal(t, "56789abc", b.String())
}
