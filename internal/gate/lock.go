//go:build !windows

package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"chunkgate/internal/errors"
)

// fileLock is an exclusive advisory lock on one file under validation,
// held across processes.
type fileLock struct {
	path string
	file *os.File
}

// acquireFileLock takes <locksDir>/<key>.lock without blocking. It fails with
// LOCK_HELD when another process holds it.
func acquireFileLock(locksDir, key string) (*fileLock, error) {
	if err := os.MkdirAll(locksDir, 0755); err != nil {
		return nil, fmt.Errorf("creating locks directory: %w", err)
	}

	path := filepath.Join(locksDir, key+".lock")

	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file: %w", err)
	}

	err = syscall.Flock(int(file.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = file.Close()

		if content, readErr := os.ReadFile(path); readErr == nil && len(content) > 0 {
			pid := strings.TrimSpace(string(content))
			return nil, errors.Newf(errors.LockHeld, "file is being validated by another process (PID %s)", pid)
		}
		return nil, errors.New(errors.LockHeld, "file is being validated by another process", err)
	}

	// The holder may have removed the file between our open and flock.
	if !samePath(file, path) {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, errors.New(errors.LockHeld, "file is being validated by another process", nil)
	}

	if err := file.Truncate(0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("truncating lock file: %w", err)
	}

	if _, err := file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0); err != nil {
		_ = syscall.Flock(int(file.Fd()), syscall.LOCK_UN)
		_ = file.Close()
		return nil, fmt.Errorf("writing PID to lock file: %w", err)
	}

	return &fileLock{path: path, file: file}, nil
}

// release drops the lock and removes the lock file.
func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}

	_ = os.Remove(l.path)
	_ = syscall.Flock(int(l.file.Fd()), syscall.LOCK_UN)
	_ = l.file.Close()
	l.file = nil
}

func samePath(file *os.File, path string) bool {
	held, err := file.Stat()
	if err != nil {
		return false
	}
	onDisk, err := os.Stat(path)
	if err != nil {
		return false
	}
	return os.SameFile(held, onDisk)
}
