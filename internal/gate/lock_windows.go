//go:build windows

package gate

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"golang.org/x/sys/windows"

	"chunkgate/internal/errors"
)

// fileLock is an exclusive lock on one file under validation, held across
// processes through LockFileEx.
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

	ol := new(windows.Overlapped)
	flags := uint32(windows.LOCKFILE_EXCLUSIVE_LOCK | windows.LOCKFILE_FAIL_IMMEDIATELY)
	if err := windows.LockFileEx(windows.Handle(file.Fd()), flags, 0, 1, 0, ol); err != nil {
		_ = file.Close()
		return nil, errors.New(errors.LockHeld, "file is being validated by another process", err)
	}

	if err := file.Truncate(0); err == nil {
		_, _ = file.WriteAt([]byte(strconv.Itoa(os.Getpid())), 0)
	}

	return &fileLock{path: path, file: file}, nil
}

// release drops the lock and removes the lock file.
func (l *fileLock) release() {
	if l == nil || l.file == nil {
		return
	}

	_ = windows.UnlockFileEx(windows.Handle(l.file.Fd()), 0, 1, 0, new(windows.Overlapped))
	_ = l.file.Close()
	_ = os.Remove(l.path)
	l.file = nil
}
