package gate

import (
	"bytes"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// snapshot holds a file's bytes and mode from before a mutation.
type snapshot struct {
	path string
	data []byte
	mode fs.FileMode
}

func takeSnapshot(path string) (*snapshot, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return &snapshot{path: path, data: data, mode: info.Mode().Perm()}, nil
}

// restore writes the snapshot back and checks the file reads back equal.
func (s *snapshot) restore() error {
	if err := overwrite(s.path, s.data, s.mode); err != nil {
		return err
	}
	got, err := os.ReadFile(s.path)
	if err != nil {
		return fmt.Errorf("reading back %s: %w", s.path, err)
	}
	if !bytes.Equal(got, s.data) {
		return fmt.Errorf("%s does not hold its original content after restore", s.path)
	}
	return nil
}

// overwrite truncates and rewrites path in place, so symlinks and hard
// links to it survive. mode only applies when the file has to be created.
// A crash mid-write is covered by the journal.
func overwrite(path string, data []byte, mode fs.FileMode) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	return f.Close()
}

// writeFileAtomic replaces path with data through a temp file in the same
// directory, so readers see either the old or the new content. Journal
// entries are written this way.
func writeFileAtomic(path string, data []byte, mode fs.FileMode) error {
	dir, base := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	tmp, err := os.CreateTemp(dir, "."+base+".chunkgate-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, mode); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("setting mode: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}
