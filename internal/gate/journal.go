package gate

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/klauspost/compress/zstd"

	"chunkgate/internal/errors"
	"chunkgate/internal/paths"
	"chunkgate/internal/slogutil"
)

const journalExt = ".zst"

// journalEntry describes a file whose original content is held in the
// journal while a candidate occupies it.
type journalEntry struct {
	Path      string      `json:"path"`
	AttemptID string      `json:"attemptId"`
	Mode      fs.FileMode `json:"mode"`
	PID       int         `json:"pid"`
	Created   time.Time   `json:"created"`
}

// writeJournal stores the snapshot under <journalDir>/<key>.zst as a JSON
// entry line followed by the original bytes, zstd compressed.
func writeJournal(journalDir, key, attemptID string, snap *snapshot) (string, error) {
	if err := os.MkdirAll(journalDir, 0755); err != nil {
		return "", fmt.Errorf("creating journal directory: %w", err)
	}

	entry, err := json.Marshal(journalEntry{
		Path:      snap.path,
		AttemptID: attemptID,
		Mode:      snap.mode,
		PID:       os.Getpid(),
		Created:   time.Now().UTC(),
	})
	if err != nil {
		return "", err
	}

	var payload bytes.Buffer
	payload.Grow(len(entry) + 1 + len(snap.data))
	payload.Write(entry)
	payload.WriteByte('\n')
	payload.Write(snap.data)

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderConcurrency(1))
	if err != nil {
		return "", err
	}
	compressed := enc.EncodeAll(payload.Bytes(), nil)
	_ = enc.Close()

	path := filepath.Join(journalDir, key+journalExt)
	if err := writeFileAtomic(path, compressed, 0600); err != nil {
		return "", err
	}
	return path, nil
}

// readJournal decodes a journal file.
func readJournal(path string) (journalEntry, []byte, error) {
	var entry journalEntry

	compressed, err := os.ReadFile(path)
	if err != nil {
		return entry, nil, err
	}
	dec, err := zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
	if err != nil {
		return entry, nil, err
	}
	defer dec.Close()

	payload, err := dec.DecodeAll(compressed, nil)
	if err != nil {
		return entry, nil, fmt.Errorf("decompressing %s: %w", path, err)
	}

	head, data, ok := bytes.Cut(payload, []byte{'\n'})
	if !ok {
		return entry, nil, fmt.Errorf("journal %s has no entry line", path)
	}
	if err := json.Unmarshal(head, &entry); err != nil {
		return entry, nil, fmt.Errorf("decoding journal entry %s: %w", path, err)
	}
	if entry.Path == "" {
		return entry, nil, fmt.Errorf("journal %s names no file", path)
	}
	return entry, data, nil
}

func removeJournal(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Recover restores every file left holding a candidate by a process that
// died mid-validation, and returns the restored paths. Entries whose file is
// still locked by a live validation are skipped.
func Recover(root string, logger *slog.Logger) ([]string, error) {
	logger = slogutil.Component(logger, "gate")
	dir := paths.JournalDir(root)

	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading journal: %w", err)
	}

	var restored []string
	var errs []error
	for _, de := range entries {
		key, ok := strings.CutSuffix(de.Name(), journalExt)
		if de.IsDir() || !ok {
			continue
		}
		path, err := recoverEntry(root, key, filepath.Join(dir, de.Name()), logger)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if path != "" {
			restored = append(restored, path)
		}
	}

	if len(errs) > 0 {
		return restored, errors.New(errors.RestoreFailed, "recovering journal", stderrors.Join(errs...))
	}
	return restored, nil
}

func recoverEntry(root, key, journalPath string, logger *slog.Logger) (string, error) {
	lock, err := acquireFileLock(paths.LocksDir(root), key)
	if err != nil {
		if errors.CodeOf(err) == errors.LockHeld {
			logger.Info("Skipping journal entry of a running validation", "journal", journalPath)
			return "", nil
		}
		return "", err
	}
	defer lock.release()

	entry, err := restoreFromJournal(journalPath)
	if err != nil {
		return "", err
	}

	logger.Warn("Restored file left by an interrupted validation",
		"path", entry.Path,
		"attempt", entry.AttemptID,
		"pid", entry.PID)
	return entry.Path, nil
}

// restoreFromJournal writes the original held in a journal entry back to
// its file and removes the entry. The caller holds the file's lock.
func restoreFromJournal(journalPath string) (journalEntry, error) {
	entry, data, err := readJournal(journalPath)
	if err != nil {
		return entry, err
	}
	snap := &snapshot{path: entry.Path, data: data, mode: entry.Mode.Perm()}
	if snap.mode == 0 {
		snap.mode = 0644
	}
	if err := snap.restore(); err != nil {
		return entry, err
	}
	if err := os.Remove(journalPath); err != nil {
		return entry, fmt.Errorf("removing journal entry: %w", err)
	}
	return entry, nil
}
