// Package paths resolves working-tree paths and the per-tree .chunkgate
// state directory (locks, crash journal, logs, config).
package paths

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

const (
	// StateDirName is the per-working-tree state directory.
	StateDirName = ".chunkgate"
	// LocksSubdir holds one flock file per file under validation.
	LocksSubdir = "locks"
	// JournalSubdir holds crash-recovery snapshots of mutated files.
	JournalSubdir = "journal"
	// LogsSubdir holds log files when file logging is enabled.
	LogsSubdir = "logs"
)

// StateDir returns <root>/.chunkgate.
func StateDir(root string) string {
	return filepath.Join(root, StateDirName)
}

// EnsureStateDir creates <root>/.chunkgate if needed and returns it.
func EnsureStateDir(root string) (string, error) {
	return ensure(StateDir(root))
}

// LocksDir returns the lock directory for a working tree.
func LocksDir(root string) string {
	return filepath.Join(StateDir(root), LocksSubdir)
}

// JournalDir returns the crash-journal directory for a working tree.
func JournalDir(root string) string {
	return filepath.Join(StateDir(root), JournalSubdir)
}

// EnsureJournalDir creates the journal directory if needed and returns it.
func EnsureJournalDir(root string) (string, error) {
	return ensure(JournalDir(root))
}

// LogPath returns the default log file path for a working tree.
func LogPath(root string) string {
	return filepath.Join(StateDir(root), LogsSubdir, "chunkgate.log")
}

// FileKey returns a stable, filesystem-safe key for a canonical path.
// Lock and journal files are named by it.
func FileKey(canonicalPath string) string {
	sum := sha256.Sum256([]byte(canonicalPath))
	return hex.EncodeToString(sum[:8])
}

func ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// CanonicalizePath converts an absolute path to a repo-relative canonical path
// - Resolves symlinks to real paths
// - Makes path relative to repo root
// - Returns repo-relative path with forward slashes
func CanonicalizePath(absolutePath string, repoRoot string) (string, error) {
	resolved, err := evalOrSelf(absolutePath)
	if err != nil {
		return "", err
	}
	rootResolved, err := evalOrSelf(repoRoot)
	if err != nil {
		return "", err
	}

	rel, err := filepath.Rel(rootResolved, resolved)
	if err != nil {
		return "", err
	}
	return filepath.ToSlash(rel), nil
}

// evalOrSelf resolves symlinks, falling back to the cleaned absolute path
// for files that do not exist yet.
func evalOrSelf(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	resolved, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return abs, nil
		}
		return "", err
	}
	return resolved, nil
}

// IsWithinRepo checks if a path is within the repository root
func IsWithinRepo(path string, repoRoot string) bool {
	canonical, err := CanonicalizePath(path, repoRoot)
	if err != nil {
		return false
	}
	return canonical != ".." && !strings.HasPrefix(canonical, "../")
}

// JoinRepoPath joins a repo root with a canonical path
func JoinRepoPath(repoRoot string, canonicalPath string) string {
	parts := strings.Split(strings.ReplaceAll(canonicalPath, "\\", "/"), "/")
	return filepath.Join(append([]string{repoRoot}, parts...)...)
}
