// Package util provides temp-directory lifecycle helpers and small
// formatting utilities shared by the reporter and CLI.
package util

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"gitlab.com/NebulousLabs/fastrand"
)

// MinTempSpaceMB is the minimum free space required for temporary operations (in MB).
const MinTempSpaceMB = 100

// TempDir represents a temporary directory with automatic cleanup.
type TempDir struct {
	path string
}

// Path returns the path to the temporary directory.
func (t *TempDir) Path() string {
	return t.path
}

// Cleanup removes the temporary directory and all its contents.
func (t *TempDir) Cleanup() error {
	if t.path == "" {
		return nil
	}
	return os.RemoveAll(t.path)
}

// EnsureDirectoryWritable checks if a directory exists and is writable.
func EnsureDirectoryWritable(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return fmt.Errorf("cannot access directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}

	testPath := filepath.Join(path, ".clustercode_write_test")
	f, err := os.Create(testPath)
	if err != nil {
		return fmt.Errorf("directory is not writable: %s", path)
	}
	_ = f.Close()
	_ = os.Remove(testPath)

	return nil
}

// GetAvailableSpace returns the available disk space in bytes for the given path.
// Returns 0 if the space cannot be determined.
func GetAvailableSpace(path string) uint64 {
	var stat unix.Statfs_t
	if err := unix.Statfs(path, &stat); err != nil {
		return 0
	}
	return stat.Bavail * uint64(stat.Bsize)
}

// CheckDiskSpace checks if there is sufficient disk space and logs a warning if low.
// Returns true if space is sufficient or cannot be determined.
func CheckDiskSpace(path string, logger func(format string, args ...any)) bool {
	available := GetAvailableSpace(path)
	if available == 0 {
		return true // Cannot determine, assume OK
	}

	availableMB := available / (1024 * 1024)
	if availableMB < MinTempSpaceMB {
		if logger != nil {
			logger("low disk space in %s: %d MB available (minimum recommended: %d MB)",
				path, availableMB, MinTempSpaceMB)
		}
		return false
	}
	return true
}

// CreateTempDir creates a run-scoped temporary directory under baseDir with
// a random suffix. The caller is responsible for calling Cleanup() when done.
func CreateTempDir(baseDir, prefix string) (*TempDir, error) {
	if err := EnsureDirectoryWritable(baseDir); err != nil {
		return nil, fmt.Errorf("failed to create temp directory: %w", err)
	}

	CheckDiskSpace(baseDir, nil)

	dirName := fmt.Sprintf("%s_%s", prefix, randomSuffix(8))
	dirPath := filepath.Join(baseDir, dirName)

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create temp directory in %s: %w", baseDir, err)
	}

	return &TempDir{path: dirPath}, nil
}

// CleanupStaleTempFiles removes regular files directly under dir whose names
// start with prefix followed by "_" and that are older than maxAgeHours.
// Subdirectories, including temp directories made by CreateTempDir, are
// skipped and not removed. Returns the number removed.
func CleanupStaleTempFiles(dir, prefix string, maxAgeHours uint64) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return 0, nil
	}

	cleanedCount := 0
	maxAge := time.Duration(maxAgeHours) * time.Hour
	now := time.Now()

	prefixMatch := fmt.Sprintf("%s_", prefix)

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}

		if d.IsDir() {
			if path != dir {
				return fs.SkipDir
			}
			return nil
		}

		filename := d.Name()
		if !strings.HasPrefix(filename, prefixMatch) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if now.Sub(info.ModTime()) > maxAge {
			if err := os.Remove(path); err == nil {
				cleanedCount++
			}
		}

		return nil
	})

	if err != nil {
		return cleanedCount, fmt.Errorf("failed to read temp directory for cleanup: %w", err)
	}

	return cleanedCount, nil
}

// randomSuffix returns a hex string of the given length, sourced from
// fastrand rather than crypto/rand since these suffixes are for path
// uniqueness, not security.
func randomSuffix(length int) string {
	b := fastrand.Bytes((length + 1) / 2)
	const hextable = "0123456789abcdef"
	out := make([]byte, len(b)*2)
	for i, v := range b {
		out[i*2] = hextable[v>>4]
		out[i*2+1] = hextable[v&0x0f]
	}
	return string(out[:length])
}

// FormatBytesReadable renders a byte count in human-friendly units.
func FormatBytesReadable(bytes uint64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := uint64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(bytes)/float64(div), "KMGTPE"[exp])
}

// FormatDurationFromSecs renders a duration given in whole seconds as
// H:MM:SS (or M:SS when under an hour).
func FormatDurationFromSecs(totalSecs int64) string {
	if totalSecs < 0 {
		totalSecs = 0
	}
	d := time.Duration(totalSecs) * time.Second
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

// CalculateSizeReduction returns the percentage size reduction from
// original to encoded, or 0 if original is 0.
func CalculateSizeReduction(original, encoded uint64) float64 {
	if original == 0 {
		return 0
	}
	return (1 - float64(encoded)/float64(original)) * 100
}
