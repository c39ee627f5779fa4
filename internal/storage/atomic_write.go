// Package storage holds the file primitives nudi relies on for anything it
// writes to disk: the config file and converted output.
package storage

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"
)

// RenameError is returned when the final rename fails. The temporary file has
// already been removed by then; TempPath reports where it was.
type RenameError struct {
	Err      error
	tempPath string
}

func (e RenameError) Error() string    { return e.Err.Error() }
func (e RenameError) TempPath() string { return e.tempPath }
func (e RenameError) Unwrap() error    { return e.Err }

// AtomicWriteFile writes data to a temporary file next to filename, syncs it
// and renames it over filename, so readers never observe a partial write.
// Missing parent directories are created.
func AtomicWriteFile(filename string, data []byte, perm os.FileMode) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile, err := os.CreateTemp(dir, ".tmp-nudi-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tempPath := tempFile.Name()

	var success bool
	defer func() {
		if !success {
			if err := os.Remove(tempPath); err != nil && !os.IsNotExist(err) {
				slog.Warn("failed to remove temporary file", "path", tempPath, "error", err)
			}
		}
	}()

	if _, err := tempFile.Write(data); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to write to temp file: %w", err)
	}
	if err := tempFile.Sync(); err != nil {
		_ = tempFile.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tempFile.Close(); err != nil {
		return fmt.Errorf("failed to close temporary file %q: %w", tempPath, err)
	}
	if err := os.Chmod(tempPath, perm); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	var renameErr error
	if runtime.GOOS == "windows" {
		renameErr = atomicRenameWindows(tempPath, filename)
	} else {
		renameErr = os.Rename(tempPath, filename)
	}
	if renameErr != nil {
		return RenameError{Err: renameErr, tempPath: tempPath}
	}
	success = true
	return nil
}
