package storage

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAtomicWriteFile(t *testing.T) {
	t.Run("successful write", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, AtomicWriteFile(filename, []byte("ಅಆಇ"), 0644))

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "ಅಆಇ", string(data))
	})

	t.Run("overwrites existing file", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "out.txt")
		require.NoError(t, os.WriteFile(filename, []byte("old content that is longer"), 0644))
		require.NoError(t, AtomicWriteFile(filename, []byte("new"), 0644))

		data, err := os.ReadFile(filename)
		require.NoError(t, err)
		assert.Equal(t, "new", string(data))
	})

	t.Run("write to nested directory", func(t *testing.T) {
		filename := filepath.Join(t.TempDir(), "a", "b", "c", "out.txt")
		require.NoError(t, AtomicWriteFile(filename, []byte("nested"), 0644))
		assert.FileExists(t, filename)
	})

	t.Run("directory creation failure", func(t *testing.T) {
		if runtime.GOOS == "windows" {
			t.Skip("file-as-directory sabotage behaves differently on Windows")
		}
		blocker := filepath.Join(t.TempDir(), "blocker")
		require.NoError(t, os.WriteFile(blocker, []byte("file"), 0644))

		filename := filepath.Join(blocker, "child", "out.txt")
		require.Error(t, AtomicWriteFile(filename, []byte("data"), 0644))
		_, err := os.Stat(filename)
		assert.Error(t, err)
	})

	t.Run("rename failure cleans up", func(t *testing.T) {
		dir := t.TempDir()
		filename := filepath.Join(dir, "out.txt")
		require.NoError(t, os.Mkdir(filename, 0755))
		require.NoError(t, os.WriteFile(filepath.Join(filename, "keep"), nil, 0644))

		err := AtomicWriteFile(filename, []byte("data"), 0644)
		require.Error(t, err)

		var renameErr RenameError
		require.True(t, errors.As(err, &renameErr), "got %T: %v", err, err)
		_, statErr := os.Stat(renameErr.TempPath())
		assert.True(t, os.IsNotExist(statErr), "temp file %q left behind", renameErr.TempPath())
	})
}
