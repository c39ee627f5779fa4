package logging

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTinyWriter bypasses the 1 MB floor of the public constructor.
func newTinyWriter(t *testing.T, path string, maxBytes int64, maxFiles int) *RotatingFileWriter {
	t.Helper()
	f, err := openAppend(path)
	require.NoError(t, err)
	w := &RotatingFileWriter{path: path, maxSizeBytes: maxBytes, maxFiles: maxFiles, file: f}
	t.Cleanup(func() { _ = w.Close() })
	return w
}

func TestRotatingFileWriter_BasicWrite(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")

	w, err := NewRotatingFileWriter(path, 1, 3)
	require.NoError(t, err)
	defer w.Close()

	n, err := w.Write([]byte("hello\n"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRotatingFileWriter_RotatesAtSizeLimit(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")
	w := newTinyWriter(t, path, 50, 3)

	line := strings.Repeat("A", 39) + "\n"
	_, err := w.Write([]byte(line))
	require.NoError(t, err)
	_, err = w.Write([]byte(line))
	require.NoError(t, err)
	assert.EqualValues(t, 40, w.currentSize)

	backup, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, line, string(backup))
}

func TestRotatingFileWriter_MaxFilesEnforced(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")
	w := newTinyWriter(t, path, 10, 2)

	for _, c := range []string{"a", "b", "c", "d", "e"} {
		_, err := w.Write([]byte(strings.Repeat(c, 9) + "\n"))
		require.NoError(t, err)
	}

	assert.FileExists(t, path+".1")
	assert.FileExists(t, path+".2")
	assert.NoFileExists(t, path+".3")

	newest, err := os.ReadFile(path + ".1")
	require.NoError(t, err)
	assert.Equal(t, strings.Repeat("d", 9)+"\n", string(newest))
}

func TestRotatingFileWriter_ZeroMaxFiles(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")
	w := newTinyWriter(t, path, 10, 0)

	_, err := w.Write([]byte("123456789\n"))
	require.NoError(t, err)
	_, err = w.Write([]byte("abcdefghi\n"))
	require.NoError(t, err)

	assert.NoFileExists(t, path+".1")
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "abcdefghi\n", string(data))
}

func TestRotatingFileWriter_ConcurrentWrites(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")
	w := newTinyWriter(t, path, 1<<20, 1)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_, _ = w.Write([]byte("line\n"))
			}
		}()
	}
	wg.Wait()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, 16*50, strings.Count(string(data), "line\n"))
}

func TestRotatingFileWriter_CreatesParentDirs(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "a", "b", "nudi.log")
	w, err := NewRotatingFileWriter(path, 1, 1)
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.FileExists(t, path)
}

func TestRotatingFileWriter_AppendsToExisting(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "nudi.log")
	require.NoError(t, os.WriteFile(path, []byte("old\n"), 0644))

	w, err := NewRotatingFileWriter(path, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 4, w.currentSize)
	_, err = w.Write([]byte("new\n"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "old\nnew\n", string(data))
}

func TestRotatingFileWriter_WriteAfterClose(t *testing.T) {
	t.Parallel()
	w, err := NewRotatingFileWriter(filepath.Join(t.TempDir(), "nudi.log"), 0, -1)
	require.NoError(t, err)
	assert.EqualValues(t, 1024*1024, w.maxSizeBytes)
	assert.Equal(t, 0, w.maxFiles)

	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
	_, err = w.Write([]byte("x"))
	assert.ErrorIs(t, err, os.ErrClosed)
}
