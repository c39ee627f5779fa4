package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryLock(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.lock")

	l, err := TryLock(path)
	require.NoError(t, err)
	_, err = os.Stat(path)
	require.NoError(t, err, "lock file exists while held")

	_, err = TryLock(path)
	assert.ErrorIs(t, err, ErrWouldBlock)

	require.NoError(t, l.Unlock())
	require.NoError(t, l.Unlock(), "second unlock is a no-op")
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err), "lock file removed on unlock")

	l, err = TryLock(path)
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}

func TestLockWithTimeout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.lock")

	held, err := TryLock(path)
	require.NoError(t, err)

	start := time.Now()
	_, err = LockWithTimeout(path, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrWouldBlock)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)

	go func() {
		time.Sleep(20 * time.Millisecond)
		_ = held.Unlock()
	}()
	l, err := LockWithTimeout(path, 5*time.Second)
	require.NoError(t, err)
	require.NoError(t, l.Unlock())
}

func TestTryLock_MissingDirectory(t *testing.T) {
	_, err := TryLock(filepath.Join(t.TempDir(), "missing", "x.lock"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrWouldBlock)
}
