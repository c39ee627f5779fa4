package storage

import (
	"errors"
	"fmt"
	"os"
	"time"
)

// ErrWouldBlock is returned by TryLock when another process holds the lock.
var ErrWouldBlock = errors.New("storage: lock held by another process")

// lockPollInterval is how often LockWithTimeout retries a held lock.
const lockPollInterval = 10 * time.Millisecond

// Lock is an exclusive advisory lock held through a lock file.
type Lock struct {
	f *os.File
}

// TryLock takes the lock at path without waiting. The lock file is created if
// needed and removed by Unlock.
func TryLock(path string) (*Lock, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open lock file: %w", err)
	}
	if err := lockFile(f); err != nil {
		_ = f.Close()
		return nil, err
	}
	// A previous holder may have removed path between our open and lock, in
	// which case we locked an orphaned file.
	held, err1 := f.Stat()
	current, err2 := os.Stat(path)
	if err1 != nil || err2 != nil || !os.SameFile(held, current) {
		_ = unlockFile(f)
		_ = f.Close()
		return nil, ErrWouldBlock
	}
	return &Lock{f: f}, nil
}

// LockWithTimeout polls TryLock until it succeeds, fails for a reason other
// than contention, or timeout elapses.
func LockWithTimeout(path string, timeout time.Duration) (*Lock, error) {
	deadline := time.Now().Add(timeout)
	for {
		l, err := TryLock(path)
		if !errors.Is(err, ErrWouldBlock) {
			return l, err
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		time.Sleep(lockPollInterval)
	}
}

// Unlock releases the lock and removes the lock file.
func (l *Lock) Unlock() error {
	if l == nil || l.f == nil {
		return nil
	}
	path := l.f.Name()
	err1 := unlockFile(l.f)
	err2 := l.f.Close()
	err3 := os.Remove(path)
	if os.IsNotExist(err3) {
		err3 = nil
	}
	l.f = nil
	return errors.Join(err1, err2, err3)
}
