//go:build !windows

package storage

import "errors"

// atomicRenameWindows is never reached off Windows.
func atomicRenameWindows(_, _ string) error {
	return errors.New("atomicRenameWindows called on non-Windows platform")
}
