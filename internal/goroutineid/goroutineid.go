// Package goroutineid reads the id of the calling goroutine.
//
// It exists for one purpose: letting the script host detect that a caller is
// already running on the event loop goroutine, where blocking on the loop
// would deadlock.
package goroutineid

import (
	"bytes"
	"runtime"
	"sync"
)

var stackBufPool = sync.Pool{
	New: func() any {
		b := make([]byte, 64)
		return &b
	},
}

var prefix = []byte("goroutine ")

// Get returns the id of the calling goroutine, or 0 if it cannot be parsed.
func Get() int64 {
	bp := stackBufPool.Get().(*[]byte)
	defer stackBufPool.Put(bp)
	n := runtime.Stack(*bp, false)
	return parse((*bp)[:n])
}

// parse extracts the id from the "goroutine N [status]:" header that
// runtime.Stack writes first. Only the header is needed, so a short buffer
// (truncated trace) is fine.
func parse(stack []byte) int64 {
	if !bytes.HasPrefix(stack, prefix) {
		return 0
	}
	var id int64
	for _, b := range stack[len(prefix):] {
		if b < '0' || b > '9' {
			break
		}
		id = id*10 + int64(b-'0')
	}
	return id
}
