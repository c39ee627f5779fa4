package goroutineid

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, tc := range []struct {
		name  string
		stack string
		want  int64
	}{
		{"header", "goroutine 123 [running]:\n", 123},
		{"truncated", "goroutine 98765", 98765},
		{"no prefix", "something else\n", 0},
		{"prefix not at start", "xx goroutine 5 [running]", 0},
		{"empty", "", 0},
	} {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, parse([]byte(tc.stack)))
		})
	}
}

func TestGet_DistinctPerGoroutine(t *testing.T) {
	self := Get()
	require.Greater(t, self, int64(0))

	other := make(chan int64, 1)
	go func() { other <- Get() }()
	id := <-other
	require.Greater(t, id, int64(0))
	require.NotEqual(t, self, id)
	require.Equal(t, self, Get())
}
