package transcode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDirection(t *testing.T) {
	for in, want := range map[string]Direction{
		"a2u":              AsciiToUnicode,
		"ASCII-TO-UNICODE": AsciiToUnicode,
		" u2a ":            UnicodeToAscii,
		"unicode-to-ascii": UnicodeToAscii,
	} {
		got, err := ParseDirection(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseDirection("sideways")
	assert.EqualError(t, err, `unknown conversion direction "sideways" (want a2u or u2a)`)
}

func TestDirection_Names(t *testing.T) {
	assert.Equal(t, "convertAsciiToUnicode", AsciiToUnicode.FunctionName())
	assert.Equal(t, "convertUnicodeToAscii", UnicodeToAscii.FunctionName())
	assert.Equal(t, "a2u", AsciiToUnicode.String())
	assert.Equal(t, "u2a", UnicodeToAscii.String())
	assert.Equal(t, "Direction(7)", Direction(7).String())
	assert.Panics(t, func() { Direction(7).FunctionName() })
}
