package transcode

import (
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/dop251/goja"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEscapeLiteral(t *testing.T) {
	for _, tc := range []struct {
		in, want string
	}{
		{`plain`, `plain`},
		{`a\b`, `a\\b`},
		{`it's`, `it\'s`},
		{"a\nb", `a\nb`},
		{"a\r\nb", `a\nb`},
		{"\r", ``},
		{`\'`, `\\\'`},
		{`\n`, `\\n`},
		{"ಕನ್ನಡ", "ಕನ್ನಡ"},
		{"x\u2028y\u2029z", `x\u2028y\u2029z`},
	} {
		assert.Equal(t, tc.want, EscapeLiteral(tc.in), "input %q", tc.in)
	}
}

func TestExpression(t *testing.T) {
	assert.Equal(t, `convertAsciiToUnicode('CD');`, Expression(FuncAsciiToUnicode, "CD"))

	expr := Expression(FuncUnicodeToAscii, "a\nb")
	assert.Equal(t, `convertUnicodeToAscii('a\nb');`, expr)
	assert.NotContains(t, expr, "\n", "the newline must travel as a two-character escape")
}

// parseLiteral evaluates the escaped text the way the host does: as a single
// quoted string literal.
func parseLiteral(t *testing.T, vm *goja.Runtime, escaped string) string {
	t.Helper()
	v, err := vm.RunString("'" + escaped + "'")
	require.NoError(t, err, "escaped literal %q did not parse", escaped)
	return v.String()
}

func TestEscapeLiteral_RoundTrip(t *testing.T) {
	vm := goja.New()
	for _, s := range []string{
		`back\slash`,
		`trailing\`,
		`\\double`,
		`'quoted'`,
		`\'`,
		"line\nbreak",
		"crlf\r\nline",
		"only\rcr",
		`literal \n escape`,
		"mixed \\'\n\r'\\ end",
		"ಕನ್ನಡ ನುಡಿ",
		"CDEF GH",
		"para\u2028sep\u2029end",
		"tab\tand\u00a0nbsp",
	} {
		want := strings.ReplaceAll(s, "\r", "")
		assert.Equal(t, want, parseLiteral(t, vm, EscapeLiteral(s)), "input %q", s)
	}
}

func TestEscapeLiteral_RoundTripRandom(t *testing.T) {
	vm := goja.New()
	alphabet := []rune("ab\\'\n\r\"ಅಆ $`{}\t\u2028")
	rng := rand.New(rand.NewPCG(1, 2))
	for i := 0; i < 500; i++ {
		var b strings.Builder
		for n := 1 + rng.IntN(24); n > 0; n-- {
			b.WriteRune(alphabet[rng.IntN(len(alphabet))])
		}
		s := b.String()
		want := strings.ReplaceAll(s, "\r", "")
		require.Equal(t, want, parseLiteral(t, vm, EscapeLiteral(s)), "input %q", s)
	}
}

func TestIsBlank(t *testing.T) {
	for _, s := range []string{"", " ", "\t\n\r ", "\u00a0", "\u3000"} {
		assert.True(t, IsBlank(s), "%q", s)
	}
	for _, s := range []string{"a", " x ", "ಅ", "'"} {
		assert.False(t, IsBlank(s), "%q", s)
	}
}
