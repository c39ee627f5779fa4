package transcode

import "strings"

// EscapeLiteral makes text safe to embed between single quotes in a script
// source line. The substitutions run in a fixed order: backslashes first, so
// the backslashes introduced by the later steps are not doubled again.
//
//	\       -> \\
//	'       -> \'
//	LF      -> \n
//	CR      -> (removed)
//	U+2028  -> \u2028
//	U+2029  -> \u2029
func EscapeLiteral(text string) string {
	text = strings.ReplaceAll(text, `\`, `\\`)
	text = strings.ReplaceAll(text, `'`, `\'`)
	text = strings.ReplaceAll(text, "\n", `\n`)
	text = strings.ReplaceAll(text, "\r", "")
	text = strings.ReplaceAll(text, "\u2028", `\u2028`)
	text = strings.ReplaceAll(text, "\u2029", `\u2029`)
	return text
}

// Expression builds the statement invoking function with text as its only
// argument, e.g. convertAsciiToUnicode('CD');
func Expression(function, text string) string {
	var b strings.Builder
	b.Grow(len(function) + len(text) + 6)
	b.WriteString(function)
	b.WriteString("('")
	b.WriteString(EscapeLiteral(text))
	b.WriteString("');")
	return b.String()
}

// IsBlank reports whether text is empty or only Unicode whitespace. Blank
// input never reaches the script.
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}
