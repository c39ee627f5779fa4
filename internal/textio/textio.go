// Package textio prepares user text for conversion: file decoding, Unicode
// normalization and whitespace collapsing.
package textio

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var horizontalSpace = regexp.MustCompile(`[ \t]+`)

// Collapse replaces every run of spaces and tabs with a single space and trims
// the result. Line breaks are kept.
func Collapse(s string) string {
	return strings.TrimSpace(horizontalSpace.ReplaceAllString(s, " "))
}

// NormalizeNFC returns s in Unicode normalization form C.
func NormalizeNFC(s string) string {
	return norm.NFC.String(s)
}

// Decode reads r as text. A UTF-8 or UTF-16 byte order mark selects the
// encoding and is stripped; without one the input is taken as UTF-8, with
// invalid sequences replaced by U+FFFD.
func Decode(r io.Reader) (string, error) {
	dec := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	b, err := io.ReadAll(transform.NewReader(r, dec))
	if err != nil {
		return "", fmt.Errorf("textio: decode: %w", err)
	}
	return string(b), nil
}

// ReadFile decodes the named file with Decode.
func ReadFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	s, err := Decode(f)
	if err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}
