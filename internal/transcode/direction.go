package transcode

import (
	"fmt"
	"strings"
)

// Direction selects the script function a request is dispatched to.
type Direction int

const (
	// AsciiToUnicode converts Nudi ASCII text to Unicode Kannada.
	AsciiToUnicode Direction = iota
	// UnicodeToAscii converts Unicode Kannada text to Nudi ASCII.
	UnicodeToAscii
)

// Script-side function names every conversion resource must define.
const (
	FuncAsciiToUnicode = "convertAsciiToUnicode"
	FuncUnicodeToAscii = "convertUnicodeToAscii"
)

// Functions lists the script functions a resource must define.
var Functions = []string{FuncAsciiToUnicode, FuncUnicodeToAscii}

// FunctionName returns the script function implementing d.
func (d Direction) FunctionName() string {
	switch d {
	case AsciiToUnicode:
		return FuncAsciiToUnicode
	case UnicodeToAscii:
		return FuncUnicodeToAscii
	default:
		panic(fmt.Sprintf("transcode: invalid direction %d", int(d)))
	}
}

func (d Direction) String() string {
	switch d {
	case AsciiToUnicode:
		return "a2u"
	case UnicodeToAscii:
		return "u2a"
	default:
		return fmt.Sprintf("Direction(%d)", int(d))
	}
}

// ParseDirection accepts "a2u"/"ascii-to-unicode" and "u2a"/"unicode-to-ascii".
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "a2u", "ascii-to-unicode":
		return AsciiToUnicode, nil
	case "u2a", "unicode-to-ascii":
		return UnicodeToAscii, nil
	default:
		return 0, fmt.Errorf("unknown conversion direction %q (want a2u or u2a)", s)
	}
}
