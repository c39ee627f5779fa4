package scripthost

import (
	"github.com/dop251/goja"
	"github.com/rivo/uniseg"
	"golang.org/x/text/unicode/norm"
)

// TextModule is the name of the native text utility module.
const TextModule = "nudi:text"

// RequireText is the loader for the nudi:text module.
//
// API (JS):
//
//	const text = require('nudi:text');
//
//	// NFC normalization, so precomposed and decomposed input match the same
//	// table entries.
//	text.nfc('ಕ್');
//
//	// Number of user-perceived characters (grapheme clusters).
//	text.graphemes('ಕಾ'); // 1
func RequireText(runtime *goja.Runtime, module *goja.Object) {
	exports := module.Get("exports").ToObject(runtime)

	_ = exports.Set("nfc", func(call goja.FunctionCall) goja.Value {
		return runtime.ToValue(norm.NFC.String(argString(call, 0)))
	})

	_ = exports.Set("graphemes", func(call goja.FunctionCall) goja.Value {
		return runtime.ToValue(uniseg.GraphemeClusterCount(argString(call, 0)))
	})
}
