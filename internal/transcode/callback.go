package transcode

// Callback receives the outcome of one conversion: OnResult or OnError.
//
// Callbacks are invoked on the script host's goroutine (or synchronously on
// the submitting goroutine for blank input) and must not block.
type Callback interface {
	OnResult(text string)
	OnError(message string)
}

// CallbackFuncs adapts a pair of functions to Callback. Nil fields are
// ignored.
type CallbackFuncs struct {
	Result func(text string)
	Error  func(message string)
}

// OnResult implements Callback.
func (f CallbackFuncs) OnResult(text string) {
	if f.Result != nil {
		f.Result(text)
	}
}

// OnError implements Callback.
func (f CallbackFuncs) OnError(message string) {
	if f.Error != nil {
		f.Error(message)
	}
}

// ScriptError is a failure reported by the conversion script, carrying its
// message verbatim.
type ScriptError struct {
	Direction Direction
	Message   string
}

func (e *ScriptError) Error() string {
	return "transcode: " + e.Direction.String() + ": script error: " + e.Message
}
