package transcode

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"
)

// Invoker posts a script statement to the host's execution goroutine.
//
// Invoke must not block and must not deliver completions synchronously: it is
// called with the engine's mutex held, and the statement's outcome is expected
// later through the engine's CompletionSink. A non-nil error means the
// statement was not accepted and will never run.
type Invoker interface {
	Invoke(expr string) error
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger used for request lifecycle records.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

type state uint8

const (
	stateNotReady state = iota
	stateReady
)

func (s state) String() string {
	if s == stateReady {
		return "ready"
	}
	return "not-ready"
}

// request is one submission. id exists only for logging and withdrawal; the
// script never sees it.
type request struct {
	id        string
	direction Direction
	text      string
	callback  Callback
	// delivered is set once the sink routed a notification to this request.
	delivered bool
}

// Engine coordinates conversions against a script host. See the package
// documentation for the delivery model.
type Engine struct {
	invoker Invoker
	logger  *slog.Logger
	serial  *semaphore.Weighted

	// mu guards state, pending and active for every read-modify-write. It is
	// never held while a Callback runs.
	mu      sync.Mutex
	state   state
	pending *request
	active  *request
}

// NewEngine returns an Engine in the NotReady state dispatching through
// invoker. The host must call MarkReady once its script has loaded, and
// deliver outcomes to Sink().
func NewEngine(invoker Invoker, opts ...Option) *Engine {
	e := &Engine{
		invoker: invoker,
		logger:  slog.New(slog.DiscardHandler),
		serial:  semaphore.NewWeighted(1),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// AsciiToUnicode submits text for conversion from Nudi ASCII to Unicode.
func (e *Engine) AsciiToUnicode(text string, cb Callback) {
	e.Submit(AsciiToUnicode, text, cb)
}

// UnicodeToAscii submits text for conversion from Unicode to Nudi ASCII.
func (e *Engine) UnicodeToAscii(text string, cb Callback) {
	e.Submit(UnicodeToAscii, text, cb)
}

// Submit converts text in direction d and reports the outcome to cb.
//
// Blank text resolves immediately with cb.OnResult(""). Before the engine is
// ready the request waits in a single slot, replacing any request already
// waiting there; the replaced callback is never notified. Once ready the
// request is dispatched at once. Submit never blocks on the script.
func (e *Engine) Submit(d Direction, text string, cb Callback) {
	e.submit(d, text, cb)
}

// submit returns the id assigned to the request, or "" for blank input.
func (e *Engine) submit(d Direction, text string, cb Callback) string {
	if cb == nil {
		panic("transcode: nil callback")
	}
	fn := d.FunctionName()
	if IsBlank(text) {
		cb.OnResult("")
		return ""
	}

	req := &request{
		id:        uuid.NewString(),
		direction: d,
		text:      text,
		callback:  cb,
	}

	e.mu.Lock()
	if e.state == stateNotReady {
		if prev := e.pending; prev != nil {
			e.logger.Debug("pending request replaced", "replaced", prev.id, "id", req.id)
		}
		e.pending = req
		e.mu.Unlock()
		e.logger.Debug("request queued until ready", "id", req.id, "function", fn)
		return req.id
	}
	failed := e.dispatchLocked(req)
	e.mu.Unlock()

	if failed != nil {
		failed()
	}
	return req.id
}

// dispatchLocked makes req the active request and posts its invocation. If
// the invoker refuses it, the returned func delivers the error to req's
// callback and must be run after e.mu is released. Must be called with e.mu
// held.
func (e *Engine) dispatchLocked(req *request) func() {
	if prev := e.active; prev != nil && !prev.delivered {
		e.logger.Warn("callback overwritten before its result arrived", "lost", prev.id, "id", req.id)
	}
	e.active = req

	fn := req.direction.FunctionName()
	if err := e.invoker.Invoke(Expression(fn, req.text)); err != nil {
		req.delivered = true
		e.active = nil
		e.logger.Error("dispatch failed", "id", req.id, "function", fn, "error", err)
		msg := err.Error()
		return func() { req.callback.OnError(msg) }
	}
	e.logger.Debug("request dispatched", "id", req.id, "function", fn, "length", len(req.text))
	return nil
}

// MarkReady is the host's readiness signal. The first call moves the engine
// to Ready and dispatches the waiting request, if any. Later calls are
// ignored.
func (e *Engine) MarkReady() {
	e.mu.Lock()
	if e.state == stateReady {
		e.mu.Unlock()
		e.logger.Warn("readiness signalled more than once; ignoring")
		return
	}
	e.state = stateReady
	req := e.pending
	e.pending = nil
	var failed func()
	if req != nil {
		failed = e.dispatchLocked(req)
	}
	e.mu.Unlock()

	e.logger.Info("engine ready", "flushed", req != nil)
	if failed != nil {
		failed()
	}
}

// IsReady reports whether MarkReady has been called.
func (e *Engine) IsReady() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == stateReady
}

// CompletionSink is the inbound surface the script host reports outcomes to.
// Each notification goes to the callback of the most recently dispatched
// request.
type CompletionSink struct {
	e *Engine
}

// Sink returns the engine's completion sink.
func (e *Engine) Sink() CompletionSink {
	return CompletionSink{e: e}
}

// OnConverted delivers a successful conversion.
func (s CompletionSink) OnConverted(text string) {
	if req := s.e.take("converted"); req != nil {
		req.callback.OnResult(text)
	}
}

// OnError delivers a script failure, message verbatim.
func (s CompletionSink) OnError(message string) {
	if req := s.e.take("error"); req != nil {
		req.callback.OnError(message)
	}
}

// take returns the active request, marking it delivered. The request stays
// active: a second notification reaches the same callback.
func (e *Engine) take(kind string) *request {
	e.mu.Lock()
	req := e.active
	if req != nil {
		req.delivered = true
	}
	e.mu.Unlock()

	if req == nil {
		e.logger.Warn("completion without an active request; dropped", "kind", kind)
		return nil
	}
	e.logger.Debug("completion delivered", "id", req.id, "kind", kind)
	return req
}
