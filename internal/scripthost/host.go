// Package scripthost runs a single script resource inside an embedded goja VM
// driven by a goja_nodejs event loop.
//
// goja.Runtime is not goroutine-safe. Every access to the VM happens on the
// loop goroutine, via RunOnLoop, RunOnLoopSync or TryRunOnLoopSync. The
// script reports results through the NudiBridge global, which forwards to the
// Sink given to Load; those calls arrive on the loop goroutine too.
package scripthost

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dop251/goja"
	"github.com/dop251/goja_nodejs/eventloop"
	"github.com/dop251/goja_nodejs/require"
	"github.com/joeycumines/nudi/internal/goroutineid"
)

// DefaultSyncTimeout bounds RunOnLoopSync when no timeout is configured.
const DefaultSyncTimeout = 5 * time.Second

// BridgeGlobal is the global object the script reports completions through.
const BridgeGlobal = "NudiBridge"

var (
	// ErrClosed is returned for work submitted after Close.
	ErrClosed = errors.New("scripthost: closed")
	// ErrAlreadyLoaded is returned by a second call to Load.
	ErrAlreadyLoaded = errors.New("scripthost: script already loaded")
)

// Sink receives the script's completion notifications.
type Sink interface {
	OnConverted(text string)
	OnError(message string)
}

// Resource is a named script source.
type Resource struct {
	Name   string
	Source string
}

// Option configures a Host.
type Option func(*Host)

// WithLogger sets the host logger. Script console output is written to it
// with component=script.
func WithLogger(logger *slog.Logger) Option {
	return func(h *Host) {
		if logger != nil {
			h.logger = logger
		}
	}
}

// WithSyncTimeout sets the RunOnLoopSync timeout. Zero disables it.
func WithSyncTimeout(d time.Duration) Option {
	return func(h *Host) {
		h.timeout = d
	}
}

// Host owns the VM and its event loop.
type Host struct {
	loop     *eventloop.EventLoop
	registry *require.Registry
	logger   *slog.Logger

	// vm is only dereferenced on the loop goroutine, or for Interrupt.
	vm atomic.Pointer[goja.Runtime]

	eventLoopGoroutineID atomic.Int64

	mu          sync.RWMutex
	timeout     time.Duration
	started     bool
	stopped     bool
	loadStarted bool
	loadErr     error

	// sink is only accessed on the loop goroutine.
	sink Sink

	loaded chan struct{}
	done   chan struct{}
}

// New starts a Host. The loop goroutine is running when New returns, with
// the NudiBridge global, the console and the nudi:text module installed.
// Call Close to stop it.
func New(opts ...Option) (*Host, error) {
	registry := require.NewRegistry()

	h := &Host{
		registry: registry,
		logger:   slog.New(slog.DiscardHandler),
		timeout:  DefaultSyncTimeout,
		loaded:   make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(h)
	}

	registry.RegisterNativeModule(TextModule, RequireText)
	registry.RegisterNativeModule(consoleModule, requireConsole(h.logger.With("component", "script")))

	h.loop = eventloop.NewEventLoop(
		eventloop.WithRegistry(registry),
		eventloop.EnableConsole(false),
	)
	h.loop.Start()
	h.mu.Lock()
	h.started = true
	h.mu.Unlock()

	if err := h.RunOnLoopSync(h.install); err != nil {
		_ = h.Close()
		return nil, fmt.Errorf("scripthost: initialize: %w", err)
	}
	return h, nil
}

// install runs once on the loop goroutine.
func (h *Host) install(vm *goja.Runtime) error {
	h.eventLoopGoroutineID.Store(goroutineid.Get())
	h.vm.Store(vm)

	if err := vm.Set("console", require.Require(vm, consoleModule)); err != nil {
		return err
	}

	bridge := vm.NewObject()
	if err := bridge.Set("onConverted", func(call goja.FunctionCall) goja.Value {
		text := argString(call, 0)
		h.deliver("converted", func(s Sink) { s.OnConverted(text) })
		return goja.Undefined()
	}); err != nil {
		return err
	}
	if err := bridge.Set("onError", func(call goja.FunctionCall) goja.Value {
		message := argString(call, 0)
		h.deliver("error", func(s Sink) { s.OnError(message) })
		return goja.Undefined()
	}); err != nil {
		return err
	}
	return vm.Set(BridgeGlobal, bridge)
}

// deliver must be called on the loop goroutine.
func (h *Host) deliver(kind string, fn func(Sink)) {
	if h.sink == nil {
		h.logger.Warn("script notification before load; dropped", "kind", kind)
		return
	}
	fn(h.sink)
}

// Load posts res to the loop for evaluation and returns without waiting.
// Once evaluation finished, successfully or not, sink receives the script's
// notifications and onLoaded is called on the loop goroutine. A failed load is
// logged and reported by LoadErr; onLoaded still runs. Load may be called at
// most once.
func (h *Host) Load(res Resource, sink Sink, onLoaded func()) error {
	if sink == nil {
		return errors.New("scripthost: nil sink")
	}
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return ErrClosed
	}
	if h.loadStarted {
		h.mu.Unlock()
		return ErrAlreadyLoaded
	}
	h.loadStarted = true
	h.mu.Unlock()

	ok := h.RunOnLoop(func(vm *goja.Runtime) {
		h.sink = sink
		err := h.run(vm, res)
		if err != nil {
			h.logger.Error("script load failed", "script", res.Name, "error", err)
		} else {
			h.logger.Info("script loaded", "script", res.Name, "bytes", len(res.Source))
		}
		h.mu.Lock()
		h.loadErr = err
		h.mu.Unlock()
		close(h.loaded)
		if onLoaded != nil {
			onLoaded()
		}
	})
	if !ok {
		return ErrClosed
	}
	return nil
}

func (h *Host) run(vm *goja.Runtime, res Resource) error {
	prg, err := goja.Compile(res.Name, res.Source, true)
	if err != nil {
		return fmt.Errorf("failed to compile %s: %w", res.Name, err)
	}
	if _, err := vm.RunProgram(prg); err != nil {
		return fmt.Errorf("failed to run %s: %w", res.Name, err)
	}
	return nil
}

// Loaded is closed once the load attempt has finished.
func (h *Host) Loaded() <-chan struct{} {
	return h.loaded
}

// LoadErr returns the error from the load attempt, if any.
func (h *Host) LoadErr() error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.loadErr
}

// Invoke posts expr to the loop and returns immediately. An exception thrown
// by expr is reported to the sink as OnError with the exception's text.
func (h *Host) Invoke(expr string) error {
	if !h.RunOnLoop(func(vm *goja.Runtime) { h.invoke(vm, expr) }) {
		return ErrClosed
	}
	return nil
}

func (h *Host) invoke(vm *goja.Runtime, expr string) {
	_, err := vm.RunString(expr)
	if err == nil {
		return
	}
	message := err.Error()
	var exc *goja.Exception
	if errors.As(err, &exc) {
		if v := exc.Value(); v != nil {
			message = v.String()
		}
	}
	h.logger.Debug("invocation threw", "error", message)
	h.deliver("exception", func(s Sink) { s.OnError(message) })
}

// HasFunction reports whether name is a callable global.
func (h *Host) HasFunction(name string) (bool, error) {
	var ok bool
	err := h.TryRunOnLoopSync(func(vm *goja.Runtime) error {
		_, ok = goja.AssertFunction(vm.Get(name))
		return nil
	})
	return ok, err
}

// Close stops the loop, interrupting any script still running. No job is
// accepted once Close has begun; jobs accepted earlier but not yet run are
// dropped. It is safe to call more than once, but must not be called from the
// loop goroutine.
func (h *Host) Close() error {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return nil
	}
	h.stopped = true
	h.mu.Unlock()

	close(h.done)
	if vm := h.vm.Load(); vm != nil {
		vm.Interrupt(ErrClosed)
	}
	h.loop.Stop()
	h.logger.Debug("script host closed")
	return nil
}

// Done is closed when the host stops.
func (h *Host) Done() <-chan struct{} {
	return h.done
}

// IsRunning reports whether the host is started and not closed.
func (h *Host) IsRunning() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.started && !h.stopped
}

// RunOnLoop schedules fn on the loop goroutine. It returns false if the host
// is not running. A panic in fn is recovered and logged. A job accepted before
// Close may still be dropped by it without running.
func (h *Host) RunOnLoop(fn func(*goja.Runtime)) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.started || h.stopped {
		return false
	}
	return h.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if r := recover(); r != nil {
				h.logger.Error("panic in loop job", "panic", fmt.Sprint(r))
			}
		}()
		fn(vm)
	})
}

// RunOnLoopSync runs fn on the loop goroutine and waits for it, up to the
// configured timeout.
func (h *Host) RunOnLoopSync(fn func(*goja.Runtime) error) error {
	errCh := make(chan error, 1)
	h.mu.RLock()
	running := h.started && !h.stopped
	timeout := h.timeout
	ok := running && h.loop.RunOnLoop(func(vm *goja.Runtime) {
		defer func() {
			if r := recover(); r != nil {
				errCh <- fmt.Errorf("scripthost: panic: %v", r)
			}
		}()
		errCh <- fn(vm)
	})
	h.mu.RUnlock()
	if !ok {
		return ErrClosed
	}

	var timer <-chan time.Time
	if timeout > 0 {
		t := time.NewTimer(timeout)
		defer t.Stop()
		timer = t.C
	}
	select {
	case err := <-errCh:
		return err
	case <-h.done:
		return ErrClosed
	case <-timer:
		return fmt.Errorf("scripthost: operation timed out after %v", timeout)
	}
}

// TryRunOnLoopSync is RunOnLoopSync, except that when called on the loop
// goroutine it runs fn directly instead of deadlocking.
func (h *Host) TryRunOnLoopSync(fn func(*goja.Runtime) error) error {
	if !h.IsRunning() {
		return ErrClosed
	}
	if id := h.eventLoopGoroutineID.Load(); id > 0 && goroutineid.Get() == id {
		return fn(h.vm.Load())
	}
	return h.RunOnLoopSync(fn)
}

// SetTimeout changes the RunOnLoopSync timeout. Zero disables it.
func (h *Host) SetTimeout(d time.Duration) {
	h.mu.Lock()
	h.timeout = d
	h.mu.Unlock()
}

func argString(call goja.FunctionCall, i int) string {
	v := call.Argument(i)
	if goja.IsUndefined(v) || goja.IsNull(v) {
		return ""
	}
	return v.String()
}
