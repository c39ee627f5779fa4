// Package sanka is the public conversion API: a transcode.Engine wired to a
// script host running the Nudi converter script.
package sanka

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/joeycumines/nudi/internal/scripthost"
	"github.com/joeycumines/nudi/internal/textio"
	"github.com/joeycumines/nudi/internal/transcode"
)

// BundledName is the resource name of the embedded converter script.
const BundledName = "sanka.js"

//go:embed assets/sanka.js
var bundled string

// Bundled returns the embedded converter script.
func Bundled() scripthost.Resource {
	return scripthost.Resource{Name: BundledName, Source: bundled}
}

// LoadResource reads the script at path, or returns the bundled script when
// path is empty.
func LoadResource(path string) (scripthost.Resource, error) {
	if path == "" {
		return Bundled(), nil
	}
	source, err := textio.ReadFile(path)
	if err != nil {
		return scripthost.Resource{}, fmt.Errorf("sanka: read script: %w", err)
	}
	return scripthost.Resource{Name: filepath.Base(path), Source: source}, nil
}

// Options configures Open.
type Options struct {
	// ScriptPath replaces the bundled script when set.
	ScriptPath string
	Logger     *slog.Logger
	// SyncTimeout bounds synchronous host calls. Zero keeps the host default.
	SyncTimeout time.Duration
}

// Bridge converts text between Nudi ASCII and Unicode Kannada. The embedded
// Engine provides AsciiToUnicode, UnicodeToAscii, Submit and Convert.
//
// Requests made before the script finished loading are held (one at a time)
// and dispatched once it has.
type Bridge struct {
	*transcode.Engine

	host   *scripthost.Host
	logger *slog.Logger

	mu     sync.Mutex
	detach func() bool
}

// Open starts a script host, begins loading the script and returns without
// waiting for the load. The bridge is closed when ctx is done; see Attach.
func Open(ctx context.Context, opts Options) (*Bridge, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	res, err := LoadResource(opts.ScriptPath)
	if err != nil {
		return nil, err
	}

	hostOpts := []scripthost.Option{scripthost.WithLogger(logger.With("component", "scripthost"))}
	if opts.SyncTimeout > 0 {
		hostOpts = append(hostOpts, scripthost.WithSyncTimeout(opts.SyncTimeout))
	}
	host, err := scripthost.New(hostOpts...)
	if err != nil {
		return nil, fmt.Errorf("sanka: %w", err)
	}

	engine := transcode.NewEngine(host, transcode.WithLogger(logger.With("component", "transcode")))
	b := &Bridge{
		Engine: engine,
		host:   host,
		logger: logger,
	}
	if err := host.Load(res, engine.Sink(), engine.MarkReady); err != nil {
		_ = host.Close()
		return nil, fmt.Errorf("sanka: %w", err)
	}
	b.Attach(ctx)
	logger.Debug("bridge opened", "script", res.Name)
	return b, nil
}

// Attach ties the bridge's lifetime to ctx instead of the context it was
// previously attached to. The script is not reloaded and queued work is kept.
func (b *Bridge) Attach(ctx context.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.detach != nil {
		b.detach()
		b.detach = nil
	}
	if ctx == nil || ctx.Done() == nil {
		return
	}
	b.detach = context.AfterFunc(ctx, func() {
		b.logger.Debug("bridge context done; closing")
		_ = b.Close()
	})
}

// Ready is closed once the script load attempt has finished.
func (b *Bridge) Ready() <-chan struct{} {
	return b.host.Loaded()
}

// LoadErr returns the script load error, if any.
func (b *Bridge) LoadErr() error {
	return b.host.LoadErr()
}

// Wait blocks until the script load attempt has finished and returns its
// error.
func (b *Bridge) Wait(ctx context.Context) error {
	select {
	case <-b.host.Done():
		return scripthost.ErrClosed
	default:
	}
	select {
	case <-b.host.Loaded():
		return b.host.LoadErr()
	case <-b.host.Done():
		return scripthost.ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Check waits for the load and verifies that the script defines both
// conversion entry points.
func (b *Bridge) Check(ctx context.Context) error {
	if err := b.Wait(ctx); err != nil {
		return err
	}
	var errs []error
	for _, fn := range transcode.Functions {
		ok, err := b.host.HasFunction(fn)
		if err != nil {
			return err
		}
		if !ok {
			errs = append(errs, fmt.Errorf("sanka: function %s is not defined", fn))
		}
	}
	return errors.Join(errs...)
}

// Done is closed once the bridge is closed.
func (b *Bridge) Done() <-chan struct{} {
	return b.host.Done()
}

// Close stops the script host. Requests still outstanding, including ones
// dispatched but not yet run by the host, are never answered; requests made
// after Close fail with scripthost.ErrClosed.
func (b *Bridge) Close() error {
	b.mu.Lock()
	if b.detach != nil {
		b.detach()
		b.detach = nil
	}
	b.mu.Unlock()
	return b.host.Close()
}
