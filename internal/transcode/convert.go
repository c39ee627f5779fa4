package transcode

import (
	"context"
	"fmt"
)

// Convert converts text in direction d and waits for the outcome.
//
// Concurrent Convert calls on one engine are serialized, so only one of them
// has a result outstanding at any time and each receives its own result. That
// guarantee does not extend to requests made through Submit concurrently, nor
// to a script that reports more than once per invocation.
//
// Cancelling ctx abandons the request. If it is still waiting for readiness it
// is withdrawn. If it was already dispatched, the next Convert waits until the
// abandoned result has arrived and been discarded, so a script that never
// reports holds later calls until their own contexts end. A script failure is
// returned as a *ScriptError.
func (e *Engine) Convert(ctx context.Context, d Direction, text string) (string, error) {
	if IsBlank(text) {
		return "", nil
	}
	if err := e.serial.Acquire(ctx, 1); err != nil {
		return "", fmt.Errorf("transcode: %s: %w", d, err)
	}

	type outcome struct {
		text string
		err  error
	}
	done := make(chan outcome, 1)
	send := func(o outcome) {
		select {
		case done <- o:
		default:
		}
	}

	id := e.submit(d, text, CallbackFuncs{
		Result: func(text string) { send(outcome{text: text}) },
		Error:  func(message string) { send(outcome{err: &ScriptError{Direction: d, Message: message}}) },
	})

	select {
	case o := <-done:
		e.serial.Release(1)
		return o.text, o.err
	case <-ctx.Done():
		if e.abandon(id) {
			e.serial.Release(1)
		} else {
			go func() {
				<-done
				e.logger.Debug("abandoned result discarded", "id", id)
				e.serial.Release(1)
			}()
		}
		return "", fmt.Errorf("transcode: %s: %w", d, ctx.Err())
	}
}

// abandon withdraws request id if it is still waiting for readiness. It
// reports whether no completion for id can still arrive.
func (e *Engine) abandon(id string) bool {
	e.mu.Lock()
	withdrawn := e.pending != nil && e.pending.id == id
	if withdrawn {
		e.pending = nil
	}
	// Neither pending nor active: replaced by a Submit request, or refused by
	// the invoker.
	settled := withdrawn || e.active == nil || e.active.id != id
	e.mu.Unlock()
	e.logger.Debug("request abandoned", "id", id, "withdrawn", withdrawn)
	return settled
}
