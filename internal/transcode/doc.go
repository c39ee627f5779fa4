// Package transcode coordinates conversions between Nudi ASCII and Unicode
// Kannada text performed by an opaque script running in a single-goroutine
// script host.
//
// The Engine owns three pieces of state, all guarded by one mutex:
//
//   - readiness: NotReady until the host reports that the conversion script
//     finished loading (MarkReady), then Ready for the rest of its life;
//   - a single pending slot: while NotReady, the latest submission waits
//     here, replacing (without notification) any earlier one;
//   - the active request: the most recently dispatched request, whose
//     callback receives whatever the script reports next through the
//     CompletionSink.
//
// The script contract carries no request identifier, so the callback API
// (Submit, AsciiToUnicode, UnicodeToAscii) delivers a result to whichever
// request was dispatched last. Overlapping calls therefore misattribute
// results: the earlier caller is never notified and the later caller may
// receive the earlier result. Callers that cannot guarantee one outstanding
// request at a time should use Convert, which serializes its callers and
// honours context cancellation.
package transcode
