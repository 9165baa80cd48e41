package core

import "errors"

// Sentinel errors for the engine's error-handling design. Every hot-path
// operation either succeeds or returns one of these; none of them are
// used for exception-style control flow, and none propagate as fatal
// except where noted.
var (
	// ErrQueueFull is returned by the SPSC ring's Push when the buffer
	// has no free slot. Caller-local: handled by polling or backpressure.
	ErrQueueFull = errors.New("ring buffer full")

	// ErrQueueEmpty is returned by the SPSC ring's Pop when there is
	// nothing to consume. Caller-local.
	ErrQueueEmpty = errors.New("ring buffer empty")

	// ErrRefuseToQuote marks a quoting decision as a deliberate no-op
	// (degenerate inputs, or spread too tight against latency cost).
	// Callers must treat it as "no action", not a failure.
	ErrRefuseToQuote = errors.New("strategy refused to quote")

	// ErrRiskRejected is returned when the risk gate's precondition
	// check fails for a candidate order.
	ErrRiskRejected = errors.New("order rejected by risk gate")

	// ErrNoViableVenue is returned by the router when no venue clears
	// the candidate filter or the min composite score.
	ErrNoViableVenue = errors.New("no viable venue")

	// ErrVenueDisconnected marks a venue ineligible after three
	// consecutive heartbeat timeouts; recoverable on the next
	// successful heartbeat receipt.
	ErrVenueDisconnected = errors.New("venue disconnected")

	// ErrNumericDegenerate flags a clamped numeric condition (division
	// by zero, negative dt, NaN weights). Never propagated as fatal;
	// logged and the caller falls back to a safe default.
	ErrNumericDegenerate = errors.New("numeric degenerate condition")
)
