package kernel

// Fan-in needs no machinery of its own: a pipe declaring N upstreams is
// wired by handing N independent sender handles to the same Go channel.
// Go channels are natively multi-producer/single-consumer, so N goroutines
// sending on in and one RunXxx goroutine receiving from it already gives
// FIFO relative to a single sender; no ordering is promised across
// distinct upstreams.
//
// The reverse shape, one producer feeding more than one consumer, has no
// channel-level equivalent: a value sent on a channel is received by
// exactly one reader. Fan-out is the responsibility of
// the Selector kind (RunSelector, selector.go), so every other
// pipe kind's output channel is wired to exactly one consumer; a manifest
// that names the same non-selector upstream from more than one pipe is
// rejected during validation rather than handled by implicit cloning here
// (internal/manifest/validator.go checkSingleConsumer).
