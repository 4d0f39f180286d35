package engine

// EventIndex is a monotonic sequence number assigned to every grammar
// event fired during a traversal (spec.md §3: "a strictly increasing
// counter incremented once per fired event"). Index 0 precedes the first
// event.
type EventIndex int64
