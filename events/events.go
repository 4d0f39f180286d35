// Package events provides the thin event-subscription utility the engine
// uses to notify observers. It is intentionally minimal: name-keyed
// listeners, any number of wildcard listeners, one-shot wrapping, and
// per-event cancellation via a listener-returned halt sentinel.
package events

import "sync"

// Name identifies an event. The engine uses exactly four: Error,
// ResetErrors, StateUpdate, PossibleDueToWildcardChange.
type Name string

const (
	// Error is emitted once per validation error discovered.
	Error Name = "error"
	// ResetErrors is emitted when resetTo drops errors from the error list.
	ResetErrors Name = "reset-errors"
	// StateUpdate is emitted at the end of every scheduler cycle, carrying
	// the current WorkingState and partDone.
	StateUpdate Name = "state-update"
	// PossibleDueToWildcardChange is emitted when a node's
	// PossibleDueToWildcard annotation is first set or changes value.
	PossibleDueToWildcardChange Name = "possible-due-to-wildcard-change"
)

// Halt is the sentinel a Listener returns to stop further dispatch of the
// current event only. Any other return value (including nil) lets dispatch
// continue to the next listener.
var Halt = &haltSentinel{}

type haltSentinel struct{}

func (*haltSentinel) haltMarker() {}

// Listener receives a payload for an event it is subscribed to. Returning
// Halt stops dispatch of the current event to subsequent listeners; any
// other return value continues dispatch.
type Listener func(payload any) any

// WildcardListener receives every event, tagged with its Name.
type WildcardListener func(name Name, payload any)

// Cancel unsubscribes the listener it was returned from. Calling Cancel more
// than once is a no-op.
type Cancel func()

// Emitter is a name-keyed pub/sub hub with any number of wildcard listeners.
// Listener lists are snapshotted at dispatch time, so a listener may safely
// add or remove listeners (including itself) during its own callback: it
// will not observe its own addition for the event currently dispatching,
// and a self-removal does not affect the in-flight dispatch.
type Emitter struct {
	mu        sync.Mutex
	listeners map[Name][]*entry
	wildcard  []*wildcardEntry
	seq       uint64
}

type entry struct {
	id      uint64
	fn      Listener
	oneShot bool
}

type wildcardEntry struct {
	id uint64
	fn WildcardListener
}

// NewEmitter constructs an empty Emitter.
func NewEmitter() *Emitter {
	return &Emitter{listeners: make(map[Name][]*entry)}
}

// On subscribes fn to events named name. Returns a Cancel that removes it.
func (e *Emitter) On(name Name, fn Listener) Cancel {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	id := e.seq
	e.listeners[name] = append(e.listeners[name], &entry{id: id, fn: fn})
	return func() { e.remove(name, id) }
}

// Once subscribes fn to the next occurrence of name only; it is
// automatically unsubscribed after firing once (the "one-shot wrapping"
// named in spec.md §1).
func (e *Emitter) Once(name Name, fn Listener) Cancel {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	id := e.seq
	e.listeners[name] = append(e.listeners[name], &entry{id: id, fn: fn, oneShot: true})
	return func() { e.remove(name, id) }
}

// OnAny subscribes a wildcard listener that receives every event.
func (e *Emitter) OnAny(fn WildcardListener) Cancel {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.seq++
	id := e.seq
	e.wildcard = append(e.wildcard, &wildcardEntry{id: id, fn: fn})
	return func() { e.removeWildcard(id) }
}

func (e *Emitter) remove(name Name, id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := e.listeners[name]
	for i, en := range list {
		if en.id == id {
			e.listeners[name] = append(list[:i:i], list[i+1:]...)
			return
		}
	}
}

func (e *Emitter) removeWildcard(id uint64) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, en := range e.wildcard {
		if en.id == id {
			e.wildcard = append(e.wildcard[:i:i], e.wildcard[i+1:]...)
			return
		}
	}
}

// Emit dispatches payload to every listener subscribed to name, then to the
// wildcard listeners. Dispatch snapshots the current listener list first, so
// additions/removals made by a listener during this call do not affect the
// current dispatch. One-shot listeners are removed after firing regardless
// of whether they returned Halt. A listener returning Halt stops dispatch to
// the remaining named listeners for this call only; wildcard listeners
// still run.
func (e *Emitter) Emit(name Name, payload any) {
	e.mu.Lock()
	snapshot := append([]*entry(nil), e.listeners[name]...)
	wildcardSnapshot := append([]*wildcardEntry(nil), e.wildcard...)
	e.mu.Unlock()

	var oneShotIDs []uint64
	for _, en := range snapshot {
		if en.oneShot {
			oneShotIDs = append(oneShotIDs, en.id)
		}
		result := en.fn(payload)
		if oneShotIDs != nil && en.oneShot {
			// removal happens after the loop to avoid mutating during iteration
		}
		if _, halted := result.(*haltSentinel); halted {
			break
		}
	}
	for _, id := range oneShotIDs {
		e.remove(name, id)
	}
	for _, w := range wildcardSnapshot {
		w.fn(name, payload)
	}
}

// ListenerCount returns the number of listeners currently subscribed to
// name, not counting wildcard listeners. Intended for tests.
func (e *Emitter) ListenerCount(name Name) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.listeners[name])
}
