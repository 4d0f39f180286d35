// Package grammar defines the opaque grammar-walker contract the engine
// drives. Per spec.md §1, the grammar engine itself — a clone-able walker,
// fire_event, possible, end, can_end, resolve_name, unresolve_name, and
// wildcard-pattern inspection — is out of scope: this spec assumes such an
// engine exists and calls it opaquely. This package states that contract as
// Go interfaces; internal/testgrammar provides a small reference
// implementation used by tests, the CLI, and the MCP server.
package grammar

import "fmt"

// ExpandedName is a namespace-qualified name, as the walker and the engine
// exchange them once namespace prefixes have been resolved in scope.
type ExpandedName struct {
	NS        string
	LocalName string
}

func (n ExpandedName) String() string {
	if n.NS == "" {
		return n.LocalName
	}
	return fmt.Sprintf("{%s}%s", n.NS, n.LocalName)
}

// EventName identifies the kind of event fired into a Walker.
type EventName string

const (
	EnterStartTag  EventName = "enterStartTag"
	LeaveStartTag  EventName = "leaveStartTag"
	EndTag         EventName = "endTag"
	AttributeName  EventName = "attributeName"
	AttributeValue EventName = "attributeValue"
	Text           EventName = "text"
)

// Event is one atomic notification fed into a Walker.
type Event struct {
	Name EventName
	// NS/LocalName are populated for EnterStartTag, EndTag, AttributeName.
	NS        string
	LocalName string
	// Value is populated for AttributeValue and Text.
	Value string
}

// ValidationError is a single problem the walker detected while firing an
// event. It carries no node/owner information — that is the engine's job
// (spec.md §4.3) — only what the grammar itself can know.
type ValidationError struct {
	// Message is a human-readable description of the grammar violation.
	Message string
	// Partial is true when the error indicates a state that could still
	// become valid with more events (used for textual diagnostics only;
	// it does not change engine behavior).
	Partial bool
}

func (e ValidationError) Error() string { return e.Message }

// Walker is an opaque, cheaply cloneable cursor over a Grammar's derivative
// state. The engine owns exactly one Walker for the live document; all
// others in play are clones issued to the cache or to queries.
type Walker interface {
	// Clone returns an independent copy of this walker. Implementations
	// should back this with persistent (structurally shared) state so
	// clone cost stays far below replay cost — the walker cache is only
	// useful under that assumption (spec.md §9).
	Clone() Walker

	// FireEvent advances the walker by one event. Returns nil on success
	// or a non-empty slice of ValidationError on failure; firing never
	// panics and never leaves the walker in a state FireEvent cannot be
	// called on again.
	FireEvent(ev Event) []ValidationError

	// EnterContextWithMapping pushes a new namespace scope built from the
	// given prefix→URI mapping (including "" for the default namespace).
	// Must be paired with a later LeaveContext.
	EnterContextWithMapping(mapping map[string]string)

	// LeaveContext pops the namespace scope most recently pushed by
	// EnterContextWithMapping.
	LeaveContext()

	// Possible returns the set of events that could be fired next without
	// error. It never mutates the walker.
	Possible() []Event

	// End attempts to close the grammar at the current position (document
	// end). Returns nil on success or a non-empty slice of ValidationError
	// describing what was left unsatisfied.
	End() []ValidationError

	// CanEnd reports whether End would currently succeed, without
	// mutating the walker or producing error detail.
	CanEnd() bool

	// ResolveName resolves a prefix (possibly "") to an ExpandedName using
	// the walker's current in-scope namespace mapping augmented by the
	// grammar's own namespace knowledge. ok is false if unresolvable.
	ResolveName(prefix string) (name ExpandedName, ok bool)

	// UnresolveName is the inverse of ResolveName: given an ExpandedName,
	// returns a prefix that resolves to it in the current scope. ok is
	// false if no such prefix exists.
	UnresolveName(name ExpandedName) (prefix string, ok bool)
}

// Grammar is the compiled, immutable schema. It is safe to share by
// reference across engines and goroutines (spec.md §5); it only produces
// Walkers, it never mutates itself.
type Grammar interface {
	// NewWalker returns a fresh Walker positioned at the grammar's start
	// state (before any event has been fired).
	NewWalker() Walker

	// Namespaces returns every namespace URI that appears anywhere in the
	// compiled grammar, used by Validator.SchemaNamespaces.
	Namespaces() []string
}

// PossibleDueToWildcard reports whether ev would only be matched by a
// wildcard-shaped event in possible (i.e. no exact-name match exists, but a
// wildcard entry with the same EventName and, for attribute/tag events, a
// NS/LocalName pattern that admits anything, does). This is spec.md §4.7's
// wildcard tracking helper, implemented here because "wildcard-pattern
// inspection" is named in spec.md §1 as part of the opaque grammar contract
// but the matching rule itself (exact match beats wildcard) is a pure
// function of the Possible() set and is identical for every Grammar
// implementation, so it belongs on the contract side rather than being
// reimplemented per Walker.
func PossibleDueToWildcard(possible []Event, ev Event) bool {
	exact := false
	wildcard := false
	for _, p := range possible {
		if p.Name != ev.Name {
			continue
		}
		switch ev.Name {
		case EnterStartTag, EndTag, AttributeName:
			switch {
			case p.LocalName == ev.LocalName && p.NS == ev.NS:
				exact = true
			case p.LocalName == "*" || p.NS == "*":
				wildcard = true
			}
		default:
			exact = true
		}
	}
	return wildcard && !exact
}
