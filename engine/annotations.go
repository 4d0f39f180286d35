package engine

import "github.com/salvego/salve/tree"

// AnnotationKey names one of the per-node annotations the engine maintains
// (spec.md §3). Annotations are never attached to the node itself — they
// live in an external side table keyed by node identity, per spec.md §9's
// "cyclic references avoided by keying annotations on an external map".
type AnnotationKey string

const (
	// EventIndexAfter is the sequence number immediately after the node
	// was fully validated (element: after endTag; text: after the text event).
	EventIndexAfter AnnotationKey = "EventIndexAfter"
	// EventIndexAfterStart is the sequence number immediately after an
	// element's start tag, post-attributes.
	EventIndexAfterStart AnnotationKey = "EventIndexAfterStart"
	// EventIndexBeforeAttributes is the sequence number immediately after
	// the element's own enterStartTag, just before its attribute events.
	EventIndexBeforeAttributes AnnotationKey = "EventIndexBeforeAttributes"
	// EventIndexAfterAttributes is the sequence number just after the
	// element's attribute events (same point as EventIndexAfterStart).
	EventIndexAfterAttributes AnnotationKey = "EventIndexAfterAttributes"
	// PossibleDueToWildcard is a bool: the event that admitted this
	// element/attribute was matched only via a wildcard name pattern.
	PossibleDueToWildcard AnnotationKey = "PossibleDueToWildcard"
	// ErrorID identifies the first error owned by a node: the 1-based
	// position that error had in the error list when it was recorded.
	ErrorID AnnotationKey = "ErrorId"
)

// annotationStore is the side table. Keys are qualified by a configurable
// prefix (spec.md §6's "prefix" constructor option) purely so a host can run
// more than one salve-derived annotation scheme over the same node space
// without collision; it has no effect on lookup semantics.
type annotationStore struct {
	prefix string
	byNode map[any]map[string]any
}

func newAnnotationStore(prefix string) *annotationStore {
	return &annotationStore{prefix: prefix, byNode: make(map[any]map[string]any)}
}

func (s *annotationStore) qualify(key AnnotationKey) string {
	return s.prefix + string(key)
}

func (s *annotationStore) set(n tree.Node, key AnnotationKey, value any) {
	id := n.Identity()
	m := s.byNode[id]
	if m == nil {
		m = make(map[string]any)
		s.byNode[id] = m
	}
	m[s.qualify(key)] = value
}

func (s *annotationStore) get(n tree.Node, key AnnotationKey) (any, bool) {
	m := s.byNode[n.Identity()]
	if m == nil {
		return nil, false
	}
	v, ok := m[s.qualify(key)]
	return v, ok
}

// eventIndexOf reads an EventIndex-valued annotation, returning ok=false if
// absent.
func (s *annotationStore) eventIndexOf(n tree.Node, key AnnotationKey) (EventIndex, bool) {
	v, ok := s.get(n, key)
	if !ok {
		return 0, false
	}
	idx, ok := v.(EventIndex)
	return idx, ok
}

// clear removes every annotation belonging to n (not its descendants; the
// caller walks the subtree).
func (s *annotationStore) clear(n tree.Node) {
	delete(s.byNode, n.Identity())
}
