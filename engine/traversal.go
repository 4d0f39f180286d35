package engine

import (
	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/tree"
)

// ErrorRecord is one collected validation error (spec.md §7): never a Go
// error, never panicked, just a position-tagged grammar.ValidationError.
// Index is the owner-relative position spec.md §4.3 defines (child index
// for content errors, attribute index for attribute errors, child index for
// text errors) — not an event-stream position.
type ErrorRecord struct {
	Err   grammar.ValidationError
	Node  tree.Node
	Index EventIndex

	// streamIndex is the event-stream position the error was recorded at,
	// used only internally by resetTo/purgeFrom to decide which errors a
	// reset invalidates (spec.md §4.5). It plays no role in the public
	// {error, node, index} contract.
	streamIndex EventIndex
}

// sink receives every side effect a traversal step produces. The live
// engine installs a sink with real effects (error collection, annotation
// storage, cache insertion, observer emission); the query layer installs a
// no-op sink so replaying a traversal to answer possibleAt/resolveNameAt/
// speculativelyValidate never mutates the live validator (spec.md §8).
type sink interface {
	onError(rec ErrorRecord)
	onAnnotate(n tree.Node, key AnnotationKey, value any, eventIndex EventIndex)
	onCacheCheckpoint(n tree.Node, ph phase, eventIndex EventIndex, w grammar.Walker)
}

// noopSink discards everything; used by query replay.
type noopSink struct{}

func (noopSink) onError(ErrorRecord)                                           {}
func (noopSink) onAnnotate(tree.Node, AnnotationKey, any, EventIndex)          {}
func (noopSink) onCacheCheckpoint(tree.Node, phase, EventIndex, grammar.Walker) {}

// frameStage names what a stackFrame's next step() call will do.
type frameStage int

const (
	stageAttrs    frameStage = iota // next action: fire an attribute pair, or leaveStartTag once exhausted
	stageChildren                   // next action: process next child, or endTag once exhausted
)

// stackFrame tracks one currently-open element in the traversal's own
// stack, mirrored against (but distinct from) the grammar walker's
// internal stack.
type stackFrame struct {
	elem     tree.Element
	stage    frameStage
	attrIdx  int
	childIdx int
}

// position identifies a point in the traversal addressable by
// Validator.PossibleAt's (container, index, attributes) convention:
// attributes=false addresses "before child #index of container" (0..len
// of its children, inclusive of the end); attributes=true addresses a
// point in container's own attribute-firing sequence (0..len of its
// attributes).
type position struct {
	container  tree.Element
	index      int
	attributes bool
}

func (p position) equal(o position) bool {
	return p.attributes == o.attributes && p.index == o.index && tree.SameNode(p.container, o.container)
}

// traversal drives a grammar.Walker across a tree from a root element,
// one small unit of work per step() call, so it can be paused at any
// event boundary (the cooperative scheduler, spec.md §4.4) or stopped at
// an exact position (the query layer, spec.md §4.6).
type traversal struct {
	walker     grammar.Walker
	root       tree.Element
	stack      []*stackFrame
	eventIndex EventIndex
	sink       sink
	cache      *walkerCache // nil disables cache reads/writes (query replay)
	finished   bool
}

func newTraversal(w grammar.Walker, root tree.Element, startIndex EventIndex, s sink, cache *walkerCache) *traversal {
	if s == nil {
		s = noopSink{}
	}
	return &traversal{walker: w, root: root, sink: s, cache: cache, eventIndex: startIndex}
}

// ancestorChain returns n's ancestors root-first, ending with n itself.
func ancestorChain(n tree.Node) []tree.Node {
	var chain []tree.Node
	for cur := n; cur != nil; cur = cur.Parent() {
		chain = append([]tree.Node{cur}, chain...)
	}
	return chain
}

// currentPosition reports the position the next step() call will act
// from, or ok=false if the traversal has already finished.
func (t *traversal) currentPosition() (position, bool) {
	if len(t.stack) == 0 {
		return position{}, false
	}
	f := t.stack[len(t.stack)-1]
	switch f.stage {
	case stageAttrs:
		return position{container: f.elem, index: f.attrIdx, attributes: true}, true
	default:
		return position{container: f.elem, index: f.childIdx, attributes: false}, true
	}
}

// protectedNode reports whether n is on the currently open stack, and so
// must never be evicted from the walker cache mid-traversal.
func (t *traversal) protectedNode(n tree.Node) bool {
	for _, f := range t.stack {
		if tree.SameNode(f.elem, n) {
			return true
		}
	}
	return false
}

func (t *traversal) recordErrors(owner tree.Node, index EventIndex, errs []grammar.ValidationError) {
	for _, e := range errs {
		t.sink.onError(ErrorRecord{Err: e, Node: owner, Index: index, streamIndex: t.eventIndex})
	}
}

// contentErrorIndex reports the position within owner's content model that
// the offending child occupies (spec.md §4.3: "index = position within that
// parent"), or 0 if owner isn't an Element (entering the document root).
func contentErrorIndex(owner tree.Node, child tree.Node) EventIndex {
	parent, ok := owner.(tree.Element)
	if !ok {
		return 0
	}
	if idx := childIndexOf(parent, child); idx >= 0 {
		return EventIndex(idx)
	}
	return 0
}

// nsMapping builds the prefix->URI bindings declared directly on elem, for
// EnterContextWithMapping.
func nsMapping(elem tree.Element) map[string]string {
	var m map[string]string
	for _, a := range elem.Attributes() {
		if !a.IsNamespaceDecl() {
			continue
		}
		if m == nil {
			m = make(map[string]string)
		}
		m[a.DeclaredPrefix()] = a.Value()
	}
	return m
}

// enterElement fires the namespace-context push and EnterStartTag event
// for elem, owned by parent (nil at the document root), stamps its
// before-attributes checkpoint, and pushes a fresh frame for it.
func (t *traversal) enterElement(elem tree.Element, parentFrame *stackFrame) {
	t.walker.EnterContextWithMapping(nsMapping(elem))

	possibleBefore := t.walker.Possible()
	ev := grammar.Event{Name: grammar.EnterStartTag, NS: elem.Namespace(), LocalName: elem.LocalName()}
	wildcard := grammar.PossibleDueToWildcard(possibleBefore, ev)
	t.sink.onAnnotate(elem, PossibleDueToWildcard, wildcard, t.eventIndex)

	errs := t.walker.FireEvent(ev)
	t.eventIndex++
	owner := elem.Parent()
	if parentFrame != nil {
		owner = parentFrame.elem
	}
	t.recordErrors(owner, contentErrorIndex(owner, elem), errs)

	f := &stackFrame{elem: elem, stage: stageAttrs}
	t.sink.onAnnotate(elem, EventIndexBeforeAttributes, t.eventIndex, t.eventIndex)
	if t.cache != nil {
		t.cache.insertIfDue(elem, phaseBeforeAttributes, t.eventIndex, t.walker.Clone, t.protectedNode)
		t.sink.onCacheCheckpoint(elem, phaseBeforeAttributes, t.eventIndex, t.walker)
	}
	t.stack = append(t.stack, f)
}

// step performs exactly one unit of work (entering an element, one
// attribute's name/value event pair, leaveStartTag, one text node, or
// endTag) and reports whether the traversal is now finished. It has no
// stop position of its own: runUntil checks currentPosition before each
// call.
func (t *traversal) step() (finished bool, err error) {
	if t.finished {
		return true, nil
	}
	if len(t.stack) == 0 {
		// Not yet started: enter the root.
		t.enterElement(t.root, nil)
		return false, nil
	}
	f := t.stack[len(t.stack)-1]
	switch f.stage {
	case stageAttrs:
		t.stepAttrs(f)
	case stageChildren:
		t.stepChildren(f)
	}
	if len(t.stack) == 0 {
		t.finished = true
	}
	return t.finished, nil
}

func (t *traversal) stepAttrs(f *stackFrame) {
	attrs := f.elem.Attributes()
	if f.attrIdx >= len(attrs) {
		errs := t.walker.FireEvent(grammar.Event{Name: grammar.LeaveStartTag})
		t.eventIndex++
		t.recordErrors(f.elem, EventIndex(len(attrs)), errs)
		t.sink.onAnnotate(f.elem, EventIndexAfterStart, t.eventIndex, t.eventIndex)
		t.sink.onAnnotate(f.elem, EventIndexAfterAttributes, t.eventIndex, t.eventIndex)
		if t.cache != nil {
			t.cache.insertIfDue(f.elem, phaseAfterAttributes, t.eventIndex, t.walker.Clone, t.protectedNode)
			t.sink.onCacheCheckpoint(f.elem, phaseAfterAttributes, t.eventIndex, t.walker)
		}
		f.stage = stageChildren
		return
	}
	attr := attrs[f.attrIdx]
	f.attrIdx++
	if attr.IsNamespaceDecl() {
		return
	}

	possibleBefore := t.walker.Possible()
	nameEv := grammar.Event{Name: grammar.AttributeName, NS: attr.Namespace(), LocalName: attr.LocalName()}
	wildcard := grammar.PossibleDueToWildcard(possibleBefore, nameEv)
	t.sink.onAnnotate(attr, PossibleDueToWildcard, wildcard, t.eventIndex)

	attrPos := EventIndex(f.attrIdx - 1)
	errs := t.walker.FireEvent(nameEv)
	t.eventIndex++
	t.recordErrors(f.elem, attrPos, errs)

	errs = t.walker.FireEvent(grammar.Event{Name: grammar.AttributeValue, Value: attr.Value()})
	t.eventIndex++
	t.recordErrors(f.elem, attrPos, errs)

	t.sink.onAnnotate(attr, EventIndexAfter, t.eventIndex, t.eventIndex)
}

func (t *traversal) stepChildren(f *stackFrame) {
	children := f.elem.Children()
	if f.childIdx >= len(children) {
		errs := t.walker.FireEvent(grammar.Event{Name: grammar.EndTag, NS: f.elem.Namespace(), LocalName: f.elem.LocalName()})
		t.eventIndex++
		t.recordErrors(f.elem, EventIndex(len(children)), errs)
		t.walker.LeaveContext()
		t.sink.onAnnotate(f.elem, EventIndexAfter, t.eventIndex, t.eventIndex)
		if t.cache != nil {
			t.cache.insertIfDue(f.elem, phaseAfterElement, t.eventIndex, t.walker.Clone, t.protectedNode)
			t.sink.onCacheCheckpoint(f.elem, phaseAfterElement, t.eventIndex, t.walker)
		}
		t.stack = t.stack[:len(t.stack)-1]
		return
	}
	child := children[f.childIdx]
	childPos := EventIndex(f.childIdx)
	f.childIdx++
	switch child.Kind() {
	case tree.KindElement:
		t.enterElement(child.(tree.Element), f)
	case tree.KindText:
		errs := t.walker.FireEvent(grammar.Event{Name: grammar.Text, Value: child.(tree.Text).Value()})
		t.eventIndex++
		t.recordErrors(f.elem, childPos, errs)
		t.sink.onAnnotate(child, EventIndexAfter, t.eventIndex, t.eventIndex)
	default:
		// Comments and processing instructions are skipped (spec.md §3).
	}
}

// runUntil drives step() forward until the traversal finishes or its
// current position equals stop. Returns the number of steps taken.
func (t *traversal) runUntil(stop *position) (int, error) {
	n := 0
	for {
		if stop != nil {
			if pos, ok := t.currentPosition(); ok && pos.equal(*stop) {
				return n, nil
			}
		}
		finished, err := t.step()
		if err != nil {
			return n, err
		}
		n++
		if finished {
			return n, nil
		}
	}
}
