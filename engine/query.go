package engine

import (
	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/salveerr"
	"github.com/salvego/salve/tree"
)

// capturingSink collects errors from a scratch traversal without touching
// any live validator state. Used by SpeculativelyValidate(Fragment).
type capturingSink struct {
	errs []grammar.ValidationError
}

func (s *capturingSink) onError(rec ErrorRecord)                                    { s.errs = append(s.errs, rec.Err) }
func (s *capturingSink) onAnnotate(tree.Node, AnnotationKey, any, EventIndex)        {}
func (s *capturingSink) onCacheCheckpoint(tree.Node, phase, EventIndex, grammar.Walker) {}

// replayTo clones the nearest usable cached walker among container's
// ancestors (or container itself) and fast-forwards it to stop, without
// writing to the live error list, annotations, or cache (spec.md §4.6,
// §8's non-mutation property for the query layer).
func (v *Validator) replayTo(stop position) (*traversal, error) {
	container := stop.container
	var checkpointKey AnnotationKey
	if stop.attributes {
		checkpointKey = EventIndexBeforeAttributes
	} else {
		checkpointKey = EventIndexAfterAttributes
	}
	idx, ok := v.annotations.eventIndexOf(container, checkpointKey)
	if !ok {
		return nil, &salveerr.ArgumentError{Parameter: "container", Message: "container has not been validated yet"}
	}
	if idx < 0 {
		return nil, &salveerr.EventIndexError{Index: int64(idx), Reason: "negative"}
	}
	threshold := idx + 1
	if threshold <= idx {
		return nil, &salveerr.EventIndexError{Index: int64(idx), Reason: "overflowed computing getWalkerAt threshold"}
	}
	chain := append(properAncestors(container), container)

	best := v.cache.bestAncestorEntryBefore(chain, threshold)

	var w grammar.Walker
	var startIndex EventIndex
	var stack []*stackFrame
	if best == nil {
		w = v.grammar.NewWalker()
	} else {
		if best.eventIndex >= threshold {
			return nil, &salveerr.CacheCorruptionError{Detail: "bestAncestorEntryBefore returned an entry at or after its own threshold"}
		}
		w = best.walker.Clone()
		if w == nil {
			return nil, &salveerr.CloneError{Cause: nil}
		}
		startIndex = best.eventIndex
		stage := stageChildren
		if best.phase == phaseBeforeAttributes {
			stage = stageAttrs
		}
		ancestorElem, _ := best.node.(tree.Element)
		stack = []*stackFrame{{elem: ancestorElem, stage: stage}}
	}

	t := newTraversal(w, v.root, startIndex, nil, nil)
	t.stack = stack
	if _, err := t.runUntil(&stop); err != nil {
		return nil, err
	}
	return t, nil
}

// PossibleAt returns the events that could validly be fired next at the
// given position, per the (container, index, attributes) addressing
// convention documented on the position type.
func (v *Validator) PossibleAt(container tree.Element, index int, attributes bool) ([]grammar.Event, error) {
	t, err := v.replayTo(position{container: container, index: index, attributes: attributes})
	if err != nil {
		return nil, err
	}
	return t.walker.Possible(), nil
}

// PossibleWhere returns every index within container (attribute-sequence
// indices for AttributeName/AttributeValue, child indices otherwise)
// where an event named `name` matching params is possible. params is
// interpreted positionally: no params matches any event of that name; one
// param matches LocalName (or Value for text/attribute-value events); two
// params match (NS, LocalName).
func (v *Validator) PossibleWhere(container tree.Element, name grammar.EventName, params ...string) ([]int, error) {
	attributes := name == grammar.AttributeName || name == grammar.AttributeValue
	var bound int
	if attributes {
		bound = len(container.Attributes())
	} else {
		bound = len(container.Children())
	}
	var matches []int
	for idx := 0; idx <= bound; idx++ {
		events, err := v.PossibleAt(container, idx, attributes)
		if err != nil {
			return nil, err
		}
		for _, ev := range events {
			if ev.Name != name {
				continue
			}
			if eventMatchesParams(ev, params) {
				matches = append(matches, idx)
				break
			}
		}
	}
	return matches, nil
}

func eventMatchesParams(ev grammar.Event, params []string) bool {
	switch len(params) {
	case 0:
		return true
	case 1:
		return ev.LocalName == params[0] || ev.Value == params[0]
	default:
		return ev.NS == params[0] && ev.LocalName == params[1]
	}
}

// SpeculativelyValidate fires the events toParse would produce (a single
// text node, or a whole element subtree) against a clone of the walker
// state at (container, index), reporting the resulting errors without
// mutating anything the live validator tracks (spec.md §4.6).
func (v *Validator) SpeculativelyValidate(container tree.Element, index int, toParse tree.Node) ([]grammar.ValidationError, error) {
	t, err := v.replayTo(position{container: container, index: index, attributes: false})
	if err != nil {
		return nil, err
	}
	capture := &capturingSink{}
	switch n := toParse.(type) {
	case tree.Element:
		sub := newTraversal(t.walker, n, t.eventIndex, capture, nil)
		if _, err := sub.runUntil(nil); err != nil {
			return nil, err
		}
	case tree.Text:
		errs := t.walker.FireEvent(grammar.Event{Name: grammar.Text, Value: n.Value()})
		capture.errs = append(capture.errs, errs...)
	default:
		return nil, &salveerr.ArgumentError{Parameter: "toParse", Message: "must be an Element or Text node"}
	}
	return capture.errs, nil
}

// SpeculativelyValidateFragment parses xmlSource into a detached node and
// delegates to SpeculativelyValidate.
func (v *Validator) SpeculativelyValidateFragment(container tree.Element, index int, xmlSource string) ([]grammar.ValidationError, error) {
	frag, err := ParseFragment(xmlSource)
	if err != nil {
		return nil, &salveerr.ArgumentError{Parameter: "xmlSource", Message: err.Error()}
	}
	return v.SpeculativelyValidate(container, index, frag)
}

// ResolveNameAt resolves prefix to an ExpandedName using the namespace
// scope in effect at (container, index), combined with localName.
func (v *Validator) ResolveNameAt(container tree.Element, index int, prefix, localName string) (grammar.ExpandedName, bool, error) {
	t, err := v.replayTo(position{container: container, index: index, attributes: false})
	if err != nil {
		return grammar.ExpandedName{}, false, err
	}
	name, ok := t.walker.ResolveName(prefix)
	if !ok {
		return grammar.ExpandedName{}, false, nil
	}
	name.LocalName = localName
	return name, true, nil
}

// UnresolveNameAt is the inverse of ResolveNameAt: finds a prefix that
// resolves to name in the scope in effect at (container, index).
func (v *Validator) UnresolveNameAt(container tree.Element, index int, name grammar.ExpandedName) (string, bool, error) {
	t, err := v.replayTo(position{container: container, index: index, attributes: false})
	if err != nil {
		return "", false, err
	}
	prefix, ok := t.walker.UnresolveName(name)
	return prefix, ok, nil
}
