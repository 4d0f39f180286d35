package engine

import (
	"github.com/salvego/salve/events"
	"github.com/salvego/salve/salveerr"
	"github.com/salvego/salve/tree"
)

// ResetErrorsPayload is the payload emitted on events.ResetErrors.
type ResetErrorsPayload struct {
	// At is the event index at and after which errors were dropped.
	At EventIndex
}

// ResetTo discards all traversal progress at or after n (n and everything
// validated after it), rewinding to the nearest usable walker-cache
// checkpoint among n's ancestors and replaying forward to the point
// immediately before n. The scheduler is left stopped; call Start to
// resume (spec.md §4.5).
func (v *Validator) ResetTo(n tree.Node) error {
	return v.resetTo(n)
}

// RestartAt is ResetTo followed by an immediate Start, for callers that
// want traversal to resume right away.
func (v *Validator) RestartAt(n tree.Node) error {
	if err := v.resetTo(n); err != nil {
		return err
	}
	v.Start()
	return nil
}

func (v *Validator) resetTo(n tree.Node) error {
	elem, ok := n.(tree.Element)
	if !ok {
		return &salveerr.ArgumentError{Parameter: "n", Message: "resetTo/restartAt target must be an Element"}
	}
	threshold, reached := v.annotations.eventIndexOf(elem, EventIndexBeforeAttributes)
	if !reached {
		v.cfg.logger.Debug("reset skipped, node never validated", "node", describeResetNode(elem))
		return nil
	}
	if threshold < 0 {
		return &salveerr.EventIndexError{Index: int64(threshold), Reason: "negative"}
	}
	v.scheduler.stop()
	v.cfg.logger.Debug("reset start", "node", describeResetNode(elem), "threshold", int64(threshold))

	isRoot := tree.SameNode(elem, v.root)
	ancestors := properAncestors(elem)
	best := v.cache.bestAncestorEntryBefore(ancestors, threshold)

	var resumeEventIndex EventIndex
	var resumeStack []*stackFrame
	var newWalker = v.grammar.NewWalker()

	if best != nil {
		if best.eventIndex >= threshold {
			return &salveerr.CacheCorruptionError{Detail: "bestAncestorEntryBefore returned an entry at or after its own threshold"}
		}
		newWalker = best.walker.Clone()
		if newWalker == nil {
			return &salveerr.CloneError{Cause: nil}
		}
		resumeEventIndex = best.eventIndex
		stage := stageChildren
		if best.phase == phaseBeforeAttributes {
			stage = stageAttrs
		}
		ancestorElem, _ := best.node.(tree.Element)
		// The checkpoint node's own ancestors (from the root down) stay
		// open; each resumes after the child that leads to the checkpoint.
		chain := ancestorChain(best.node)
		inRoot := false
		for i := 0; i < len(chain)-1; i++ {
			if tree.SameNode(chain[i], v.root) {
				inRoot = true
			}
			outer, isElem := chain[i].(tree.Element)
			if !inRoot || !isElem {
				continue
			}
			resumeStack = append(resumeStack, &stackFrame{elem: outer, stage: stageChildren, childIdx: childIndexOf(outer, chain[i+1]) + 1})
		}
		resumeStack = append(resumeStack, &stackFrame{elem: ancestorElem, stage: stage})
		v.purgeFrom(best.eventIndex)
	} else {
		v.purgeFrom(0)
	}

	t := newTraversal(newWalker, v.root, resumeEventIndex, v.liveSink(), v.cache)
	t.stack = resumeStack

	if !isRoot {
		parent, _ := elem.Parent().(tree.Element)
		stop := position{container: parent, index: childIndexOf(parent, elem), attributes: false}
		if _, err := t.runUntil(&stop); err != nil {
			return err
		}
	}

	v.traversal = t
	v.state = Incomplete
	v.cfg.logger.Debug("reset done", "threshold", int64(threshold))
	v.emitter.Emit(events.ResetErrors, ResetErrorsPayload{At: threshold})
	return nil
}

// describeResetNode renders a node for reset-span log lines.
func describeResetNode(elem tree.Element) string {
	return "<" + elem.LocalName() + ">"
}

// properAncestors returns n's strict ancestors, root-first.
func properAncestors(n tree.Node) []tree.Node {
	chain := ancestorChain(n)
	if len(chain) == 0 {
		return nil
	}
	return chain[:len(chain)-1]
}

// childIndexOf returns child's index within parent.Children(), or -1 if
// not found.
func childIndexOf(parent tree.Element, child tree.Node) int {
	for i, c := range parent.Children() {
		if tree.SameNode(c, child) {
			return i
		}
	}
	return -1
}

// purgeFrom drops every error, annotation, and cache entry at or after
// threshold, walking the whole document once to find annotated nodes
// whose recorded event index is stale. This is the cost a reference
// implementation pays for not maintaining its own per-node timeline
// index; a production engine would keep one.
func (v *Validator) purgeFrom(threshold EventIndex) {
	kept := v.errors[:0:0]
	for _, rec := range v.errors {
		if rec.streamIndex < threshold {
			kept = append(kept, rec)
		}
	}
	v.errors = kept

	v.cache.purgeFromIndex(threshold)

	var walk func(tree.Node)
	walk = func(n tree.Node) {
		if idx, ok := v.annotations.eventIndexOf(n, EventIndexAfter); ok && idx >= threshold {
			v.annotations.clear(n)
		} else if idx, ok := v.annotations.eventIndexOf(n, EventIndexBeforeAttributes); ok && idx >= threshold {
			v.annotations.clear(n)
		}
		if elem, ok := n.(tree.Element); ok {
			for _, a := range elem.Attributes() {
				if idx, ok := v.annotations.eventIndexOf(a, EventIndexAfter); ok && idx >= threshold {
					v.annotations.clear(a)
				}
			}
			for _, c := range elem.Children() {
				walk(c)
			}
		}
	}
	walk(v.root)
}
