package engine

import (
	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/logging"
	"github.com/salvego/salve/tree"
)

// phase distinguishes the two cacheable checkpoints at an element's start
// tag: before vs after its attribute events (spec.md §3: "Phase
// distinguishes 'before attributes' vs 'after attributes' of an element").
type phase int

const (
	phaseBeforeAttributes phase = iota
	phaseAfterAttributes
	phaseAfterElement
)

// cacheEntry is one walker-cache row (spec.md §3).
type cacheEntry struct {
	node       tree.Node
	phase      phase
	walker     grammar.Walker
	eventIndex EventIndex
}

// walkerCache is the sparse map from (node, phase) to a cloned walker,
// spaced by gap events and bounded by max entries (spec.md §4.2).
type walkerCache struct {
	gap            EventIndex
	max            int
	entries        map[tree.Node]map[phase]*cacheEntry
	order          []*cacheEntry // insertion order, for oldest-first eviction
	lastInsertedAt EventIndex
	hasInserted    bool
	logger         logging.Logger
}

func newWalkerCache(gap EventIndex, max int) *walkerCache {
	return &walkerCache{
		gap:     gap,
		max:     max,
		entries: make(map[tree.Node]map[phase]*cacheEntry),
		logger:  logging.Noop(),
	}
}

// setLogger installs the Debug-level logger used for insert/evict/purge
// tracing. Called once from Validator.New; defaults to a no-op logger.
func (c *walkerCache) setLogger(l logging.Logger) {
	if l != nil {
		c.logger = l
	}
}

// insertIfDue clones via cloneFn and stores an entry for (node, ph) if the
// event-index delta since the last insertion is at least gap. protect is
// consulted before evicting to satisfy the "never evict a currently-needed
// entry" bound (spec.md §4.2); it should return true for any node still on
// the live traversal's open stack.
func (c *walkerCache) insertIfDue(node tree.Node, ph phase, eventIndex EventIndex, cloneFn func() grammar.Walker, protect func(tree.Node) bool) {
	if c.hasInserted && eventIndex-c.lastInsertedAt < c.gap {
		return
	}
	entry := &cacheEntry{node: node, phase: ph, walker: cloneFn(), eventIndex: eventIndex}
	byPhase := c.entries[node]
	if byPhase == nil {
		byPhase = make(map[phase]*cacheEntry)
		c.entries[node] = byPhase
	}
	byPhase[ph] = entry
	c.order = append(c.order, entry)
	c.lastInsertedAt = eventIndex
	c.hasInserted = true
	c.logger.Debug("cache insert", "phase", ph, "eventIndex", int64(eventIndex))
	c.evictIfNeeded(protect)
}

func (c *walkerCache) evictIfNeeded(protect func(tree.Node) bool) {
	for c.count() > c.max {
		evicted := false
		for i, entry := range c.order {
			if protect != nil && protect(entry.node) {
				continue
			}
			c.removeEntry(entry)
			c.order = append(c.order[:i:i], c.order[i+1:]...)
			evicted = true
			c.logger.Debug("cache evict", "eventIndex", int64(entry.eventIndex))
			break
		}
		if !evicted {
			// every remaining entry is protected; stop rather than loop forever.
			return
		}
	}
}

func (c *walkerCache) removeEntry(entry *cacheEntry) {
	byPhase := c.entries[entry.node]
	if byPhase == nil {
		return
	}
	delete(byPhase, entry.phase)
	if len(byPhase) == 0 {
		delete(c.entries, entry.node)
	}
}

func (c *walkerCache) count() int {
	n := 0
	for _, byPhase := range c.entries {
		n += len(byPhase)
	}
	return n
}

// lookup returns the entry stored for (node, ph), if any.
func (c *walkerCache) lookup(node tree.Node, ph phase) (*cacheEntry, bool) {
	byPhase := c.entries[node]
	if byPhase == nil {
		return nil, false
	}
	e, ok := byPhase[ph]
	return e, ok
}

// bestAncestorEntry walks chain (ordered root-first, as produced by
// ancestorChain) and returns the entry with the greatest eventIndex among
// those nodes, preferring phaseAfterElement / phaseAfterAttributes over
// phaseBeforeAttributes at equal eventIndex since later phases represent
// more progress. Returns nil if no ancestor has a cached entry.
func (c *walkerCache) bestAncestorEntry(chain []tree.Node) *cacheEntry {
	var best *cacheEntry
	for _, n := range chain {
		byPhase := c.entries[n]
		for _, e := range byPhase {
			if best == nil || e.eventIndex > best.eventIndex || (e.eventIndex == best.eventIndex && e.phase > best.phase) {
				best = e
			}
		}
	}
	return best
}

// bestAncestorEntryBefore is bestAncestorEntry restricted to entries whose
// eventIndex is strictly less than threshold — used by resetTo to find a
// checkpoint that predates the node being reset (spec.md §4.5).
func (c *walkerCache) bestAncestorEntryBefore(chain []tree.Node, threshold EventIndex) *cacheEntry {
	var best *cacheEntry
	for _, n := range chain {
		byPhase := c.entries[n]
		for _, e := range byPhase {
			if e.eventIndex >= threshold {
				continue
			}
			if best == nil || e.eventIndex > best.eventIndex || (e.eventIndex == best.eventIndex && e.phase > best.phase) {
				best = e
			}
		}
	}
	return best
}

// purgeFromIndex drops every entry whose eventIndex is >= threshold (spec.md
// §4.2: resetTo removes entries whose node is the reset target, a
// descendant, or a later sibling — equivalently, every entry at or after
// the reset target's event index).
func (c *walkerCache) purgeFromIndex(threshold EventIndex) {
	c.logger.Debug("cache purge", "threshold", int64(threshold))
	kept := c.order[:0:0]
	for _, entry := range c.order {
		if entry.eventIndex >= threshold {
			c.removeEntry(entry)
			continue
		}
		kept = append(kept, entry)
	}
	c.order = kept
	if len(c.order) == 0 {
		c.hasInserted = false
		c.lastInsertedAt = 0
	} else {
		c.lastInsertedAt = c.order[len(c.order)-1].eventIndex
	}
}
