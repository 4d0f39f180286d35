package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/tree"
)

type fakeWalker struct{ tag string }

func (f *fakeWalker) Clone() grammar.Walker                                    { return &fakeWalker{tag: f.tag} }
func (f *fakeWalker) FireEvent(grammar.Event) []grammar.ValidationError        { return nil }
func (f *fakeWalker) EnterContextWithMapping(map[string]string)                {}
func (f *fakeWalker) LeaveContext()                                            {}
func (f *fakeWalker) Possible() []grammar.Event                                { return nil }
func (f *fakeWalker) End() []grammar.ValidationError                           { return nil }
func (f *fakeWalker) CanEnd() bool                                             { return true }
func (f *fakeWalker) ResolveName(string) (grammar.ExpandedName, bool)          { return grammar.ExpandedName{}, false }
func (f *fakeWalker) UnresolveName(grammar.ExpandedName) (string, bool)        { return "", false }

func cloneFakeWalker(tag string) func() grammar.Walker {
	return func() grammar.Walker { return &fakeWalker{tag: tag} }
}

func neverProtect(tree.Node) bool { return false }

func TestWalkerCacheInsertIfDueRespectsGap(t *testing.T) {
	c := newWalkerCache(10, 100)
	a := docAB()

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("first"), neverProtect)
	_, ok := c.lookup(a, phaseBeforeAttributes)
	require.True(t, ok, "first insertion always succeeds")

	b := a.Children()[0]
	c.insertIfDue(b, phaseBeforeAttributes, 5, cloneFakeWalker("too-soon"), neverProtect)
	_, ok = c.lookup(b, phaseBeforeAttributes)
	assert.False(t, ok, "insertion before gap elapses is skipped")

	c.insertIfDue(b, phaseBeforeAttributes, 10, cloneFakeWalker("on-time"), neverProtect)
	entry, ok := c.lookup(b, phaseBeforeAttributes)
	require.True(t, ok)
	assert.Equal(t, EventIndex(10), entry.eventIndex)
}

func TestWalkerCacheEvictsOldestUnprotected(t *testing.T) {
	c := newWalkerCache(1, 2)
	a := docAB()
	b := a.Children()[0]

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("a"), neverProtect)
	c.insertIfDue(b, phaseBeforeAttributes, 1, cloneFakeWalker("b"), neverProtect)
	assert.Equal(t, 2, c.count())

	c.insertIfDue(b, phaseAfterElement, 2, cloneFakeWalker("b-after"), neverProtect)
	assert.Equal(t, 2, c.count(), "oldest entry evicted to stay within max")
	_, ok := c.lookup(a, phaseBeforeAttributes)
	assert.False(t, ok, "the oldest entry (a) should have been evicted")
}

func TestWalkerCacheNeverEvictsProtectedEntries(t *testing.T) {
	c := newWalkerCache(1, 1)
	a := docAB()
	b := a.Children()[0]

	protectA := func(n tree.Node) bool { return tree.SameNode(n, a) }

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("a"), protectA)
	c.insertIfDue(b, phaseBeforeAttributes, 1, cloneFakeWalker("b"), protectA)

	_, aStillThere := c.lookup(a, phaseBeforeAttributes)
	assert.True(t, aStillThere, "a is protected and must survive even over the max")
}

func TestBestAncestorEntryPrefersGreatestEventIndex(t *testing.T) {
	c := newWalkerCache(1, 100)
	a := docAB()
	b := a.Children()[0]

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("a"), neverProtect)
	c.insertIfDue(b, phaseBeforeAttributes, 2, cloneFakeWalker("b"), neverProtect)

	best := c.bestAncestorEntry([]tree.Node{a, b})
	require.NotNil(t, best)
	assert.Equal(t, EventIndex(2), best.eventIndex)
}

func TestBestAncestorEntryBeforeExcludesAtOrAfterThreshold(t *testing.T) {
	c := newWalkerCache(1, 100)
	a := docAB()
	b := a.Children()[0]

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("a"), neverProtect)
	c.insertIfDue(b, phaseBeforeAttributes, 2, cloneFakeWalker("b"), neverProtect)

	best := c.bestAncestorEntryBefore([]tree.Node{a, b}, 2)
	require.NotNil(t, best)
	assert.Equal(t, a, best.node)

	assert.Nil(t, c.bestAncestorEntryBefore([]tree.Node{a, b}, 0))
}

func TestPurgeFromIndexDropsAtOrAfterThreshold(t *testing.T) {
	c := newWalkerCache(1, 100)
	a := docAB()
	b := a.Children()[0]

	c.insertIfDue(a, phaseBeforeAttributes, 0, cloneFakeWalker("a"), neverProtect)
	c.insertIfDue(b, phaseBeforeAttributes, 2, cloneFakeWalker("b"), neverProtect)
	c.insertIfDue(b, phaseAfterElement, 4, cloneFakeWalker("b-after"), neverProtect)

	c.purgeFromIndex(2)

	_, aOK := c.lookup(a, phaseBeforeAttributes)
	assert.True(t, aOK, "entries before the threshold survive")
	_, bBeforeOK := c.lookup(b, phaseBeforeAttributes)
	assert.False(t, bBeforeOK)
	_, bAfterOK := c.lookup(b, phaseAfterElement)
	assert.False(t, bAfterOK)
	assert.Equal(t, 1, c.count())
}
