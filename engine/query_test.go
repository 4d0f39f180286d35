package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvego/salve/grammar"
	"github.com/salvego/salve/internal/domtree"
	"github.com/salvego/salve/salveerr"
)

func TestPossibleAtRejectsUnvalidatedContainer(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	_, err = v.PossibleAt(root, 0, false)
	require.Error(t, err)
	var argErr *salveerr.ArgumentError
	assert.ErrorAs(t, err, &argErr)
}

func TestPossibleAtBeforeFirstChildNamesRequiredElement(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	events, err := v.PossibleAt(root, 0, false)
	require.NoError(t, err)

	require.NotEmpty(t, events)
	assert.Equal(t, grammar.EnterStartTag, events[0].Name)
	assert.Equal(t, "b", events[0].LocalName)
}

func docABThenD() *domtree.Element {
	doc := domtree.NewDocument()
	a := doc.NewElement("", "a")
	b := doc.NewElement("", "b")
	d := doc.NewElement("", "d")
	a.AppendChild(b)
	a.AppendChild(d)
	doc.SetRoot(a)
	return a
}

func TestPossibleWhereFindsOnlyValidIndices(t *testing.T) {
	root := docABThenD()
	v, err := New(abThenDGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	state, _ := v.WorkingState()
	require.Equal(t, Valid, state)

	bIdx, err := v.PossibleWhere(root, grammar.EnterStartTag, "b")
	require.NoError(t, err)
	assert.Equal(t, []int{0}, bIdx, "<b> is only valid as the very first child")

	dIdx, err := v.PossibleWhere(root, grammar.EnterStartTag, "d")
	require.NoError(t, err)
	assert.Equal(t, []int{1}, dIdx, "<d> is only valid once <b> has already been consumed")
}

func TestSpeculativelyValidateDoesNotMutateLiveState(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)
	require.Empty(t, v.Errors())

	other := domtree.NewDocument()
	c := other.NewElement("", "c")

	errs, err := v.SpeculativelyValidate(root, 0, c)
	require.NoError(t, err)
	assert.NotEmpty(t, errs, "inserting <c> before the required <b> is invalid under the grammar")

	state, partDone := v.WorkingState()
	assert.Equal(t, Valid, state, "a speculative call must not change the live validator's state")
	assert.Equal(t, 1.0, partDone)
	assert.Empty(t, v.Errors(), "a speculative call must not record errors into the live error list")
}

func TestSpeculativelyValidateFragmentParsesXML(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	errs, err := v.SpeculativelyValidateFragment(root, 0, "<c/>")
	require.NoError(t, err)
	assert.NotEmpty(t, errs)
	assert.Empty(t, v.Errors())
}

func TestSpeculativelyValidateFragmentRejectsMalformedXML(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	_, err = v.SpeculativelyValidateFragment(root, 0, "<c>")
	require.Error(t, err)
	var argErr *salveerr.ArgumentError
	assert.ErrorAs(t, err, &argErr)
	assert.Equal(t, "xmlSource", argErr.Parameter)
}

// nilCloneWalker simulates a grammar.Walker implementation whose Clone
// reports failure the only way the Clone() Walker contract allows: a nil
// result.
type nilCloneWalker struct{ *fakeWalker }

func (nilCloneWalker) Clone() grammar.Walker { return nil }

func TestReplayToRaisesCloneErrorOnNilClone(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root, WithWalkerCacheGap(1))
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	entry, ok := v.cache.lookup(root, phaseAfterAttributes)
	require.True(t, ok, "a small cache gap caches root's after-attributes checkpoint")
	entry.walker = nilCloneWalker{fakeWalker: &fakeWalker{tag: "corrupt"}}

	_, err = v.replayTo(position{container: root, index: 0, attributes: false})
	require.Error(t, err)
	var cloneErr *salveerr.CloneError
	assert.ErrorAs(t, err, &cloneErr)
}

func TestReplayToRaisesEventIndexErrorOnNegativeIndex(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	v.annotations.set(root, EventIndexAfterAttributes, EventIndex(-1))

	_, err = v.replayTo(position{container: root, index: 0, attributes: false})
	require.Error(t, err)
	var idxErr *salveerr.EventIndexError
	assert.ErrorAs(t, err, &idxErr)
	assert.Equal(t, int64(-1), idxErr.Index)
}

func TestResolveAndUnresolveNameAtDefaultScope(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	name, ok, err := v.ResolveNameAt(root, 0, "", "b")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "b", name.LocalName)
	assert.Equal(t, "", name.NS)

	prefix, ok, err := v.UnresolveNameAt(root, 0, grammar.ExpandedName{NS: "", LocalName: "b"})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "", prefix)
}
