package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvego/salve/events"
	"github.com/salvego/salve/salveerr"
)

func TestResetToRejectsNonElementTarget(t *testing.T) {
	root := docAB()
	root.SetAttr("", "id", "1")
	attr := root.Attributes()[0]

	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	err = v.ResetTo(attr)
	require.Error(t, err)
	var argErr *salveerr.ArgumentError
	assert.ErrorAs(t, err, &argErr)
	assert.Equal(t, "n", argErr.Parameter)
}

func TestResetToUnvalidatedNodeIsNoop(t *testing.T) {
	root := docAB()
	child := root.Children()[0]

	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	err = v.ResetTo(child)
	require.NoError(t, err)

	state, _ := v.WorkingState()
	assert.Equal(t, Incomplete, state)
}

func TestResetToRootClearsErrorsAndAllowsReplay(t *testing.T) {
	root := docAC()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	state, _ := v.WorkingState()
	require.Equal(t, Invalid, state)
	require.Len(t, v.Errors(), 1)

	var payload ResetErrorsPayload
	v.On(events.ResetErrors, func(p any) any {
		payload = p.(ResetErrorsPayload)
		return nil
	})

	require.NoError(t, v.ResetTo(root))

	assert.Equal(t, EventIndex(1), payload.At, "root's EnterStartTag stamps its BeforeAttributes checkpoint at index 1")

	state, _ = v.WorkingState()
	assert.Equal(t, Incomplete, state)
	assert.Empty(t, v.Errors(), "resetTo to the root discards every error recorded after its own checkpoint")

	v.Start()
	waitForTerminal(t, v)

	state, _ = v.WorkingState()
	assert.Equal(t, Invalid, state, "replaying from scratch reproduces the same terminal verdict")
	assert.Len(t, v.Errors(), 1)
}

func TestRestartAtStartsImmediately(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)
	require.NoError(t, v.ResetTo(root))

	require.NoError(t, v.RestartAt(root))
	waitForTerminal(t, v)

	state, _ := v.WorkingState()
	assert.Equal(t, Valid, state)
}

func TestPurgeFromDropsAnnotationsAtOrAfterThreshold(t *testing.T) {
	root := docAB()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	_, hadBefore := v.GetNodeProperty(root, EventIndexBeforeAttributes)
	require.True(t, hadBefore)

	v.purgeFrom(0)

	_, hadAfter := v.GetNodeProperty(root, EventIndexBeforeAttributes)
	assert.False(t, hadAfter, "purgeFrom(0) clears every annotation on every node")
}
