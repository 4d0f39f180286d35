package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/salvego/salve/events"
	"github.com/salvego/salve/internal/testgrammar"
)

// waitForTerminal polls until v reaches a terminal state or the deadline
// passes, failing the test on timeout. The scheduler here always runs with
// a small maxTimespan and the GoDeferrer, so small documents terminate
// within a handful of scheduled goroutines.
func waitForTerminal(t *testing.T, v *Validator) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		state, _ := v.WorkingState()
		if state.IsTerminal() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("validator did not reach a terminal state in time")
}

func TestValidatorValidDocument(t *testing.T) {
	v, err := New(abGrammar(), docAB())
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	state, partDone := v.WorkingState()
	assert.Equal(t, Valid, state)
	assert.Equal(t, 1.0, partDone)
	assert.Empty(t, v.Errors())
}

func TestValidatorInvalidDocument(t *testing.T) {
	v, err := New(abGrammar(), docAC())
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	state, _ := v.WorkingState()
	assert.Equal(t, Invalid, state)
	require.Len(t, v.Errors(), 1)
}

func TestValidatorErrorsFor(t *testing.T) {
	root := docAC()
	v, err := New(abGrammar(), root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	recs := v.ErrorsFor(root)
	require.Len(t, recs, 1)

	child := root.Children()[0]
	assert.Empty(t, v.ErrorsFor(child), "the invalid child itself owns no error; its parent does")
}

func TestValidatorPartDoneMonotonicAndTerminalAtOne(t *testing.T) {
	v, err := New(abGrammar(), docAB(), WithMaxTimespan(1))
	require.NoError(t, err)

	var last float64
	v.On(events.StateUpdate, func(payload any) any {
		ws := payload.(WorkingState)
		assert.GreaterOrEqual(t, ws.PartDone, last)
		last = ws.PartDone
		return nil
	})

	v.Start()
	waitForTerminal(t, v)

	_, partDone := v.WorkingState()
	assert.Equal(t, 1.0, partDone)
}

func TestValidatorStopPausesProgress(t *testing.T) {
	v, err := New(abGrammar(), docAB(), WithMaxTimespan(1))
	require.NoError(t, err)

	v.Start()
	v.Stop()
	time.Sleep(5 * time.Millisecond)

	state, _ := v.WorkingState()
	assert.NotEqual(t, Valid, state, "a single-step cycle stopped immediately should not reach terminal state yet")
}

func TestValidatorSchemaAndDocumentNamespaces(t *testing.T) {
	doc := docAB()
	doc.SetNamespaceDecl("", "urn:example")

	b := &testgrammar.ElementPattern{Name: testgrammar.NameClass{LocalName: "b"}}
	a := &testgrammar.ElementPattern{
		Name:    testgrammar.NameClass{LocalName: "a"},
		Content: testgrammar.ElementContent(b),
	}
	g := testgrammar.New(a, "urn:example")

	v, err := New(g, doc)
	require.NoError(t, err)

	assert.Contains(t, v.SchemaNamespaces(), "urn:example")
	assert.Contains(t, v.DocumentNamespaces(), "")
}
