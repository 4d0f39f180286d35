package testutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/tools/txtar"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/tree"
)

func waitForTerminal(t *testing.T, v *engine.Validator) {
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

func assertExpectation(t *testing.T, v *engine.Validator, root tree.Element, expected Expectation) {
	t.Helper()
	state, _ := v.WorkingState()
	assert.Equal(t, expected.State, state.String())

	for _, owner := range expected.Owners {
		var found bool
		var walk func(tree.Node)
		walk = func(n tree.Node) {
			if elem, ok := n.(tree.Element); ok && elem.LocalName() == owner && len(v.ErrorsFor(elem)) > 0 {
				found = true
			}
			if elem, ok := n.(tree.Element); ok {
				for _, c := range elem.Children() {
					walk(c)
				}
			}
		}
		walk(root)
		assert.True(t, found, "expected an error owned by element %q", owner)
	}
}

func TestScenariosMatchExpectations(t *testing.T) {
	names := []string{
		"valid_ab.txtar",
		"invalid_wrong_child.txtar",
		"invalid_missing_child.txtar",
	}

	for _, name := range names {
		name := name
		t.Run(name, func(t *testing.T) {
			data, err := ReadFixture(name)
			require.NoError(t, err)

			scn, err := LoadScenario(name, data)
			require.NoError(t, err)

			v, err := engine.New(scn.Grammar, scn.Root)
			require.NoError(t, err)

			v.Start()
			waitForTerminal(t, v)

			assertExpectation(t, v, scn.Root, scn.Expected)
		})
	}
}

func TestScenarioPossibleWhereFirstChild(t *testing.T) {
	data, err := ReadFixture("possible_where_first_child.txtar")
	require.NoError(t, err)

	scn, err := LoadScenario("possible_where_first_child.txtar", data)
	require.NoError(t, err)

	v, err := engine.New(scn.Grammar, scn.Root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	assertExpectation(t, v, scn.Root, scn.Expected)
}

func TestScenarioSpeculativeValidate(t *testing.T) {
	data, err := ReadFixture("speculative_validate.txtar")
	require.NoError(t, err)

	scn, err := LoadScenario("speculative_validate.txtar", data)
	require.NoError(t, err)

	v, err := engine.New(scn.Grammar, scn.Root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)

	// Probe at index 0 before anything in <a> has been parsed: a <b/>
	// should be admitted; a <c/> should not.
	bFrag, err := engine.ParseFragment(`<b/>`)
	require.NoError(t, err)
	errs, err := v.SpeculativelyValidate(scn.Root, 0, bFrag)
	require.NoError(t, err)
	assert.Empty(t, errs)

	cFrag, err := engine.ParseFragment(`<c/>`)
	require.NoError(t, err)
	errs, err = v.SpeculativelyValidate(scn.Root, 0, cFrag)
	require.NoError(t, err)
	assert.NotEmpty(t, errs)

	assertExpectation(t, v, scn.Root, scn.Expected)
}

func TestScenarioResetAfterAppendedChild(t *testing.T) {
	data, err := ReadFixture("reset_append_child.txtar")
	require.NoError(t, err)

	archive := txtar.Parse(data)
	var afterData []byte
	for _, f := range archive.Files {
		if f.Name == "doc_after.xml" {
			afterData = f.Data
		}
	}
	require.NotNil(t, afterData)

	scn, err := LoadScenario("reset_append_child.txtar", data)
	require.NoError(t, err)

	v, err := engine.New(scn.Grammar, scn.Root)
	require.NoError(t, err)

	v.Start()
	waitForTerminal(t, v)
	require.Equal(t, "VALID", func() string { s, _ := v.WorkingState(); return s.String() }())

	afterNode, err := engine.ParseFragment(string(afterData))
	require.NoError(t, err)
	afterRoot := afterNode.(tree.Element)
	appended := afterRoot.Children()[1]

	v2, err := engine.New(scn.Grammar, afterRoot)
	require.NoError(t, err)
	v2.Start()
	waitForTerminal(t, v2)

	require.NoError(t, v2.ResetTo(appended))
	v2.Start()
	waitForTerminal(t, v2)

	assertExpectation(t, v2, afterRoot, scn.Expected)
}
