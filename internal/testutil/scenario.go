// Package testutil provides test fixtures and concurrency-invariant helpers
// for the engine's test suite.
package testutil

import (
	"fmt"

	"golang.org/x/tools/txtar"

	"go.yaml.in/yaml/v4"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/internal/testgrammar"
	"github.com/salvego/salve/tree"
)

// Scenario is one loaded grammar.yaml + doc.xml + expect.yaml fixture
// bundle, as a txtar archive.
type Scenario struct {
	Name     string
	Grammar  *testgrammar.Grammar
	Root     tree.Element
	Expected Expectation
}

// Expectation is the expect.yaml shape: the terminal state and error owners
// a scenario should produce.
type Expectation struct {
	State  string   `yaml:"state"`
	Owners []string `yaml:"owners,omitempty"`
}

// LoadScenario parses a txtar archive with "grammar.yaml", "doc.xml", and
// "expect.yaml" files into a Scenario ready to drive through engine.New.
func LoadScenario(name string, archiveData []byte) (*Scenario, error) {
	archive := txtar.Parse(archiveData)
	files := make(map[string][]byte, len(archive.Files))
	for _, f := range archive.Files {
		files[f.Name] = f.Data
	}

	grammarData, ok := files["grammar.yaml"]
	if !ok {
		return nil, fmt.Errorf("scenario %s: missing grammar.yaml", name)
	}
	docData, ok := files["doc.xml"]
	if !ok {
		return nil, fmt.Errorf("scenario %s: missing doc.xml", name)
	}
	expectData, ok := files["expect.yaml"]
	if !ok {
		return nil, fmt.Errorf("scenario %s: missing expect.yaml", name)
	}

	g, err := testgrammar.LoadYAML(grammarData)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: grammar: %w", name, err)
	}
	node, err := engine.ParseFragment(string(docData))
	if err != nil {
		return nil, fmt.Errorf("scenario %s: document: %w", name, err)
	}
	root, ok := node.(tree.Element)
	if !ok {
		return nil, fmt.Errorf("scenario %s: document root is not an element", name)
	}

	var expected Expectation
	if err := yaml.Unmarshal(expectData, &expected); err != nil {
		return nil, fmt.Errorf("scenario %s: expect.yaml: %w", name, err)
	}

	return &Scenario{Name: name, Grammar: g, Root: root, Expected: expected}, nil
}
