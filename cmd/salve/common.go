package main

import (
	"encoding/json"
	"fmt"
	"os"

	"go.yaml.in/yaml/v4"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/internal/testgrammar"
	"github.com/salvego/salve/tree"
)

// Output format constants.
const (
	formatText = "text"
	formatJSON = "json"
	formatYAML = "yaml"
)

func validateOutputFormat(format string) error {
	if format != formatText && format != formatJSON && format != formatYAML {
		return fmt.Errorf("invalid format %q. Valid formats: %s, %s, %s", format, formatText, formatJSON, formatYAML)
	}
	return nil
}

// loadValidator reads a grammar YAML file and a document XML file from
// disk and constructs a Validator over them, but does not start it.
func loadValidator(grammarPath, docPath string) (*engine.Validator, tree.Element, error) {
	grammarData, err := os.ReadFile(grammarPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading grammar %s: %w", grammarPath, err)
	}
	g, err := testgrammar.LoadYAML(grammarData)
	if err != nil {
		return nil, nil, fmt.Errorf("parsing grammar %s: %w", grammarPath, err)
	}

	docData, err := os.ReadFile(docPath)
	if err != nil {
		return nil, nil, fmt.Errorf("reading document %s: %w", docPath, err)
	}
	node, err := engine.ParseFragment(string(docData))
	if err != nil {
		return nil, nil, fmt.Errorf("parsing document %s: %w", docPath, err)
	}
	root, ok := node.(tree.Element)
	if !ok {
		return nil, nil, fmt.Errorf("document %s has no root element", docPath)
	}

	v, err := engine.New(g, root)
	if err != nil {
		return nil, nil, fmt.Errorf("constructing validator: %w", err)
	}
	return v, root, nil
}

// describeNode renders a short human-readable label for an error's owner
// node: its local name if it's an element, otherwise its kind.
func describeNode(n tree.Node) string {
	if elem, ok := n.(tree.Element); ok {
		return "<" + elem.LocalName() + ">"
	}
	return n.Kind().String()
}

// errorOut is the JSON/YAML-serializable shape of one collected error.
type errorOut struct {
	Index   int64  `json:"index" yaml:"index"`
	Node    string `json:"node" yaml:"node"`
	Message string `json:"message" yaml:"message"`
}

// validationOut is the JSON/YAML-serializable shape of a validate result.
type validationOut struct {
	Valid  bool       `json:"valid" yaml:"valid"`
	State  string     `json:"state" yaml:"state"`
	Errors []errorOut `json:"errors" yaml:"errors"`
}

func newValidationOut(v *engine.Validator) validationOut {
	ws, _ := v.WorkingState()
	records := v.Errors()
	out := validationOut{
		Valid:  ws == engine.Valid,
		State:  ws.String(),
		Errors: make([]errorOut, len(records)),
	}
	for i, rec := range records {
		out.Errors[i] = errorOut{
			Index:   int64(rec.Index),
			Node:    describeNode(rec.Node),
			Message: rec.Err.Message,
		}
	}
	return out
}

func outputStructured(data any, format string) error {
	var bytes []byte
	var err error

	switch format {
	case formatJSON:
		bytes, err = json.MarshalIndent(data, "", "  ")
	case formatYAML:
		bytes, err = yaml.Marshal(data)
	default:
		return fmt.Errorf("invalid format for structured output: %s", format)
	}
	if err != nil {
		return fmt.Errorf("marshaling to %s: %w", format, err)
	}
	fmt.Println(string(bytes))
	return nil
}
