package mcpserver

import (
	"context"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func errResult(err error) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
	}
}

type loadInput struct {
	Grammar  string `json:"grammar"  jsonschema:"YAML grammar fixture (see internal/testgrammar's format)"`
	Document string `json:"document" jsonschema:"XML document text to validate against the grammar"`
}

type loadOutput struct {
	Namespaces []string `json:"namespaces"`
}

func handleLoad(_ context.Context, _ *mcp.CallToolRequest, input loadInput) (*mcp.CallToolResult, loadOutput, error) {
	namespaces, err := current.load(input.Grammar, input.Document)
	if err != nil {
		return errResult(err), loadOutput{}, nil
	}
	return nil, loadOutput{Namespaces: namespaces}, nil
}

type stateInput struct{}

type stateOutput struct {
	State      string  `json:"state"`
	PartDone   float64 `json:"part_done"`
	ErrorCount int     `json:"error_count"`
}

func handleState(_ context.Context, _ *mcp.CallToolRequest, _ stateInput) (*mcp.CallToolResult, stateOutput, error) {
	v, err := current.validator()
	if err != nil {
		return errResult(err), stateOutput{}, nil
	}
	result, err, _ := current.group.Do("state", func() (any, error) {
		state, partDone := v.WorkingState()
		return stateOutput{State: state.String(), PartDone: partDone, ErrorCount: len(v.Errors())}, nil
	})
	if err != nil {
		return errResult(err), stateOutput{}, nil
	}
	return nil, result.(stateOutput), nil
}

type possibleAtInput struct {
	Container  string `json:"container"  jsonschema:"slash-separated child-index path to the container element, empty for the document root"`
	Index      int    `json:"index"      jsonschema:"position within the container: child index, or attribute-sequence index when attributes=true"`
	Attributes bool   `json:"attributes,omitempty" jsonschema:"address an attribute-sequence position instead of a child position"`
}

type possibleEvent struct {
	Name      string `json:"name"`
	NS        string `json:"ns,omitempty"`
	LocalName string `json:"local_name,omitempty"`
}

type possibleAtOutput struct {
	Events []possibleEvent `json:"events"`
}

func handlePossibleAt(_ context.Context, _ *mcp.CallToolRequest, input possibleAtInput) (*mcp.CallToolResult, possibleAtOutput, error) {
	v, err := current.validator()
	if err != nil {
		return errResult(err), possibleAtOutput{}, nil
	}
	container, err := current.resolvePath(input.Container)
	if err != nil {
		return errResult(err), possibleAtOutput{}, nil
	}
	key := fmt.Sprintf("possibleAt:%s:%d:%v", input.Container, input.Index, input.Attributes)
	result, err, _ := current.group.Do(key, func() (any, error) {
		events, err := v.PossibleAt(container, input.Index, input.Attributes)
		if err != nil {
			return nil, err
		}
		out := make([]possibleEvent, len(events))
		for i, ev := range events {
			out[i] = possibleEvent{Name: string(ev.Name), NS: ev.NS, LocalName: ev.LocalName}
		}
		return possibleAtOutput{Events: out}, nil
	})
	if err != nil {
		return errResult(err), possibleAtOutput{}, nil
	}
	return nil, result.(possibleAtOutput), nil
}

type getErrorsForInput struct {
	Path string `json:"path" jsonschema:"slash-separated child-index path to the node, empty for the document root"`
}

type errorRecordOutput struct {
	Message string `json:"message"`
	Index   int64  `json:"index"`
}

type getErrorsForOutput struct {
	Errors []errorRecordOutput `json:"errors"`
}

func handleGetErrorsFor(_ context.Context, _ *mcp.CallToolRequest, input getErrorsForInput) (*mcp.CallToolResult, getErrorsForOutput, error) {
	v, err := current.validator()
	if err != nil {
		return errResult(err), getErrorsForOutput{}, nil
	}
	node, err := current.resolvePath(input.Path)
	if err != nil {
		return errResult(err), getErrorsForOutput{}, nil
	}
	recs := v.ErrorsFor(node)
	out := make([]errorRecordOutput, len(recs))
	for i, r := range recs {
		out[i] = errorRecordOutput{Message: r.Err.Message, Index: int64(r.Index)}
	}
	return nil, getErrorsForOutput{Errors: out}, nil
}

type speculativelyValidateInput struct {
	Container string `json:"container" jsonschema:"slash-separated child-index path to the container element"`
	Index     int    `json:"index"     jsonschema:"child index within container to probe insertion at"`
	Fragment  string `json:"fragment"  jsonschema:"XML fragment (single element or text) to speculatively validate"`
}

type speculativelyValidateOutput struct {
	Errors []string `json:"errors"`
}

func handleSpeculativelyValidate(_ context.Context, _ *mcp.CallToolRequest, input speculativelyValidateInput) (*mcp.CallToolResult, speculativelyValidateOutput, error) {
	v, err := current.validator()
	if err != nil {
		return errResult(err), speculativelyValidateOutput{}, nil
	}
	container, err := current.resolvePath(input.Container)
	if err != nil {
		return errResult(err), speculativelyValidateOutput{}, nil
	}
	errs, err := v.SpeculativelyValidateFragment(container, input.Index, input.Fragment)
	if err != nil {
		return errResult(err), speculativelyValidateOutput{}, nil
	}
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Message
	}
	return nil, speculativelyValidateOutput{Errors: out}, nil
}

type resetToInput struct {
	Path string `json:"path" jsonschema:"slash-separated child-index path to the element to reset validation to"`
}

type resetToOutput struct {
	State string `json:"state"`
}

func handleResetTo(_ context.Context, _ *mcp.CallToolRequest, input resetToInput) (*mcp.CallToolResult, resetToOutput, error) {
	v, err := current.validator()
	if err != nil {
		return errResult(err), resetToOutput{}, nil
	}
	node, err := current.resolvePath(input.Path)
	if err != nil {
		return errResult(err), resetToOutput{}, nil
	}
	if err := v.RestartAt(node); err != nil {
		return errResult(err), resetToOutput{}, nil
	}
	waitForTerminal(v)
	state, _ := v.WorkingState()
	return nil, resetToOutput{State: state.String()}, nil
}
