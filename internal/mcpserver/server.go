package mcpserver

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `salve MCP server — loads a Relax NG-shaped grammar and an XML document, validates them incrementally, and answers queries about the validation in progress.

Workflow: call load with a grammar (YAML) and a document (XML) to start validation. Then use state to check progress, get_errors_for to inspect a node's errors, possible_at to see what could come next at a position, speculatively_validate to test a candidate insertion without committing it, and reset_to to rewind validation to an earlier element (e.g. after editing the document).

Containers and nodes are addressed by a slash-separated path of child indices from the document root ("" is the root itself, "0/2" is the root's first child's third child).`

// Run starts the MCP server over stdio and blocks until the client
// disconnects or the context is cancelled.
func Run(ctx context.Context) error {
	server := mcp.NewServer(
		&mcp.Implementation{Name: "salve", Version: "0.1.0"},
		&mcp.ServerOptions{Instructions: serverInstructions},
	)
	registerAllTools(server)
	return server.Run(ctx, &mcp.StdioTransport{})
}

func registerAllTools(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "load",
		Description: "Load a grammar (YAML) and a document (XML), and run incremental validation to completion.",
	}, handleLoad)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "state",
		Description: "Get the current validation state (INCOMPLETE/WORKING/INVALID/VALID), completion fraction, and total error count.",
	}, handleState)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "possible_at",
		Description: "List the events that could validly occur next at a given container/index position.",
	}, handlePossibleAt)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_errors_for",
		Description: "List the validation errors attributed to a specific node.",
	}, handleGetErrorsFor)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "speculatively_validate",
		Description: "Check whether an XML fragment could be inserted at a position without actually modifying the document.",
	}, handleSpeculativelyValidate)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "reset_to",
		Description: "Discard validation progress from an element onward and resume validating from there (e.g. after editing the document at that point).",
	}, handleResetTo)
}
