// Package salve implements an incremental, pausable validator for
// Relax-NG-shaped tree grammars.
//
// # Overview
//
// salve validates a document tree against a grammar one event at a time,
// so a host (an editor, a long-lived server) can pause validation
// mid-document, resume it later, rewind it after an edit, and ask
// speculative "what if I inserted this here" questions without ever
// blocking on the whole document or re-validating it from scratch.
//
// The engine itself treats both the grammar and the document tree as
// opaque collaborators: it drives a grammar.Walker across a tree.Element
// through a small set of interfaces (grammar.Grammar, grammar.Walker,
// tree.Node, tree.Element). internal/testgrammar and internal/domtree
// provide reference implementations of those interfaces for tests, the
// CLI, and the MCP server; a host may supply its own.
//
// # Quick Start
//
//	import (
//		"log"
//
//		"github.com/salvego/salve/engine"
//		"github.com/salvego/salve/internal/testgrammar"
//		"github.com/salvego/salve/tree"
//	)
//
//	g := testgrammar.New(rootPattern)
//	root, err := engine.ParseFragment(xmlSource)
//	if err != nil {
//		log.Fatal(err)
//	}
//	v, err := engine.New(g, root.(tree.Element))
//	if err != nil {
//		log.Fatal(err)
//	}
//	v.Start()
//	// ... v.WorkingState() reports progress; v.Errors() lists findings
//	// once the terminal state (VALID or INVALID) is reached.
//
// # Incremental validation
//
// Start begins (or resumes) a cooperative scheduler that advances the
// traversal in bounded cycles, yielding control between cycles so a host
// can interleave validation with its own event loop. Stop pauses it.
// WorkingState reports the current terminal/non-terminal state and an
// estimate of completion.
//
// # Resetting after an edit
//
// salve does not observe document mutations itself. When a host edits the
// tree, it calls ResetTo (or
// RestartAt, which also resumes immediately) with the edited node: the
// engine rewinds to the nearest usable internal checkpoint among that
// node's ancestors, discards everything recorded at or after it, and
// replays forward to the edit point.
//
// # Queries
//
// PossibleAt, PossibleWhere, SpeculativelyValidate,
// SpeculativelyValidateFragment, ResolveNameAt, and UnresolveNameAt
// answer questions about the grammar's state at any already-validated
// position without mutating the live validator — each replays a cloned
// walker from the nearest cached checkpoint.
//
// # Command-Line Interface
//
// In addition to the library, salve provides a command-line interface:
//
//	# Validate a document against a grammar, to completion
//	salve validate grammar.yaml document.xml
//
//	# Validate while streaming incremental progress as it happens
//	salve watch grammar.yaml document.xml
//
//	# Start an MCP server over stdio
//	salve mcp
//
// Install the CLI:
//
//	go install github.com/salvego/salve/cmd/salve@latest
package salve
