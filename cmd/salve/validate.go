package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/salvego/salve/engine"
	"github.com/salvego/salve/events"
	"github.com/salvego/salve/internal/cliutil"
)

// validateFlags holds the flags accepted by the validate command.
type validateFlags struct {
	Quiet  bool
	Format string
}

func setupValidateFlags() (*flag.FlagSet, *validateFlags) {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	flags := &validateFlags{}

	fs.BoolVar(&flags.Quiet, "q", false, "quiet mode: only print the validation result, no diagnostics")
	fs.BoolVar(&flags.Quiet, "quiet", false, "quiet mode: only print the validation result, no diagnostics")
	fs.StringVar(&flags.Format, "format", formatText, "output format: text, json, or yaml")

	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: salve validate [flags] <grammar.yaml> <document.xml>\n\n")
		cliutil.Writef(fs.Output(), "Validate a document against a grammar, to completion.\n\n")
		cliutil.Writef(fs.Output(), "Flags:\n")
		fs.PrintDefaults()
		cliutil.Writef(fs.Output(), "\nExamples:\n")
		cliutil.Writef(fs.Output(), "  salve validate grammar.yaml document.xml\n")
		cliutil.Writef(fs.Output(), "  salve validate --format json grammar.yaml document.xml\n")
		cliutil.Writef(fs.Output(), "\nExit Codes:\n")
		cliutil.Writef(fs.Output(), "  0    Validation passed\n")
		cliutil.Writef(fs.Output(), "  1    Validation failed with errors\n")
	}

	return fs, flags
}

// waitForTerminal blocks until v reaches a terminal state, driven entirely
// by the StateUpdate event rather than polling: the listener closes done
// the moment the engine itself reports a terminal WorkingState.
func waitForTerminal(v *engine.Validator) {
	done := make(chan struct{})
	var closeOnce bool
	cancel := v.On(events.StateUpdate, func(payload any) any {
		ws := payload.(engine.WorkingState)
		if ws.State.IsTerminal() && !closeOnce {
			closeOnce = true
			close(done)
		}
		return nil
	})
	defer cancel()

	// The state may already be terminal by the time we subscribed (a
	// single-cycle document can finish before Start returns).
	if state, _ := v.WorkingState(); state.IsTerminal() {
		return
	}
	<-done
}

func handleValidate(args []string) error {
	fs, flags := setupValidateFlags()

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("validate command requires a grammar file and a document file")
	}
	if err := validateOutputFormat(flags.Format); err != nil {
		return err
	}

	grammarPath, docPath := fs.Arg(0), fs.Arg(1)

	v, _, err := loadValidator(grammarPath, docPath)
	if err != nil {
		return err
	}

	v.Start()
	waitForTerminal(v)

	out := newValidationOut(v)

	if flags.Format == formatJSON || flags.Format == formatYAML {
		if err := outputStructured(out, flags.Format); err != nil {
			return err
		}
		if !out.Valid {
			os.Exit(1)
		}
		return nil
	}

	if !flags.Quiet {
		cliutil.Writef(os.Stderr, "Grammar: %s\n", grammarPath)
		cliutil.Writef(os.Stderr, "Document: %s\n", docPath)
		cliutil.Writef(os.Stderr, "State: %s\n\n", out.State)

		if len(out.Errors) > 0 {
			cliutil.Writef(os.Stderr, "Errors (%d):\n", len(out.Errors))
			for _, e := range out.Errors {
				cliutil.Writef(os.Stderr, "  [%d] %s: %s\n", e.Index, e.Node, e.Message)
			}
			cliutil.Writef(os.Stderr, "\n")
		}
	}

	if out.Valid {
		cliutil.Writef(os.Stderr, "valid\n")
	} else {
		cliutil.Writef(os.Stderr, "invalid: %d error(s)\n", len(out.Errors))
	}

	if !out.Valid {
		os.Exit(1)
	}
	return nil
}
