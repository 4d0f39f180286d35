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

func setupWatchFlags() *flag.FlagSet {
	fs := flag.NewFlagSet("watch", flag.ContinueOnError)
	fs.Usage = func() {
		cliutil.Writef(fs.Output(), "Usage: salve watch <grammar.yaml> <document.xml>\n\n")
		cliutil.Writef(fs.Output(), "Validate a document against a grammar, printing each incremental\n")
		cliutil.Writef(fs.Output(), "state transition and error as the engine produces it rather than\n")
		cliutil.Writef(fs.Output(), "waiting for the whole document to finish.\n\n")
		cliutil.Writef(fs.Output(), "Examples:\n")
		cliutil.Writef(fs.Output(), "  salve watch grammar.yaml document.xml\n")
	}
	return fs
}

func handleWatch(args []string) error {
	fs := setupWatchFlags()
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil
		}
		return err
	}

	if fs.NArg() != 2 {
		fs.Usage()
		return fmt.Errorf("watch command requires a grammar file and a document file")
	}

	grammarPath, docPath := fs.Arg(0), fs.Arg(1)

	v, _, err := loadValidator(grammarPath, docPath)
	if err != nil {
		return err
	}

	done := make(chan struct{})
	var closed bool

	cancelState := v.On(events.StateUpdate, func(payload any) any {
		ws := payload.(engine.WorkingState)
		cliutil.Writef(os.Stdout, "state: %-10s part done: %.0f%%\n", ws.State.String(), ws.PartDone*100)
		if ws.State.IsTerminal() && !closed {
			closed = true
			close(done)
		}
		return nil
	})
	defer cancelState()

	cancelError := v.On(events.Error, func(payload any) any {
		rec := payload.(engine.ErrorRecord)
		cliutil.Writef(os.Stdout, "  error [%d] %s: %s\n", rec.Index, describeNode(rec.Node), rec.Err.Message)
		return nil
	})
	defer cancelError()

	v.Start()

	if state, _ := v.WorkingState(); !state.IsTerminal() {
		<-done
	}

	out := newValidationOut(v)
	if !out.Valid {
		os.Exit(1)
	}
	return nil
}
