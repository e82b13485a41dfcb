package ui

import (
	"context"
	"os"

	"github.com/charmbracelet/huh/spinner"
	"github.com/charmbracelet/x/term"
)

// isTerminal is swapped in tests.
var isTerminal = func() bool {
	return term.IsTerminal(os.Stdin.Fd()) && term.IsTerminal(os.Stdout.Fd())
}

// IsInteractive reports whether both stdin and stdout are attached to a terminal.
func IsInteractive() bool {
	return isTerminal()
}

// RunWithSpinner runs fn behind a spinner titled title until fn returns or
// ctx is done. Without a terminal fn just runs.
func RunWithSpinner(ctx context.Context, title string, fn func()) error {
	if !IsInteractive() {
		fn()
		return nil
	}
	return NormalizeAbort(spinner.New().Context(ctx).Title(title).Action(fn).Run())
}
