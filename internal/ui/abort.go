package ui

import (
	"context"
	"errors"
	"io"

	"github.com/charmbracelet/huh"
)

// ErrUserAborted is returned when the user aborts an interactive prompt or
// declines a confirmation. Esc, Ctrl+C, Ctrl+D and context cancellation all
// normalise to it so the CLI can report "operation cancelled" in one place.
var ErrUserAborted = errors.New("operation cancelled")

// NormalizeAbort converts known abort-like errors to ErrUserAborted.
// This includes huh.ErrUserAborted (Esc/Ctrl+C in huh prompts),
// huh.ErrTimeout, io.EOF (Ctrl+D/closed stdin), and context.Canceled.
func NormalizeAbort(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, huh.ErrUserAborted) ||
		errors.Is(err, huh.ErrTimeout) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, context.Canceled) {
		return ErrUserAborted
	}
	return err
}

// IsAbort returns true if the error represents a user abort.
func IsAbort(err error) bool {
	return errors.Is(err, ErrUserAborted)
}
