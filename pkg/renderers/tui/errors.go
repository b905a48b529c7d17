package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrDeclined is returned when the user declines the final confirmation.
	ErrDeclined = errors.New("tui: submission declined")
	// ErrTooManyAttempts is returned when a field or the submission keeps
	// failing past the configured attempt limit.
	ErrTooManyAttempts = errors.New("tui: too many attempts")
)
