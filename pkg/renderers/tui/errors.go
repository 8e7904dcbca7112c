package tui

import "errors"

var (
	// ErrAborted signals the user aborted input (e.g., Ctrl+C).
	ErrAborted = errors.New("tui: aborted")
	// ErrNotBound reports prompting without a bound survey.
	ErrNotBound = errors.New("tui: no survey bound")
)
