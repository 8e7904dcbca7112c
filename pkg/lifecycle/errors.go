package lifecycle

import (
	"errors"
	"fmt"
)

var (
	// ErrNotLoaded reports a mutation attempted before any survey loaded.
	ErrNotLoaded = errors.New("lifecycle: no survey loaded")
	// ErrQuestionNotFound reports an unknown question name.
	ErrQuestionNotFound = errors.New("lifecycle: question not found")
	// ErrNotChoiceQuestion reports UpdateChoices on a question without choices.
	ErrNotChoiceQuestion = errors.New("lifecycle: question does not carry choices")
	// ErrNoFactory reports a controller constructed without a survey factory.
	ErrNoFactory = errors.New("lifecycle: survey factory not configured")
	// ErrCallbackFailed wraps a panic raised by a caller-supplied callback.
	ErrCallbackFailed = errors.New("lifecycle: callback failed")
)

// BuildError describes a failure during survey construction or binding.
// Trace holds the goroutine stack when the failure was a panic.
type BuildError struct {
	Stage string
	Err   error
	Trace string
}

func (e *BuildError) Error() string {
	return fmt.Sprintf("lifecycle: %s: %v", e.Stage, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }
