// Package visibility decides whether a survey question is shown, based on
// a visibleIf rule and the answers given so far.
package visibility

// Evaluator determines whether a question should be visible based on a rule
// string and the current answers.
type Evaluator interface {
	Eval(name, rule string, ctx Context) (bool, error)
}

// Context provides inputs to an Evaluator. Values holds the current answers
// keyed by question name; Variables holds host-supplied values reachable
// through the "variables." prefix.
type Context struct {
	Values    map[string]any
	Variables map[string]any
}

// EvaluatorFunc adapts a function into an Evaluator.
type EvaluatorFunc func(name, rule string, ctx Context) (bool, error)

// Eval delegates to the underlying function.
func (fn EvaluatorFunc) Eval(name, rule string, ctx Context) (bool, error) {
	return fn(name, rule, ctx)
}
