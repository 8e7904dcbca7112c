package formengine

import (
	"github.com/goliatone/go-surveysync/pkg/visibility"
	"github.com/goliatone/go-surveysync/pkg/visibility/expr"
)

// WithVariables exposes host values to visibleIf rules under the
// "variables." prefix.
func WithVariables(variables map[string]any) Option {
	return func(s *Survey) {
		s.variables = variables
	}
}

// WithEvaluator replaces the visibleIf evaluator. Rules are then evaluated
// per call instead of being compiled up front.
func WithEvaluator(evaluator visibility.Evaluator) Option {
	return func(s *Survey) {
		s.evaluator = evaluator
	}
}

// IsVisible reports whether the named question is shown for the current
// answers. Unknown names are not visible. A rule that fails to parse or
// evaluate leaves the question visible.
func (s *Survey) IsVisible(name string) bool {
	q, ok := s.byName[name]
	if !ok {
		return false
	}
	return q.IsVisible()
}

func (s *Survey) visibilityContext() visibility.Context {
	values := make(map[string]any, len(s.questions))
	for _, q := range s.questions {
		if q.value != nil {
			values[q.spec.Name] = q.value
		}
	}
	return visibility.Context{Values: values, Variables: s.variables}
}

// IsVisible evaluates the question's visibleIf rule.
func (q *question) IsVisible() bool {
	if q.spec.VisibleIf == "" {
		return true
	}
	ctx := q.survey.visibilityContext()
	if q.survey.evaluator != nil {
		visible, err := q.survey.evaluator.Eval(q.spec.Name, q.spec.VisibleIf, ctx)
		return err != nil || visible
	}
	if q.rule == nil {
		return true
	}
	visible, err := q.rule.Eval(ctx)
	return err != nil || visible
}

func compileRule(rule string) *expr.Expression {
	if rule == "" {
		return nil
	}
	compiled, err := expr.Compile(rule)
	if err != nil {
		return nil
	}
	return compiled
}
