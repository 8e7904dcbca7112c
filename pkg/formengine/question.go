package formengine

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/visibility/expr"
)

// question holds the state shared by every kind. The exported behaviour is
// layered through choiceQuestion and dropdownQuestion so capability checks
// on engine interfaces reflect the kind.
type question struct {
	survey  *Survey
	self    engine.Question
	spec    definition.Question
	kind    Kind
	value   any
	control *Control
	choices []engine.Choice
	display *displayState
	rule    *expr.Expression
}

type displayState struct {
	value any
	set   bool
}

type choiceQuestion struct {
	*question
}

type dropdownQuestion struct {
	choiceQuestion
}

var (
	_ engine.Question        = (*question)(nil)
	_ engine.ControlProvider = (*question)(nil)
	_ engine.ChoiceQuestion  = choiceQuestion{}
	_ engine.ChoiceQuestion  = dropdownQuestion{}
	_ engine.DisplayValuer   = dropdownQuestion{}
)

func newQuestion(s *Survey, spec definition.Question, kind Kind) *question {
	q := &question{
		survey: s,
		spec:   spec,
		kind:   kind,
		rule:   compileRule(spec.VisibleIf),
	}
	if kind.Choices {
		q.choices = convertChoices(spec.Choices)
	}
	if kind.DisplayValue {
		q.display = &displayState{}
	}
	if kind.Input {
		q.control = newControl(spec.Name, q)
	}

	switch {
	case kind.DisplayValue:
		q.self = dropdownQuestion{choiceQuestion{q}}
	case kind.Choices:
		q.self = choiceQuestion{q}
	default:
		q.self = q
	}

	if spec.DefaultValue != nil {
		q.value = cloneValue(spec.DefaultValue)
		q.syncControl()
	}
	return q
}

func (q *question) Name() string  { return q.spec.Name }
func (q *question) Type() string  { return q.kind.Name }
func (q *question) Title() string {
	if q.spec.Title != "" {
		return q.spec.Title
	}
	return q.spec.Name
}

// Description returns the question description from the definition.
func (q *question) Description() string { return q.spec.Description }

// IsRequired reports whether the definition marks the question as required.
func (q *question) IsRequired() bool { return q.spec.IsRequired }

// InputType returns the declared input type for text questions.
func (q *question) InputType() string { return q.spec.InputType }

func (q *question) Value() any {
	return cloneValue(q.value)
}

// SetValue stores value, mirrors it onto the control, and raises a
// value-changed event when it differs from the current value.
func (q *question) SetValue(value any) {
	if reflect.DeepEqual(q.value, value) {
		return
	}
	previous := q.value
	q.value = cloneValue(value)
	if q.display != nil {
		q.display.value, q.display.set = nil, false
	}
	q.syncControl()
	q.survey.valueChanged(q.self, cloneValue(value), previous)
}

func (q *question) IsEmpty() bool {
	return isEmptyValue(q.value)
}

// Control returns the backing control, nil for non-input kinds.
func (q *question) Control() engine.Control {
	if q.control == nil {
		return nil
	}
	return q.control
}

func (q *question) syncControl() {
	if q.control != nil {
		q.control.value = engine.FormatControlValue(q.value)
	}
}

// applyControlValue is the engine-side binding for control notifications.
func (q *question) applyControlValue(text string) {
	if text == engine.FormatControlValue(q.value) {
		return
	}
	q.self.SetValue(q.parseControlValue(text))
}

func (q *question) parseControlValue(text string) any {
	if text == "" {
		return nil
	}
	if q.kind.Multiple {
		parts := strings.Split(text, ",")
		out := make([]any, 0, len(parts))
		for _, part := range parts {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, q.choiceValue(part))
			}
		}
		return out
	}
	if q.kind.Choices {
		return q.choiceValue(text)
	}
	if q.kind.Name == KindBoolean {
		if parsed, err := strconv.ParseBool(text); err == nil {
			return parsed
		}
	}
	return text
}

func (q *question) choiceValue(text string) any {
	for _, choice := range q.choices {
		if engine.FormatControlValue(choice.Value) == text {
			return choice.Value
		}
	}
	return text
}

func (q choiceQuestion) Choices() []engine.Choice {
	return append([]engine.Choice(nil), q.choices...)
}

// SetChoices replaces the choice list. The current value is left untouched.
func (q choiceQuestion) SetChoices(choices []engine.Choice) {
	q.choices = append([]engine.Choice(nil), choices...)
}

// DisplayValue returns the explicitly set display value, or the text of the
// choice matching the current value, or the value itself.
func (q dropdownQuestion) DisplayValue() any {
	if q.display.set {
		return q.display.value
	}
	if q.value == nil {
		return nil
	}
	for _, choice := range q.choices {
		if reflect.DeepEqual(choice.Value, q.value) {
			return choice.Text
		}
	}
	return q.value
}

func (q dropdownQuestion) SetDisplayValue(value any) {
	q.display.value, q.display.set = cloneValue(value), true
}

func convertChoices(in []definition.Choice) []engine.Choice {
	if len(in) == 0 {
		return nil
	}
	out := make([]engine.Choice, len(in))
	for i, choice := range in {
		text := choice.Text
		if text == "" {
			text = engine.FormatControlValue(choice.Value)
		}
		out[i] = engine.Choice{Value: choice.Value, Text: text}
	}
	return out
}

func isEmptyValue(value any) bool {
	switch v := value.(type) {
	case nil:
		return true
	case string:
		return v == ""
	case []any:
		return len(v) == 0
	case []string:
		return len(v) == 0
	case map[string]any:
		return len(v) == 0
	default:
		return false
	}
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = cloneValue(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = cloneValue(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
