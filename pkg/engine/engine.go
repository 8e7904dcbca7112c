// Package engine declares the contract between the synchronization core and a
// Form Engine: the component that interprets a survey definition, exposes a
// question registry, and raises completion, value-changed and after-render
// events. Capabilities that only some question kinds offer (choices, a
// display value tracked apart from the stored value, a backing control) are
// modelled as optional interfaces checked with type assertions.
package engine

import "github.com/goliatone/go-surveysync/pkg/definition"

// Choice is a selectable option: Value is stored, Text is shown.
type Choice struct {
	Value any    `json:"value"`
	Text  string `json:"text"`
}

// Question is one live form field.
type Question interface {
	Name() string
	Type() string
	Title() string
	Value() any
	SetValue(value any)
	IsEmpty() bool
}

// ChoiceQuestion is implemented by questions that carry a choice list.
type ChoiceQuestion interface {
	Question
	Choices() []Choice
	SetChoices(choices []Choice)
}

// DisplayValuer is implemented by questions whose shown value is tracked
// separately from the stored value (single-choice dropdowns).
type DisplayValuer interface {
	DisplayValue() any
	SetDisplayValue(value any)
}

// ControlProvider is implemented by questions that expose a reference to
// the visual control backing them. A nil control means not rendered yet.
type ControlProvider interface {
	Control() Control
}

// EventKind names a synthetic notification dispatched on a Control.
type EventKind string

const (
	EventChange EventKind = "change"
	EventInput  EventKind = "input"
)

// Control is the visual element bound to a question (an input, a select).
// Its value is always textual; Dispatch notifies whoever listens to the
// element, including the engine's own bindings.
type Control interface {
	Name() string
	Value() string
	SetValue(value string)
	Dispatch(kind EventKind)
}

// Subscription is the disposable handle returned by event registration.
type Subscription interface {
	Dispose()
}

// SubscriptionFunc adapts a function into a Subscription.
type SubscriptionFunc func()

// Dispose calls the underlying function.
func (fn SubscriptionFunc) Dispose() {
	if fn != nil {
		fn()
	}
}

// Subscriptions groups handles so they can be released together.
type Subscriptions []Subscription

// DisposeAll releases every handle and empties the group.
func (s *Subscriptions) DisposeAll() {
	if s == nil {
		return
	}
	for _, sub := range *s {
		if sub != nil {
			sub.Dispose()
		}
	}
	*s = nil
}

// CompleteEvent is raised when the respondent completes the survey.
type CompleteEvent struct {
	Survey Survey
	Data   map[string]any
}

// ValueChangedEvent is raised whenever a question value changes.
type ValueChangedEvent struct {
	Survey        Survey
	Question      Question
	Name          string
	Value         any
	PreviousValue any
}

// AfterRenderQuestionEvent is raised after a question has been rendered.
// Element is the rendered input element, nil when the question has none.
type AfterRenderQuestionEvent struct {
	Survey   Survey
	Question Question
	Element  Control
}

// AfterRenderEvent is raised once a full render pass completes.
type AfterRenderEvent struct {
	Survey Survey
}

// Survey is a live Form Engine instance built from one definition.
type Survey interface {
	ID() string
	Definition() definition.Definition
	Questions() []Question
	QuestionByName(name string) (Question, bool)
	Data() map[string]any
	DataJSON() ([]byte, error)
	Render()
	Complete()

	OnComplete(handler func(CompleteEvent)) Subscription
	OnValueChanged(handler func(ValueChangedEvent)) Subscription
	OnAfterRenderQuestion(handler func(AfterRenderQuestionEvent)) Subscription
	OnAfterRender(handler func(AfterRenderEvent)) Subscription
}

// Factory constructs Survey instances. Configure applies global rendering
// configuration that affects every instance built afterwards.
type Factory interface {
	Configure(settings Settings)
	New(def definition.Definition) (Survey, error)
}

// Container is the UI region a survey is rendered into.
type Container interface {
	Clear()
	Bind(survey Survey) error
	// Lookup finds a rendered element by question name. It is a fallback used
	// when a question does not expose its own control.
	Lookup(name string) (Control, bool)
}

// TitleSetter is implemented by containers that can show the survey title
// (for example as the document title).
type TitleSetter interface {
	SetTitle(title string)
}
