package formengine

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/visibility"
)

// ErrEmptyDefinition is returned when constructing a survey without a
// parsed definition.
var ErrEmptyDefinition = errors.New("formengine: definition is empty")

// Survey is the live instance built from one definition.
type Survey struct {
	id        string
	def       definition.Definition
	settings  engine.Settings
	registry  *Registry
	questions []*question
	byName    map[string]*question
	completed bool
	renders   int
	variables map[string]any
	evaluator visibility.Evaluator

	complete     hub[engine.CompleteEvent]
	changed      hub[engine.ValueChangedEvent]
	renderedItem hub[engine.AfterRenderQuestionEvent]
	rendered     hub[engine.AfterRenderEvent]
}

var _ engine.Survey = (*Survey)(nil)

// Option customises survey construction.
type Option func(*Survey)

// WithSettings applies rendering settings to the instance.
func WithSettings(settings engine.Settings) Option {
	return func(s *Survey) {
		s.settings = settings
	}
}

// WithRegistry overrides the kind registry.
func WithRegistry(registry *Registry) Option {
	return func(s *Survey) {
		if registry != nil {
			s.registry = registry
		}
	}
}

// New builds a survey from def.
func New(def definition.Definition, opts ...Option) (*Survey, error) {
	if def.IsZero() {
		return nil, ErrEmptyDefinition
	}

	s := &Survey{
		id:       uuid.NewString(),
		def:      def,
		settings: engine.DefaultSettings(),
		registry: defaultRegistry,
		byName:   make(map[string]*question),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	for _, spec := range def.Questions() {
		if spec.Name == "" {
			continue
		}
		if _, exists := s.byName[spec.Name]; exists {
			return nil, fmt.Errorf("formengine: duplicate question %q", spec.Name)
		}
		q := newQuestion(s, spec, s.registry.Resolve(spec.Type))
		s.questions = append(s.questions, q)
		s.byName[spec.Name] = q
	}
	return s, nil
}

var defaultRegistry = NewRegistry()

func (s *Survey) ID() string { return s.id }

func (s *Survey) Definition() definition.Definition { return s.def }

// Settings returns the settings the survey was built with.
func (s *Survey) Settings() engine.Settings { return s.settings }

func (s *Survey) Questions() []engine.Question {
	out := make([]engine.Question, len(s.questions))
	for i, q := range s.questions {
		out[i] = q.self
	}
	return out
}

func (s *Survey) QuestionByName(name string) (engine.Question, bool) {
	q, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return q.self, true
}

// ControlFor returns the control of the named input question.
func (s *Survey) ControlFor(name string) (*Control, bool) {
	q, ok := s.byName[name]
	if !ok || q.control == nil {
		return nil, false
	}
	return q.control, true
}

// Kind reports the resolved kind of the named question.
func (s *Survey) Kind(name string) (Kind, bool) {
	q, ok := s.byName[name]
	if !ok {
		return Kind{}, false
	}
	return q.kind, true
}

// Render runs a render pass: one after-render-question event per question
// in definition order, then the survey-level after-render event.
func (s *Survey) Render() {
	s.renders++
	for _, q := range s.questions {
		event := engine.AfterRenderQuestionEvent{Survey: s, Question: q.self}
		if q.control != nil {
			event.Element = q.control
		}
		s.renderedItem.fire(event)
	}
	s.rendered.fire(engine.AfterRenderEvent{Survey: s})
}

// RenderCount reports how many render passes ran.
func (s *Survey) RenderCount() int { return s.renders }

// Complete marks the survey completed and raises the completion event.
func (s *Survey) Complete() {
	s.completed = true
	s.complete.fire(engine.CompleteEvent{Survey: s, Data: s.Data()})
}

// Completed reports whether Complete ran.
func (s *Survey) Completed() bool { return s.completed }

func (s *Survey) OnComplete(handler func(engine.CompleteEvent)) engine.Subscription {
	return s.complete.add(handler)
}

func (s *Survey) OnValueChanged(handler func(engine.ValueChangedEvent)) engine.Subscription {
	return s.changed.add(handler)
}

func (s *Survey) OnAfterRenderQuestion(handler func(engine.AfterRenderQuestionEvent)) engine.Subscription {
	return s.renderedItem.add(handler)
}

func (s *Survey) OnAfterRender(handler func(engine.AfterRenderEvent)) engine.Subscription {
	return s.rendered.add(handler)
}

// HandlerCount reports active handlers across all survey events.
func (s *Survey) HandlerCount() int {
	return s.complete.count() + s.changed.count() + s.renderedItem.count() + s.rendered.count()
}

func (s *Survey) valueChanged(q engine.Question, value, previous any) {
	s.changed.fire(engine.ValueChangedEvent{
		Survey:        s,
		Question:      q,
		Name:          q.Name(),
		Value:         value,
		PreviousValue: previous,
	})
}
