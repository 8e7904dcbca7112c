package lifecycle

import (
	"errors"
	"fmt"
	"runtime/debug"

	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/store"
)

// State of the controller.
type State int

const (
	StateEmpty State = iota
	StateLoaded
)

func (s State) String() string {
	switch s {
	case StateLoaded:
		return "loaded"
	default:
		return "empty"
	}
}

// Outbound value names.
const (
	OutputSurveyData     = "surveyData"
	OutputSelectedChoice = "selectedChoice"
)

// Emitter receives outbound values raised by survey events.
type Emitter interface {
	Emit(name string, value any)
}

// SelectedChoice is the selectedChoice payload.
type SelectedChoice struct {
	FieldName string `json:"fieldName"`
	Selected  any    `json:"selected"`
}

// Controller owns the active survey and the value store.
type Controller struct {
	factory   engine.Factory
	container engine.Container
	store     *store.Store
	settings  engine.Settings
	logger    *zap.Logger
	metrics   Recorder
	emitter   Emitter

	state  State
	survey engine.Survey
	last   *definition.Definition
	subs   engine.Subscriptions
}

// New builds a controller. container may be nil for headless use.
func New(factory engine.Factory, container engine.Container, options ...Option) *Controller {
	c := &Controller{
		factory:   factory,
		container: container,
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	c.applyDefaults()
	return c
}

// SetEmitter replaces the outbound sink. Passing nil silences emission.
func (c *Controller) SetEmitter(emitter Emitter) {
	c.emitter = emitter
}

// State reports whether a survey is loaded.
func (c *Controller) State() State { return c.state }

// Survey returns the active instance, nil when empty.
func (c *Controller) Survey() engine.Survey { return c.survey }

// Definition returns the last accepted definition.
func (c *Controller) Definition() (definition.Definition, bool) {
	if c.last == nil {
		return definition.Definition{}, false
	}
	return *c.last, true
}

// Store exposes the value store.
func (c *Controller) Store() *store.Store { return c.store }

// Settings returns the rendering settings applied on each construction.
func (c *Controller) Settings() engine.Settings { return c.settings }

// Load accepts a definition as JSON text, bytes, a parsed Definition, or any
// structured value. Failures are logged and never reach the caller.
func (c *Controller) Load(input any) {
	result, err := c.TryLoad(input)
	switch result {
	case LoadInvalid:
		c.logger.Error("invalid survey definition", zap.Error(err))
	case LoadUnchanged:
		c.logger.Info("Identical survey JSON. Skipping re-initialization.")
	case LoadFailed:
		fields := []zap.Field{zap.Error(err)}
		var buildErr *BuildError
		if errors.As(err, &buildErr) && buildErr.Trace != "" {
			fields = append(fields, zap.String("trace", buildErr.Trace))
		}
		c.logger.Error("survey initialization failed", fields...)
	case LoadRebuilt:
		if survey := c.survey; survey != nil {
			c.logger.Info("Survey initialized",
				zap.String("survey", survey.ID()),
				zap.Int("questions", len(survey.Questions())),
			)
		}
	}
}

// TryLoad is Load returning the outcome instead of logging it.
func (c *Controller) TryLoad(input any) (LoadResult, error) {
	def, err := definition.Parse(input)
	if err != nil {
		c.metrics.ObserveLoad(string(LoadInvalid))
		return LoadInvalid, err
	}
	if c.state == StateLoaded && definition.Unchanged(c.last, def) {
		c.metrics.ObserveLoad(string(LoadUnchanged))
		return LoadUnchanged, nil
	}

	if err := c.rebuild(def); err != nil {
		c.metrics.ObserveLoad(string(LoadFailed))
		return LoadFailed, err
	}
	c.metrics.ObserveLoad(string(LoadRebuilt))
	return LoadRebuilt, nil
}

func (c *Controller) rebuild(def definition.Definition) (err error) {
	stage := "preserve"
	defer func() {
		if r := recover(); r != nil {
			err = &BuildError{
				Stage: stage,
				Err:   fmt.Errorf("panic: %v", r),
				Trace: string(debug.Stack()),
			}
		}
	}()

	c.store.Preserve(c.survey)
	c.subs.DisposeAll()

	stage = "clear"
	if c.container != nil {
		c.container.Clear()
		if setter, ok := c.container.(engine.TitleSetter); ok && def.Title() != "" {
			setter.SetTitle(def.Title())
		}
	}

	stage = "construct"
	c.survey, c.last, c.state = nil, nil, StateEmpty
	if c.factory == nil {
		return &BuildError{Stage: stage, Err: ErrNoFactory}
	}
	c.factory.Configure(c.settings)
	survey, err := c.factory.New(def)
	if err != nil {
		return &BuildError{Stage: stage, Err: err}
	}
	if survey == nil {
		return &BuildError{Stage: stage, Err: errors.New("factory returned no survey")}
	}

	accepted := def
	c.survey, c.last, c.state = survey, &accepted, StateLoaded

	stage = "restore"
	c.store.Restore(survey)

	stage = "subscribe"
	c.subs = append(c.subs,
		survey.OnComplete(c.onComplete),
		survey.OnValueChanged(c.onValueChanged),
		survey.OnAfterRenderQuestion(c.onAfterRenderQuestion),
	)

	stage = "bind"
	if c.container != nil {
		if err := c.container.Bind(survey); err != nil {
			return &BuildError{Stage: stage, Err: err}
		}
	}
	return nil
}

func (c *Controller) onComplete(event engine.CompleteEvent) {
	data, err := event.Survey.DataJSON()
	if err != nil {
		c.logger.Error("encode survey data", zap.Error(err))
		return
	}
	c.emit(OutputSurveyData, string(data))
}

func (c *Controller) onValueChanged(event engine.ValueChangedEvent) {
	c.store.RecordChange(event.Name, event.Value)
	c.emit(OutputSelectedChoice, SelectedChoice{FieldName: event.Name, Selected: event.Value})
}

// onAfterRenderQuestion re-applies the stored value of display-value
// questions, raw as restore sets it, and drives the rendered element to
// match.
func (c *Controller) onAfterRenderQuestion(event engine.AfterRenderQuestionEvent) {
	q := event.Question
	if q == nil {
		return
	}
	display, ok := q.(engine.DisplayValuer)
	if !ok {
		return
	}
	stored, ok := c.store.Get(q.Name())
	if !ok || stored == nil {
		return
	}

	q.SetValue(stored)
	display.SetDisplayValue(stored)
	if event.Element != nil {
		event.Element.SetValue(engine.FormatControlValue(stored))
		event.Element.Dispatch(engine.EventChange)
	}
}

func (c *Controller) emit(name string, value any) {
	if c.emitter == nil {
		c.logger.Debug("no emitter configured", zap.String("output", name))
		return
	}
	c.emitter.Emit(name, value)
	c.metrics.ObserveEmit(name)
}

// controlFor prefers the control a question exposes and falls back to a
// container lookup by name.
func (c *Controller) controlFor(q engine.Question) engine.Control {
	if provider, ok := q.(engine.ControlProvider); ok {
		if control := provider.Control(); control != nil {
			return control
		}
	}
	if c.container != nil {
		if control, ok := c.container.Lookup(q.Name()); ok && control != nil {
			return control
		}
	}
	return nil
}
