package formengine

import "github.com/goliatone/go-surveysync/pkg/engine"

// ControlEvent is delivered to control listeners after Dispatch.
type ControlEvent struct {
	Control *Control
	Kind    engine.EventKind
	Value   string
}

// Control is the element backing an input question. SetValue only changes
// the element text; the question picks the text up when change or input is
// dispatched.
type Control struct {
	name      string
	value     string
	question  *question
	listeners hub[ControlEvent]
}

var _ engine.Control = (*Control)(nil)

func newControl(name string, q *question) *Control {
	return &Control{name: name, question: q}
}

func (c *Control) Name() string { return c.name }

func (c *Control) Value() string { return c.value }

func (c *Control) SetValue(value string) { c.value = value }

// Dispatch runs the engine binding first, then notifies listeners.
func (c *Control) Dispatch(kind engine.EventKind) {
	switch kind {
	case engine.EventChange, engine.EventInput:
		if c.question != nil {
			c.question.applyControlValue(c.value)
		}
	}
	c.listeners.fire(ControlEvent{Control: c, Kind: kind, Value: c.value})
}

// Listen registers fn for every dispatched event.
func (c *Control) Listen(fn func(ControlEvent)) engine.Subscription {
	return c.listeners.add(fn)
}
