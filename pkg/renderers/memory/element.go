package memory

import "github.com/goliatone/go-surveysync/pkg/engine"

// Element is a detached control that records dispatched events. OnDispatch,
// when set, runs for each event.
type Element struct {
	name       string
	value      string
	events     []engine.EventKind
	OnDispatch func(kind engine.EventKind, value string)
}

var _ engine.Control = (*Element)(nil)

// NewElement returns an element named name.
func NewElement(name string) *Element {
	return &Element{name: name}
}

func (e *Element) Name() string { return e.name }

func (e *Element) Value() string { return e.value }

func (e *Element) SetValue(value string) { e.value = value }

func (e *Element) Dispatch(kind engine.EventKind) {
	e.events = append(e.events, kind)
	if e.OnDispatch != nil {
		e.OnDispatch(kind, e.value)
	}
}

// Events lists dispatched events in order.
func (e *Element) Events() []engine.EventKind {
	return append([]engine.EventKind(nil), e.events...)
}
