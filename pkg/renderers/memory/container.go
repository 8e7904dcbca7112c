// Package memory provides an in-process engine.Container that records what
// the controller does to it. It backs headless use and tests.
package memory

import (
	"github.com/goliatone/go-surveysync/pkg/engine"
)

// Container records clears, binds and titles. Elements attached by name
// serve Lookup, standing in for a DOM query.
type Container struct {
	bound    engine.Survey
	binds    int
	clears   int
	title    string
	elements map[string]engine.Control
	bindErr  error
	render   bool
}

var (
	_ engine.Container   = (*Container)(nil)
	_ engine.TitleSetter = (*Container)(nil)
)

// Option customises a Container.
type Option func(*Container)

// WithRenderOnBind renders the survey as soon as it is bound.
func WithRenderOnBind() Option {
	return func(c *Container) {
		c.render = true
	}
}

// WithBindError makes every Bind fail with err.
func WithBindError(err error) Option {
	return func(c *Container) {
		c.bindErr = err
	}
}

// New returns an empty container.
func New(opts ...Option) *Container {
	c := &Container{elements: make(map[string]engine.Control)}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Clear drops the bound survey and attached elements.
func (c *Container) Clear() {
	c.clears++
	c.bound = nil
	c.elements = make(map[string]engine.Control)
}

func (c *Container) Bind(survey engine.Survey) error {
	if c.bindErr != nil {
		return c.bindErr
	}
	c.binds++
	c.bound = survey
	if c.render && survey != nil {
		survey.Render()
	}
	return nil
}

func (c *Container) Lookup(name string) (engine.Control, bool) {
	element, ok := c.elements[name]
	return element, ok
}

func (c *Container) SetTitle(title string) { c.title = title }

// Attach registers element under name for Lookup.
func (c *Container) Attach(name string, element engine.Control) {
	if c.elements == nil {
		c.elements = make(map[string]engine.Control)
	}
	c.elements[name] = element
}

// Bound returns the currently bound survey.
func (c *Container) Bound() engine.Survey { return c.bound }

// Binds reports successful Bind calls.
func (c *Container) Binds() int { return c.binds }

// Clears reports Clear calls.
func (c *Container) Clears() int { return c.clears }

// Title returns the last title set.
func (c *Container) Title() string { return c.title }
