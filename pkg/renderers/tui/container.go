// Package tui renders a bound survey as a sequence of terminal prompts.
// Answers are written through each question's control, so the engine sees
// them exactly as it would see edits made in a rendered page.
package tui

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
)

// Container prompts for the questions of the bound survey.
type Container struct {
	driver   PromptDriver
	logger   *zap.Logger
	theme    Theme
	pageSize int

	survey engine.Survey
	title  string
	runs   int
}

var (
	_ engine.Container   = (*Container)(nil)
	_ engine.TitleSetter = (*Container)(nil)
)

// New builds a container. Without WithPromptDriver it prompts on the
// process terminal.
func New(opts ...Option) *Container {
	c := &Container{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.driver == nil {
		c.driver = NewSurveyDriver(nil)
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("tui")
	return c
}

// Clear forgets the bound survey.
func (c *Container) Clear() {
	c.survey = nil
}

// Bind attaches survey and runs a render pass so after-render listeners
// fire. Prompting starts with Run.
func (c *Container) Bind(survey engine.Survey) error {
	if survey == nil {
		return ErrNotBound
	}
	c.survey = survey
	survey.Render()
	return nil
}

// Lookup always misses: a terminal has no element tree to search.
func (c *Container) Lookup(string) (engine.Control, bool) { return nil, false }

// SetTitle sets the banner printed before the first prompt.
func (c *Container) SetTitle(title string) { c.title = title }

// Title returns the banner.
func (c *Container) Title() string { return c.title }

// Bound reports whether a survey is attached.
func (c *Container) Bound() bool { return c.survey != nil }

// Runs counts completed prompt passes.
func (c *Container) Runs() int { return c.runs }

// Pending lists the visible input questions that have no answer yet.
func (c *Container) Pending() []string {
	if c.survey == nil {
		return nil
	}
	var out []string
	for _, q := range c.survey.Questions() {
		if c.isInput(q) && visible(q) && q.IsEmpty() {
			out = append(out, q.Name())
		}
	}
	return out
}

// Run prompts for every visible input question in order, applies each
// answer as it is given, and completes the survey. Visibility is checked
// when a question comes up, so earlier answers can reveal later ones. Current values become the prompt
// defaults. An abort leaves the answers given so far in place.
func (c *Container) Run(ctx context.Context) error {
	if c.survey == nil {
		return ErrNotBound
	}
	survey := c.survey

	if c.title != "" {
		if err := c.driver.Info(ctx, c.theme.TitlePrefix+c.title); err != nil {
			return err
		}
	}

	for _, q := range survey.Questions() {
		if !c.isInput(q) || !visible(q) {
			continue
		}
		answer, err := c.driver.Ask(ctx, c.promptFor(q))
		if err != nil {
			if errors.Is(err, ErrAborted) {
				c.logger.Info("prompt aborted", zap.String("question", q.Name()))
			}
			return err
		}
		c.apply(q, answer)
		if c.survey != survey {
			// a message handled during the prompt replaced the survey
			return nil
		}
	}

	survey.Complete()
	c.runs++
	if c.theme.InfoPrefix != "" {
		return c.driver.Info(ctx, c.theme.InfoPrefix+"survey complete")
	}
	return nil
}

func visible(q engine.Question) bool {
	if v, ok := q.(interface{ IsVisible() bool }); ok {
		return v.IsVisible()
	}
	return true
}

func (c *Container) isInput(q engine.Question) bool {
	if resolver, ok := c.survey.(interface {
		Kind(name string) (formengine.Kind, bool)
	}); ok {
		if kind, found := resolver.Kind(q.Name()); found {
			return kind.Input
		}
	}
	return true
}

func (c *Container) multiple(q engine.Question) bool {
	if resolver, ok := c.survey.(interface {
		Kind(name string) (formengine.Kind, bool)
	}); ok {
		if kind, found := resolver.Kind(q.Name()); found {
			return kind.Multiple
		}
	}
	return false
}

// promptFor describes q for the driver. Choice questions carry their
// choices so the driver can show text and answer with values.
func (c *Container) promptFor(q engine.Question) Prompt {
	p := Prompt{
		Kind:      PromptText,
		Name:      q.Name(),
		Message:   promptMessage(q),
		Current:   engine.FormatControlValue(q.Value()),
		InputType: inputType(q),
		PageSize:  c.pageSize,
	}
	if d, ok := q.(interface{ Description() string }); ok {
		p.Help = d.Description()
	}
	if r, ok := q.(interface{ IsRequired() bool }); ok {
		p.Required = r.IsRequired()
	}

	if cq, ok := q.(engine.ChoiceQuestion); ok && len(cq.Choices()) > 0 {
		p.Choices = cq.Choices()
		p.Kind = PromptChoice
		if c.multiple(q) {
			p.Kind = PromptChoices
		}
		return p
	}
	switch {
	case q.Type() == formengine.KindBoolean:
		p.Kind = PromptConfirm
	case q.Type() == formengine.KindComment:
		p.Kind = PromptComment
	case p.InputType == "password":
		p.Kind = PromptSecret
	}
	return p
}

// apply writes answer through the question's control so engine bindings run,
// falling back to a direct SetValue for questions without one.
func (c *Container) apply(q engine.Question, answer string) {
	if provider, ok := q.(engine.ControlProvider); ok {
		if control := provider.Control(); control != nil {
			control.SetValue(answer)
			control.Dispatch(engine.EventChange)
			return
		}
	}
	if answer == "" {
		q.SetValue(nil)
		return
	}
	q.SetValue(answer)
}

func promptMessage(q engine.Question) string {
	title := strings.TrimSpace(q.Title())
	if title == "" {
		title = q.Name()
	}
	if r, ok := q.(interface{ IsRequired() bool }); ok && r.IsRequired() {
		title += " *"
	}
	return title
}

func inputType(q engine.Question) string {
	if it, ok := q.(interface{ InputType() string }); ok {
		return strings.ToLower(strings.TrimSpace(it.InputType()))
	}
	return ""
}
