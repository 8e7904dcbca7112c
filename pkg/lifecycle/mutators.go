package lifecycle

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

// TextCallback runs after UpdateText applied the new text.
type TextCallback func(text string, q engine.Question)

// ChoiceLabel turns a raw choice token into its display label.
func ChoiceLabel(raw string) string {
	return strings.ReplaceAll(raw, "_", " ")
}

// UpdateChoices replaces the choice list of the named question. Missing
// surveys or questions are logged and ignored.
func (c *Controller) UpdateChoices(name string, raw []string) {
	err := c.TryUpdateChoices(name, raw)
	c.logMutation(MutationChoices, name, err)
}

// TryUpdateChoices is UpdateChoices returning the reason a call was skipped.
func (c *Controller) TryUpdateChoices(name string, raw []string) error {
	q, err := c.lookup(name)
	if err != nil {
		c.metrics.ObserveMutation(MutationChoices, MutationSkipped)
		return err
	}
	cq, ok := q.(engine.ChoiceQuestion)
	if !ok {
		c.metrics.ObserveMutation(MutationChoices, MutationSkipped)
		return fmt.Errorf("%w: %s", ErrNotChoiceQuestion, name)
	}
	survey := c.survey

	choices := make([]engine.Choice, len(raw))
	for i, value := range raw {
		choices[i] = engine.Choice{Value: value, Text: ChoiceLabel(value)}
	}
	cq.SetChoices(choices)

	current, _ := cq.Value().(string)
	if current != "" && slices.Contains(raw, current) {
		cq.SetValue(current)
		if display, ok := q.(engine.DisplayValuer); ok {
			display.SetDisplayValue(ChoiceLabel(current))
		}
		if control := c.controlFor(q); control != nil {
			control.SetValue(current)
			control.Dispatch(engine.EventChange)
		}
	} else {
		cq.SetValue(nil)
	}

	survey.Render()
	c.metrics.ObserveMutation(MutationChoices, MutationApplied)
	return nil
}

// UpdateText sets the named question to text, refreshes its control and
// re-renders. cb, when set, runs last; a panic inside it is logged.
func (c *Controller) UpdateText(name, text string, cb TextCallback) {
	err := c.TryUpdateText(name, text, cb)
	c.logMutation(MutationText, name, err)
}

// TryUpdateText is UpdateText returning the reason a call was skipped or
// the callback failure.
func (c *Controller) TryUpdateText(name, text string, cb TextCallback) error {
	q, err := c.lookup(name)
	if err != nil {
		c.metrics.ObserveMutation(MutationText, MutationSkipped)
		return err
	}
	survey := c.survey

	q.SetValue(text)
	if display, ok := q.(engine.DisplayValuer); ok {
		display.SetDisplayValue(text)
	}
	if control := c.controlFor(q); control != nil {
		control.SetValue(text)
		control.Dispatch(engine.EventChange)
		control.Dispatch(engine.EventInput)
	}

	survey.Render()
	c.metrics.ObserveMutation(MutationText, MutationApplied)

	if cb != nil {
		return runCallback(cb, text, q)
	}
	return nil
}

func runCallback(cb TextCallback, text string, q engine.Question) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrCallbackFailed, r)
		}
	}()
	cb(text, q)
	return nil
}

func (c *Controller) lookup(name string) (engine.Question, error) {
	if c.state != StateLoaded || c.survey == nil {
		return nil, ErrNotLoaded
	}
	q, ok := c.survey.QuestionByName(name)
	if !ok || q == nil {
		return nil, fmt.Errorf("%w: %s", ErrQuestionNotFound, name)
	}
	return q, nil
}

func (c *Controller) logMutation(kind, name string, err error) {
	switch {
	case err == nil:
		return
	case errors.Is(err, ErrCallbackFailed):
		c.logger.Error("update callback failed",
			zap.String("mutation", kind),
			zap.String("question", name),
			zap.Error(err),
			zap.Stack("trace"),
		)
	default:
		c.logger.Warn("update skipped",
			zap.String("mutation", kind),
			zap.String("question", name),
			zap.Error(err),
		)
	}
}
