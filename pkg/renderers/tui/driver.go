package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/mail"
	"os"
	"strconv"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/core"
	"github.com/AlecAivazis/survey/v2/terminal"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

// PromptKind selects the terminal widget used for a question.
type PromptKind int

const (
	PromptText PromptKind = iota
	PromptSecret
	PromptConfirm
	PromptComment
	PromptChoice
	PromptChoices
)

// Prompt is one survey question as the terminal asks it. Current and the
// answer are control text: choice values joined with commas, "true"/"false"
// for confirms, raw text otherwise.
type Prompt struct {
	Kind      PromptKind
	Name      string
	Message   string
	Help      string
	Current   string
	Choices   []engine.Choice
	Required  bool
	InputType string
	PageSize  int
}

// Check validates answer against the question's required flag and input
// type.
func (p Prompt) Check(answer string) error {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		if p.Required {
			return errors.New("an answer is required")
		}
		return nil
	}
	switch p.InputType {
	case "number", "range":
		if _, err := strconv.ParseFloat(answer, 64); err != nil {
			return fmt.Errorf("%q is not a number", answer)
		}
	case "email":
		if _, err := mail.ParseAddress(answer); err != nil {
			return fmt.Errorf("%q is not an email address", answer)
		}
	}
	return nil
}

// Labels returns the option text shown for each choice.
func (p Prompt) Labels() []string {
	out := make([]string, len(p.Choices))
	for i, choice := range p.Choices {
		out[i] = choiceLabel(choice)
	}
	return out
}

// ValueOf maps a shown label back to the choice value in control text form.
// Unknown labels map to themselves.
func (p Prompt) ValueOf(label string) string {
	for _, choice := range p.Choices {
		if choiceLabel(choice) == label {
			return engine.FormatControlValue(choice.Value)
		}
	}
	return label
}

// Selected returns the labels of the choices named by Current.
func (p Prompt) Selected() []string {
	if p.Current == "" {
		return nil
	}
	wanted := make(map[string]bool)
	for _, part := range strings.Split(p.Current, ",") {
		wanted[strings.TrimSpace(part)] = true
	}
	var out []string
	for _, choice := range p.Choices {
		if wanted[engine.FormatControlValue(choice.Value)] {
			out = append(out, choiceLabel(choice))
		}
	}
	return out
}

func choiceLabel(choice engine.Choice) string {
	if choice.Text != "" {
		return choice.Text
	}
	return engine.FormatControlValue(choice.Value)
}

// PromptDriver asks survey questions on a terminal, or on anything that can
// stand in for one in tests.
type PromptDriver interface {
	Ask(ctx context.Context, p Prompt) (string, error)
	Info(ctx context.Context, msg string) error
}

type surveyDriver struct {
	out io.Writer
}

// NewSurveyDriver returns a PromptDriver backed by the survey prompt library.
// Info messages go to out, or stdout when out is nil.
func NewSurveyDriver(out io.Writer) PromptDriver {
	if out == nil {
		out = os.Stdout
	}
	return &surveyDriver{out: out}
}

func (d *surveyDriver) Ask(ctx context.Context, p Prompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	opts := []survey.AskOpt{survey.WithValidator(func(ans any) error {
		return p.Check(answerText(p, ans))
	})}
	if p.PageSize > 0 {
		opts = append(opts, survey.WithPageSize(p.PageSize))
	}

	var err error
	answer := ""
	switch p.Kind {
	case PromptConfirm:
		def, _ := strconv.ParseBool(p.Current)
		var ok bool
		err = survey.AskOne(&survey.Confirm{Message: p.Message, Help: p.Help, Default: def}, &ok)
		answer = strconv.FormatBool(ok)
	case PromptChoice:
		prompt := &survey.Select{Message: p.Message, Help: p.Help, Options: p.Labels()}
		if selected := p.Selected(); len(selected) > 0 {
			prompt.Default = selected[0]
		}
		var label string
		err = survey.AskOne(prompt, &label, opts...)
		answer = p.ValueOf(label)
	case PromptChoices:
		prompt := &survey.MultiSelect{Message: p.Message, Help: p.Help, Options: p.Labels()}
		if selected := p.Selected(); len(selected) > 0 {
			prompt.Default = selected
		}
		var labels []string
		err = survey.AskOne(prompt, &labels, opts...)
		values := make([]string, len(labels))
		for i, label := range labels {
			values[i] = p.ValueOf(label)
		}
		answer = strings.Join(values, ",")
	case PromptComment:
		err = survey.AskOne(&survey.Multiline{Message: p.Message, Help: p.Help, Default: p.Current}, &answer, opts...)
	case PromptSecret:
		err = survey.AskOne(&survey.Password{Message: p.Message, Help: p.Help}, &answer, opts...)
	default:
		err = survey.AskOne(&survey.Input{Message: p.Message, Help: p.Help, Default: p.Current}, &answer, opts...)
	}
	if err != nil {
		return "", translateSurveyErr(err)
	}
	return answer, nil
}

func (d *surveyDriver) Info(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, err := fmt.Fprintln(d.out, msg)
	return err
}

// answerText turns what survey hands a validator into control text.
func answerText(p Prompt, ans any) string {
	switch v := ans.(type) {
	case string:
		return v
	case core.OptionAnswer:
		return p.ValueOf(v.Value)
	case []core.OptionAnswer:
		values := make([]string, len(v))
		for i, option := range v {
			values[i] = p.ValueOf(option.Value)
		}
		return strings.Join(values, ",")
	default:
		return fmt.Sprint(ans)
	}
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
