package tui

import (
	"bytes"
	"context"
	"testing"

	"github.com/AlecAivazis/survey/v2/core"
	"github.com/AlecAivazis/survey/v2/terminal"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

func floorPrompt() Prompt {
	return Prompt{
		Kind: PromptChoices,
		Name: "floors",
		Choices: []engine.Choice{
			{Value: 1, Text: "Ground"},
			{Value: "2"},
			{Value: "roof", Text: "Roof deck"},
		},
	}
}

func TestPrompt_ChoiceTextShownValueReturned(t *testing.T) {
	p := floorPrompt()
	require.Equal(t, []string{"Ground", "2", "Roof deck"}, p.Labels())
	require.Equal(t, "1", p.ValueOf("Ground"))
	require.Equal(t, "roof", p.ValueOf("Roof deck"))
	require.Equal(t, "2", p.ValueOf("2"))
	require.Equal(t, "basement", p.ValueOf("basement"))

	p.Current = "roof, 1,missing"
	require.Equal(t, []string{"Ground", "Roof deck"}, p.Selected())
	p.Current = ""
	require.Nil(t, p.Selected())
}

func TestPrompt_Check(t *testing.T) {
	tests := []struct {
		name   string
		prompt Prompt
		answer string
		ok     bool
	}{
		{"optional empty", Prompt{}, "", true},
		{"required blank", Prompt{Required: true}, "   ", false},
		{"required given", Prompt{Required: true}, "Ada", true},
		{"number", Prompt{InputType: "number"}, "-3.5", true},
		{"not a number", Prompt{InputType: "number"}, "many", false},
		{"range", Prompt{InputType: "range"}, "7", true},
		{"email", Prompt{InputType: "email"}, "ada@example.com", true},
		{"bad email", Prompt{InputType: "email"}, "ada at example", false},
		{"optional number empty", Prompt{InputType: "number"}, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.prompt.Check(tt.answer)
			if tt.ok {
				require.NoError(t, err)
			} else {
				require.Error(t, err)
			}
		})
	}
}

func TestAnswerText_MapsSurveyAnswersToValues(t *testing.T) {
	p := floorPrompt()
	require.Equal(t, "typed", answerText(p, "typed"))
	require.Equal(t, "roof", answerText(p, core.OptionAnswer{Value: "Roof deck", Index: 2}))
	require.Equal(t, "1,2", answerText(p, []core.OptionAnswer{{Value: "Ground"}, {Value: "2", Index: 1}}))
	require.Equal(t, "true", answerText(p, true))

	p.Required = true
	require.Error(t, p.Check(answerText(p, []core.OptionAnswer{})))
}

func TestSurveyDriver_InfoAndCancel(t *testing.T) {
	var buf bytes.Buffer
	driver := NewSurveyDriver(&buf)
	require.NoError(t, driver.Info(context.Background(), "## Intake"))
	require.Equal(t, "## Intake\n", buf.String())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := driver.Ask(ctx, Prompt{Name: "name"})
	require.ErrorIs(t, err, context.Canceled)
	require.ErrorIs(t, driver.Info(ctx, "late"), context.Canceled)
}

func TestTranslateSurveyErr(t *testing.T) {
	require.ErrorIs(t, translateSurveyErr(terminal.InterruptErr), ErrAborted)
	require.ErrorIs(t, translateSurveyErr(context.DeadlineExceeded), context.DeadlineExceeded)
}
