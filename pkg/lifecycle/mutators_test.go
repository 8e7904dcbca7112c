package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/lifecycle"
	"github.com/goliatone/go-surveysync/pkg/renderers/memory"
)

func TestUpdateChoices_DropsStaleValue(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(dropdownDef)
	h.question(t, "q1").SetValue("a")

	h.controller.UpdateChoices("q1", []string{"a_1", "b_1"})

	q := h.question(t, "q1")
	require.Nil(t, q.Value())
	require.Equal(t, []engine.Choice{
		{Value: "a_1", Text: "a 1"},
		{Value: "b_1", Text: "b 1"},
	}, q.(engine.ChoiceQuestion).Choices())

	stored, _ := h.controller.Store().Get("q1")
	require.Nil(t, stored)

	h.controller.Survey().Render()
	require.Nil(t, q.Value(), "render must not resurrect the dropped value")
}

func TestUpdateChoices_KeepsPresentValue(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"room","type":"dropdown","choices":["lab_a","lab_b"]}]}`)
	survey := h.controller.Survey().(*formengine.Survey)
	h.question(t, "room").SetValue("lab_b")

	control, _ := survey.ControlFor("room")
	var dispatched []engine.EventKind
	control.Listen(func(e formengine.ControlEvent) { dispatched = append(dispatched, e.Kind) })
	renders := survey.RenderCount()

	h.controller.UpdateChoices("room", []string{"lab_b", "lab_c"})

	q := h.question(t, "room")
	require.Equal(t, "lab_b", q.Value())
	require.Equal(t, "lab b", q.(engine.DisplayValuer).DisplayValue())
	require.Equal(t, "lab_b", control.Value())
	require.Contains(t, dispatched, engine.EventChange)
	require.Equal(t, renders+1, survey.RenderCount())
}

func TestUpdateChoices_NonStringValueIsCleared(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"level","type":"radiogroup","choices":[1,2]}]}`)
	h.question(t, "level").SetValue(float64(1))

	h.controller.UpdateChoices("level", []string{"1", "2"})
	require.Nil(t, h.question(t, "level").Value())
}

func TestUpdateChoices_SkipsWithWarning(t *testing.T) {
	h := newHarness(t)
	h.controller.UpdateChoices("q1", []string{"a"})
	require.ErrorIs(t, h.controller.TryUpdateChoices("q1", nil), lifecycle.ErrNotLoaded)

	h.controller.Load(`{"questions":[{"name":"q1","type":"dropdown","choices":["a"]},{"name":"note","type":"text"}]}`)
	h.question(t, "q1").SetValue("a")

	h.controller.UpdateChoices("ghost", []string{"x"})
	require.ErrorIs(t, h.controller.TryUpdateChoices("note", []string{"x"}), lifecycle.ErrNotChoiceQuestion)

	require.Equal(t, 2, h.logs.FilterMessage("update skipped").Len())
	require.Equal(t, "a", h.question(t, "q1").Value())
}

func TestUpdateChoices_NonChoiceQuestionIsRejected(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"note","type":"text"}]}`)
	h.question(t, "note").SetValue("keep me")

	h.controller.UpdateChoices("note", []string{"x_y"})

	require.Equal(t, "keep me", h.question(t, "note").Value())
	skipped := h.logs.FilterMessage("update skipped").All()
	require.Len(t, skipped, 1)
	require.Equal(t, "note", skipped[0].ContextMap()["question"])
	require.Contains(t, skipped[0].ContextMap()["error"], "does not carry choices")
}

func TestUpdateText_SetsValueAndDispatches(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"q2","type":"text"}]}`)
	survey := h.controller.Survey().(*formengine.Survey)
	control, _ := survey.ControlFor("q2")

	var dispatched []engine.EventKind
	control.Listen(func(e formengine.ControlEvent) { dispatched = append(dispatched, e.Kind) })
	h.emitter.emitted = nil

	var gotText string
	var gotQuestion engine.Question
	h.controller.UpdateText("q2", "hello", func(text string, q engine.Question) {
		gotText, gotQuestion = text, q
	})

	require.Equal(t, "hello", h.question(t, "q2").Value())
	require.Equal(t, "hello", control.Value())
	require.Equal(t, []engine.EventKind{engine.EventChange, engine.EventInput}, dispatched)
	require.Equal(t, "hello", gotText)
	require.Equal(t, "q2", gotQuestion.Name())
	require.Equal(t, []emission{{
		Name:  lifecycle.OutputSelectedChoice,
		Value: lifecycle.SelectedChoice{FieldName: "q2", Selected: "hello"},
	}}, h.emitter.emitted)
}

func TestUpdateText_MissingQuestionLogsOneWarning(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"q1","type":"text"}]}`)
	h.question(t, "q1").SetValue("keep")
	snapshot := h.controller.Store().Snapshot()

	require.NotPanics(t, func() { h.controller.UpdateText("q2", "hello", nil) })

	require.Equal(t, 1, h.logs.FilterMessage("update skipped").Len())
	require.Equal(t, snapshot, h.controller.Store().Snapshot())
	require.Equal(t, "keep", h.question(t, "q1").Value())
}

func TestUpdateText_BeforeLoad(t *testing.T) {
	h := newHarness(t)
	require.ErrorIs(t, h.controller.TryUpdateText("q1", "x", nil), lifecycle.ErrNotLoaded)
	h.controller.UpdateText("q1", "x", nil)
	require.Equal(t, 1, h.logs.FilterMessage("update skipped").Len())
}

func TestUpdateText_CallbackPanicIsContained(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"q1","type":"text"}]}`)

	panicky := func(string, engine.Question) { panic("callback broke") }
	require.NotPanics(t, func() { h.controller.UpdateText("q1", "hello", panicky) })

	require.Equal(t, "hello", h.question(t, "q1").Value())
	require.Equal(t, 1, h.logs.FilterMessage("update callback failed").Len())
	require.ErrorIs(t, h.controller.TryUpdateText("q1", "again", panicky), lifecycle.ErrCallbackFailed)
}

func TestUpdateText_FallsBackToContainerLookup(t *testing.T) {
	registry := formengine.NewRegistry()
	registry.Register(formengine.Kind{Name: "signature"})
	factory := formengine.NewFactory(formengine.WithFactoryRegistry(registry))
	container := memory.New()
	controller := lifecycle.New(factory, container)

	controller.Load(`{"questions":[{"name":"sig","type":"signature"}]}`)
	element := memory.NewElement("sig")
	container.Attach("sig", element)

	controller.UpdateText("sig", "A. Lovelace", nil)

	require.Equal(t, "A. Lovelace", element.Value())
	require.Equal(t, []engine.EventKind{engine.EventChange, engine.EventInput}, element.Events())
}

func TestUpdateText_CallbackMayReenterLoad(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"q1","type":"text"}]}`)
	first := h.controller.Survey()

	h.controller.UpdateText("q1", "hello", func(string, engine.Question) {
		h.controller.Load(`{"questions":[{"name":"q1","type":"text"},{"name":"q2","type":"text"}]}`)
		h.controller.UpdateText("q2", "nested", nil)
	})

	require.NotSame(t, first, h.controller.Survey())
	require.Equal(t, "hello", h.question(t, "q1").Value())
	require.Equal(t, "nested", h.question(t, "q2").Value())
	require.Equal(t, 2, h.factory.Built())
}

func TestChoiceLabel(t *testing.T) {
	require.Equal(t, "north wing east", lifecycle.ChoiceLabel("north_wing_east"))
	require.Equal(t, "plain", lifecycle.ChoiceLabel("plain"))
}
