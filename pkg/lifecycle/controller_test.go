package lifecycle_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/lifecycle"
	"github.com/goliatone/go-surveysync/pkg/renderers/memory"
)

const dropdownDef = `{"questions":[{"name":"q1","type":"dropdown","choices":["a","b"]}]}`

type emission struct {
	Name  string
	Value any
}

type recordingEmitter struct {
	emitted []emission
}

func (r *recordingEmitter) Emit(name string, value any) {
	r.emitted = append(r.emitted, emission{Name: name, Value: value})
}

type harness struct {
	controller *lifecycle.Controller
	factory    *formengine.Factory
	container  *memory.Container
	emitter    *recordingEmitter
	logs       *observer.ObservedLogs
}

func newHarness(t *testing.T, opts ...lifecycle.Option) *harness {
	t.Helper()
	core, logs := observer.New(zap.DebugLevel)
	h := &harness{
		factory:   formengine.NewFactory(),
		container: memory.New(memory.WithRenderOnBind()),
		emitter:   &recordingEmitter{},
		logs:      logs,
	}
	opts = append([]lifecycle.Option{
		lifecycle.WithLogger(zap.New(core)),
		lifecycle.WithEmitter(h.emitter),
	}, opts...)
	h.controller = lifecycle.New(h.factory, h.container, opts...)
	return h
}

func (h *harness) question(t *testing.T, name string) engine.Question {
	t.Helper()
	survey := h.controller.Survey()
	require.NotNil(t, survey)
	q, ok := survey.QuestionByName(name)
	require.True(t, ok, "question %q not found", name)
	return q
}

func TestLoad_BuildsSurveyAndBindsContainer(t *testing.T) {
	h := newHarness(t)
	require.Equal(t, lifecycle.StateEmpty, h.controller.State())

	h.controller.Load(`{"title":"Intake","questions":[{"name":"q1","type":"text"}]}`)

	require.Equal(t, lifecycle.StateLoaded, h.controller.State())
	require.Equal(t, 1, h.factory.Built())
	require.Equal(t, 1, h.container.Clears())
	require.Equal(t, 1, h.container.Binds())
	require.Same(t, h.controller.Survey(), h.container.Bound())
	require.Equal(t, "Intake", h.container.Title())
	require.Equal(t, engine.DefaultSettings(), h.factory.Settings())
	require.Equal(t, 1, h.logs.FilterMessage("Survey initialized").Len())

	def, ok := h.controller.Definition()
	require.True(t, ok)
	require.Equal(t, `{"title":"Intake","questions":[{"name":"q1","type":"text"}]}`, def.String())
}

func TestLoad_IdenticalDefinitionIsIdempotent(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(dropdownDef)
	first := h.controller.Survey()

	h.question(t, "q1").SetValue("a")
	h.controller.Load(dropdownDef)

	require.Same(t, first, h.controller.Survey())
	require.Equal(t, 1, h.factory.Built())
	require.Equal(t, "a", h.question(t, "q1").Value())
	require.Equal(t, 1, h.logs.FilterMessage("Identical survey JSON. Skipping re-initialization.").Len())

	result, err := h.controller.TryLoad([]byte(dropdownDef))
	require.NoError(t, err)
	require.Equal(t, lifecycle.LoadUnchanged, result)
}

func TestLoad_StructuredInputMatchesText(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(map[string]any{"questions": []any{map[string]any{"name": "q1", "type": "text"}}})
	require.Equal(t, 1, h.factory.Built())

	result, err := h.controller.TryLoad(`{"questions":[{"name":"q1","type":"text"}]}`)
	require.NoError(t, err)
	require.Equal(t, lifecycle.LoadUnchanged, result)
}

func TestLoad_EquivalentSpellingsAreIdentical(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"title":"\u0041","questions":[{"name":"q1","type":"rating","rateMax":5}]}`)
	first := h.controller.Survey()

	h.controller.Load(`{"title":"A","questions":[{"name":"q1","type":"rating","rateMax":5.0}]}`)

	require.Same(t, first, h.controller.Survey())
	require.Equal(t, 1, h.factory.Built())
	require.Equal(t, 1, h.logs.FilterMessage("Identical survey JSON. Skipping re-initialization.").Len())
}

func TestLoad_KeyOrderCountsAsChange(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"q1","type":"text"}]}`)
	h.controller.Load(`{"questions":[{"type":"text","name":"q1"}]}`)
	require.Equal(t, 2, h.factory.Built())
}

func TestLoad_PreservesValuesAcrossRebuild(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[
		{"name":"visitor","type":"text"},
		{"name":"site","type":"dropdown","choices":["north","south"]},
		{"name":"tools","type":"checkbox","choices":["ladder","torch"]}
	]}`)
	first := h.controller.Survey()
	h.question(t, "visitor").SetValue("Ada")
	h.question(t, "site").SetValue("south")
	h.question(t, "tools").SetValue([]any{"torch"})

	h.controller.Load(`{"title":"v2","questions":[
		{"name":"site","type":"dropdown","choices":["north","south","east"]},
		{"name":"tools","type":"checkbox","choices":["ladder","torch"]},
		{"name":"badge","type":"text"}
	]}`)

	require.NotSame(t, first, h.controller.Survey())
	require.Equal(t, "south", h.question(t, "site").Value())
	require.Equal(t, "south", h.question(t, "site").(engine.DisplayValuer).DisplayValue())
	require.Equal(t, []any{"torch"}, h.question(t, "tools").Value())
	require.Nil(t, h.question(t, "badge").Value())

	stored, ok := h.controller.Store().Get("visitor")
	require.True(t, ok, "values of removed questions stay in the store")
	require.Equal(t, "Ada", stored)

	h.controller.Load(`{"questions":[{"name":"visitor","type":"text"}]}`)
	require.Equal(t, "Ada", h.question(t, "visitor").Value())
}

func TestLoad_InvalidInputKeepsState(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(dropdownDef)
	survey := h.controller.Survey()
	h.question(t, "q1").SetValue("b")

	require.NotPanics(t, func() {
		h.controller.Load(`{"questions": [`)
		h.controller.Load("")
		h.controller.Load(42)
	})

	require.Equal(t, lifecycle.StateLoaded, h.controller.State())
	require.Same(t, survey, h.controller.Survey())
	require.Equal(t, "b", h.question(t, "q1").Value())
	require.Equal(t, 1, h.factory.Built())
	require.Equal(t, 3, h.logs.FilterMessage("invalid survey definition").Len())

	result, err := h.controller.TryLoad(`{"questions": [`)
	require.Equal(t, lifecycle.LoadInvalid, result)
	require.ErrorIs(t, err, definition.ErrInvalidJSON)
}

func TestLoad_InvalidInputWhileEmpty(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`not json`)
	require.Equal(t, lifecycle.StateEmpty, h.controller.State())
	require.Nil(t, h.controller.Survey())
	require.Equal(t, 0, h.container.Clears())
}

type panickingFactory struct{}

func (panickingFactory) Configure(engine.Settings) {}

func (panickingFactory) New(definition.Definition) (engine.Survey, error) {
	panic("engine exploded")
}

type failingFactory struct{ err error }

func (failingFactory) Configure(engine.Settings) {}

func (f failingFactory) New(definition.Definition) (engine.Survey, error) {
	return nil, f.err
}

func TestLoad_ConstructionPanicIsRecovered(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	controller := lifecycle.New(panickingFactory{}, memory.New(), lifecycle.WithLogger(zap.New(core)))

	require.NotPanics(t, func() { controller.Load(dropdownDef) })
	require.Equal(t, lifecycle.StateEmpty, controller.State())

	entries := logs.FilterMessage("survey initialization failed").All()
	require.Len(t, entries, 1)
	require.Contains(t, entries[0].ContextMap()["trace"], "panickingFactory")

	result, err := controller.TryLoad(dropdownDef)
	require.Equal(t, lifecycle.LoadFailed, result)
	var buildErr *lifecycle.BuildError
	require.ErrorAs(t, err, &buildErr)
	require.Equal(t, "construct", buildErr.Stage)
}

func TestLoad_ConstructionFailureDiscardsPreviousInstance(t *testing.T) {
	boom := errors.New("boom")
	factory := &switchFactory{inner: formengine.NewFactory()}
	controller := lifecycle.New(factory, memory.New())

	controller.Load(dropdownDef)
	require.Equal(t, lifecycle.StateLoaded, controller.State())
	q, _ := controller.Survey().QuestionByName("q1")
	q.SetValue("a")

	factory.fail = boom
	result, err := controller.TryLoad(`{"questions":[{"name":"q1","type":"text"}]}`)
	require.Equal(t, lifecycle.LoadFailed, result)
	require.ErrorIs(t, err, boom)
	require.Equal(t, lifecycle.StateEmpty, controller.State())
	require.Nil(t, controller.Survey())

	factory.fail = nil
	controller.Load(dropdownDef)
	require.Equal(t, lifecycle.StateLoaded, controller.State())
	q, _ = controller.Survey().QuestionByName("q1")
	require.Equal(t, "a", q.Value(), "store survives a failed rebuild")

	_, err = lifecycle.New(failingFactory{err: boom}, nil).TryLoad(dropdownDef)
	require.ErrorIs(t, err, boom)

	_, err = lifecycle.New(nil, nil).TryLoad(dropdownDef)
	require.ErrorIs(t, err, lifecycle.ErrNoFactory)
}

type switchFactory struct {
	inner *formengine.Factory
	fail  error
}

func (f *switchFactory) Configure(settings engine.Settings) { f.inner.Configure(settings) }

func (f *switchFactory) New(def definition.Definition) (engine.Survey, error) {
	if f.fail != nil {
		return nil, f.fail
	}
	return f.inner.New(def)
}

func TestLoad_BindFailureKeepsSurveyLoaded(t *testing.T) {
	boom := errors.New("container gone")
	controller := lifecycle.New(formengine.NewFactory(), memory.New(memory.WithBindError(boom)))

	result, err := controller.TryLoad(dropdownDef)
	require.Equal(t, lifecycle.LoadFailed, result)
	require.ErrorIs(t, err, boom)
	require.Equal(t, lifecycle.StateLoaded, controller.State())
	require.NotNil(t, controller.Survey())
}

func TestLoad_DisposesBindingsOfDiscardedInstance(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(dropdownDef)
	old := h.controller.Survey().(*formengine.Survey)
	require.Equal(t, 3, old.HandlerCount())

	h.controller.Load(`{"questions":[{"name":"q2","type":"text"}]}`)
	require.Equal(t, 0, old.HandlerCount())

	h.emitter.emitted = nil
	q, _ := old.QuestionByName("q1")
	q.SetValue("b")
	require.Empty(t, h.emitter.emitted, "discarded instance must not reach the bridge")
}

func TestEvents_ValueChangeRecordsAndEmits(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(dropdownDef)
	h.emitter.emitted = nil

	h.question(t, "q1").SetValue("b")

	want := []emission{{
		Name:  lifecycle.OutputSelectedChoice,
		Value: lifecycle.SelectedChoice{FieldName: "q1", Selected: "b"},
	}}
	if diff := cmp.Diff(want, h.emitter.emitted); diff != "" {
		t.Fatalf("emissions mismatch (-want +got):\n%s", diff)
	}
	stored, _ := h.controller.Store().Get("q1")
	require.Equal(t, "b", stored)
}

func TestEvents_CompleteEmitsSerializedData(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"visitor","type":"text"},{"name":"q1","type":"dropdown","choices":["a","b"]}]}`)
	h.question(t, "visitor").SetValue("Ada")
	h.question(t, "q1").SetValue("a")
	h.emitter.emitted = nil

	h.controller.Survey().Complete()

	require.Equal(t, []emission{{Name: lifecycle.OutputSurveyData, Value: `{"visitor":"Ada","q1":"a"}`}}, h.emitter.emitted)
}

func TestEvents_AfterRenderDrivesDropdownControl(t *testing.T) {
	h := newHarness(t)
	h.controller.Load(`{"questions":[{"name":"site","type":"dropdown","choices":[{"value":"n","text":"North"},{"value":"s","text":"South"}]}]}`)
	h.question(t, "site").SetValue("s")

	survey := h.controller.Survey().(*formengine.Survey)
	control, _ := survey.ControlFor("site")
	var dispatched []engine.EventKind
	control.Listen(func(e formengine.ControlEvent) { dispatched = append(dispatched, e.Kind) })
	control.SetValue("")

	survey.Render()

	require.Equal(t, "s", control.Value())
	require.Equal(t, []engine.EventKind{engine.EventChange}, dispatched)
	require.Equal(t, "s", h.question(t, "site").(engine.DisplayValuer).DisplayValue())
	require.Equal(t, "s", h.question(t, "site").Value())
}

func TestEvents_AfterRenderKeepsRawDisplayValueLikeRestore(t *testing.T) {
	h := newHarness(t)
	def := `{"questions":[{"name":"site","type":"dropdown","choices":[{"value":"s","text":"South"}]}]}`
	h.controller.Load(def)
	h.question(t, "site").SetValue("s")

	h.controller.Load(strings.Replace(def, `"South"`, `"South wing"`, 1))
	restored := h.question(t, "site").(engine.DisplayValuer).DisplayValue()
	require.Equal(t, "s", restored)

	h.controller.Survey().Render()
	require.Equal(t, restored, h.question(t, "site").(engine.DisplayValuer).DisplayValue())
}

type countingRecorder struct {
	loads     map[string]int
	mutations map[string]int
	emits     map[string]int
}

func newCountingRecorder() *countingRecorder {
	return &countingRecorder{loads: map[string]int{}, mutations: map[string]int{}, emits: map[string]int{}}
}

func (r *countingRecorder) ObserveLoad(result string)           { r.loads[result]++ }
func (r *countingRecorder) ObserveMutation(kind, result string) { r.mutations[kind+"/"+result]++ }
func (r *countingRecorder) ObserveEmit(name string)             { r.emits[name]++ }

func TestMetrics_RecordOutcomes(t *testing.T) {
	rec := newCountingRecorder()
	h := newHarness(t, lifecycle.WithMetrics(rec))

	h.controller.Load(dropdownDef)
	h.controller.Load(dropdownDef)
	h.controller.Load("{")
	h.controller.UpdateChoices("q1", []string{"x"})
	h.controller.UpdateText("missing", "hi", nil)
	h.question(t, "q1").SetValue("x")

	require.Equal(t, map[string]int{"rebuilt": 1, "unchanged": 1, "invalid": 1}, rec.loads)
	require.Equal(t, map[string]int{"choices/applied": 1, "text/skipped": 1}, rec.mutations)
	require.Equal(t, 1, rec.emits[lifecycle.OutputSelectedChoice])
}

func TestWithSettings_AppliedBeforeConstruction(t *testing.T) {
	settings := engine.DefaultSettings()
	settings.Dropdown.SearchEnabled = false
	factory := formengine.NewFactory()
	controller := lifecycle.New(factory, nil, lifecycle.WithSettings(settings))

	controller.Load(dropdownDef)
	require.Equal(t, settings, controller.Survey().(*formengine.Survey).Settings())
}
