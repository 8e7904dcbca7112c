package memory_test

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/renderers/memory"
)

func TestContainer_RecordsCalls(t *testing.T) {
	def := definition.MustParse(`{"questions":[{"type":"text","name":"q1"}]}`)
	survey, err := formengine.New(def)
	if err != nil {
		t.Fatalf("formengine.New: %v", err)
	}

	c := memory.New(memory.WithRenderOnBind())
	c.SetTitle("Hello")
	if err := c.Bind(survey); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if c.Bound() != survey || c.Binds() != 1 {
		t.Fatalf("expected survey bound once, binds=%d", c.Binds())
	}
	if got := survey.RenderCount(); got != 1 {
		t.Fatalf("expected render on bind, got %d", got)
	}
	if c.Title() != "Hello" {
		t.Fatalf("unexpected title %q", c.Title())
	}

	c.Attach("q1", memory.NewElement("q1"))
	if _, ok := c.Lookup("q1"); !ok {
		t.Fatalf("expected attached element")
	}

	c.Clear()
	if c.Bound() != nil || c.Clears() != 1 {
		t.Fatalf("expected cleared container")
	}
	if _, ok := c.Lookup("q1"); ok {
		t.Fatalf("expected elements dropped on clear")
	}
}

func TestContainer_BindError(t *testing.T) {
	boom := errors.New("boom")
	c := memory.New(memory.WithBindError(boom))
	if err := c.Bind(nil); !errors.Is(err, boom) {
		t.Fatalf("expected bind error, got %v", err)
	}
	if c.Binds() != 0 {
		t.Fatalf("failed bind must not count")
	}
}

func TestElement_RecordsDispatch(t *testing.T) {
	el := memory.NewElement("site")
	var seen []string
	el.OnDispatch = func(kind engine.EventKind, value string) {
		seen = append(seen, string(kind)+"="+value)
	}
	el.SetValue("north")
	el.Dispatch(engine.EventChange)
	el.Dispatch(engine.EventInput)

	if el.Name() != "site" || el.Value() != "north" {
		t.Fatalf("unexpected element state %q=%q", el.Name(), el.Value())
	}
	if diff := cmp.Diff([]engine.EventKind{engine.EventChange, engine.EventInput}, el.Events()); diff != "" {
		t.Fatalf("events mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"change=north", "input=north"}, seen); diff != "" {
		t.Fatalf("callbacks mismatch (-want +got):\n%s", diff)
	}
}
