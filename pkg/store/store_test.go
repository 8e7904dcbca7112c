package store_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/store"
)

func build(t *testing.T, raw string) *formengine.Survey {
	t.Helper()
	survey, err := formengine.New(definition.MustParse(raw))
	require.NoError(t, err)
	return survey
}

func TestPreserve_SkipsUnsetValues(t *testing.T) {
	survey := build(t, `{"questions":[
		{"type":"text","name":"visitor"},
		{"type":"text","name":"badge"}
	]}`)
	q, _ := survey.QuestionByName("visitor")
	q.SetValue("Ada")

	s := store.New()
	s.RecordChange("badge", "B-7")
	s.Preserve(survey)

	want := map[string]any{"visitor": "Ada", "badge": "B-7"}
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestRestore_AppliesKnownNamesAndKeepsOthers(t *testing.T) {
	s := store.New()
	s.RecordChange("site", "north_wing")
	s.RecordChange("retired", "gone")

	survey := build(t, `{"questions":[
		{"type":"dropdown","name":"site","choices":["north_wing","south_wing"]}
	]}`)
	s.Restore(survey)

	q, _ := survey.QuestionByName("site")
	require.Equal(t, "north_wing", q.Value())
	require.Equal(t, "north_wing", q.(engine.DisplayValuer).DisplayValue())

	value, ok := s.Get("retired")
	require.True(t, ok)
	require.Equal(t, "gone", value)
	require.Equal(t, []string{"site", "retired"}, s.Names())
}

func TestStore_CopiesValues(t *testing.T) {
	s := store.New()
	tools := []any{"ladder"}
	s.RecordChange("tools", tools)
	tools[0] = "mutated"

	got, _ := s.Get("tools")
	require.Equal(t, []any{"ladder"}, got)

	got.([]any)[0] = "again"
	got, _ = s.Get("tools")
	require.Equal(t, []any{"ladder"}, got)
}

func TestStore_NilSurveyAndEmptyName(t *testing.T) {
	s := store.New()
	s.Preserve(nil)
	s.Restore(nil)
	s.RecordChange("", "x")
	require.Equal(t, 0, s.Len())
}

func TestRecordChange_Overwrites(t *testing.T) {
	s := store.New()
	s.RecordChange("q1", "a")
	s.RecordChange("q1", nil)

	value, ok := s.Get("q1")
	require.True(t, ok)
	require.Nil(t, value)
	require.Equal(t, 1, s.Len())
}
