package expr

import (
	"testing"

	"github.com/goliatone/go-surveysync/pkg/visibility"
)

func TestEvaluatorBooleanComparison(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("badge", "{escorted} = true", visibility.Context{
		Values: map[string]any{"escorted": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	ok, err = eval.Eval("badge", "escorted == true", visibility.Context{
		Values: map[string]any{"escorted": "true"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true for string true")
	}
}

func TestEvaluatorTruthyAndNot(t *testing.T) {
	t.Parallel()

	eval := New()

	ok, err := eval.Eval("badge", "{escorted}", visibility.Context{
		Values: map[string]any{"escorted": true},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected true")
	}

	for _, rule := range []string{"!{escorted}", "not {escorted}"} {
		ok, err = eval.Eval("badge", rule, visibility.Context{
			Values: map[string]any{"escorted": false},
		})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", rule, err)
		}
		if !ok {
			t.Fatalf("expected true for %q", rule)
		}
	}
}

func TestEvaluatorOperators(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"site":    "north_wing",
		"guests":  float64(3),
		"tools":   []any{"ladder", "torch"},
		"notes":   "",
		"visitor": "Ada Lovelace",
		"panel.x": "flat",
		"contact": map[string]any{"email": "ada@example.com"},
	}

	cases := []struct {
		rule string
		want bool
	}{
		{`{site} = 'north_wing'`, true},
		{`{site} <> 'north_wing'`, false},
		{`{site} != "south_wing"`, true},
		{`{guests} > 2`, true},
		{`{guests} >= 3`, true},
		{`{guests} < 3`, false},
		{`{guests} <= 3`, true},
		{`{guests} = 3`, true},
		{`{notes} empty`, true},
		{`{visitor} notempty`, true},
		{`{missing} empty`, true},
		{`{tools} contains 'torch'`, true},
		{`{tools} notcontains 'rope'`, true},
		{`{visitor} contains 'Love'`, true},
		{`{site} anyof ['south_wing', 'north_wing']`, true},
		{`{tools} anyof ['rope', 'ladder']`, true},
		{`{site} anyof ['east_wing']`, false},
		{`{panel.x} = 'flat'`, true},
		{`{contact.email} notempty`, true},
		{`{site} = 'north_wing' and ({guests} > 5 or {tools} contains 'ladder')`, true},
		{`{site} = 'north_wing' AND {guests} > 5`, false},
		{`{missing} = null`, true},
		{`{site} <> null`, true},
		{`{guests} > 2 || {notes} notempty`, true},
		{"", true},
	}

	eval := New()
	for _, tc := range cases {
		got, err := eval.Eval("q", tc.rule, visibility.Context{Values: values})
		if err != nil {
			t.Fatalf("Eval(%q) returned error: %v", tc.rule, err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%q) = %v, want %v", tc.rule, got, tc.want)
		}
	}
}

func TestEvaluatorVariables(t *testing.T) {
	t.Parallel()

	ok, err := New().Eval("site", `{variables.role} = 'staff'`, visibility.Context{
		Values:    map[string]any{"role": "guest"},
		Variables: map[string]any{"role": "staff"},
	})
	if err != nil {
		t.Fatalf("Eval returned error: %v", err)
	}
	if !ok {
		t.Fatalf("expected variables lookup to win over values")
	}
}

func TestEvaluatorErrors(t *testing.T) {
	t.Parallel()

	rules := []string{
		`{site`,
		`{}`,
		`{site} = 'north`,
		`{site} &`,
		`({site} notempty`,
		`{guests} > 'many'`,
		`{site} anyof ['a' 'b']`,
		`{site} =`,
		`= 'x'`,
	}
	eval := New()
	for _, rule := range rules {
		if _, err := eval.Eval("q", rule, visibility.Context{Values: map[string]any{"guests": 1}}); err == nil {
			t.Fatalf("expected error for %q", rule)
		}
	}
}

func TestCompileReuse(t *testing.T) {
	t.Parallel()

	compiled, err := Compile(`{escorted} = true`)
	if err != nil {
		t.Fatalf("Compile returned error: %v", err)
	}
	if compiled.String() != "{escorted} = true" {
		t.Fatalf("unexpected source %q", compiled.String())
	}
	for _, tc := range []struct {
		value any
		want  bool
	}{{true, true}, {false, false}, {nil, false}} {
		got, err := compiled.Eval(visibility.Context{Values: map[string]any{"escorted": tc.value}})
		if err != nil {
			t.Fatalf("Eval returned error: %v", err)
		}
		if got != tc.want {
			t.Fatalf("Eval(%v) = %v, want %v", tc.value, got, tc.want)
		}
	}

	var empty *Expression
	if ok, _ := empty.Eval(visibility.Context{}); !ok {
		t.Fatalf("nil expression should be visible")
	}
}
