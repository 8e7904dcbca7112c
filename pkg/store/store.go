// Package store keeps the last known answer per question name so answers
// survive a survey being torn down and rebuilt from a new definition.
package store

import (
	"github.com/goliatone/go-surveysync/pkg/engine"
)

// Store maps question names to their last known values. Keys keep their
// first insertion order so restores are deterministic.
type Store struct {
	values map[string]any
	order  []string
}

// New returns an empty store.
func New() *Store {
	return &Store{values: make(map[string]any)}
}

// Preserve copies every answered question of survey into the store,
// overwriting entries with the same name. Unanswered questions leave their
// stored entry untouched. A nil survey is a no-op.
func (s *Store) Preserve(survey engine.Survey) {
	if survey == nil {
		return
	}
	for _, q := range survey.Questions() {
		value := q.Value()
		if value == nil {
			continue
		}
		s.set(q.Name(), value)
	}
}

// Restore writes stored values into the questions of survey that exist.
// Single-choice dropdowns also get their display value set to the raw value
// so the widget shows a selection before render-time correction.
func (s *Store) Restore(survey engine.Survey) {
	if survey == nil {
		return
	}
	for _, name := range s.order {
		q, ok := survey.QuestionByName(name)
		if !ok {
			continue
		}
		value := deepCopy(s.values[name])
		q.SetValue(value)
		if dv, ok := q.(engine.DisplayValuer); ok {
			dv.SetDisplayValue(deepCopy(value))
		}
	}
}

// RecordChange stores value under name.
func (s *Store) RecordChange(name string, value any) {
	if name == "" {
		return
	}
	s.set(name, value)
}

// Get returns the stored value for name.
func (s *Store) Get(name string) (any, bool) {
	value, ok := s.values[name]
	if !ok {
		return nil, false
	}
	return deepCopy(value), true
}

// Len reports the number of stored entries.
func (s *Store) Len() int { return len(s.values) }

// Names lists stored names in insertion order.
func (s *Store) Names() []string {
	return append([]string(nil), s.order...)
}

// Snapshot returns a deep copy of the stored values.
func (s *Store) Snapshot() map[string]any {
	out := make(map[string]any, len(s.values))
	for name, value := range s.values {
		out[name] = deepCopy(value)
	}
	return out
}

func (s *Store) set(name string, value any) {
	if s.values == nil {
		s.values = make(map[string]any)
	}
	if _, exists := s.values[name]; !exists {
		s.order = append(s.order, name)
	}
	s.values[name] = deepCopy(value)
}

func deepCopy(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		clone := make(map[string]any, len(typed))
		for k, v := range typed {
			clone[k] = deepCopy(v)
		}
		return clone
	case []any:
		clone := make([]any, len(typed))
		for i, v := range typed {
			clone[i] = deepCopy(v)
		}
		return clone
	case []string:
		return append([]string(nil), typed...)
	default:
		return typed
	}
}
