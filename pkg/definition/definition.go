package definition

import (
	"bytes"
	"errors"

	"github.com/tidwall/gjson"
)

var (
	// ErrEmptyDefinition is returned when the payload carries no content.
	ErrEmptyDefinition = errors.New("definition: payload is empty")
	// ErrInvalidJSON is returned when the payload is not well-formed JSON.
	ErrInvalidJSON = errors.New("definition: invalid JSON")
	// ErrNotObject is returned when the top-level JSON value is not an object.
	ErrNotObject = errors.New("definition: top-level value must be an object")
)

// Choice is a selectable option declared on a choice-bearing question.
type Choice struct {
	Value any    `json:"value"`
	Text  string `json:"text"`
}

// Question describes one question entry found in a definition. Panels and
// pages are flattened; Path records where the element lives in the document.
type Question struct {
	Name         string   `json:"name"`
	Type         string   `json:"type"`
	Title        string   `json:"title,omitempty"`
	Description  string   `json:"description,omitempty"`
	InputType    string   `json:"inputType,omitempty"`
	IsRequired   bool     `json:"isRequired,omitempty"`
	DefaultValue any      `json:"defaultValue,omitempty"`
	Choices      []Choice `json:"choices,omitempty"`
	VisibleIf    string   `json:"visibleIf,omitempty"`
	Path         string   `json:"path"`
}

// Definition is an immutable, parsed survey definition.
type Definition struct {
	canonical []byte
	title     string
	questions []Question
	index     map[string]int
}

// Canonical returns a copy of the canonical JSON text.
func (d Definition) Canonical() []byte {
	return append([]byte(nil), d.canonical...)
}

// String returns the canonical JSON text.
func (d Definition) String() string {
	return string(d.canonical)
}

// IsZero reports whether the definition was never populated.
func (d Definition) IsZero() bool {
	return len(d.canonical) == 0
}

// Title returns the survey title, if any.
func (d Definition) Title() string {
	return d.title
}

// Questions returns the flattened question list in document order.
func (d Definition) Questions() []Question {
	if len(d.questions) == 0 {
		return nil
	}
	out := make([]Question, len(d.questions))
	for i, q := range d.questions {
		q.Choices = append([]Choice(nil), q.Choices...)
		out[i] = q
	}
	return out
}

// Question looks up a question by name.
func (d Definition) Question(name string) (Question, bool) {
	idx, ok := d.index[name]
	if !ok {
		return Question{}, false
	}
	q := d.questions[idx]
	q.Choices = append([]Choice(nil), q.Choices...)
	return q, true
}

// Get resolves a gjson path against the canonical document.
func (d Definition) Get(path string) gjson.Result {
	return gjson.GetBytes(d.canonical, path)
}

// Equal reports whether both definitions share the same canonical text.
func (d Definition) Equal(other Definition) bool {
	return bytes.Equal(d.canonical, other.canonical)
}

// MarshalJSON emits the canonical text unchanged so definitions can be
// forwarded over the bridge without re-encoding.
func (d Definition) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return d.Canonical(), nil
}

// UnmarshalJSON parses raw JSON into the definition.
func (d *Definition) UnmarshalJSON(data []byte) error {
	parsed, err := FromJSON(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
