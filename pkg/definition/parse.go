package definition

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/tidwall/gjson"
)

// containerKeys lists the element collections a page, panel or the document
// root may declare. "questions" is the legacy single-page shape.
var containerKeys = []string{"elements", "questions"}

// Parse turns any supported input into a Definition. Accepted inputs are JSON
// text (string, []byte, json.RawMessage), gjson results, existing Definitions,
// and arbitrary values that encoding/json can marshal into an object.
func Parse(input any) (Definition, error) {
	switch v := input.(type) {
	case nil:
		return Definition{}, ErrEmptyDefinition
	case Definition:
		if v.IsZero() {
			return Definition{}, ErrEmptyDefinition
		}
		return v, nil
	case *Definition:
		if v == nil || v.IsZero() {
			return Definition{}, ErrEmptyDefinition
		}
		return *v, nil
	case string:
		return FromJSON([]byte(v))
	case []byte:
		return FromJSON(v)
	case json.RawMessage:
		return FromJSON(v)
	case gjson.Result:
		return FromJSON([]byte(v.Raw))
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return Definition{}, fmt.Errorf("definition: encode %T: %w", input, err)
		}
		return FromJSON(data)
	}
}

// MustParse panics when Parse fails. Useful for tests and static fixtures.
func MustParse(input any) Definition {
	def, err := Parse(input)
	if err != nil {
		panic(err)
	}
	return def
}

// FromJSON parses raw JSON text. A JSON string whose content is itself a JSON
// object is unwrapped once, since hosts often ship definitions pre-serialized.
func FromJSON(raw []byte) (Definition, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return Definition{}, ErrEmptyDefinition
	}
	if !gjson.ValidBytes(trimmed) {
		return Definition{}, ErrInvalidJSON
	}

	root := gjson.ParseBytes(trimmed)
	if root.Type == gjson.String {
		inner := strings.TrimSpace(root.String())
		if inner == "" {
			return Definition{}, ErrEmptyDefinition
		}
		if !gjson.Valid(inner) {
			return Definition{}, fmt.Errorf("%w: serialized payload", ErrInvalidJSON)
		}
		trimmed = []byte(inner)
		root = gjson.ParseBytes(trimmed)
	}
	if !root.IsObject() {
		return Definition{}, ErrNotObject
	}

	canonical := canonicalize(root)
	doc := gjson.ParseBytes(canonical)

	def := Definition{
		canonical: canonical,
		title:     localizedString(doc.Get("title")),
	}
	def.questions, def.index = indexQuestions(doc)
	return def, nil
}

type walker struct {
	questions []Question
	index     map[string]int
}

func indexQuestions(root gjson.Result) ([]Question, map[string]int) {
	w := &walker{index: make(map[string]int)}

	if pages := root.Get("pages"); pages.IsArray() {
		for i, page := range pages.Array() {
			w.walkContainer(page, joinPath("pages", strconv.Itoa(i)), page.Get("visibleIf").String())
		}
	}
	w.walkContainer(root, "", "")

	if len(w.questions) == 0 {
		return nil, w.index
	}
	return w.questions, w.index
}

// walkContainer visits the elements of node. A visibleIf rule on a page or
// panel is combined into the rules of the questions it holds.
func (w *walker) walkContainer(node gjson.Result, path, visibleIf string) {
	for _, key := range containerKeys {
		list := node.Get(key)
		if !list.IsArray() {
			continue
		}
		for i, element := range list.Array() {
			w.walkElement(element, joinPath(path, key, strconv.Itoa(i)), visibleIf)
		}
	}
}

func (w *walker) walkElement(element gjson.Result, path, inherited string) {
	if !element.IsObject() {
		return
	}
	kind := strings.ToLower(strings.TrimSpace(element.Get("type").String()))
	visibleIf := joinRules(inherited, element.Get("visibleIf").String())
	if kind == "panel" {
		w.walkContainer(element, path, visibleIf)
		return
	}

	name := strings.TrimSpace(element.Get("name").String())
	if name == "" {
		return
	}
	// first declaration wins on duplicate names
	if _, exists := w.index[name]; exists {
		return
	}

	q := Question{
		Name:        name,
		Type:        kind,
		Title:       localizedString(element.Get("title")),
		Description: localizedString(element.Get("description")),
		InputType:   element.Get("inputType").String(),
		IsRequired:  element.Get("isRequired").Bool(),
		Choices:     parseChoices(element.Get("choices")),
		VisibleIf:   visibleIf,
		Path:        path,
	}
	if def := element.Get("defaultValue"); def.Exists() {
		q.DefaultValue = def.Value()
	}

	w.index[name] = len(w.questions)
	w.questions = append(w.questions, q)
}

func joinRules(outer, inner string) string {
	outer, inner = strings.TrimSpace(outer), strings.TrimSpace(inner)
	switch {
	case outer == "":
		return inner
	case inner == "":
		return outer
	default:
		return "(" + outer + ") and (" + inner + ")"
	}
}

func parseChoices(list gjson.Result) []Choice {
	if !list.IsArray() {
		return nil
	}
	items := list.Array()
	if len(items) == 0 {
		return nil
	}
	out := make([]Choice, 0, len(items))
	for _, item := range items {
		if item.IsObject() {
			value := item.Get("value")
			if !value.Exists() {
				continue
			}
			text := localizedString(item.Get("text"))
			if text == "" {
				text = value.String()
			}
			out = append(out, Choice{Value: value.Value(), Text: text})
			continue
		}
		out = append(out, Choice{Value: item.Value(), Text: item.String()})
	}
	return out
}

// localizedString flattens SurveyJS-style localizable strings, which may be a
// plain string or an object keyed by locale with a "default" entry.
func localizedString(value gjson.Result) string {
	if value.IsObject() {
		if def := value.Get("default"); def.Exists() {
			return def.String()
		}
		var first string
		value.ForEach(func(_, v gjson.Result) bool {
			first = v.String()
			return false
		})
		return first
	}
	return value.String()
}

func joinPath(parts ...string) string {
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part != "" {
			out = append(out, part)
		}
	}
	return strings.Join(out, ".")
}
