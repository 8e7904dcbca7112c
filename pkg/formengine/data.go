package formengine

import (
	"strings"

	"github.com/tidwall/sjson"
)

// Data returns the answers of every visible, non-empty input question.
func (s *Survey) Data() map[string]any {
	data := make(map[string]any)
	for _, q := range s.questions {
		if !q.kind.Input || q.IsEmpty() || !q.IsVisible() {
			continue
		}
		data[q.spec.Name] = cloneValue(q.value)
	}
	return data
}

// DataJSON encodes Data as a JSON object whose keys follow definition order.
func (s *Survey) DataJSON() ([]byte, error) {
	out := []byte("{}")
	for _, q := range s.questions {
		if !q.kind.Input || q.IsEmpty() || !q.IsVisible() {
			continue
		}
		var err error
		out, err = sjson.SetBytes(out, escapePath(q.spec.Name), q.value)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

var pathEscaper = strings.NewReplacer(`\`, `\\`, `.`, `\.`, `*`, `\*`, `?`, `\?`, `|`, `\|`, `#`, `\#`, `@`, `\@`)

func escapePath(name string) string {
	return pathEscaper.Replace(name)
}
