package engine

import (
	"fmt"
	"strings"
)

// FormatControlValue renders an answer value the way a visual control holds
// it: strings pass through, lists are comma-joined, nil is empty.
func FormatControlValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ",")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatControlValue(item))
		}
		return strings.Join(parts, ",")
	default:
		return fmt.Sprint(v)
	}
}
