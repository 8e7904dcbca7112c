package definition

import "bytes"

// Unchanged reports whether incoming is structurally identical to previous.
// A nil previous means nothing has been accepted yet and is never unchanged.
// Comparison is byte equality of canonical text: escapes, number spelling
// and whitespace do not matter, key order does.
func Unchanged(previous *Definition, incoming Definition) bool {
	if previous == nil || previous.IsZero() {
		return false
	}
	return bytes.Equal(previous.canonical, incoming.canonical)
}
