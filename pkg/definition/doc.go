// Package definition parses declarative survey definitions into an immutable
// Definition value. A Definition keeps the canonical JSON text of the payload
// (re-serialized: whitespace removed, escapes and numbers normalized, key
// order preserved) next to a flattened index of the questions it declares.
// Structural equality between two definitions is the byte equality of their
// canonical text; see Unchanged.
//
// Definitions can be built from JSON text, already-decoded values, YAML files,
// or any Source understood by the Loader (file paths, fs.FS entries, URLs).
package definition
