// Package formengine is an in-memory Form Engine satisfying pkg/engine. It
// builds a question registry from a definition.Definition, keeps one
// Control per input question (the element a renderer draws), and raises
// completion, value-changed and after-render events synchronously in
// registration order.
//
// Setting a question value that differs from the current one raises a
// value-changed event and silently mirrors the value onto the control.
// Dispatching change or input on a control feeds the control text back into
// the question, which is how programmatic DOM-style updates reach the model.
package formengine
