// Package loopback is an in-process bridge. Send delivers a message to the
// registered handler synchronously; input values are recorded in order.
package loopback

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/goliatone/go-surveysync/pkg/bridge"
)

// ErrNoHandler reports a message kind without a registered handler.
var ErrNoHandler = errors.New("loopback: no handler registered")

// Input is one value shipped back through SetInputValue.
type Input struct {
	Name  string
	Value any
}

// Bridge implements bridge.Bridge in memory.
type Bridge struct {
	handlers map[string]bridge.Handler
	inputs   []Input
	onInput  func(Input)
}

var _ bridge.Bridge = (*Bridge)(nil)

// New returns an empty loopback bridge.
func New() *Bridge {
	return &Bridge{handlers: make(map[string]bridge.Handler)}
}

func (b *Bridge) HandleMessage(kind string, handler bridge.Handler) {
	if handler == nil {
		delete(b.handlers, kind)
		return
	}
	b.handlers[kind] = handler
}

func (b *Bridge) SetInputValue(name string, value any) error {
	input := Input{Name: name, Value: value}
	b.inputs = append(b.inputs, input)
	if b.onInput != nil {
		b.onInput(input)
	}
	return nil
}

// OnInput registers fn to observe every input value.
func (b *Bridge) OnInput(fn func(Input)) {
	b.onInput = fn
}

// Send delivers payload under kind. Raw JSON ([]byte, json.RawMessage) is
// passed through as the payload; any other value is also JSON-encoded and
// kept as the in-process Value.
func (b *Bridge) Send(kind string, payload any) error {
	handler, ok := b.handlers[kind]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNoHandler, kind)
	}

	msg := bridge.Message{Kind: kind}
	switch typed := payload.(type) {
	case json.RawMessage:
		msg.Payload = typed
	case []byte:
		msg.Payload = json.RawMessage(typed)
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return fmt.Errorf("loopback: encode %s: %w", kind, err)
		}
		msg.Payload = raw
		msg.Value = typed
	}
	handler(msg)
	return nil
}

// Inputs returns every recorded input value in order.
func (b *Bridge) Inputs() []Input {
	return append([]Input(nil), b.inputs...)
}

// Last returns the most recent value shipped under name.
func (b *Bridge) Last(name string) (any, bool) {
	for i := len(b.inputs) - 1; i >= 0; i-- {
		if b.inputs[i].Name == name {
			return b.inputs[i].Value, true
		}
	}
	return nil, false
}

// Reset forgets recorded inputs.
func (b *Bridge) Reset() {
	b.inputs = nil
}
