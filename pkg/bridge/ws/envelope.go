// Package ws carries bridge messages over websockets. The Hub runs on the
// host and pushes messages to connected clients; the Client runs next to
// the controller and dispatches messages one at a time on its Run loop.
package ws

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrClosed reports use of a closed client or session.
var ErrClosed = errors.New("ws: connection closed")

// Envelope is a host to client frame.
type Envelope struct {
	Type    string          `json:"type"`
	Message json.RawMessage `json:"message,omitempty"`
}

// InputFrame is a client to host frame carrying one input value.
type InputFrame struct {
	Name  string          `json:"name"`
	Value json.RawMessage `json:"value"`
}

// Decode unmarshals the frame value into dst.
func (f InputFrame) Decode(dst any) error {
	if len(f.Value) == 0 {
		return fmt.Errorf("ws: input %q has no value", f.Name)
	}
	return json.Unmarshal(f.Value, dst)
}

func encodePayload(payload any) (json.RawMessage, error) {
	switch typed := payload.(type) {
	case nil:
		return nil, nil
	case json.RawMessage:
		return typed, nil
	case []byte:
		return json.RawMessage(typed), nil
	default:
		raw, err := json.Marshal(typed)
		if err != nil {
			return nil, fmt.Errorf("ws: encode payload: %w", err)
		}
		return raw, nil
	}
}
