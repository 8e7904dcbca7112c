// Package bridge connects a message bridge to the lifecycle controller.
// Inbound messages load definitions or mutate questions; survey events are
// shipped back as named input values.
package bridge

import (
	"encoding/json"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

// Inbound message kinds.
const (
	KindLoadSurvey    = "loadSurvey"
	KindUpdateText    = "updateText"
	KindUpdateChoices = "updateChoices"
)

// Message is one inbound bridge message. Payload carries the JSON body as
// received; Value, when set, carries an in-process value that takes
// precedence over Payload (for example an UpdateTextPayload with a
// callback).
type Message struct {
	Kind    string
	Payload json.RawMessage
	Value   any
}

// Handler processes one message. Handlers run to completion, one at a time,
// in delivery order.
type Handler func(msg Message)

// Bridge is the host messaging channel.
type Bridge interface {
	HandleMessage(kind string, handler Handler)
	SetInputValue(name string, value any) error
}

// UpdateTextPayload is the updateText message body.
type UpdateTextPayload struct {
	TargetQuestion string `json:"targetQuestion"`
	Text           string `json:"text"`
	// Callback is only available to in-process senders.
	Callback func(text string, q engine.Question) `json:"-"`
}

// UpdateChoicesPayload is the updateChoices message body.
type UpdateChoicesPayload struct {
	TargetQuestion string   `json:"targetQuestion"`
	Choices        []string `json:"choices"`
}
