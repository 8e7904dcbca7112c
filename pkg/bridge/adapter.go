package bridge

import (
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/lifecycle"
)

// ErrEmptyPayload reports a message that carried neither Value nor Payload.
var ErrEmptyPayload = errors.New("bridge: empty payload")

// Adapter routes bridge messages to a controller and publishes controller
// output through the bridge.
type Adapter struct {
	bridge     Bridge
	controller *lifecycle.Controller
	logger     *zap.Logger
}

var _ lifecycle.Emitter = (*Adapter)(nil)

// AdapterOption customises an Adapter.
type AdapterOption func(*Adapter)

// WithLogger sets the adapter logger.
func WithLogger(logger *zap.Logger) AdapterOption {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// NewAdapter builds an adapter. Call Register to start routing.
func NewAdapter(b Bridge, controller *lifecycle.Controller, opts ...AdapterOption) *Adapter {
	a := &Adapter{bridge: b, controller: controller}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if a.logger == nil {
		a.logger = zap.NewNop()
	}
	a.logger = a.logger.Named("bridge")
	return a
}

// Register installs the inbound handlers and makes the adapter the
// controller's emitter.
func (a *Adapter) Register() {
	a.bridge.HandleMessage(KindLoadSurvey, a.handleLoad)
	a.bridge.HandleMessage(KindUpdateText, a.handleUpdateText)
	a.bridge.HandleMessage(KindUpdateChoices, a.handleUpdateChoices)
	a.controller.SetEmitter(a)
}

// Emit ships value to the bridge under name. Send failures are logged.
func (a *Adapter) Emit(name string, value any) {
	if err := a.bridge.SetInputValue(name, value); err != nil {
		a.logger.Error("set input value", zap.String("input", name), zap.Error(err))
	}
}

func (a *Adapter) handleLoad(msg Message) {
	if msg.Value != nil {
		a.controller.Load(msg.Value)
		return
	}
	a.controller.Load(msg.Payload)
}

func (a *Adapter) handleUpdateText(msg Message) {
	payload, err := decodePayload[UpdateTextPayload](msg)
	if err != nil {
		a.logger.Warn("malformed message", zap.String("kind", msg.Kind), zap.Error(err))
		return
	}
	a.controller.UpdateText(payload.TargetQuestion, payload.Text, payload.Callback)
}

func (a *Adapter) handleUpdateChoices(msg Message) {
	payload, err := decodePayload[UpdateChoicesPayload](msg)
	if err != nil {
		a.logger.Warn("malformed message", zap.String("kind", msg.Kind), zap.Error(err))
		return
	}
	a.controller.UpdateChoices(payload.TargetQuestion, payload.Choices)
}

func decodePayload[T any](msg Message) (T, error) {
	var out T
	switch value := msg.Value.(type) {
	case T:
		return value, nil
	case *T:
		if value != nil {
			return *value, nil
		}
	case nil:
	default:
		raw, err := json.Marshal(value)
		if err != nil {
			return out, fmt.Errorf("bridge: encode %s value: %w", msg.Kind, err)
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			return out, fmt.Errorf("bridge: decode %s value: %w", msg.Kind, err)
		}
		return out, nil
	}
	if len(msg.Payload) == 0 {
		return out, ErrEmptyPayload
	}
	if err := json.Unmarshal(msg.Payload, &out); err != nil {
		return out, fmt.Errorf("bridge: decode %s payload: %w", msg.Kind, err)
	}
	return out, nil
}
