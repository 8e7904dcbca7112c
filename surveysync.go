// Package surveysync keeps a live survey form in step with a host
// application. A host pushes survey definitions and field mutations over a
// bridge; the survey reports completions and value changes back. Answers
// survive definition reloads.
//
// Typical wiring:
//
//	container := memory.New(memory.WithRenderOnBind())
//	eng := surveysync.New(container, surveysync.WithBridge(b))
//	eng.Controller().Load(definitionJSON)
package surveysync

import (
	"context"
	"fmt"
	"io/fs"

	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/bridge"
	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/lifecycle"
	"github.com/goliatone/go-surveysync/pkg/openapi"
	"github.com/goliatone/go-surveysync/pkg/renderers/html"
	"github.com/goliatone/go-surveysync/pkg/store"
)

// Engine bundles a form engine factory, a lifecycle controller and, when a
// bridge is configured, the adapter routing bridge messages to it.
type Engine struct {
	factory    *formengine.Factory
	controller *lifecycle.Controller
	adapter    *bridge.Adapter
}

type options struct {
	logger   *zap.Logger
	settings *engine.Settings
	recorder lifecycle.Recorder
	registry *formengine.Registry
	store    *store.Store
	bridge   bridge.Bridge
}

// Option configures New.
type Option func(*options)

// WithLogger sets the logger shared by the controller and adapter.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithSettings overrides the rendering settings applied on each load.
func WithSettings(settings engine.Settings) Option {
	return func(o *options) {
		o.settings = &settings
	}
}

// WithMetrics records controller activity, for example into a
// metrics.Collector.
func WithMetrics(recorder lifecycle.Recorder) Option {
	return func(o *options) {
		o.recorder = recorder
	}
}

// WithRegistry sets the question kinds known to the form engine.
func WithRegistry(registry *formengine.Registry) Option {
	return func(o *options) {
		o.registry = registry
	}
}

// WithStore shares an existing value store with the controller.
func WithStore(s *store.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

// WithBridge connects the engine to a host bridge. Inbound handlers are
// registered and controller output is published through it.
func WithBridge(b bridge.Bridge) Option {
	return func(o *options) {
		o.bridge = b
	}
}

// New wires an engine rendering into container.
func New(container engine.Container, opts ...Option) *Engine {
	cfg := &options{}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}
	logger := cfg.logger
	if logger == nil {
		logger = zap.NewNop()
	}

	var factoryOpts []formengine.FactoryOption
	if cfg.registry != nil {
		factoryOpts = append(factoryOpts, formengine.WithFactoryRegistry(cfg.registry))
	}
	factory := formengine.NewFactory(factoryOpts...)

	controllerOpts := []lifecycle.Option{lifecycle.WithLogger(logger)}
	if cfg.settings != nil {
		controllerOpts = append(controllerOpts, lifecycle.WithSettings(*cfg.settings))
	}
	if cfg.recorder != nil {
		controllerOpts = append(controllerOpts, lifecycle.WithMetrics(cfg.recorder))
	}
	if cfg.store != nil {
		controllerOpts = append(controllerOpts, lifecycle.WithStore(cfg.store))
	}

	e := &Engine{
		factory:    factory,
		controller: lifecycle.New(factory, container, controllerOpts...),
	}
	if cfg.bridge != nil {
		e.adapter = bridge.NewAdapter(cfg.bridge, e.controller, bridge.WithLogger(logger))
		e.adapter.Register()
	}
	return e
}

// Controller returns the lifecycle controller.
func (e *Engine) Controller() *lifecycle.Controller { return e.controller }

// Factory returns the form engine factory.
func (e *Engine) Factory() *formengine.Factory { return e.factory }

// Adapter returns the bridge adapter, nil without WithBridge.
func (e *Engine) Adapter() *bridge.Adapter { return e.adapter }

// EmbeddedTemplates exposes the built-in HTML container templates so callers
// can extend them and pass the result to html.WithTemplatesFS.
func EmbeddedTemplates() fs.FS {
	return html.TemplatesFS()
}

// GenerateHTML renders a definition (JSON text, bytes, a map or a parsed
// Definition) to a standalone HTML document.
func GenerateHTML(input any, opts ...html.Option) ([]byte, error) {
	def, err := definition.Parse(input)
	if err != nil {
		return nil, err
	}
	survey, err := formengine.New(def)
	if err != nil {
		return nil, fmt.Errorf("surveysync: build survey: %w", err)
	}
	container, err := html.New(opts...)
	if err != nil {
		return nil, err
	}
	if title := def.Title(); title != "" {
		container.SetTitle(title)
	}
	if err := container.Bind(survey); err != nil {
		return nil, fmt.Errorf("surveysync: render survey: %w", err)
	}
	return []byte(container.HTML()), nil
}

// GenerateHTMLFromOperation derives a definition from the request body of an
// OpenAPI operation and renders it.
func GenerateHTMLFromOperation(ctx context.Context, document []byte, operationID string, opts ...html.Option) ([]byte, error) {
	conv, err := openapi.Load(ctx, document)
	if err != nil {
		return nil, err
	}
	def, err := conv.Definition(operationID)
	if err != nil {
		return nil, err
	}
	return GenerateHTML(def, opts...)
}
