package formengine

import (
	"github.com/goliatone/go-surveysync/pkg/definition"
	"github.com/goliatone/go-surveysync/pkg/engine"
)

// Factory builds surveys with the most recently configured settings.
type Factory struct {
	settings engine.Settings
	registry *Registry
	built    int
}

var _ engine.Factory = (*Factory)(nil)

// FactoryOption customises a Factory.
type FactoryOption func(*Factory)

// WithFactoryRegistry sets the kind registry used by every survey.
func WithFactoryRegistry(registry *Registry) FactoryOption {
	return func(f *Factory) {
		if registry != nil {
			f.registry = registry
		}
	}
}

// NewFactory returns a factory using the default settings.
func NewFactory(opts ...FactoryOption) *Factory {
	f := &Factory{
		settings: engine.DefaultSettings(),
		registry: defaultRegistry,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

func (f *Factory) Configure(settings engine.Settings) {
	f.settings = settings
}

// Settings returns the last configured settings.
func (f *Factory) Settings() engine.Settings { return f.settings }

func (f *Factory) New(def definition.Definition) (engine.Survey, error) {
	survey, err := New(def, WithSettings(f.settings), WithRegistry(f.registry))
	if err != nil {
		return nil, err
	}
	f.built++
	return survey, nil
}

// Built reports how many surveys were constructed.
func (f *Factory) Built() int { return f.built }
