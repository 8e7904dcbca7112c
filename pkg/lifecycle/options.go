package lifecycle

import (
	"go.uber.org/zap"

	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/store"
)

// Option customises the controller configuration.
type Option func(*Controller)

// WithLogger sets the logger. The controller names it "lifecycle".
func WithLogger(logger *zap.Logger) Option {
	return func(c *Controller) {
		c.logger = logger
	}
}

// WithSettings overrides the rendering settings applied before each
// construction.
func WithSettings(settings engine.Settings) Option {
	return func(c *Controller) {
		c.settings = settings
	}
}

// WithStore injects the value store, letting callers share one across
// controllers or inspect it.
func WithStore(s *store.Store) Option {
	return func(c *Controller) {
		c.store = s
	}
}

// WithMetrics installs a recorder for load, mutation and emit outcomes.
func WithMetrics(recorder Recorder) Option {
	return func(c *Controller) {
		c.metrics = recorder
	}
}

// WithEmitter sets the outbound sink for surveyData and selectedChoice.
func WithEmitter(emitter Emitter) Option {
	return func(c *Controller) {
		c.emitter = emitter
	}
}

func (c *Controller) applyDefaults() {
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("lifecycle")
	if c.store == nil {
		c.store = store.New()
	}
	if c.metrics == nil {
		c.metrics = noopRecorder{}
	}
	if c.settings == (engine.Settings{}) {
		c.settings = engine.DefaultSettings()
	}
}
