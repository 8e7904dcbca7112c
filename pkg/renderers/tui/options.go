package tui

import "go.uber.org/zap"

// Theme captures optional prefixes applied to messages printed through the
// driver.
type Theme struct {
	TitlePrefix string
	InfoPrefix  string
}

// Option configures the TUI container.
type Option func(*Container)

// WithPromptDriver overrides the prompt driver used by the container.
func WithPromptDriver(driver PromptDriver) Option {
	return func(c *Container) {
		if driver != nil {
			c.driver = driver
		}
	}
}

// WithLogger sets the container logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithTheme applies optional message prefixes.
func WithTheme(theme Theme) Option {
	return func(c *Container) {
		c.theme = theme
	}
}

// WithPageSize limits how many options select prompts show at once.
func WithPageSize(size int) Option {
	return func(c *Container) {
		if size > 0 {
			c.pageSize = size
		}
	}
}
