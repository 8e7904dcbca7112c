// Package config loads process settings for the surveysync binaries from the
// environment, optionally seeded from a .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"

	"github.com/goliatone/go-surveysync/pkg/engine"
)

// Config holds the settings shared by the host and client commands.
type Config struct {
	Addr       string `env:"SURVEYSYNC_ADDR,default=:8090"`
	BridgeURL  string `env:"SURVEYSYNC_BRIDGE_URL,default=ws://localhost:8090/bridge"`
	Definition string `env:"SURVEYSYNC_DEFINITION"`

	LogLevel  string `env:"SURVEYSYNC_LOG_LEVEL,default=info"`
	LogFormat string `env:"SURVEYSYNC_LOG_FORMAT,default=json"`

	DropdownSearch bool `env:"SURVEYSYNC_DROPDOWN_SEARCH,default=true"`

	Theme        string `env:"SURVEYSYNC_THEME"`
	ThemeVariant string `env:"SURVEYSYNC_THEME_VARIANT"`

	HandshakeTimeout time.Duration `env:"SURVEYSYNC_HANDSHAKE_TIMEOUT,default=10s"`
}

// Load reads envFiles (missing files are skipped) into the process
// environment without overriding variables already set, then decodes
// Config. Defaults apply when no variable is set at all.
func Load(envFiles ...string) (Config, error) {
	var present []string
	for _, file := range envFiles {
		if strings.TrimSpace(file) == "" {
			continue
		}
		if _, err := os.Stat(file); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return Config{}, fmt.Errorf("config: stat %s: %w", file, err)
		}
		present = append(present, file)
	}
	if len(present) > 0 {
		if err := godotenv.Load(present...); err != nil {
			return Config{}, fmt.Errorf("config: load env files: %w", err)
		}
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return Config{}, fmt.Errorf("config: decode environment: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks enumerated settings.
func (c Config) Validate() error {
	switch strings.ToLower(c.LogFormat) {
	case "json", "console":
	default:
		return fmt.Errorf("config: unsupported log format %q", c.LogFormat)
	}
	if strings.TrimSpace(c.Addr) == "" {
		return errors.New("config: listen address is required")
	}
	return nil
}

// EngineSettings derives the rendering settings applied to every survey.
func (c Config) EngineSettings() engine.Settings {
	settings := engine.DefaultSettings()
	settings.Dropdown.SearchEnabled = c.DropdownSearch
	return settings
}
