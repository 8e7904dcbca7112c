package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":8090", cfg.Addr)
	require.Equal(t, "ws://localhost:8090/bridge", cfg.BridgeURL)
	require.Equal(t, "info", cfg.LogLevel)
	require.Equal(t, "json", cfg.LogFormat)
	require.True(t, cfg.DropdownSearch)
	require.Equal(t, 10*time.Second, cfg.HandshakeTimeout)
	require.True(t, cfg.EngineSettings().Dropdown.SearchEnabled)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("SURVEYSYNC_ADDR", "127.0.0.1:9000")
	t.Setenv("SURVEYSYNC_DROPDOWN_SEARCH", "false")
	t.Setenv("SURVEYSYNC_LOG_FORMAT", "console")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.Addr)
	require.Equal(t, "console", cfg.LogFormat)
	require.False(t, cfg.EngineSettings().Dropdown.SearchEnabled)
}

func TestLoad_EnvFileDoesNotOverride(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(file, []byte("SURVEYSYNC_THEME=night\nSURVEYSYNC_LOG_LEVEL=debug\n"), 0o600))
	t.Cleanup(func() {
		os.Unsetenv("SURVEYSYNC_THEME")
	})
	t.Setenv("SURVEYSYNC_LOG_LEVEL", "warn")

	cfg, err := Load(filepath.Join(dir, "missing.env"), file)
	require.NoError(t, err)
	require.Equal(t, "night", cfg.Theme)
	require.Equal(t, "warn", cfg.LogLevel)
}

func TestLoad_InvalidFormat(t *testing.T) {
	t.Setenv("SURVEYSYNC_LOG_FORMAT", "xml")
	_, err := Load()
	require.ErrorContains(t, err, "unsupported log format")
}
