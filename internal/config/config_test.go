package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
document: models/office.yaml
listen: 127.0.0.1
port: 9090
autosave: true
projector:
  enabled: false
  timeout: 500ms
`), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "models/office.yaml", cfg.Document)
	require.Equal(t, "127.0.0.1", cfg.Addr)
	require.Equal(t, 9090, cfg.Port)
	require.True(t, cfg.Autosave)
	require.False(t, cfg.Projector.IsEnabled())
	require.Equal(t, 500*time.Millisecond, cfg.Projector.Timeout)
	require.Equal(t, "Model", cfg.ContextFilter)
}

func TestLoadDefaults(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("document: a.yaml\n"), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.True(t, cfg.Projector.IsEnabled())
	require.Equal(t, 2*time.Second, cfg.Projector.Timeout)
	require.False(t, cfg.Autosave)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}
