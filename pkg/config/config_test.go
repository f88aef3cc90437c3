package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "./data", cfg.Storage.DataDir)
	require.Equal(t, "info", cfg.Log.Level)
	require.Equal(t, "text", cfg.Log.Format)
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "relstore.yaml")
	content := []byte("storage:\n  data_dir: /tmp/relstore-data\nlog:\n  level: debug\n  format: json\n")
	require.NoError(t, os.WriteFile(path, content, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "/tmp/relstore-data", cfg.Storage.DataDir)
	require.Equal(t, "debug", cfg.Log.Level)
	require.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("RELSTORE_LOG_LEVEL", "warn")
	t.Setenv("RELSTORE_STORAGE_DATA_DIR", "/var/lib/relstore")

	cfg, err := Load("")
	require.NoError(t, err)
	require.Equal(t, "warn", cfg.Log.Level)
	require.Equal(t, "/var/lib/relstore", cfg.Storage.DataDir)
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := defaultConfig()
	cfg.Log.Level = "trace"
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsMismatchedPageSize(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.PageSize = cfg.Storage.PageSize * 2
	require.Error(t, cfg.Validate())
}

func TestValidateRejectsEmptyDataDir(t *testing.T) {
	cfg := defaultConfig()
	cfg.Storage.DataDir = ""
	require.Error(t, cfg.Validate())
}
