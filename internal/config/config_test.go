package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/pkg/logger"
)

// resetViper clears viper's global state between tests.
func resetViper() {
	viper.Reset()
}

func unsetEnvKeys(keys ...string) {
	for _, k := range keys {
		_ = os.Unsetenv(k)
	}
}

func writeTempYAML(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "matcher.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_DefaultsWithTreePathFromFile(t *testing.T) {
	resetViper()
	unsetEnvKeys("MATCHER_WORKER_POOL_SIZE", "MATCHER_OPS_ADDR")

	path := writeTempYAML(t, "tree:\n  path: /etc/matcher/tree.yaml\n")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Worker.PoolSize)
	assert.Equal(t, 256, cfg.Worker.QueueSize)
	assert.Equal(t, "/etc/matcher/tree.yaml", cfg.Tree.Path)
	assert.Equal(t, TreeFormatYAML, cfg.Tree.Format)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.Equal(t, ":9090", cfg.Ops.Addr)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	resetViper()

	yaml := `
worker:
  pool_size: 8
  queue_size: 1024
tree:
  path: /data/tree.json
  format: json
  poll_interval: 30s
log:
  level: debug
ops:
  addr: ":9191"
`
	path := writeTempYAML(t, yaml)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8, cfg.Worker.PoolSize)
	assert.Equal(t, 1024, cfg.Worker.QueueSize)
	assert.Equal(t, "/data/tree.json", cfg.Tree.Path)
	assert.Equal(t, TreeFormatJSON, cfg.Tree.Format)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, ":9191", cfg.Ops.Addr)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	resetViper()

	path := writeTempYAML(t, "worker:\n  pool_size: 4\ntree:\n  path: /data/tree.yaml\n")

	require.NoError(t, os.Setenv("MATCHER_WORKER_POOL_SIZE", "16"))
	t.Cleanup(func() { unsetEnvKeys("MATCHER_WORKER_POOL_SIZE") })

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 16, cfg.Worker.PoolSize, "env should override file")
}

func TestLoad_InvalidYAML(t *testing.T) {
	resetViper()

	path := writeTempYAML(t, "tree:\n  path: : broken\n")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_MissingTreePathFailsValidation(t *testing.T) {
	resetViper()

	path := writeTempYAML(t, "worker:\n  pool_size: 2\n")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_InvalidTreeFormatFailsValidation(t *testing.T) {
	resetViper()

	path := writeTempYAML(t, "tree:\n  path: /data/tree.yaml\n  format: xml\n")

	cfg, err := Load(path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestValidate_RejectsNonPositivePoolSize(t *testing.T) {
	cfg := &Config{
		Worker: WorkerConfig{PoolSize: 0, QueueSize: 1},
		Tree:   TreeConfig{Path: "/data/tree.yaml", Format: TreeFormatYAML},
		Log:    logger.Config{Level: "info"},
	}
	assert.Error(t, cfg.Validate())
}
