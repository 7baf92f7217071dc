package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/2beens/gymcoach/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfig = `
[development]
host = "localhost"
port = 9000
metrics_port = 2112
log_level = "debug"
log_to_stdout = true
storage_backend = "memory"
memory_cache_size = 1048576

[development.motion]
threshold = 1.7
min_rep_interval = "400ms"
calibration_countdown = "2s"

[production]
host = "0.0.0.0"
port = 9000
storage_backend = "redis"
redis_host = "redis"
redis_port = "6379"
rate_limit_per_minute = 120
log_format_json = true
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, testConfig)

	dev, err := config.Load("development", path)
	require.NoError(t, err)
	assert.Equal(t, "localhost", dev.Host)
	assert.Equal(t, 9000, dev.Port)
	assert.Equal(t, config.StorageBackendMemory, dev.StorageBackend)
	assert.Equal(t, 1048576, dev.MemoryCacheSize)
	assert.Equal(t, 1.7, dev.Motion.Threshold)
	assert.Equal(t, 400*time.Millisecond, dev.Motion.MinRepInterval.Duration)
	assert.Equal(t, 2*time.Second, dev.Motion.CalibrationCountdown.Duration)
	assert.Zero(t, dev.Motion.DetectionDelay.Duration)

	prod, err := config.Load("prod", path)
	require.NoError(t, err)
	assert.Equal(t, config.StorageBackendRedis, prod.StorageBackend)
	assert.Equal(t, 120, prod.RateLimitPerMinute)
	assert.True(t, prod.LogFormatJSON)
}

func TestLoad_Errors(t *testing.T) {
	_, err := config.Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	path := writeConfig(t, testConfig)
	_, err = config.Load("staging", path)
	assert.EqualError(t, err, "unknown env: staging")

	path = writeConfig(t, "[production]\nport = 9000\n")
	_, err = config.Load("dev", path)
	assert.Error(t, err)

	path = writeConfig(t, "[development]\nport = 9000\nstorage_backend = \"sqlite\"\n")
	_, err = config.Load("dev", path)
	assert.ErrorContains(t, err, "unknown storage backend: sqlite")

	path = writeConfig(t, "[development]\nport = 9000\nrate_limit_per_minute = 10\n")
	_, err = config.Load("dev", path)
	assert.ErrorContains(t, err, "needs the redis storage backend")

	path = writeConfig(t, "[development]\nport = 9000\n[development.motion]\nmin_rep_interval = \"soon\"\n")
	_, err = config.Load("dev", path)
	assert.Error(t, err)
}

func TestValidate_DefaultsBackend(t *testing.T) {
	cfg := &config.Config{Port: 8080}
	require.NoError(t, cfg.Validate())
	assert.Equal(t, config.StorageBackendMemory, cfg.StorageBackend)
}
