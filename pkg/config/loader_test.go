package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	viper.Reset()
	t.Chdir(t.TempDir())
	t.Setenv("HOME", t.TempDir())

	require.NoError(t, Load(""))

	assert.Equal(t, "disk", viper.GetString("storage.type"))
	assert.Equal(t, "sqlite", viper.GetString("meta.driver"))
	assert.Equal(t, 2*time.Second, viper.GetDuration("lock.timeout"))
	assert.Equal(t, 24*time.Hour, viper.GetDuration("cache.ttl"))
	assert.Empty(t, viper.GetString("cache.redis_url"))
	assert.Equal(t, slog.LevelWarn, LogLevel())
}

func TestLoad_FileAndEnv(t *testing.T) {
	viper.Reset()
	dir := t.TempDir()
	cfg := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte(`
storage:
  type: s3
s3:
  bucket: vault
log:
  level: debug
`), 0644))

	t.Setenv("GV_S3_BUCKET", "from-env")
	t.Setenv("GV_LOCK_TIMEOUT", "5s")

	require.NoError(t, Load(cfg))

	assert.Equal(t, "s3", viper.GetString("storage.type"))
	// 环境变量优先于配置文件
	assert.Equal(t, "from-env", viper.GetString("s3.bucket"))
	assert.Equal(t, 5*time.Second, viper.GetDuration("lock.timeout"))
	assert.Equal(t, slog.LevelDebug, LogLevel())
}

func TestLoad_BadFile(t *testing.T) {
	viper.Reset()
	cfg := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("storage: [unclosed"), 0644))

	err := Load(cfg)
	assert.ErrorContains(t, err, "fatal error config file")
}

func TestLogLevel_Unknown(t *testing.T) {
	viper.Reset()
	viper.Set("log.level", "loud")
	assert.Equal(t, slog.LevelWarn, LogLevel())
}
