package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gophersatwork/versioning"
	"github.com/gophersatwork/versioning/rediscache"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "versioning.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, versioning.DefaultConfig(), cfg.Versioning)
	assert.Equal(t, BackendMemory, cfg.Cache.Backend)
	assert.Equal(t, versioning.DefaultMemoryCacheSize, cfg.Cache.Size)
	assert.Equal(t, "localhost:6379", cfg.Cache.Redis.Addr)
	assert.Equal(t, 2*time.Second, cfg.Cache.Redis.DialTimeout)
	assert.Equal(t, "warn", cfg.Logger.Level)
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
repository_path: /srv/app
fallback_version: v0.0.0
format: tag-commit
include_prefix: false
timeout: 2s
static_files: [version.txt, package.json]
cache:
  enabled: true
  ttl: 10m
  key: myapp
  backend: file
  dir: /tmp/versions
logger:
  level: debug
  format: json
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, versioning.Config{
		RepositoryPath: "/srv/app",
		Fallback:       "v0.0.0",
		CacheEnabled:   true,
		CacheTTL:       10 * time.Minute,
		IncludePrefix:  false,
		Format:         versioning.TagWithCommit,
		KeyPrefix:      "myapp",
		Timeout:        2 * time.Second,
		StaticFiles:    []string{"version.txt", "package.json"},
	}, cfg.Versioning)
	assert.Equal(t, BackendFile, cfg.Cache.Backend)
	assert.Equal(t, "/tmp/versions", cfg.Cache.Dir)
	assert.Equal(t, "json", cfg.Logger.Format)
}

func TestLoad_Environment(t *testing.T) {
	t.Setenv("VERSIONING_CACHE_ENABLED", "false")
	t.Setenv("VERSIONING_CACHE_TTL", "120")
	t.Setenv("VERSIONING_FORMAT", "commit")
	t.Setenv("APP_VERSION", "1.0.0-env")

	cfg, err := Load(writeConfig(t, "fallback_version: from-file\n"))
	require.NoError(t, err)

	assert.False(t, cfg.Versioning.CacheEnabled)
	assert.Equal(t, 2*time.Minute, cfg.Versioning.CacheTTL)
	assert.Equal(t, versioning.Commit, cfg.Versioning.Format)
	assert.Equal(t, "1.0.0-env", cfg.Versioning.Fallback, "environment beats the config file")
}

func TestLoad_Errors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "format: semver\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "cache:\n  ttl: soon\n"))
	require.Error(t, err)

	_, err = Load(writeConfig(t, "fallback_version: \"\"\n"))
	var ve *versioning.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestParseSeconds(t *testing.T) {
	tests := map[string]time.Duration{
		"":     0,
		"3600": time.Hour,
		"90s":  90 * time.Second,
		"1h5m": time.Hour + 5*time.Minute,
	}
	for in, want := range tests {
		got, err := parseSeconds(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}
}

func TestCache_Open(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		c, cleanup, err := (&Cache{Backend: BackendNone}).Open()
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, versioning.NopCache{}, c)
	})

	t.Run("memory", func(t *testing.T) {
		c, cleanup, err := (&Cache{Backend: BackendMemory, Size: 4}).Open()
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &versioning.MemoryCache{}, c)
	})

	t.Run("file", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "cache")
		c, cleanup, err := (&Cache{Backend: BackendFile, Dir: dir}).Open()
		require.NoError(t, err)
		defer cleanup()
		fc, ok := c.(*versioning.FileCache)
		require.True(t, ok)
		assert.Equal(t, dir, fc.Root())
	})

	t.Run("redis", func(t *testing.T) {
		c, cleanup, err := (&Cache{Backend: BackendRedis, Redis: &Redis{Addr: "127.0.0.1:1"}}).Open()
		require.NoError(t, err)
		defer cleanup()
		assert.IsType(t, &rediscache.Cache{}, c)
	})

	t.Run("redis without address", func(t *testing.T) {
		_, _, err := (&Cache{Backend: BackendRedis, Redis: &Redis{}}).Open()
		require.Error(t, err)
	})

	t.Run("unknown", func(t *testing.T) {
		_, cleanup, err := (&Cache{Backend: "memcached"}).Open()
		require.Error(t, err)
		assert.NotNil(t, cleanup)
	})
}

func TestConfig_Options(t *testing.T) {
	cfg, err := Load(writeConfig(t, "repository_path: /nonexistent/path\nfallback_version: v0.0.0\n"))
	require.NoError(t, err)

	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	svc, err := versioning.New(cfg.Options(versioning.NopCache{}, logger)...)
	require.NoError(t, err)
	assert.False(t, svc.Config().CacheEnabled, "NopCache turns caching off")

	mem, err := versioning.NewMemoryCache()
	require.NoError(t, err)
	svc, err = versioning.New(cfg.Options(mem, logger)...)
	require.NoError(t, err)
	assert.True(t, svc.Config().CacheEnabled)
	assert.Equal(t, "/nonexistent/path", svc.Config().RepositoryPath)
	assert.Equal(t, "v0.0.0", svc.Tag(t.Context()))
}

func TestLogger_NewLogger(t *testing.T) {
	logger, cleanup, err := (&Logger{Level: "debug", Format: "json", Output: "stdout"}).NewLogger()
	require.NoError(t, err)
	defer cleanup()
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	path := filepath.Join(t.TempDir(), "versioning.log")
	logger, cleanup, err = (&Logger{Level: "info", Output: "file", OutputFile: path}).NewLogger()
	require.NoError(t, err)
	logger.Info("hello")
	cleanup()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hello")

	_, _, err = (&Logger{Level: "loud"}).NewLogger()
	require.Error(t, err)

	_, _, err = (&Logger{Level: "info", Output: "file"}).NewLogger()
	require.Error(t, err)
}
