// Package config loads versioning settings from a config file and the
// environment using viper.
//
// Recognized keys (YAML shown, any viper format works):
//
//	repository_path: /srv/app
//	fallback_version: dev        # env APP_VERSION or VERSIONING_FALLBACK_VERSION
//	format: tag                  # env VERSIONING_FORMAT
//	include_prefix: true
//	timeout: 5s
//	static_files: [version.txt]
//	cache:
//	  enabled: true              # env VERSIONING_CACHE_ENABLED
//	  ttl: 3600                  # seconds or a duration; env VERSIONING_CACHE_TTL
//	  key: app_version
//	  backend: memory            # none | memory | file | redis
//	  dir: .cache/version
//	  size: 128
//	  redis:
//	    addr: localhost:6379
//	logger:
//	  level: info
//	  format: text
//	  output: stderr
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gophersatwork/versioning"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "VERSIONING"

// Config is the full configuration of a versioning deployment.
type Config struct {
	Versioning versioning.Config
	Cache      *Cache
	Logger     *Logger
	Viper      *viper.Viper
}

// New returns a viper instance with defaults and environment bindings set.
func New() *viper.Viper {
	v := viper.New()
	defaults := versioning.DefaultConfig()

	v.SetDefault("repository_path", "")
	v.SetDefault("fallback_version", defaults.Fallback)
	v.SetDefault("format", defaults.Format.String())
	v.SetDefault("include_prefix", defaults.IncludePrefix)
	v.SetDefault("timeout", defaults.Timeout.String())
	v.SetDefault("static_files", []string{})
	setCacheDefaults(v)
	setLoggerDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	// APP_VERSION predates the prefixed variables and wins over the default.
	_ = v.BindEnv("fallback_version", EnvPrefix+"_FALLBACK_VERSION", "APP_VERSION")

	return v
}

// Load reads configPath, or searches the default locations when it is empty.
// A missing config file is not an error when searching; defaults and
// environment variables still apply.
func Load(configPath string) (*Config, error) {
	return LoadWith(New(), configPath)
}

// LoadWith is Load on a caller-provided viper instance, e.g. one with flags bound.
func LoadWith(v *viper.Viper, configPath string) (*Config, error) {
	if configPath != "" {
		v.SetConfigFile(configPath)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else {
		v.SetConfigName("versioning")
		v.AddConfigPath(".")
		v.AddConfigPath(filepath.Join("$HOME", ".config", "versioning"))
		v.AddConfigPath("/etc/versioning")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	vc, err := getVersioningConfig(v)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Versioning: vc,
		Cache:      getCacheConfig(v),
		Logger:     getLoggerConfig(v),
		Viper:      v,
	}

	if err := cfg.Versioning.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func getVersioningConfig(v *viper.Viper) (versioning.Config, error) {
	format, err := versioning.ParseFormat(v.GetString("format"))
	if err != nil {
		return versioning.Config{}, err
	}

	ttl, err := parseSeconds(v.GetString("cache.ttl"))
	if err != nil {
		return versioning.Config{}, fmt.Errorf("cache.ttl: %w", err)
	}

	timeout, err := parseSeconds(v.GetString("timeout"))
	if err != nil {
		return versioning.Config{}, fmt.Errorf("timeout: %w", err)
	}

	var static []string
	if files := v.GetStringSlice("static_files"); len(files) > 0 {
		static = files
	}

	return versioning.Config{
		RepositoryPath: v.GetString("repository_path"),
		Fallback:       v.GetString("fallback_version"),
		CacheEnabled:   v.GetBool("cache.enabled"),
		CacheTTL:       ttl,
		IncludePrefix:  v.GetBool("include_prefix"),
		Format:         format,
		KeyPrefix:      v.GetString("cache.key"),
		Timeout:        timeout,
		StaticFiles:    static,
	}, nil
}

// parseSeconds accepts a bare integer (seconds) or a Go duration string.
func parseSeconds(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(s)
}

// Options converts the configuration into service options around an opened cache.
// A nil cache, a disabled cache or BackendNone turn caching off.
func (c *Config) Options(cache versioning.Cache, logger logrus.FieldLogger) []versioning.Option {
	options := []versioning.Option{versioning.WithConfig(c.Versioning)}

	if _, nop := cache.(versioning.NopCache); cache == nil || nop || !c.Versioning.CacheEnabled {
		options = append(options, versioning.WithCacheDisabled())
	} else {
		options = append(options, versioning.WithCache(cache))
	}

	if logger != nil {
		options = append(options, versioning.WithLogger(logger))
	}
	return options
}
