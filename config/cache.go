package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/gophersatwork/versioning"
	"github.com/gophersatwork/versioning/rediscache"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/viper"
)

// Cache backends
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendRedis  = "redis"
)

// Cache cache config struct
type Cache struct {
	Backend string
	Dir     string
	Size    int
	Redis   *Redis
}

// Redis redis config struct
type Redis struct {
	Addr         string
	Username     string
	Password     string
	Db           int
	Namespace    string
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

func setCacheDefaults(v *viper.Viper) {
	v.SetDefault("cache.enabled", true)
	v.SetDefault("cache.ttl", "3600")
	v.SetDefault("cache.key", versioning.DefaultKeyPrefix)
	v.SetDefault("cache.backend", BackendMemory)
	v.SetDefault("cache.dir", ".cache/version")
	v.SetDefault("cache.size", versioning.DefaultMemoryCacheSize)
	v.SetDefault("cache.redis.addr", "localhost:6379")
	v.SetDefault("cache.redis.db", 0)
	v.SetDefault("cache.redis.namespace", "")
	v.SetDefault("cache.redis.dial_timeout", "2s")
	v.SetDefault("cache.redis.read_timeout", "1s")
	v.SetDefault("cache.redis.write_timeout", "1s")
}

func getCacheConfig(v *viper.Viper) *Cache {
	return &Cache{
		Backend: strings.ToLower(v.GetString("cache.backend")),
		Dir:     v.GetString("cache.dir"),
		Size:    v.GetInt("cache.size"),
		Redis: &Redis{
			Addr:         v.GetString("cache.redis.addr"),
			Username:     v.GetString("cache.redis.username"),
			Password:     v.GetString("cache.redis.password"),
			Db:           v.GetInt("cache.redis.db"),
			Namespace:    v.GetString("cache.redis.namespace"),
			DialTimeout:  v.GetDuration("cache.redis.dial_timeout"),
			ReadTimeout:  v.GetDuration("cache.redis.read_timeout"),
			WriteTimeout: v.GetDuration("cache.redis.write_timeout"),
		},
	}
}

// Open builds the configured backend. The returned cleanup releases
// connections; it is never nil. BackendNone yields versioning.NopCache.
func (c *Cache) Open() (versioning.Cache, func(), error) {
	cleanup := func() {}

	switch c.Backend {
	case BackendNone, "":
		return versioning.NopCache{}, cleanup, nil

	case BackendMemory:
		mem, err := versioning.NewMemoryCache(versioning.WithMemorySize(c.Size))
		if err != nil {
			return nil, cleanup, err
		}
		return mem, cleanup, nil

	case BackendFile:
		fc, err := versioning.OpenFileCache(c.Dir)
		if err != nil {
			return nil, cleanup, fmt.Errorf("file cache: %w", err)
		}
		return fc, cleanup, nil

	case BackendRedis:
		if c.Redis == nil || c.Redis.Addr == "" {
			return nil, cleanup, fmt.Errorf("redis: address is empty")
		}
		client := redis.NewClient(&redis.Options{
			Addr:         c.Redis.Addr,
			Username:     c.Redis.Username,
			Password:     c.Redis.Password,
			DB:           c.Redis.Db,
			DialTimeout:  c.Redis.DialTimeout,
			ReadTimeout:  c.Redis.ReadTimeout,
			WriteTimeout: c.Redis.WriteTimeout,
		})
		return rediscache.New(client, rediscache.WithNamespace(c.Redis.Namespace)), func() { _ = client.Close() }, nil

	default:
		return nil, cleanup, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}
