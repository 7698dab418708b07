package versioning

import (
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// NowFunc defines a function that returns the current time.
type NowFunc func() time.Time

// Option defines a function that configures a Service.
type Option func(*Service)

// WithConfig applies every field of cfg. Options given after it override individual fields.
func WithConfig(cfg Config) Option {
	return func(s *Service) {
		s.cfg = cfg
	}
}

// WithRepositoryPath sets the directory git runs in. The default is the current working directory.
func WithRepositoryPath(path string) Option {
	return func(s *Service) {
		s.cfg.RepositoryPath = path
	}
}

// WithFallback sets the version returned when resolution fails.
func WithFallback(version string) Option {
	return func(s *Service) {
		s.cfg.Fallback = version
	}
}

// WithFormat sets the format used by Service.Current and Service.Query.
func WithFormat(format Format) Option {
	return func(s *Service) {
		s.cfg.Format = format
	}
}

// WithIncludePrefix controls whether a leading "v" is kept on resolved versions.
func WithIncludePrefix(include bool) Option {
	return func(s *Service) {
		s.cfg.IncludePrefix = include
	}
}

// WithCache sets the cache backend and enables caching.
//
// Example:
//
//	cache, _ := versioning.OpenFileCache(".cache/version")
//	svc, err := versioning.New(versioning.WithCache(cache))
func WithCache(cache Cache) Option {
	return func(s *Service) {
		s.cache = cache
		s.cfg.CacheEnabled = cache != nil
	}
}

// WithCacheTTL sets how long resolved versions stay cached. Zero keeps them until evicted.
func WithCacheTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.cfg.CacheTTL = ttl
	}
}

// WithCacheDisabled turns caching off: every call resolves.
func WithCacheDisabled() Option {
	return func(s *Service) {
		s.cfg.CacheEnabled = false
	}
}

// WithKeyPrefix sets the prefix of cache keys. Keys are "<prefix>_<format>".
func WithKeyPrefix(prefix string) Option {
	return func(s *Service) {
		s.cfg.KeyPrefix = prefix
	}
}

// WithTimeout bounds each git invocation made by the default resolver.
func WithTimeout(d time.Duration) Option {
	return func(s *Service) {
		s.cfg.Timeout = d
	}
}

// WithStaticFiles enables static version files, checked after the cache and
// before git. With no names, DefaultStaticFiles are used.
func WithStaticFiles(files ...string) Option {
	return func(s *Service) {
		if len(files) == 0 {
			files = DefaultStaticFiles
		}
		s.cfg.StaticFiles = files
	}
}

// WithResolver replaces the git resolver. Mostly useful in tests.
func WithResolver(r Resolver) Option {
	return func(s *Service) {
		s.resolver = r
	}
}

// WithFs sets the filesystem static version files are read from.
func WithFs(fs afero.Fs) Option {
	return func(s *Service) {
		s.fs = fs
	}
}

// WithNowFunc sets the clock handed to the default resolver and memory cache.
func WithNowFunc(nowFunc NowFunc) Option {
	return func(s *Service) {
		s.nowFunc = nowFunc
	}
}

// WithLogger sets the logger. The default is logrus.StandardLogger().
func WithLogger(logger logrus.FieldLogger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}
