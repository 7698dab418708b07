package versioning

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"golang.org/x/sync/singleflight"
)

// Query describes one version request.
// RepositoryPath may be empty to use the service's repository path.
//
// Cache keys depend on the format only. A service queried for several
// repositories shares one cached value per format between them; use a
// separate Service (or key prefix) per repository.
type Query struct {
	RepositoryPath string
	Format         Format
	IncludePrefix  bool
}

// Stats counts what the Service has done since it was created.
type Stats struct {
	Hits        int64 // answered from the cache
	Misses      int64 // cache consulted without a usable value
	Resolutions int64 // resolver invocations
	StaticHits  int64 // answered from a static version file
	Fallbacks   int64 // resolution failed and the fallback was returned
	CacheErrors int64 // cache operations that returned an error
}

type counters struct {
	hits, misses, resolutions, staticHits, fallbacks, cacheErrors atomic.Int64
}

// Service resolves version strings with caching and fallback.
// A Service is safe for concurrent use when its Cache is.
type Service struct {
	cfg      Config
	cache    Cache
	resolver Resolver
	static   *StaticSource
	fs       afero.Fs
	nowFunc  NowFunc
	logger   logrus.FieldLogger
	flight   singleflight.Group
	counters counters
}

// New creates a Service. Without options it resolves tags from the working
// directory, caches them in memory for an hour and falls back to "dev".
func New(options ...Option) (*Service, error) {
	s := &Service{
		cfg:     DefaultConfig(),
		fs:      afero.NewOsFs(),
		nowFunc: time.Now,
		logger:  logrus.StandardLogger(),
	}

	for _, option := range options {
		option(s)
	}

	if err := s.cfg.Validate(); err != nil {
		return nil, err
	}

	if s.cfg.RepositoryPath == "" {
		if wd, err := os.Getwd(); err == nil {
			s.cfg.RepositoryPath = wd
		}
	}

	if s.resolver == nil {
		s.resolver = NewGitResolver(WithGitTimeout(s.cfg.Timeout), WithGitNowFunc(s.nowFunc))
	}

	if s.cache == nil {
		if s.cfg.CacheEnabled {
			mem, err := NewMemoryCache(WithMemoryNowFunc(s.nowFunc))
			if err != nil {
				return nil, err
			}
			s.cache = mem
		} else {
			s.cache = NopCache{}
		}
	}

	if s.cfg.StaticFiles != nil {
		s.static = NewStaticSource(s.fs, s.cfg.StaticFiles...)
	}

	return s, nil
}

// Config returns the effective configuration.
func (s *Service) Config() Config {
	return s.cfg
}

// Query builds a Query for format from the service defaults.
func (s *Service) Query(format Format) Query {
	return Query{
		RepositoryPath: s.cfg.RepositoryPath,
		Format:         format,
		IncludePrefix:  s.cfg.IncludePrefix,
	}
}

// Version returns the version for q. It never fails: any resolution error
// yields the configured fallback, and cache errors only cost a cache hit.
//
// The cache holds the version as resolved; the "v" prefix is handled per
// query. Concurrent calls that miss on the same key share a single
// resolution, which is detached from caller cancellation. A caller whose
// context ends first gets the fallback, and nothing is cached for it.
func (s *Service) Version(ctx context.Context, q Query) string {
	if !q.Format.Valid() {
		q.Format = s.cfg.Format
	}
	if q.RepositoryPath == "" {
		q.RepositoryPath = s.cfg.RepositoryPath
	}

	key := s.cacheKey(q.Format)

	if s.cfg.CacheEnabled {
		if v, ok := s.cacheGet(ctx, key); ok {
			return s.normalize(v, q.IncludePrefix)
		}
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan(key+"\x00"+q.RepositoryPath, func() (any, error) {
		raw := s.resolve(flightCtx, q)
		if s.cfg.CacheEnabled {
			s.cacheSet(flightCtx, key, raw)
		}
		return raw, nil
	})

	select {
	case res := <-ch:
		return s.normalize(res.Val.(string), q.IncludePrefix)
	case <-ctx.Done():
		s.counters.fallbacks.Add(1)
		s.logger.WithFields(logrus.Fields{"path": q.RepositoryPath, "format": q.Format.String()}).
			WithError(ctx.Err()).Debug("caller gave up before resolution finished")
		return s.cfg.Fallback
	}
}

// Current returns the version in the configured default format.
func (s *Service) Current(ctx context.Context) string {
	return s.Version(ctx, s.Query(s.cfg.Format))
}

// Tag returns the most recent reachable tag.
func (s *Service) Tag(ctx context.Context) string {
	return s.Version(ctx, s.Query(Tag))
}

// Full returns git describe output, with distance and hash when HEAD is past the tag.
func (s *Service) Full(ctx context.Context) string {
	return s.Version(ctx, s.Query(Full))
}

// Commit returns the short hash of HEAD.
func (s *Service) Commit(ctx context.Context) string {
	return s.Version(ctx, s.Query(Commit))
}

// TagWithCommit returns the most recent tag, or the short hash when there is none.
func (s *Service) TagWithCommit(ctx context.Context) string {
	return s.Version(ctx, s.Query(TagWithCommit))
}

// ClearCache deletes the cached value of every format.
// A failing delete does not stop the others; all failures are joined in the result.
func (s *Service) ClearCache(ctx context.Context) error {
	var errs []error
	for _, format := range Formats() {
		key := s.cacheKey(format)
		if err := s.cache.Delete(ctx, key); err != nil {
			cerr := &CacheError{Op: "delete", Key: key, Err: err}
			s.counters.cacheErrors.Add(1)
			s.logger.WithFields(logrus.Fields{"op": cerr.Op, "key": key}).WithError(err).Warn("failed to clear cached version")
			errs = append(errs, cerr)
		}
	}
	return errors.Join(errs...)
}

// Stats returns a snapshot of the service counters.
func (s *Service) Stats() Stats {
	return Stats{
		Hits:        s.counters.hits.Load(),
		Misses:      s.counters.misses.Load(),
		Resolutions: s.counters.resolutions.Load(),
		StaticHits:  s.counters.staticHits.Load(),
		Fallbacks:   s.counters.fallbacks.Load(),
		CacheErrors: s.counters.cacheErrors.Load(),
	}
}

// cacheKey returns the cache key for format.
func (s *Service) cacheKey(format Format) string {
	return fmt.Sprintf("%s_%s", s.cfg.KeyPrefix, format)
}

// resolve answers q from a static file or the resolver, falling back on failure.
// The result is not normalized.
func (s *Service) resolve(ctx context.Context, q Query) string {
	log := s.logger.WithFields(logrus.Fields{"path": q.RepositoryPath, "format": q.Format.String()})

	// Static files carry a release version, never a commit hash.
	if s.static != nil && q.Format != Commit {
		v, file, found, err := s.static.Lookup(q.RepositoryPath)
		if err != nil {
			log.WithError(err).Debug("static version lookup reported errors")
		}
		if found {
			s.counters.staticHits.Add(1)
			log.WithField("file", file).Debug("version read from static file")
			return v
		}
	}

	s.counters.resolutions.Add(1)
	rv, err := s.resolver.Resolve(ctx, q.RepositoryPath, q.Format)
	if err == nil && rv.Raw == "" {
		err = &ResolveError{Kind: CommandFailed, Path: q.RepositoryPath, Format: q.Format, Err: errors.New("empty output")}
	}
	if err != nil {
		s.counters.fallbacks.Add(1)
		log.WithError(err).Debug("version resolution failed")
		log.WithField("fallback", s.cfg.Fallback).Info("using fallback version")
		return s.cfg.Fallback
	}

	return rv.Raw
}

// normalize strips a single leading "v" when the prefix is not wanted.
// The fallback is returned verbatim; a value that becomes empty is replaced by it.
func (s *Service) normalize(v string, includePrefix bool) string {
	if v == s.cfg.Fallback {
		return v
	}
	if !includePrefix {
		v = strings.TrimPrefix(v, "v")
	}
	if v == "" {
		s.counters.fallbacks.Add(1)
		return s.cfg.Fallback
	}
	return v
}

func (s *Service) cacheGet(ctx context.Context, key string) (string, bool) {
	v, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.counters.cacheErrors.Add(1)
		s.counters.misses.Add(1)
		s.logger.WithFields(logrus.Fields{"op": "get", "key": key}).WithError(err).Warn("cache unavailable, resolving without it")
		return "", false
	}
	if !ok || v == "" {
		s.counters.misses.Add(1)
		return "", false
	}
	s.counters.hits.Add(1)
	return v, true
}

func (s *Service) cacheSet(ctx context.Context, key, value string) {
	if err := s.cache.Set(ctx, key, value, s.cfg.CacheTTL); err != nil {
		s.counters.cacheErrors.Add(1)
		s.logger.WithFields(logrus.Fields{"op": "set", "key": key}).WithError(err).Warn("failed to cache version")
	}
}
