package versioning

import (
	"errors"
	"fmt"
	"time"
)

// Defaults
const (
	DefaultFallback  = "dev"
	DefaultCacheTTL  = time.Hour
	DefaultKeyPrefix = "app_version"
)

// Config holds every Service setting. The zero value is not usable; start
// from DefaultConfig.
type Config struct {
	RepositoryPath string        // directory git runs in; empty means the working directory
	Fallback       string        // returned when resolution fails
	CacheEnabled   bool          // consult and fill the cache
	CacheTTL       time.Duration // lifetime of cached versions; 0 = no expiry
	IncludePrefix  bool          // keep a leading "v"
	Format         Format        // default format for Current
	KeyPrefix      string        // cache keys are "<KeyPrefix>_<format>"
	Timeout        time.Duration // per git invocation
	StaticFiles    []string      // static version files; nil disables the lookup
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Fallback:      DefaultFallback,
		CacheEnabled:  true,
		CacheTTL:      DefaultCacheTTL,
		IncludePrefix: true,
		Format:        Tag,
		KeyPrefix:     DefaultKeyPrefix,
		Timeout:       DefaultTimeout,
	}
}

// Validate reports every invalid field at once.
func (c Config) Validate() error {
	var errs []error
	if c.Fallback == "" {
		errs = append(errs, errors.New("fallback version must not be empty"))
	}
	if c.CacheTTL < 0 {
		errs = append(errs, fmt.Errorf("cache ttl must not be negative, got %s", c.CacheTTL))
	}
	if !c.Format.Valid() {
		errs = append(errs, fmt.Errorf("unknown version format %d", int(c.Format)))
	}
	if c.KeyPrefix == "" {
		errs = append(errs, errors.New("cache key prefix must not be empty"))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	return newValidationError(errs)
}
