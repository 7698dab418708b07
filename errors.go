package versioning

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors
var (
	// ErrNoRepository is returned when the repository path is missing or has no .git metadata.
	ErrNoRepository = errors.New("no git repository")

	// ErrCommandFailed is returned when git exits non-zero, times out, or prints nothing.
	ErrCommandFailed = errors.New("git command failed")

	// ErrCacheUnavailable is returned when a cache backend cannot serve a request.
	ErrCacheUnavailable = errors.New("cache unavailable")
)

// ErrorKind classifies failures that occur while resolving a version.
type ErrorKind int

const (
	// NoRepository means the path does not exist or lacks version-control metadata.
	NoRepository ErrorKind = iota + 1
	// CommandFailed means the git process failed, timed out, or produced no output.
	CommandFailed
	// CacheUnavailable means a cache operation returned an error.
	CacheUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case NoRepository:
		return "NoRepository"
	case CommandFailed:
		return "CommandFailed"
	case CacheUnavailable:
		return "CacheUnavailable"
	default:
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case NoRepository:
		return ErrNoRepository
	case CommandFailed:
		return ErrCommandFailed
	case CacheUnavailable:
		return ErrCacheUnavailable
	default:
		return nil
	}
}

// ResolveError describes a failed resolution.
type ResolveError struct {
	Kind   ErrorKind
	Path   string
	Format Format
	Stderr string // first line of git's stderr, if any
	Err    error
}

// Error implements the error interface.
func (e *ResolveError) Error() string {
	reason := e.Kind.String()
	if s := e.Kind.sentinel(); s != nil {
		reason = s.Error()
	}

	var buf strings.Builder
	fmt.Fprintf(&buf, "resolve %s version in %q: %s", e.Format, e.Path, reason)
	if e.Stderr != "" {
		fmt.Fprintf(&buf, ": %s", e.Stderr)
	}
	if e.Err != nil {
		fmt.Fprintf(&buf, ": %v", e.Err)
	}
	return buf.String()
}

// Unwrap returns the underlying cause.
func (e *ResolveError) Unwrap() error {
	return e.Err
}

// Is makes errors.Is(err, ErrNoRepository) and friends match on Kind.
func (e *ResolveError) Is(target error) bool {
	s := e.Kind.sentinel()
	return s != nil && target == s
}

// CacheError wraps a failure returned by a Cache implementation.
type CacheError struct {
	Op  string // "get", "set" or "delete"
	Key string
	Err error
}

// Error implements the error interface.
func (e *CacheError) Error() string {
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying cause.
func (e *CacheError) Unwrap() error {
	return e.Err
}

// Is matches ErrCacheUnavailable.
func (e *CacheError) Is(target error) bool {
	return target == ErrCacheUnavailable
}

// KindOf reports the ErrorKind carried by err, or zero when err is not a resolution or cache error.
func KindOf(err error) ErrorKind {
	var re *ResolveError
	if errors.As(err, &re) {
		return re.Kind
	}
	var ce *CacheError
	if errors.As(err, &ce) {
		return CacheUnavailable
	}
	return 0
}

// ValidationError represents one or more invalid configuration values.
type ValidationError struct {
	Errors []error
}

// Error implements the error interface.
func (ve *ValidationError) Error() string {
	if len(ve.Errors) == 0 {
		return "validation failed"
	}
	if len(ve.Errors) == 1 {
		return fmt.Sprintf("validation failed: %v", ve.Errors[0])
	}

	var buf strings.Builder
	buf.WriteString(fmt.Sprintf("validation failed with %d errors:\n", len(ve.Errors)))
	for i, err := range ve.Errors {
		fmt.Fprintf(&buf, "  %d. %v\n", i+1, err)
	}
	return buf.String()
}

// Unwrap returns the underlying errors for use with errors.Is and errors.As.
func (ve *ValidationError) Unwrap() []error {
	return ve.Errors
}

// newValidationError creates a ValidationError from a slice of errors.
// Returns nil if the slice is empty.
func newValidationError(errs []error) error {
	if len(errs) == 0 {
		return nil
	}
	return &ValidationError{Errors: errs}
}
