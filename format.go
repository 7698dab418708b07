package versioning

import (
	"fmt"
	"strings"
)

// Format selects which git query produces the version string.
type Format int

const (
	// Tag is the most recent reachable tag, without any suffix.
	Tag Format = iota
	// Full is the most recent tag with a distance/hash suffix when HEAD is not exactly on it.
	Full
	// Commit is the short hash of HEAD.
	Commit
	// TagWithCommit is the most recent tag, or the short hash when no tag exists.
	TagWithCommit
)

// Formats returns every supported format in declaration order.
func Formats() []Format {
	return []Format{Tag, Full, Commit, TagWithCommit}
}

// String returns the textual name of the format, as used in cache keys and configuration.
func (f Format) String() string {
	switch f {
	case Tag:
		return "tag"
	case Full:
		return "full"
	case Commit:
		return "commit"
	case TagWithCommit:
		return "tag-commit"
	default:
		return fmt.Sprintf("format(%d)", int(f))
	}
}

// Valid reports whether f is one of the supported formats.
func (f Format) Valid() bool {
	return f >= Tag && f <= TagWithCommit
}

// ParseFormat converts a textual format name into a Format.
// Matching is case-insensitive; "tag_commit" and "tagwithcommit" are accepted aliases.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "tag", "":
		return Tag, nil
	case "full":
		return Full, nil
	case "commit":
		return Commit, nil
	case "tag-commit", "tag_commit", "tagwithcommit":
		return TagWithCommit, nil
	default:
		return Tag, fmt.Errorf("unknown version format %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (f Format) MarshalText() ([]byte, error) {
	if !f.Valid() {
		return nil, fmt.Errorf("unknown version format %d", int(f))
	}
	return []byte(f.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (f *Format) UnmarshalText(text []byte) error {
	parsed, err := ParseFormat(string(text))
	if err != nil {
		return err
	}
	*f = parsed
	return nil
}

// gitArgs returns the git arguments that follow "-C <path>" for the format.
func (f Format) gitArgs() []string {
	switch f {
	case Full:
		return []string{"describe", "--tags"}
	case Commit:
		return []string{"rev-parse", "--short", "HEAD"}
	case TagWithCommit:
		return []string{"describe", "--tags", "--always"}
	default:
		return []string{"describe", "--tags", "--abbrev=0"}
	}
}
