package versioning

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"
)

// Well-known static version files, in the order DefaultStaticFiles checks them.
const (
	VersionFile   = "version.txt"
	ComposerFile  = "composer.json"
	PackageFile   = "package.json"
	CargoFile     = "Cargo.toml"
	PyProjectFile = "pyproject.toml"
)

// DefaultStaticFiles lists the files checked when static lookup is enabled
// without an explicit list.
var DefaultStaticFiles = []string{VersionFile, ComposerFile, PackageFile, CargoFile, PyProjectFile}

// StaticSource reads a version string from files shipped alongside the
// application, for deployments without git metadata at runtime.
type StaticSource struct {
	fs    afero.Fs
	files []string
}

// NewStaticSource creates a source that checks files (relative names are
// resolved against the repository path) in order.
// An empty list means DefaultStaticFiles.
func NewStaticSource(fs afero.Fs, files ...string) *StaticSource {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if len(files) == 0 {
		files = DefaultStaticFiles
	}
	return &StaticSource{fs: fs, files: append([]string(nil), files...)}
}

// Lookup returns the first non-empty version found, the file it came from,
// and whether anything was found. Missing files are skipped; unreadable or
// malformed ones are reported through err but do not stop the search.
func (s *StaticSource) Lookup(dir string) (version, file string, found bool, err error) {
	var errs []error

	for _, name := range s.files {
		path := name
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, name)
		}

		exists, statErr := afero.Exists(s.fs, path)
		if statErr != nil {
			errs = append(errs, statErr)
			continue
		}
		if !exists {
			continue
		}

		data, readErr := afero.ReadFile(s.fs, path)
		if readErr != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", path, readErr))
			continue
		}

		v, parseErr := parseStaticVersion(name, data)
		if parseErr != nil {
			errs = append(errs, fmt.Errorf("parse %s: %w", path, parseErr))
			continue
		}
		if v != "" {
			return v, path, true, newValidationError(errs)
		}
	}

	return "", "", false, newValidationError(errs)
}

// parseStaticVersion extracts the version according to the file's extension.
func parseStaticVersion(name string, data []byte) (string, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		var manifest struct {
			Version string `json:"version"`
		}
		if err := json.Unmarshal(data, &manifest); err != nil {
			return "", err
		}
		return strings.TrimSpace(manifest.Version), nil

	case ".toml":
		var manifest struct {
			Version string `toml:"version"`
			Package struct {
				Version string `toml:"version"`
			} `toml:"package"`
			Project struct {
				Version string `toml:"version"`
			} `toml:"project"`
			Tool struct {
				Poetry struct {
					Version string `toml:"version"`
				} `toml:"poetry"`
			} `toml:"tool"`
		}
		if _, err := toml.Decode(string(data), &manifest); err != nil {
			return "", err
		}
		for _, v := range []string{manifest.Package.Version, manifest.Project.Version, manifest.Tool.Poetry.Version, manifest.Version} {
			if v = strings.TrimSpace(v); v != "" {
				return v, nil
			}
		}
		return "", nil

	default:
		sc := bufio.NewScanner(bytes.NewReader(data))
		for sc.Scan() {
			if line := strings.TrimSpace(sc.Text()); line != "" {
				return line, nil
			}
		}
		return "", sc.Err()
	}
}
