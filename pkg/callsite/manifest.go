package callsite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest lists the call sites of a set of host files.
//
//	files:
//	  - path: app.rb
//	    call_sites:
//	      - line: 12
//	        method: xquery
//	        shape: literal
//	        fragments: [{begin: 210, end: 244}]
//	        statement: {begin: 190, end: 270}
type Manifest struct {
	Files []File `yaml:"files" json:"files"`

	// Dir is the directory relative file paths are resolved against.
	Dir string `yaml:"-" json:"-"`
}

// File groups the call sites of one host file.
type File struct {
	Path      string     `yaml:"path" json:"path"`
	CallSites []CallSite `yaml:"call_sites" json:"call_sites"`
}

// LoadManifest reads a manifest from path. Relative file paths in it are
// resolved against the manifest's directory.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path) //nolint:gosec // path comes from the user's config
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	m, err := ParseManifest(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.Dir = filepath.Dir(path)
	return m, nil
}

// ParseManifest decodes manifest YAML.
func ParseManifest(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	for i, f := range m.Files {
		if f.Path == "" {
			return nil, fmt.Errorf("files[%d]: path is required", i)
		}
	}
	return &m, nil
}

// ResolvePath returns the file path of f on disk.
func (m *Manifest) ResolvePath(f File) string {
	if filepath.IsAbs(f.Path) || m.Dir == "" {
		return f.Path
	}
	return filepath.Join(m.Dir, f.Path)
}

// Paths returns the on-disk path of every file in the manifest.
func (m *Manifest) Paths() []string {
	paths := make([]string, 0, len(m.Files))
	for _, f := range m.Files {
		paths = append(paths, m.ResolvePath(f))
	}
	return paths
}

// CallSiteCount returns the total number of call sites.
func (m *Manifest) CallSiteCount() int {
	n := 0
	for _, f := range m.Files {
		n += len(f.CallSites)
	}
	return n
}

// ErrEmptyManifest is returned by Validate for a manifest without files.
var ErrEmptyManifest = errors.New("manifest lists no files")

// Validate checks that the manifest names at least one file.
func (m *Manifest) Validate() error {
	if len(m.Files) == 0 {
		return ErrEmptyManifest
	}
	return nil
}
