// Package testutil provides test utilities for CLI testing.
package testutil

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"

	"github.com/leapstack-labs/querylint/internal/cli/output"
)

// HostSource is the host file of the test project. Line 1 selects every
// column with an unindexed filter, line 2 passes a variable.
const HostSource = "isu = db.xquery('SELECT * FROM isu WHERE jia_user_id = ?', user_id).first\n" +
	"rows = db.xquery(query)\n"

// HostSQL is the literal SQL on line 1 of HostSource.
const HostSQL = "SELECT * FROM isu WHERE jia_user_id = ?"

// SchemaYAML is the static schema of the test project.
const SchemaYAML = `tables:
  isu:
    columns: [id, jia_isu_uuid, jia_user_id, name]
    primary_key: [id]
`

// Project is a temporary querylint project.
type Project struct {
	Dir      string
	Host     string // host file
	Manifest string
	Schema   string
}

// SetupTestProject creates a temporary project with a host file, its
// manifest and a static schema.
func SetupTestProject(t *testing.T) *Project {
	t.Helper()

	dir := t.TempDir()
	p := &Project{
		Dir:      dir,
		Host:     filepath.Join(dir, "app.rb"),
		Manifest: filepath.Join(dir, "querylint.manifest.yaml"),
		Schema:   filepath.Join(dir, "schema.yaml"),
	}

	begin := strings.Index(HostSource, HostSQL)
	manifest := fmt.Sprintf(`files:
  - path: app.rb
    call_sites:
      - line: 1
        method: xquery
        shape: literal
        fragments: [{begin: %d, end: %d}]
      - line: 2
        method: xquery
        shape: variable
`, begin, begin+len(HostSQL))

	WriteFile(t, p.Host, HostSource)
	WriteFile(t, p.Manifest, manifest)
	WriteFile(t, p.Schema, SchemaYAML)
	return p
}

// WriteFile writes content to path, failing the test on error.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// ReadFile returns the content of path, failing the test on error.
func ReadFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path) //nolint:gosec // test fixture
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

// TestRenderer wraps a Renderer for testing with captured output buffers.
type TestRenderer struct {
	*output.Renderer
	Out    *bytes.Buffer
	ErrOut *bytes.Buffer
}

// NewTestRenderer creates a new test renderer with the specified mode and TTY state.
func NewTestRenderer(mode output.Mode, isTTY bool) *TestRenderer {
	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	return &TestRenderer{
		Renderer: output.NewRendererWithTTY(out, errOut, isTTY, mode),
		Out:      out,
		ErrOut:   errOut,
	}
}

// NewTestRendererText creates a new test renderer in text mode (simulated TTY).
func NewTestRendererText() *TestRenderer {
	return NewTestRenderer(output.ModeText, true)
}

// NewTestRendererJSON creates a new test renderer in JSON mode.
func NewTestRendererJSON() *TestRenderer {
	return NewTestRenderer(output.ModeJSON, false)
}

// Output returns the stdout output as a string.
func (tr *TestRenderer) Output() string {
	return tr.Out.String()
}

// ErrorOutput returns the stderr output as a string.
func (tr *TestRenderer) ErrorOutput() string {
	return tr.ErrOut.String()
}

// Reset clears both output buffers.
func (tr *TestRenderer) Reset() {
	tr.Out.Reset()
	tr.ErrOut.Reset()
}

var ansiPattern = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// AssertNoANSI checks that a string contains no ANSI escape codes.
func AssertNoANSI(t *testing.T, s string) {
	t.Helper()
	if ansiPattern.MatchString(s) {
		t.Errorf("string contains ANSI escape codes: %q", s)
	}
}

// StripANSI removes ANSI escape codes from s.
func StripANSI(s string) string {
	return ansiPattern.ReplaceAllString(s, "")
}
