package main

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/querylint/internal/cli/config"
)

func TestMarkdownWriter(t *testing.T) {
	tests := []struct {
		name  string
		write func(w *MarkdownWriter)
		want  string
	}{
		{
			name:  "header",
			write: func(w *MarkdownWriter) { w.Header(2, "Usage") },
			want:  "## Usage\n\n",
		},
		{
			name:  "code block trims trailing newlines",
			write: func(w *MarkdownWriter) { w.CodeBlock("bash", "querylint analyze\n\n") },
			want:  "```bash\nquerylint analyze\n```\n\n",
		},
		{
			name: "table escapes pipes",
			write: func(w *MarkdownWriter) {
				w.Table([]string{"A", "B"}, [][]string{{"a|b", "c"}})
			},
			want: "| A | B |\n| --- | --- |\n| a\\|b | c |\n\n",
		},
		{
			name:  "empty table is skipped",
			write: func(w *MarkdownWriter) { w.Table([]string{"A"}, nil) },
			want:  "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := NewMarkdownWriter()
			tt.write(w)
			assert.Equal(t, tt.want, string(w.Bytes()))
		})
	}
}

func TestCleanExample(t *testing.T) {
	got := cleanExample("  querylint analyze\n    --fail-on error\n")
	assert.Equal(t, "querylint analyze\n  --fail-on error", got)
}

// koanfKeys lists the dotted keys of a struct's koanf tags, stopping at maps.
func koanfKeys(typ reflect.Type, prefix string) []string {
	var keys []string
	for i := range typ.NumField() {
		f := typ.Field(i)
		tag := f.Tag.Get("koanf")
		if tag == "" || tag == "-" {
			continue
		}
		if f.Type.Kind() == reflect.Struct {
			keys = append(keys, koanfKeys(f.Type, prefix+tag+".")...)
			continue
		}
		keys = append(keys, prefix+tag)
	}
	return keys
}

func TestConfigSchemaCoversConfig(t *testing.T) {
	documented := make(map[string]bool)
	for _, f := range getConfigSchema() {
		documented[f.Name] = true
	}
	for _, key := range koanfKeys(reflect.TypeOf(config.Config{}), "") {
		assert.True(t, documented[key], "config key %q is not documented", key)
	}
}

func TestGenerateLintDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateLintDocs(dir))

	index, err := os.ReadFile(filepath.Join(dir, "index.md"))
	require.NoError(t, err)
	assert.Contains(t, string(index), "[PF01](pf01.md)")

	page, err := os.ReadFile(filepath.Join(dir, "pf02.md"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "---\n"))
	assert.Contains(t, string(page), "**Needs schema:** yes")
}

func TestGenerateCLIDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, generateCLIDocs(dir))

	for _, name := range []string{"index.md", "analyze.md", "fix.md", "rules.md"} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
	analyze, err := os.ReadFile(filepath.Join(dir, "analyze.md"))
	require.NoError(t, err)
	assert.Contains(t, string(analyze), "`--fail-on`")
}
